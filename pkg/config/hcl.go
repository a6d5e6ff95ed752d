// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"math/big"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	// Define HCL schema
	type hclConfig struct {
		Transform    string    `hcl:"transform,optional"`
		Dialect      string    `hcl:"dialect,optional"`
		Parser       string    `hcl:"parser,optional"`
		ParserConfig cty.Value `hcl:"parser_config,optional"`
		Dry          bool      `hcl:"dry,optional"`
		Print        bool      `hcl:"print,optional"`
		Workers      int       `hcl:"workers,optional"`
		ChunkSize    int       `hcl:"chunk_size,optional"`
		Include      []string  `hcl:"include,optional"`
		Ignore       []string  `hcl:"ignore,optional"`
		Extensions   []string  `hcl:"extensions,optional"`
		Options      cty.Value `hcl:"options,optional"`
		MetricsAddr  string    `hcl:"metrics_addr,optional"`
	}

	// Decode HCL
	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	parserConfig, err := ctyMap(hclCfg.ParserConfig)
	if err != nil {
		return nil, errors.Errorf("decoding parser_config: %w", err)
	}
	options, err := ctyMap(hclCfg.Options)
	if err != nil {
		return nil, errors.Errorf("decoding options: %w", err)
	}

	// Convert to model
	cfg := &Config{
		Transform:    hclCfg.Transform,
		Dialect:      hclCfg.Dialect,
		Parser:       hclCfg.Parser,
		ParserConfig: parserConfig,
		Dry:          hclCfg.Dry,
		Print:        hclCfg.Print,
		Workers:      hclCfg.Workers,
		ChunkSize:    hclCfg.ChunkSize,
		Include:      hclCfg.Include,
		Ignore:       hclCfg.Ignore,
		Extensions:   hclCfg.Extensions,
		Options:      options,
		MetricsAddr:  hclCfg.MetricsAddr,
	}

	return cfg, nil
}

// ctyMap converts an object or map value into plain Go values.
func ctyMap(v cty.Value) (map[string]any, error) {
	if v == cty.NilVal || v.IsNull() {
		return nil, nil
	}
	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, errors.Errorf("expected an object, got %s", ty.FriendlyName())
	}

	out := map[string]any{}
	for it := v.ElementIterator(); it.Next(); {
		k, elem := it.Element()
		goValue, err := ctyValue(elem)
		if err != nil {
			return nil, errors.Errorf("%s: %w", k.AsString(), err)
		}
		out[k.AsString()] = goValue
	}
	return out, nil
}

func ctyValue(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsKnown() {
		return nil, errors.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsObjectType() || ty.IsMapType():
		return ctyMap(v)
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			goValue, err := ctyValue(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, goValue)
		}
		return out, nil
	default:
		return nil, errors.Errorf("unsupported type %s", ty.FriendlyName())
	}
}
