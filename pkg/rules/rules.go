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

// Package rules compiles declarative replacement rule files into transforms.
package rules

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"

	"github.com/ElonVolo/evcodeshift/pkg/text"
)

// 🎛️ Preset is one piece of compiler configuration
type Preset string

const (
	// PresetLiteral enables plain string rules. Always on.
	PresetLiteral Preset = "literal"
	// PresetRegexp enables regular expression rules, only when a file asks for it.
	PresetRegexp Preset = "regexp"
	// PresetHCL decodes .hcl rule files.
	PresetHCL Preset = "hcl"
	// PresetYAML decodes .yaml, .yml and .json rule files.
	PresetYAML Preset = "yaml"
)

// 📄 File is a decoded rule file
type File struct {
	// Parser is the parser the compiled transform asks for
	Parser string `yaml:"parser,omitempty" hcl:"parser,optional"`

	// Regexp asks for the regexp preset
	Regexp bool `yaml:"regexp,omitempty" hcl:"regexp,optional"`

	// Exclude adds globs to the hook's exclusion list for this file
	Exclude []string `yaml:"exclude,omitempty" hcl:"exclude,optional"`

	// Rules are applied in order
	Rules []text.ReplacementRule `yaml:"rules" hcl:"rule,block"`
}

// wantsRegexp reports whether the file needs the regexp preset.
func (f *File) wantsRegexp() bool {
	if f.Regexp {
		return true
	}
	for _, r := range f.Rules {
		if r.Regexp {
			return true
		}
	}
	return false
}

// 🔍 DialectPreset picks the decoder for a rule file by its extension
func DialectPreset(path string) (Preset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return PresetHCL, nil
	case ".yaml", ".yml", ".json":
		return PresetYAML, nil
	default:
		return "", errors.Errorf("unsupported rule file extension %q", filepath.Ext(path))
	}
}

// decode parses data with the dialect preset.
func decode(preset Preset, filename string, data []byte) (*File, error) {
	switch preset {
	case PresetHCL:
		return decodeHCL(filename, data)
	case PresetYAML:
		return decodeYAML(data)
	default:
		return nil, errors.Errorf("no decoder for preset %q", preset)
	}
}

func decodeYAML(data []byte) (*File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Errorf("decoding YAML: %w", err)
	}
	return &f, nil
}

func decodeHCL(filename string, data []byte) (*File, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filepath.Base(filename))
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Rule files may reference env.NAME
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": envObject(),
		},
	}

	var f File
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &f)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &f, nil
}

func envObject() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" || !hclIdentifier(name) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}

func hclIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
