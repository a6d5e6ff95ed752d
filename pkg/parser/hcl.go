package parser

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"gitlab.com/tozd/go/errors"
)

// HCL parses configuration into an hclwrite file, which keeps formatting
// and comments when printed.
type HCL struct {
	filename string
	format   bool
}

func init() {
	Register("hcl", func(cfg Config) (Parser, error) {
		return NewHCL(cfg), nil
	})
}

// NewHCL creates the hcl parser. cfg["format"] runs hclwrite.Format on print.
func NewHCL(cfg Config) *HCL {
	p := &HCL{filename: configString(cfg, "filename", "input.hcl")}
	if f, ok := cfg["format"].(bool); ok {
		p.format = f
	}
	return p
}

func (p *HCL) Name() string { return "hcl" }

func (p *HCL) Parse(source string) (any, error) {
	f, diags := hclwrite.ParseConfig([]byte(source), p.filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}
	return f, nil
}

func (p *HCL) Print(tree any) (string, error) {
	f, ok := tree.(*hclwrite.File)
	if !ok {
		return "", errors.Errorf("hcl parser cannot print %T", tree)
	}
	out := f.Bytes()
	if p.format {
		out = hclwrite.Format(out)
	}
	return string(out), nil
}
