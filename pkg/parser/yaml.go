package parser

import (
	"bytes"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// YAML parses documents into yaml.v3 nodes, keeping comments and key order.
type YAML struct {
	indent int
}

func init() {
	Register("yaml", func(cfg Config) (Parser, error) {
		return NewYAML(cfg)
	})
}

// NewYAML creates the yaml parser. cfg["indent"] sets the printed indent (default 2).
func NewYAML(cfg Config) (*YAML, error) {
	indent, err := configInt(cfg, "indent", 2)
	if err != nil {
		return nil, err
	}
	if indent <= 0 {
		return nil, errors.Errorf("indent must be positive, got %d", indent)
	}
	return &YAML{indent: indent}, nil
}

func (p *YAML) Name() string { return "yaml" }

func (p *YAML) Parse(source string) (any, error) {
	var doc yaml.Node
	decoder := yaml.NewDecoder(strings.NewReader(source))
	if err := decoder.Decode(&doc); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &doc, nil
}

func (p *YAML) Print(tree any) (string, error) {
	node, ok := tree.(*yaml.Node)
	if !ok {
		return "", errors.Errorf("yaml parser cannot print %T", tree)
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(p.indent)
	if err := encoder.Encode(node); err != nil {
		return "", errors.Errorf("printing YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", errors.Errorf("closing YAML encoder: %w", err)
	}
	return buf.String(), nil
}
