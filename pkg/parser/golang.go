package parser

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"

	"gitlab.com/tozd/go/errors"
)

// GoTree is the result of the go parser.
type GoTree struct {
	Fset *token.FileSet
	File *ast.File
}

// Go parses Go source with the standard library's go/parser and prints
// it back with go/format.
type Go struct {
	mode parser.Mode
}

func init() {
	Register("go", func(cfg Config) (Parser, error) {
		return NewGo(cfg), nil
	})
}

// NewGo creates the go parser. Comments are kept unless cfg["comments"] is false.
func NewGo(cfg Config) *Go {
	mode := parser.ParseComments | parser.SkipObjectResolution
	if keep, ok := cfg["comments"].(bool); ok && !keep {
		mode = parser.SkipObjectResolution
	}
	return &Go{mode: mode}
}

func (p *Go) Name() string { return "go" }

func (p *Go) Parse(source string) (any, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "", source, p.mode)
	if err != nil {
		return nil, errors.Errorf("parsing go source: %w", err)
	}
	return &GoTree{Fset: fset, File: f}, nil
}

func (p *Go) Print(tree any) (string, error) {
	t, ok := tree.(*GoTree)
	if !ok {
		return "", errors.Errorf("go parser cannot print %T", tree)
	}
	var buf bytes.Buffer
	if err := format.Node(&buf, t.Fset, t.File); err != nil {
		return "", errors.Errorf("printing go source: %w", err)
	}
	return buf.String(), nil
}
