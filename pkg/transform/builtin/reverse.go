// Package builtin holds the transforms compiled into evcodeshift.
package builtin

import (
	"context"

	"gitlab.com/tozd/go/errors"

	"github.com/ElonVolo/evcodeshift/pkg/parser"
	"github.com/ElonVolo/evcodeshift/pkg/transform"
)

// ReverseIdentifiersName is the registry name of ReverseIdentifiers.
const ReverseIdentifiersName = "reverse-identifiers"

func init() {
	transform.Register(transform.Module{
		Name:       ReverseIdentifiersName,
		Func:       ReverseIdentifiers,
		ParserName: "tokens",
	})
}

// 🔁 ReverseIdentifiers reverses the name of every identifier in the file
func ReverseIdentifiers(ctx context.Context, req transform.Request, api transform.API, opts transform.Options) (string, error) {
	tree, err := api.Parser.Parse(req.Source)
	if err != nil {
		return "", errors.Errorf("parsing %s: %w", req.Path, err)
	}
	tokens, ok := tree.(*parser.TokenTree)
	if !ok {
		return "", errors.Errorf("reverse-identifiers needs the tokens parser, got %q", api.Parser.Name())
	}

	idents := tokens.Identifiers()
	for _, tok := range idents {
		tok.Text = reverse(tok.Text)
	}
	api.Stats("identifiers", len(idents))

	return api.Parser.Print(tokens)
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
