package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		parser    string
		cfg       Config
		wantName  string
		wantError fault.Kind
	}{
		{name: "default", parser: "", wantName: "tokens"},
		{name: "tokens", parser: "tokens", wantName: "tokens"},
		{name: "go", parser: "go", wantName: "go"},
		{name: "yaml", parser: "yaml", wantName: "yaml"},
		{name: "hcl", parser: "hcl", wantName: "hcl"},
		{name: "unknown", parser: "flowish", wantError: fault.KindConfiguration},
		{name: "bad_config", parser: "yaml", cfg: Config{"indent": "wide"}, wantError: fault.KindConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Resolve(tt.parser, tt.cfg)
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantError, fault.Classify(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
		})
	}
}

func TestResolverPreference(t *testing.T) {
	t.Run("transform_parser_wins", func(t *testing.T) {
		r, err := NewResolver("go", nil)
		require.NoError(t, err)

		p, err := r.Prepare("yaml", nil)
		require.NoError(t, err)
		assert.Equal(t, "go", p.Name())

		// an unknown batch parser is irrelevant once the transform decided
		p, err = r.Prepare("nope", nil)
		require.NoError(t, err)
		assert.Same(t, r.Preferred(), p)
	})

	t.Run("handle_wins_over_name", func(t *testing.T) {
		handle := NewGo(nil)
		r, err := NewResolver("yaml", handle)
		require.NoError(t, err)
		assert.Same(t, Parser(handle), r.Preferred())
	})

	t.Run("batch_decides", func(t *testing.T) {
		r, err := NewResolver("", nil)
		require.NoError(t, err)
		assert.Nil(t, r.Preferred())

		p, err := r.Prepare("hcl", nil)
		require.NoError(t, err)
		assert.Equal(t, "hcl", p.Name())

		_, err = r.Prepare("nope", nil)
		require.Error(t, err)
		assert.True(t, fault.IsFatal(err))
	})

	t.Run("bad_transform_parser", func(t *testing.T) {
		_, err := NewResolver("nope", nil)
		require.Error(t, err)
		assert.Equal(t, fault.KindConfiguration, fault.Classify(err))
	})
}

func TestTokensRoundTrip(t *testing.T) {
	sources := []string{
		"var firstWord = 'Hello ';\nvar secondWord = \"world\";",
		"function aFunction() {};",
		"// comment with words\nlet x = `tpl ${y}`; /* block\n comment */ z",
		"const n = 0x1f + 1e5 + 3.14;",
		"unterminated = 'oops\nnext",
		"héllo wörld",
		"",
	}
	p, err := NewTokens(nil)
	require.NoError(t, err)

	for _, src := range sources {
		tree, err := p.Parse(src)
		require.NoError(t, err)
		out, err := p.Print(tree)
		require.NoError(t, err)
		assert.Equal(t, src, out)
	}
}

func TestTokensClassification(t *testing.T) {
	p, err := NewTokens(nil)
	require.NoError(t, err)

	tree := p.Tokenize("var firstWord = 'Hello x'; // y\nfunction f1() { return 42 }")

	var idents []string
	for _, tok := range tree.Identifiers() {
		idents = append(idents, tok.Text)
	}
	assert.Equal(t, []string{"firstWord", "f1"}, idents)

	kinds := map[TokenKind][]string{}
	for _, tok := range tree.Tokens {
		kinds[tok.Kind] = append(kinds[tok.Kind], tok.Text)
	}
	assert.Equal(t, []string{"var", "function", "return"}, kinds[TokenKeyword])
	assert.Equal(t, []string{"'Hello x'"}, kinds[TokenString])
	assert.Equal(t, []string{"// y"}, kinds[TokenComment])
	assert.Equal(t, []string{"42"}, kinds[TokenNumber])
}

func TestTokensCustomKeywords(t *testing.T) {
	p, err := NewTokens(Config{"keywords": "def, end"})
	require.NoError(t, err)

	tree := p.Tokenize("def var end")
	require.Len(t, tree.Identifiers(), 1)
	assert.Equal(t, "var", tree.Identifiers()[0].Text)
}

func TestGoRoundTrip(t *testing.T) {
	p := NewGo(nil)
	tree, err := p.Parse("package main\n\n// hello\nfunc main() {}\n")
	require.NoError(t, err)

	gt := tree.(*GoTree)
	gt.File.Name.Name = "other"

	out, err := p.Print(tree)
	require.NoError(t, err)
	assert.Equal(t, "package other\n\n// hello\nfunc main() {}\n", out)

	_, err = p.Parse("package")
	require.Error(t, err)
}

func TestYAMLRoundTrip(t *testing.T) {
	p, err := NewYAML(nil)
	require.NoError(t, err)

	tree, err := p.Parse("a: 1\n# keep\nb: two\n")
	require.NoError(t, err)

	doc := tree.(*yaml.Node)
	require.Equal(t, yaml.DocumentNode, doc.Kind)

	out, err := p.Print(tree)
	require.NoError(t, err)
	assert.Contains(t, out, "# keep")
	assert.Contains(t, out, "b: two")

	_, err = p.Print("not a node")
	require.Error(t, err)
}

func TestHCLRoundTrip(t *testing.T) {
	p := NewHCL(nil)
	src := "name = \"a\"\n# note\nblock {\n  x = 1\n}\n"

	tree, err := p.Parse(src)
	require.NoError(t, err)
	out, err := p.Print(tree)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	_, err = p.Parse("block {")
	require.Error(t, err)
}
