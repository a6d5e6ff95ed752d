package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	TokenOther TokenKind = iota
	TokenIdent
	TokenKeyword
	TokenString
	TokenComment
	TokenNumber
)

// Token is one lexical token. Concatenating every token's Text gives back
// the original source.
type Token struct {
	Kind TokenKind
	Text string
}

// TokenTree is the result of the tokens parser.
type TokenTree struct {
	Tokens []Token
}

// Identifiers returns pointers to every identifier token so callers can rename in place.
func (t *TokenTree) Identifiers() []*Token {
	var out []*Token
	for i := range t.Tokens {
		if t.Tokens[i].Kind == TokenIdent {
			out = append(out, &t.Tokens[i])
		}
	}
	return out
}

// String prints the tree.
func (t *TokenTree) String() string {
	var b strings.Builder
	for _, tok := range t.Tokens {
		b.WriteString(tok.Text)
	}
	return b.String()
}

var defaultKeywords = []string{
	// c-family and javascript
	"break", "case", "catch", "class", "const", "continue", "debugger", "default",
	"delete", "do", "else", "export", "extends", "false", "finally", "for",
	"function", "if", "import", "in", "instanceof", "let", "new", "null",
	"return", "super", "switch", "this", "throw", "true", "try", "typeof",
	"undefined", "var", "void", "while", "with", "yield", "async", "await",
	// go
	"chan", "defer", "fallthrough", "func", "go", "goto", "interface", "map",
	"package", "range", "select", "struct", "type", "nil",
}

// Tokens is a language agnostic, lossless tokenizer. It knows about
// identifiers, quoted strings, line and block comments and numbers; every
// other rune is kept verbatim.
type Tokens struct {
	keywords map[string]struct{}
}

func init() {
	Register("tokens", func(cfg Config) (Parser, error) {
		return NewTokens(cfg)
	})
}

// NewTokens creates the tokens parser. cfg["keywords"] replaces the default keyword set.
func NewTokens(cfg Config) (*Tokens, error) {
	words, ok := configStrings(cfg, "keywords")
	if !ok {
		words = defaultKeywords
	}
	kw := make(map[string]struct{}, len(words))
	for _, w := range words {
		kw[w] = struct{}{}
	}
	return &Tokens{keywords: kw}, nil
}

func (p *Tokens) Name() string { return "tokens" }

func (p *Tokens) Parse(source string) (any, error) {
	return p.Tokenize(source), nil
}

func (p *Tokens) Print(tree any) (string, error) {
	t, ok := tree.(*TokenTree)
	if !ok {
		return "", errors.Errorf("tokens parser cannot print %T", tree)
	}
	return t.String(), nil
}

// Tokenize splits source into tokens.
func (p *Tokens) Tokenize(source string) *TokenTree {
	tree := &TokenTree{}
	other := -1

	flushOther := func(end int) {
		if other >= 0 {
			tree.Tokens = append(tree.Tokens, Token{Kind: TokenOther, Text: source[other:end]})
			other = -1
		}
	}

	for i := 0; i < len(source); {
		r, size := utf8.DecodeRuneInString(source[i:])
		var end int
		var kind TokenKind

		switch {
		case isIdentStart(r):
			end = scanWhile(source, i, isIdentPart)
			kind = TokenIdent
			if _, ok := p.keywords[source[i:end]]; ok {
				kind = TokenKeyword
			}
		case unicode.IsDigit(r):
			end = scanWhile(source, i, func(r rune) bool { return isIdentPart(r) || r == '.' })
			kind = TokenNumber
		case r == '"' || r == '\'' || r == '`':
			end = scanString(source, i, r)
			kind = TokenString
		case strings.HasPrefix(source[i:], "//"):
			end = i + strings.IndexByte(source[i:]+"\n", '\n')
			kind = TokenComment
		case strings.HasPrefix(source[i:], "/*"):
			idx := strings.Index(source[i+2:], "*/")
			if idx < 0 {
				end = len(source)
			} else {
				end = i + 2 + idx + 2
			}
			kind = TokenComment
		default:
			if other < 0 {
				other = i
			}
			i += size
			continue
		}

		flushOther(i)
		tree.Tokens = append(tree.Tokens, Token{Kind: kind, Text: source[i:end]})
		i = end
	}
	flushOther(len(source))
	return tree
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

func scanWhile(s string, i int, ok func(rune) bool) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !ok(r) {
			break
		}
		i += size
	}
	return i
}

// scanString returns the end offset of the string literal starting at i.
// An unterminated literal runs to the end of the line, or of the source for
// backquotes.
func scanString(s string, i int, quote rune) int {
	j := i + 1
	for j < len(s) {
		c := s[j]
		switch {
		case c == '\\' && quote != '`':
			j += 2
			continue
		case rune(c) == quote:
			return j + 1
		case c == '\n' && quote != '`':
			return j
		}
		j++
	}
	return len(s)
}
