package text

import (
	"context"
	"io"
)

// ReplacementRule defines a single text replacement operation
type ReplacementRule struct {
	// FromText is the text to replace, or a pattern when Regexp is set
	FromText string `json:"from" yaml:"from" hcl:"from"`

	// ToText is the replacement text; $1 style references work for Regexp rules
	ToText string `json:"to" yaml:"to" hcl:"to"`

	// FileFilterGlob limits the rule to matching files; empty means every file
	FileFilterGlob string `json:"files,omitempty" yaml:"files,omitempty" hcl:"files,optional"`

	// Regexp treats FromText as a regular expression
	Regexp bool `json:"regexp,omitempty" yaml:"regexp,omitempty" hcl:"regexp,optional"`
}

// ReplacementResult contains the results of a text replacement operation
type ReplacementResult struct {
	// WasModified indicates if any replacements were made
	WasModified bool

	// ReplacementCount is the number of replacements made
	ReplacementCount int

	// OriginalContent is the content before replacements
	OriginalContent []byte

	// ModifiedContent is the content after replacements
	ModifiedContent []byte
}

// TextReplacer defines the interface for text replacement operations
type TextReplacer interface {
	// ReplaceText applies the rules matching path to the content
	ReplaceText(ctx context.Context, path string, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error)

	// ValidateRules checks that all rules are valid
	ValidateRules(rules []ReplacementRule) error
}
