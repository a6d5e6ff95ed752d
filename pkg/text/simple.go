package text

import (
	"context"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"gitlab.com/tozd/go/errors"
)

// SimpleTextReplacer implements TextReplacer using string and, when enabled,
// regular expression replacement
type SimpleTextReplacer struct {
	regexp bool

	mu       sync.Mutex
	compiled map[string]*regexp.Regexp
}

var _ TextReplacer = (*SimpleTextReplacer)(nil)

// ReplacerOption configures a SimpleTextReplacer
type ReplacerOption func(*SimpleTextReplacer)

// WithRegexp allows rules with Regexp set
func WithRegexp() ReplacerOption {
	return func(r *SimpleTextReplacer) {
		r.regexp = true
	}
}

// NewSimpleTextReplacer creates a new SimpleTextReplacer
func NewSimpleTextReplacer(opts ...ReplacerOption) *SimpleTextReplacer {
	r := &SimpleTextReplacer{compiled: map[string]*regexp.Regexp{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReplaceText implements TextReplacer.ReplaceText
func (r *SimpleTextReplacer) ReplaceText(ctx context.Context, path string, content io.Reader, rules []ReplacementRule) (*ReplacementResult, error) {
	// Read all content
	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	// Create result with original content
	result := &ReplacementResult{
		OriginalContent: originalContent,
		ModifiedContent: originalContent,
	}

	// Apply each rule
	currentContent := string(originalContent)
	for _, rule := range rules {
		// Skip empty rules
		if rule.FromText == "" {
			continue
		}
		if rule.FileFilterGlob != "" && !MatchPath(rule.FileFilterGlob, path) {
			continue
		}

		var newContent string
		var count int
		if rule.Regexp {
			re, err := r.compile(rule.FromText)
			if err != nil {
				return nil, err
			}
			count = len(re.FindAllStringIndex(currentContent, -1))
			newContent = re.ReplaceAllString(currentContent, rule.ToText)
		} else {
			count = strings.Count(currentContent, rule.FromText)
			newContent = strings.ReplaceAll(currentContent, rule.FromText, rule.ToText)
		}

		// Update counts if changed
		if newContent != currentContent {
			result.WasModified = true
			result.ReplacementCount += count
		}

		currentContent = newContent
	}

	// Update final content
	result.ModifiedContent = []byte(currentContent)
	return result, nil
}

// ValidateRules implements TextReplacer.ValidateRules
func (r *SimpleTextReplacer) ValidateRules(rules []ReplacementRule) error {
	for i, rule := range rules {
		if rule.FromText == "" {
			return errors.Errorf("rule %d: from is required", i)
		}
		if rule.FileFilterGlob != "" && !doublestar.ValidatePattern(rule.FileFilterGlob) {
			return errors.Errorf("rule %d: invalid files glob %q", i, rule.FileFilterGlob)
		}
		if rule.Regexp {
			if !r.regexp {
				return errors.Errorf("rule %d: regexp rules need the regexp preset", i)
			}
			if _, err := r.compile(rule.FromText); err != nil {
				return errors.Errorf("rule %d: %w", i, err)
			}
		}
	}
	return nil
}

func (r *SimpleTextReplacer) compile(pattern string) (*regexp.Regexp, error) {
	if !r.regexp {
		return nil, errors.Errorf("regexp rules need the regexp preset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if re, ok := r.compiled[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Errorf("compiling %q: %w", pattern, err)
	}
	r.compiled[pattern] = re
	return re, nil
}

// 🔍 MatchPath reports whether a doublestar pattern matches path or its base
// name. Leading slashes are ignored so "**/vendor/**" also matches absolute
// paths.
func MatchPath(pattern, path string) bool {
	slashed := strings.TrimLeft(filepath.ToSlash(path), "/")
	if vol := filepath.VolumeName(path); vol != "" {
		slashed = strings.TrimLeft(strings.TrimPrefix(slashed, filepath.ToSlash(vol)), "/")
	}
	if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
		return true
	}
	ok, err := doublestar.Match(pattern, filepath.Base(path))
	return err == nil && ok
}
