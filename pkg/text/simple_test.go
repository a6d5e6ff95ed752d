package text

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleTextReplacer_ReplaceText(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		content      string
		rules        []ReplacementRule
		regexp       bool
		want         string
		wantCount    int
		wantError    string
		wantModified bool
	}{
		{
			name:    "simple_replacement",
			content: "Hello World",
			rules: []ReplacementRule{
				{FromText: "World", ToText: "Universe"},
			},
			want:         "Hello Universe",
			wantCount:    1,
			wantModified: true,
		},
		{
			name:    "multiple_replacements",
			content: "Hello World World",
			rules: []ReplacementRule{
				{FromText: "World", ToText: "Universe"},
			},
			want:         "Hello Universe Universe",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "multiple_rules",
			content: "Hello World",
			rules: []ReplacementRule{
				{FromText: "Hello", ToText: "Hi"},
				{FromText: "World", ToText: "Universe"},
			},
			want:         "Hi Universe",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "no_match",
			content: "Hello World",
			rules: []ReplacementRule{
				{FromText: "Goodbye", ToText: "Hi"},
			},
			want:         "Hello World",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:    "empty_content",
			content: "",
			rules: []ReplacementRule{
				{FromText: "World", ToText: "Universe"},
			},
			want:         "",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:         "empty_rules",
			content:      "Hello World",
			rules:        []ReplacementRule{},
			want:         "Hello World",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:    "glob_matches",
			path:    "src/app/main.js",
			content: "var a = 1;",
			rules: []ReplacementRule{
				{FromText: "var", ToText: "let", FileFilterGlob: "**/*.js"},
			},
			want:         "let a = 1;",
			wantCount:    1,
			wantModified: true,
		},
		{
			name:    "glob_does_not_match",
			path:    "src/app/main.ts",
			content: "var a = 1;",
			rules: []ReplacementRule{
				{FromText: "var", ToText: "let", FileFilterGlob: "**/*.js"},
			},
			want:         "var a = 1;",
			wantCount:    0,
			wantModified: false,
		},
		{
			name:    "regexp_rule",
			content: "foo1 foo22 bar",
			regexp:  true,
			rules: []ReplacementRule{
				{FromText: `foo(\d+)`, ToText: "baz$1", Regexp: true},
			},
			want:         "baz1 baz22 bar",
			wantCount:    2,
			wantModified: true,
		},
		{
			name:    "regexp_rule_without_preset",
			content: "foo1",
			rules: []ReplacementRule{
				{FromText: `foo(\d+)`, ToText: "baz$1", Regexp: true},
			},
			wantError: "regexp preset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []ReplacerOption
			if tt.regexp {
				opts = append(opts, WithRegexp())
			}
			path := tt.path
			if path == "" {
				path = "file.txt"
			}

			replacer := NewSimpleTextReplacer(opts...)
			result, err := replacer.ReplaceText(
				context.Background(),
				path,
				strings.NewReader(tt.content),
				tt.rules,
			)

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.content, string(result.OriginalContent))
			assert.Equal(t, tt.want, string(result.ModifiedContent))
			assert.Equal(t, tt.wantCount, result.ReplacementCount)
			assert.Equal(t, tt.wantModified, result.WasModified)
		})
	}
}

func TestSimpleTextReplacer_ValidateRules(t *testing.T) {
	tests := []struct {
		name      string
		rules     []ReplacementRule
		regexp    bool
		wantError string
	}{
		{
			name: "valid_rules",
			rules: []ReplacementRule{
				{
					FromText:       "foo",
					ToText:         "bar",
					FileFilterGlob: "*.txt",
				},
			},
		},
		{
			name: "missing_from_text",
			rules: []ReplacementRule{
				{
					ToText:         "bar",
					FileFilterGlob: "*.txt",
				},
			},
			wantError: "from is required",
		},
		{
			name: "bad_glob",
			rules: []ReplacementRule{
				{FromText: "foo", FileFilterGlob: "[a-"},
			},
			wantError: "invalid files glob",
		},
		{
			name:   "bad_regexp",
			regexp: true,
			rules: []ReplacementRule{
				{FromText: "(", Regexp: true},
			},
			wantError: "compiling",
		},
		{
			name: "regexp_not_enabled",
			rules: []ReplacementRule{
				{FromText: "a+", Regexp: true},
			},
			wantError: "regexp preset",
		},
		{
			name:  "empty_rules",
			rules: []ReplacementRule{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []ReplacerOption
			if tt.regexp {
				opts = append(opts, WithRegexp())
			}
			replacer := NewSimpleTextReplacer(opts...)
			err := replacer.ValidateRules(tt.rules)

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestMatchPath(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"**/vendor/**", "/abs/project/vendor/lib/a.go", true},
		{"**/vendor/**", "vendor/a.go", true},
		{"**/vendor/**", "src/vendored.go", false},
		{"*.js", "/abs/src/app.js", true},
		{"**/*.js", "src/app.jsx", false},
		{"**/node_modules/**", "web/node_modules/x/index.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"_"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchPath(tt.pattern, tt.path))
		})
	}
}
