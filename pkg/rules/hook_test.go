package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
	"github.com/ElonVolo/evcodeshift/pkg/transform"
)

func writeRules(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func TestHookInstallOnce(t *testing.T) {
	h := NewHook()
	assert.False(t, h.Installed())
	assert.True(t, h.Install(), "first install configures the hook")
	assert.False(t, h.Install(), "second install is a no-op")
	assert.True(t, h.Installed())
	assert.Equal(t, DefaultExclude, h.Exclude())
}

func TestCompileRequiresInstall(t *testing.T) {
	path := writeRules(t, "rules.yaml", "rules: []\n")
	_, err := NewHook().Compile(testContext(t), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrConfiguration))
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		content   string
		path      string
		source    string
		want      string
		wantStats int
		wantError string
	}{
		{
			name: "yaml_literal",
			file: "rules.yaml",
			content: `
rules:
  - from: var
    to: let
`,
			path:      "src/a.js",
			source:    "var a = 1; var b = 2;",
			want:      "let a = 1; let b = 2;",
			wantStats: 2,
		},
		{
			name:      "json_literal",
			file:      "rules.json",
			content:   `{"rules": [{"from": "foo", "to": "bar", "files": "*.go"}]}`,
			path:      "main.go",
			source:    "foo()",
			want:      "bar()",
			wantStats: 1,
		},
		{
			name: "hcl_literal",
			file: "rules.hcl",
			content: `
rule {
  from = "Hello"
  to   = "Hi"
}
`,
			path:      "greeting.txt",
			source:    "Hello World",
			want:      "Hi World",
			wantStats: 1,
		},
		{
			name: "regexp_preset",
			file: "rules.yml",
			content: `
rules:
  - from: 'v(\d+)'
    to: 'version$1'
    regexp: true
`,
			path:      "notes.md",
			source:    "v1 and v22",
			want:      "version1 and version22",
			wantStats: 2,
		},
		{
			name: "excluded_path_is_skipped",
			file: "rules.yaml",
			content: `
rules:
  - from: a
    to: b
`,
			path:   "/repo/node_modules/x/index.js",
			source: "a",
			want:   "",
		},
		{
			name: "file_exclude",
			file: "rules.yaml",
			content: `
exclude: ["**/*.gen.go"]
rules:
  - from: a
    to: b
`,
			path:   "pkg/x.gen.go",
			source: "a",
			want:   "",
		},
		{
			name:      "unknown_extension",
			file:      "rules.txt",
			content:   "rules: []",
			wantError: "unsupported rule file extension",
		},
		{
			name:      "unknown_field",
			file:      "rules.yaml",
			content:   "rulez: []\n",
			wantError: "decoding YAML",
		},
		{
			name: "bad_regexp",
			file: "rules.yaml",
			content: `
rules:
  - from: '('
    regexp: true
`,
			wantError: "compiling",
		},
		{
			name:      "bad_hcl",
			file:      "rules.hcl",
			content:   "rule {",
			wantError: "parsing HCL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			h := NewHook()
			h.Install()

			mod, err := h.Compile(ctx, writeRules(t, tt.file, tt.content))
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				assert.True(t, errors.Is(err, fault.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			require.NoError(t, mod.Validate())

			stats := 0
			api := transform.API{
				Report: func(string) {},
				Stats: func(name string, quantity ...int) {
					assert.Equal(t, StatReplacements, name)
					for _, q := range quantity {
						stats += q
					}
				},
			}
			got, err := mod.Func(ctx, transform.Request{Path: tt.path, Source: tt.source}, api, transform.Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantStats, stats)
		})
	}
}

func TestCompileEmptiedFile(t *testing.T) {
	ctx := testContext(t)
	h := NewHook()
	h.Install()

	mod, err := h.Compile(ctx, writeRules(t, "rules.yaml", "rules:\n  - from: gone\n    to: ''\n"))
	require.NoError(t, err)

	var reports []string
	api := transform.API{
		Report: func(msg string) { reports = append(reports, msg) },
		Stats:  func(string, ...int) {},
	}

	got, err := mod.Func(ctx, transform.Request{Path: "a.txt", Source: "gone"}, api, transform.Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, []string{EmptiedMessage}, reports)

	reports = nil
	got, err = mod.Func(ctx, transform.Request{Path: "b.txt", Source: "gone!"}, api, transform.Options{})
	require.NoError(t, err)
	assert.Equal(t, "!", got)
	assert.Empty(t, reports)
}

func TestPresets(t *testing.T) {
	h := NewHook()

	presets, err := h.Presets("a.hcl", &File{})
	require.NoError(t, err)
	assert.Equal(t, []Preset{PresetLiteral, PresetHCL}, presets)

	presets, err = h.Presets("a.yml", &File{Regexp: true})
	require.NoError(t, err)
	assert.Equal(t, []Preset{PresetLiteral, PresetRegexp, PresetYAML}, presets)

	_, err = h.Presets("a.toml", &File{})
	require.Error(t, err)
}

func TestHCLParserPreference(t *testing.T) {
	path := writeRules(t, "rules.hcl", `
parser = "go"
regexp = true

rule {
  from  = "a+"
  to    = "b"
  files = "**/*.go"
}
`)
	h := NewHook()
	h.Install()
	mod, err := h.Compile(testContext(t), path)
	require.NoError(t, err)
	assert.Equal(t, "go", mod.ParserName)
	assert.Equal(t, "rules:rules.hcl", mod.Name)
}
