package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--no-color"))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name        string
		config      string
		args        []string
		files       map[string]string
		want        map[string]string
		wantErr     bool
		errContains string
		outContains []string
	}{
		{
			name:   "config_file",
			config: "transform: reverse-identifiers\nworkers: 1\nextensions: [js]\n",
			files: map[string]string{
				"src/a.js":  "function foo(){}",
				"src/b.txt": "function foo(){}",
			},
			want: map[string]string{
				"src/a.js":  "function oof(){}",
				"src/b.txt": "function foo(){}",
			},
			outContains: []string{"[processing 1 files with 1 workers]", "reverse-identifiers", "Time elapsed"},
		},
		{
			name:   "flags_override_config",
			config: "transform: no-such-transform\n",
			args:   []string{"-t", "reverse-identifiers", "--dry", "-w", "2"},
			files:  map[string]string{"a.js": "let abc = 1;"},
			want:   map[string]string{"a.js": "let abc = 1;"},
			outContains: []string{
				"[processing 1 files with 2 workers]",
				"identifiers",
			},
		},
		{
			name:   "options",
			config: "transform: set-property\n",
			args:   []string{"-o", "key=status", "-o", "value=done"},
			files:  map[string]string{"task.yaml": "name: x\nstatus: todo\n"},
			want:   map[string]string{"task.yaml": "name: x\nstatus: done\n"},
		},
		{
			name:        "unknown_transform",
			config:      "transform: no-such-transform\n",
			files:       map[string]string{"a.js": "x"},
			want:        map[string]string{"a.js": "x"},
			wantErr:     true,
			errContains: "no-such-transform",
		},
		{
			name:        "fail_on_error",
			config:      "transform: set-property\noptions:\n  key: a\n  value: b\n",
			args:        []string{"--fail-on-error"},
			files:       map[string]string{"bad.yaml": "a: [unclosed\n"},
			want:        map[string]string{"bad.yaml": "a: [unclosed\n"},
			wantErr:     true,
			errContains: "1 of 1 files failed",
		},
		{
			name:        "invalid_config",
			config:      "transform: reverse-identifiers\nworkers: -1\n",
			files:       map[string]string{"a.js": "x"},
			want:        map[string]string{"a.js": "x"},
			wantErr:     true,
			errContains: "workers must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			configPath := filepath.Join(dir, ".evcodeshift.yaml")
			writeFile(t, configPath, tt.config)

			src := filepath.Join(dir, "src-root")
			for name, content := range tt.files {
				writeFile(t, filepath.Join(src, name), content)
			}

			args := append([]string{"run", "-c", configPath, "--in-process"}, tt.args...)
			out, err := execute(t, append(args, src)...)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
			} else {
				require.NoError(t, err, out)
			}

			for _, s := range tt.outContains {
				assert.Contains(t, out, s)
			}
			for name, content := range tt.want {
				assert.Equal(t, content, readFile(t, filepath.Join(src, name)), name)
			}
		})
	}
}

func TestRunCommandEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ".evcodeshift.yaml")
	writeFile(t, configPath, "transform: reverse-identifiers\n")
	src := filepath.Join(dir, "a.js")
	writeFile(t, src, "foo")

	t.Setenv("EVCODESHIFT_DRY", "true")

	_, err := execute(t, "run", "-c", configPath, "--in-process", src)
	require.NoError(t, err)
	assert.Equal(t, "foo", readFile(t, src), "EVCODESHIFT_DRY suppresses writes")
}

func TestRunCommandPrint(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ".evcodeshift.yaml")
	writeFile(t, configPath, "transform: reverse-identifiers\n")
	src := filepath.Join(dir, "a.js")
	writeFile(t, src, "foo")

	out, err := execute(t, "run", "-c", configPath, "--in-process", "--dry", "--print", src)
	require.NoError(t, err)
	assert.Contains(t, out, "oof")
	assert.Equal(t, "foo", readFile(t, src))
}

func TestRunCommandNeedsPaths(t *testing.T) {
	_, err := execute(t, "run", "-t", "reverse-identifiers")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "evcodeshift version info")

	info := &VersionInfo{Version: "v1.2.3", Revision: "abc", Modified: true, GoVersion: "go1.23", Platform: "linux/amd64"}
	assert.Contains(t, FormatVersion(info), "Revision:  abc (modified)")
	assert.Contains(t, FormatVersion(info), "Version:   v1.2.3")
}
