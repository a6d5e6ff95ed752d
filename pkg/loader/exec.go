package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/ElonVolo/evcodeshift/pkg/transform"
)

// externalRequest is written to the executable's stdin.
type externalRequest struct {
	Path    string            `json:"path"`
	Source  string            `json:"source"`
	Options transform.Options `json:"options,omitempty"`
}

// externalResponse is read from the executable's stdout.
type externalResponse struct {
	Source  *string        `json:"source"`
	Skip    bool           `json:"skip,omitempty"`
	Reports []string       `json:"reports,omitempty"`
	Stats   map[string]int `json:"stats,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// 🔧 External wraps an executable as a transform.
//
// Each file is one run: a JSON request on stdin, a JSON response on stdout.
// A missing source means unchanged, skip means skip. A non-zero exit or an
// error field fails the file.
func External(path string) *transform.Module {
	return &transform.Module{
		Name: filepath.Base(path),
		Func: func(ctx context.Context, req transform.Request, api transform.API, opts transform.Options) (string, error) {
			return runExternal(ctx, path, req, api, opts)
		},
	}
}

func runExternal(ctx context.Context, path string, req transform.Request, api transform.API, opts transform.Options) (string, error) {
	in, err := json.Marshal(externalRequest{Path: req.Path, Source: req.Source, Options: opts})
	if err != nil {
		return "", errors.Errorf("encoding request: %w", err)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path)
	cmd.Stdin = bytes.NewReader(in)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", errors.Errorf("running %s: %w: %s", filepath.Base(path), err, msg)
		}
		return "", errors.Errorf("running %s: %w", filepath.Base(path), err)
	}

	var resp externalResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", errors.Errorf("decoding response of %s: %w", filepath.Base(path), err)
	}

	for _, msg := range resp.Reports {
		if api.Report != nil {
			api.Report(msg)
		}
	}

	names := make([]string, 0, len(resp.Stats))
	for name := range resp.Stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if api.Stats != nil {
			api.Stats(name, resp.Stats[name])
		}
	}

	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	if resp.Skip {
		return "", nil
	}
	if resp.Source == nil {
		return req.Source, nil
	}
	return *resp.Source, nil
}
