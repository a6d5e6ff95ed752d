// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package files reads source files and replaces them atomically.
package files

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
)

// 💾 FileManager handles the file system side of the pipeline
type FileManager interface {
	// ReadFile returns the whole file as text
	ReadFile(ctx context.Context, path string) (string, error)
	// WriteFileAtomic replaces path with content; a reader never observes a partial file
	WriteFileAtomic(ctx context.Context, path string, content string) error
}

// 🔧 Manager is the os backed FileManager
type Manager struct {
	// rename is swapped in tests to simulate a crash between write and rename
	rename func(oldpath, newpath string) error
	// sync flushes the parent directory after a rename; best effort
	sync func(dir string) error
}

var _ FileManager = (*Manager)(nil)

// 🏭 NewManager creates a new os backed file manager
func NewManager() *Manager {
	return &Manager{
		rename: os.Rename,
		sync:   syncDir,
	}
}

func (m *Manager) ReadFile(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fault.Mark(fault.ErrIO, errors.Errorf("reading file: %w", err))
	}
	return string(content), nil
}

// WriteFileAtomic writes content to a temp file next to path, flushes it and
// renames it over path. The original permission bits are kept. On any
// failure the temp file is removed and path is left untouched.
func (m *Manager) WriteFileAtomic(ctx context.Context, path string, content string) error {
	if err := ctx.Err(); err != nil {
		return fault.Mark(fault.ErrIO, errors.Errorf("writing file: %w", err))
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !os.IsNotExist(err) {
		return fault.Mark(fault.ErrIO, errors.Errorf("checking file: %w", err))
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fault.Mark(fault.ErrIO, errors.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmp.Name()

	cleanup := func(cause error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fault.Mark(fault.ErrIO, cause)
	}

	if _, err := tmp.WriteString(content); err != nil {
		return cleanup(errors.Errorf("writing temp file: %w", err))
	}
	if err := tmp.Chmod(mode); err != nil {
		return cleanup(errors.Errorf("setting temp file mode: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(errors.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fault.Mark(fault.ErrIO, errors.Errorf("closing temp file: %w", err))
	}

	if err := m.rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fault.Mark(fault.ErrIO, errors.Errorf("renaming temp file: %w", err))
	}

	if err := m.sync(dir); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Str("dir", dir).Msg("syncing parent directory")
	}

	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
