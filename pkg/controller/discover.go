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

package controller

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/ElonVolo/evcodeshift/pkg/text"
)

// DefaultInclude matches every file below a root.
const DefaultInclude = "**/*"

// 🔍 Filter selects the files of a run
type Filter struct {
	// Include globs are matched relative to each root directory
	Include []string
	// Ignore globs drop files, explicit ones included
	Ignore []string
	// Extensions keep files with one of these extensions, without the dot
	Extensions []string
}

func (f Filter) ignored(path string) bool {
	for _, g := range f.Ignore {
		if text.MatchPath(g, path) {
			return true
		}
	}
	return false
}

func (f Filter) hasExtension(path string) bool {
	if len(f.Extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, e := range f.Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// 📂 Discover expands roots into a sorted, unique list of files.
//
// A root naming a file is kept unless ignored. A root naming a directory is
// searched with the include globs and filtered by extension and ignore globs.
func Discover(ctx context.Context, roots []string, filter Filter) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	include := filter.Include
	if len(include) == 0 {
		include = []string{DefaultInclude}
	}

	seen := map[string]bool{}
	var out []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", root, err)
		}

		if !info.IsDir() {
			if !filter.ignored(root) {
				add(root)
			}
			continue
		}

		fsys := os.DirFS(root)
		for _, pattern := range include {
			matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, errors.Errorf("matching %q in %s: %w", pattern, root, err)
			}
			for _, rel := range matches {
				if filter.ignored(rel) || !filter.hasExtension(rel) {
					continue
				}
				add(filepath.Join(root, filepath.FromSlash(rel)))
			}
		}
	}

	sort.Strings(out)
	logger.Debug().Int("files", len(out)).Strs("roots", roots).Msg("discovered files")
	return out, nil
}

// ✂️ Chunk splits files into batches of at most size files
func Chunk(files []string, size int) [][]string {
	if size <= 0 {
		size = len(files)
	}
	var chunks [][]string
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		chunks = append(chunks, files[start:end])
	}
	return chunks
}
