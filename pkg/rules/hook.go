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

package rules

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
	"github.com/ElonVolo/evcodeshift/pkg/text"
	"github.com/ElonVolo/evcodeshift/pkg/transform"
)

// DefaultExclude lists the paths compiled rules never touch.
var DefaultExclude = []string{
	"**/vendor/**",
	"**/.git/**",
	"**/node_modules/**",
}

// StatReplacements is the dry run statistic compiled rules count.
const StatReplacements = "replacements"

// EmptiedMessage is reported when rules would leave a file empty.
const EmptiedMessage = "rules would empty the file, leaving it unchanged"

// 🪝 Hook compiles rule files into transforms.
//
// A hook must be installed before it compiles anything. Install is guarded:
// the first call configures the hook and returns true, every later call is a
// no-op returning false. Once installed the configuration never changes.
type Hook struct {
	mu        sync.Mutex
	installed bool
	exclude   []string
}

// NewHook creates an uninstalled hook. With no globs DefaultExclude is used.
func NewHook(exclude ...string) *Hook {
	if len(exclude) == 0 {
		exclude = DefaultExclude
	}
	return &Hook{exclude: append([]string(nil), exclude...)}
}

// Install activates the hook. It reports whether this call did the install.
func (h *Hook) Install() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.installed {
		return false
	}
	h.installed = true
	return true
}

// Installed reports whether Install has run.
func (h *Hook) Installed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.installed
}

// Exclude returns the exclusion globs.
func (h *Hook) Exclude() []string {
	return append([]string(nil), h.exclude...)
}

// Presets returns the presets a rule file compiles with.
func (h *Hook) Presets(path string, f *File) ([]Preset, error) {
	dialect, err := DialectPreset(path)
	if err != nil {
		return nil, err
	}
	presets := []Preset{PresetLiteral}
	if f != nil && f.wantsRegexp() {
		presets = append(presets, PresetRegexp)
	}
	return append(presets, dialect), nil
}

// 🔨 Compile turns the rule file at path into a transform module
func (h *Hook) Compile(ctx context.Context, path string) (*transform.Module, error) {
	if !h.Installed() {
		return nil, fault.Configurationf("compiling %s: rules hook not installed", path)
	}

	dialect, err := DialectPreset(path)
	if err != nil {
		return nil, fault.Configurationf("compiling %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Configurationf("reading rule file: %w", err)
	}

	f, err := decode(dialect, path, data)
	if err != nil {
		return nil, fault.Configurationf("compiling %s: %w", path, err)
	}

	presets, err := h.Presets(path, f)
	if err != nil {
		return nil, fault.Configurationf("compiling %s: %w", path, err)
	}

	var opts []text.ReplacerOption
	for _, p := range presets {
		if p == PresetRegexp {
			opts = append(opts, text.WithRegexp())
		}
	}
	replacer := text.NewSimpleTextReplacer(opts...)
	if err := replacer.ValidateRules(f.Rules); err != nil {
		return nil, fault.Configurationf("compiling %s: %w", path, err)
	}

	exclude := append(h.Exclude(), f.Exclude...)
	for _, g := range exclude {
		if !doublestar.ValidatePattern(g) {
			return nil, fault.Configurationf("compiling %s: invalid exclude glob %q", path, g)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("rules", path).
		Int("count", len(f.Rules)).
		Interface("presets", presets).
		Msg("compiled rule file")

	rules := f.Rules
	fn := func(ctx context.Context, req transform.Request, api transform.API, _ transform.Options) (string, error) {
		for _, g := range exclude {
			if text.MatchPath(g, req.Path) {
				return "", nil
			}
		}

		res, err := replacer.ReplaceText(ctx, req.Path, strings.NewReader(req.Source), rules)
		if err != nil {
			return "", err
		}
		if res.WasModified && api.Stats != nil {
			api.Stats(StatReplacements, res.ReplacementCount)
		}
		if res.WasModified && len(res.ModifiedContent) == 0 {
			// an empty result reads as skip, so the file is kept as is
			if api.Report != nil {
				api.Report(EmptiedMessage)
			}
			return "", nil
		}
		return string(res.ModifiedContent), nil
	}

	return &transform.Module{
		Name:       "rules:" + filepath.Base(path),
		Func:       fn,
		ParserName: f.Parser,
	}, nil
}
