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

package parser

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
)

// DefaultName is used when neither the transform nor the batch names a parser.
const DefaultName = "tokens"

// 🔌 Parser builds a tree from source text and prints it back
type Parser interface {
	// Name returns the registry name of the parser
	Name() string
	// Parse builds a tree from source text
	Parse(source string) (any, error)
	// Print serializes a tree produced by Parse
	Print(tree any) (string, error)
}

// ⚙️ Config carries parser specific settings (the batch's parserConfig)
type Config map[string]any

// 🏭 Factory builds a configured parser
type Factory func(cfg Config) (Parser, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// 📝 Register registers a parser factory under name
func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = f
}

// Names returns the registered parser names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// 🎯 Resolve returns a configured parser for name
func Resolve(name string, cfg Config) (Parser, error) {
	if name == "" {
		name = DefaultName
	}

	mu.RLock()
	f, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fault.Configurationf("unknown parser %q (known: %s)", name, strings.Join(Names(), ", "))
	}

	p, err := f(cfg)
	if err != nil {
		return nil, fault.Configurationf("configuring parser %q: %w", name, err)
	}
	return p, nil
}

// 🧭 Resolver picks the parser for each batch of one worker.
//
// A parser declared by the transform wins over any batch option for the
// lifetime of the resolver. It is resolved once and shared read-only by all
// file pipelines.
type Resolver struct {
	preferred Parser
}

// NewResolver resolves the transform's parser preference, if any. A non-nil
// handle takes precedence over name.
func NewResolver(name string, handle Parser) (*Resolver, error) {
	r := &Resolver{preferred: handle}
	if r.preferred == nil && name != "" {
		p, err := Resolve(name, nil)
		if err != nil {
			return nil, err
		}
		r.preferred = p
	}
	return r, nil
}

// Preferred returns the transform's parser, or nil when the batch decides.
func (r *Resolver) Preferred() Parser {
	return r.preferred
}

// Prepare returns the parser to hand to the transform for one batch.
func (r *Resolver) Prepare(name string, cfg Config) (Parser, error) {
	if r.preferred != nil {
		return r.preferred, nil
	}
	return Resolve(name, cfg)
}

// configString reads a string setting.
func configString(cfg Config, key, def string) string {
	v, ok := cfg[key]
	if !ok || v == nil {
		return def
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// configInt reads an integer setting, accepting the number types JSON and YAML decode to.
func configInt(cfg Config, key string, def int) (int, error) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("%s: expected a number, got %T", key, v)
	}
}

// configStrings reads a list setting given as a list or a comma separated string.
func configStrings(cfg Config, key string) ([]string, bool) {
	v, ok := cfg[key]
	if !ok || v == nil {
		return nil, false
	}
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			out = append(out, fmt.Sprint(item))
		}
		return out, true
	case string:
		var out []string
		for _, item := range strings.Split(l, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, true
	default:
		return nil, false
	}
}
