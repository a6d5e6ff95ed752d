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

// Package transform defines what a user transform sees and returns.
package transform

import (
	"context"
	"sort"
	"sync"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
	"github.com/ElonVolo/evcodeshift/pkg/parser"
)

// 📄 Request is the only view of a file a transform receives
type Request struct {
	Path   string `json:"path"`
	Source string `json:"source"`
}

// 🧰 API is the capability bundle handed to one transform invocation
type API struct {
	// Parser is the configured parser for this file
	Parser parser.Parser
	// Report sends a message about the file to the controller
	Report func(msg string)
	// Stats counts a named quantity; it only reports during dry runs
	Stats func(name string, quantity ...int)
}

// 🔄 Func maps a file to new source text.
//
// Returning "" means skip: the file is left alone and reported as skipped.
// A transform therefore cannot empty a file.
// Returning the source unchanged reports nochange. Errors and panics are
// reported as a failure of this file only.
type Func func(ctx context.Context, req Request, api API, opts Options) (string, error)

// 📦 Module is a loaded transform, normalized once at load time
type Module struct {
	// Name identifies the transform in logs
	Name string
	// Func is the transform itself
	Func Func
	// ParserName is the parser the transform asks for, if any
	ParserName string
	// Parser is a ready parser handle the transform asks for, if any. It
	// wins over ParserName.
	Parser parser.Parser
}

var (
	mu       sync.RWMutex
	builtins = map[string]Module{}
)

// 📝 Register makes a compiled-in transform available by name
func Register(m Module) {
	mu.Lock()
	defer mu.Unlock()
	builtins[m.Name] = m
}

// 🎯 Lookup returns the compiled-in transform called name
func Lookup(name string) (*Module, bool) {
	mu.RLock()
	defer mu.RUnlock()
	m, ok := builtins[name]
	if !ok {
		return nil, false
	}
	return &m, true
}

// Names lists the compiled-in transforms, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks that a module is callable.
func (m *Module) Validate() error {
	if m == nil || m.Func == nil {
		return fault.Configurationf("transform module exports no callable")
	}
	return nil
}
