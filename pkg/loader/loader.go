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

// Package loader turns a transform identifier into a callable module.
package loader

import (
	"context"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
	"github.com/ElonVolo/evcodeshift/pkg/rules"
	"github.com/ElonVolo/evcodeshift/pkg/transform"
	_ "github.com/ElonVolo/evcodeshift/pkg/transform/builtin"
)

// Dialects understood by Load.
const (
	DialectNative = ""
	DialectGo     = "go"
	DialectRules  = "rules"
)

// 📦 Load resolves ident to a transform module.
//
// With the rules dialect the hook is installed first (a no-op when it already
// is) and compiles ident. Otherwise ident names a built-in transform or an
// executable file. Every failure is a configuration error.
func Load(ctx context.Context, ident, dialect string, hook *rules.Hook) (*transform.Module, error) {
	logger := zerolog.Ctx(ctx).With().Str("transform", ident).Str("dialect", dialect).Logger()

	if strings.TrimSpace(ident) == "" {
		return nil, fault.Configurationf("no transform given")
	}

	var (
		mod *transform.Module
		err error
	)

	switch dialect {
	case DialectRules:
		if hook == nil {
			return nil, fault.Configurationf("loading %s: rules dialect needs a compile hook", ident)
		}
		if hook.Install() {
			logger.Debug().Strs("exclude", hook.Exclude()).Msg("installed rules hook")
		}
		mod, err = hook.Compile(ctx, ident)
	case DialectNative, DialectGo:
		mod, err = loadNative(ident)
	default:
		return nil, fault.Configurationf("unknown dialect %q", dialect)
	}
	if err != nil {
		return nil, err
	}

	if err := mod.Validate(); err != nil {
		return nil, fault.Configurationf("loading %s: %w", ident, err)
	}

	logger.Debug().Str("module", mod.Name).Str("parser", mod.ParserName).Msg("loaded transform")
	return mod, nil
}

func loadNative(ident string) (*transform.Module, error) {
	if mod, ok := transform.Lookup(ident); ok {
		return mod, nil
	}

	info, err := os.Stat(ident)
	if err != nil {
		return nil, fault.Configurationf("cannot find transform %q (built-ins: %s): %w", ident, strings.Join(transform.Names(), ", "), err)
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return nil, fault.Configurationf("transform %q is not an executable file", ident)
	}
	return External(ident), nil
}
