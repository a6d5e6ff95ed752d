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

package config

import (
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
)

// EnvPrefix starts every environment override.
const EnvPrefix = "EVCODESHIFT_"

// 🌍 ApplyEnv overlays EVCODESHIFT_* variables on cfg.
//
// EVCODESHIFT_CHUNK_SIZE sets chunk_size, EVCODESHIFT_DRY sets dry and so
// on. Lists are comma separated. Keys the config does not know are ignored.
func ApplyEnv(cfg *Config) error {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil)
	if err != nil {
		return fault.Configurationf("reading environment: %w", err)
	}

	if len(k.Keys()) == 0 {
		return nil
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return fault.Configurationf("applying environment: %w", err)
	}
	return nil
}
