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
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/ElonVolo/evcodeshift/pkg/fault"
	"github.com/ElonVolo/evcodeshift/pkg/transform"
)

// DefaultChunkSize is the number of files sent to a worker at once.
const DefaultChunkSize = 50

// 📂 FileNames are the config files Find looks for, in order
var FileNames = []string{
	".evcodeshift.yaml",
	".evcodeshift.yml",
	".evcodeshift.json",
	".evcodeshift.hcl",
	".evcodeshift.toml",
}

// DefaultIgnore is used when a config sets no ignore globs.
var DefaultIgnore = []string{
	"**/.git/**",
	"**/node_modules/**",
}

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 📚 Config represents the complete configuration
type Config struct {
	Transform    string         `json:"transform" yaml:"transform" toml:"transform" koanf:"transform"`
	Dialect      string         `json:"dialect,omitempty" yaml:"dialect,omitempty" toml:"dialect,omitempty" koanf:"dialect"`
	Parser       string         `json:"parser,omitempty" yaml:"parser,omitempty" toml:"parser,omitempty" koanf:"parser"`
	ParserConfig map[string]any `json:"parser_config,omitempty" yaml:"parser_config,omitempty" toml:"parser_config,omitempty" koanf:"parser_config"`
	Dry          bool           `json:"dry,omitempty" yaml:"dry,omitempty" toml:"dry,omitempty" koanf:"dry"`
	Print        bool           `json:"print,omitempty" yaml:"print,omitempty" toml:"print,omitempty" koanf:"print"`
	Workers      int            `json:"workers,omitempty" yaml:"workers,omitempty" toml:"workers,omitempty" koanf:"workers"`
	ChunkSize    int            `json:"chunk_size,omitempty" yaml:"chunk_size,omitempty" toml:"chunk_size,omitempty" koanf:"chunk_size"`
	Include      []string       `json:"include,omitempty" yaml:"include,omitempty" toml:"include,omitempty" koanf:"include"`
	Ignore       []string       `json:"ignore,omitempty" yaml:"ignore,omitempty" toml:"ignore,omitempty" koanf:"ignore"`
	Extensions   []string       `json:"extensions,omitempty" yaml:"extensions,omitempty" toml:"extensions,omitempty" koanf:"extensions"`
	Options      map[string]any `json:"options,omitempty" yaml:"options,omitempty" toml:"options,omitempty" koanf:"options"`
	MetricsAddr  string         `json:"metrics_addr,omitempty" yaml:"metrics_addr,omitempty" toml:"metrics_addr,omitempty" koanf:"metrics_addr"`

	location string
}

// Location returns the file the config was loaded from, if any.
func (cfg *Config) Location() string {
	return cfg.location
}

// 🔎 Find returns the first config file present in dir
func Find(dir string) (string, bool) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Configurationf("reading config file: %w", err)
	}

	// Get parser
	p := GetParser(path)
	if p == nil {
		return nil, fault.Configurationf("no parser found for file: %s", path)
	}

	// Parse config
	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, fault.Configurationf("parsing config: %w", err)
	}
	cfg.location = path

	return cfg, nil
}

// 🔍 Validate checks the configuration and fills in defaults
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.Transform) == "" {
		return fault.Configurationf("transform is required")
	}

	switch cfg.Dialect {
	case "", "go", "rules":
	default:
		return fault.Configurationf("unknown dialect %q", cfg.Dialect)
	}

	if cfg.Workers < 0 {
		return fault.Configurationf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.ChunkSize < 0 {
		return fault.Configurationf("chunk_size must not be negative, got %d", cfg.ChunkSize)
	}

	for _, g := range append(append([]string{}, cfg.Include...), cfg.Ignore...) {
		if !doublestar.ValidatePattern(g) {
			return fault.Configurationf("invalid glob %q", g)
		}
	}

	// Set defaults
	if cfg.Workers == 0 {
		cfg.Workers = max(runtime.NumCPU()-1, 1)
	}
	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if len(cfg.Ignore) == 0 {
		cfg.Ignore = append([]string(nil), DefaultIgnore...)
	}
	for i, ext := range cfg.Extensions {
		cfg.Extensions[i] = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	}

	return nil
}

// ⚙️ BatchOptions builds the options sent with every batch
func (cfg *Config) BatchOptions() transform.Options {
	opts := transform.Options{}
	for k, v := range cfg.Options {
		opts[k] = v
	}
	if cfg.Dry {
		opts[transform.OptionDry] = true
	}
	if cfg.Print {
		opts[transform.OptionPrint] = true
	}
	if cfg.Parser != "" {
		opts[transform.OptionParser] = cfg.Parser
	}
	if len(cfg.ParserConfig) > 0 {
		opts[transform.OptionParserConfig] = cfg.ParserConfig
	}
	return opts
}
