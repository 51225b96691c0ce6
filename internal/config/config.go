// Package config loads runtime settings from defaults, an optional YAML
// file, EXCALIBUR_ environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	flag "github.com/spf13/pflag"
)

// Config holds every runtime setting.
type Config struct {
	// DataDir is the root for the schedule database, the content blobs and
	// the deck repository cache.
	DataDir string `koanf:"data_dir" validate:"required"`

	// Editor is the command used to edit card content. Arguments are
	// allowed; the file path is appended.
	Editor string `koanf:"editor" validate:"required"`

	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// DesiredRetention is the scheduling target recall probability.
	DesiredRetention float64 `koanf:"desired_retention" validate:"gt=0,lt=1"`
}

const envPrefix = "EXCALIBUR_"

func defaults() map[string]any {
	ed := os.Getenv("EDITOR")
	if ed == "" {
		ed = "vi"
	}
	return map[string]any{
		"data_dir":          "~/.excalibur",
		"editor":            ed,
		"log_level":         "info",
		"desired_retention": 0.9,
	}
}

// Load builds the configuration. configFile may be empty or point to a
// missing file; both fall through to defaults, environment and flags. flags
// may be nil.
func Load(configFile string, flags *flag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	for key, val := range defaults() {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", configFile, err)
			}
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return key, value
		},
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	cfg.DataDir, err = expandHome(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// DatabasePath is the sqlite file under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "excalibur.db")
}

// ContentDir holds the per-card markdown blobs.
func (c *Config) ContentDir() string {
	return filepath.Join(c.DataDir, "cards")
}

// RepoCacheDir holds checkouts of imported deck repositories.
func (c *Config) RepoCacheDir() string {
	return filepath.Join(c.DataDir, "repos")
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
