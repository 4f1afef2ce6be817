// Package config loads repoviewer settings from a YAML file, a .env file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "repoviewer.yaml"

// Config is the full repoviewer configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Graph   GraphConfig   `yaml:"graph"`
	Scanner ScannerConfig `yaml:"scanner"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// GraphConfig controls the generated DOT document.
type GraphConfig struct {
	LinkScheme  string `yaml:"link_scheme"`
	ModuleColor string `yaml:"module_color"`
	ClassColor  string `yaml:"class_color"`
}

// ScannerConfig controls which files are outlined.
type ScannerConfig struct {
	Languages  []string `yaml:"languages"`
	IgnoreDirs []string `yaml:"ignore_dirs"`
	Gitignore  bool     `yaml:"gitignore"`
	Workers    int      `yaml:"workers"`
}

// CacheConfig controls the sqlite outline cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost", "http://localhost:5173"},
		},
		Graph: GraphConfig{
			LinkScheme:  "cursor://file",
			ModuleColor: "blue",
			ClassColor:  "red",
		},
		Scanner: ScannerConfig{
			Languages:  []string{"python"},
			IgnoreDirs: []string{".venv", "venv", "node_modules", "__pycache__", ".git"},
			Gitignore:  true,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
	}
}

// Load reads the YAML file at path over the defaults and applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Cache.Path == "" {
		dir, err := HomeDir()
		if err != nil {
			return nil, err
		}
		cfg.Cache.Path = filepath.Join(dir, "outlines.db")
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv("REPOVIEWER_ADDR")); v != "" {
		if !strings.Contains(v, ":") {
			v = ":" + v
		}
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("REPOVIEWER_LINK_SCHEME")); v != "" {
		c.Graph.LinkScheme = v
	}
	if v := strings.TrimSpace(os.Getenv("REPOVIEWER_LANGUAGES")); v != "" {
		c.Scanner.Languages = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("REPOVIEWER_ALLOWED_ORIGINS")); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := strings.TrimSpace(os.Getenv("REPOVIEWER_DB")); v != "" {
		c.Cache.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("REPOVIEWER_CACHE")); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid REPOVIEWER_CACHE %q: %w", v, err)
		}
		c.Cache.Enabled = enabled
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
