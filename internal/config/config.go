package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/kennyg/skillcheck/internal/skill"
)

// Following the dot-config specification: https://dot-config.github.io/
// User config:    ~/.config/skillcheck/config.yaml (or $XDG_CONFIG_HOME/skillcheck/)
// Project config: .config/skillcheck/config.yaml, or .skillcheck.yaml, in the corpus root

const (
	// ConfigDir is the subdirectory name under .config
	ConfigDir = "skillcheck"
	// ConfigFile is the filename inside ConfigDir
	ConfigFile = "config.yaml"
	// DotFile is the single-file alternative placed in a corpus root
	DotFile = ".skillcheck.yaml"
	// EnvPrefix prefixes environment overrides, e.g. SKILLCHECK_STRICT=true
	EnvPrefix = "SKILLCHECK"
)

// Config holds validator settings
type Config struct {
	// Index is the root index document; empty disables index checks
	Index string `yaml:"index"`

	// Required lists frontmatter keys every SKILL.md must carry (dotted for nesting)
	Required []string `yaml:"required"`

	// Ignore holds doublestar patterns for paths to skip
	Ignore []string `yaml:"ignore"`

	MaxNameLength          int `yaml:"max_name_length"`
	MaxDescriptionLength   int `yaml:"max_description_length"`
	MaxCompatibilityLength int `yaml:"max_compatibility_length"`

	// CheckAnchors verifies #fragment links against headings
	CheckAnchors bool `yaml:"check_anchors"`

	// RequireIndexCoverage warns about skills whose hub or directory the index never links to
	RequireIndexCoverage bool `yaml:"require_index_coverage"`

	// RequireSpokeCoverage warns about references/ files that no chain of links from the hub reaches
	RequireSpokeCoverage bool `yaml:"require_spoke_coverage"`

	// Strict makes warnings fail the run
	Strict bool `yaml:"strict"`

	Log LogConfig `yaml:"log"`

	// Source is the file the config was read from, "" when only defaults apply
	Source string `yaml:"-"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Index:                  skill.DefaultIndex,
		Required:               []string{"name", "description", "license", "metadata.author", "metadata.version"},
		Ignore:                 []string{".git/**", "**/node_modules/**"},
		MaxNameLength:          64,
		MaxDescriptionLength:   1024,
		MaxCompatibilityLength: 500,
		CheckAnchors:           true,
		RequireIndexCoverage:   true,
		RequireSpokeCoverage:   true,
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("index", d.Index)
	v.SetDefault("required", d.Required)
	v.SetDefault("ignore", d.Ignore)
	v.SetDefault("max_name_length", d.MaxNameLength)
	v.SetDefault("max_description_length", d.MaxDescriptionLength)
	v.SetDefault("max_compatibility_length", d.MaxCompatibilityLength)
	v.SetDefault("check_anchors", d.CheckAnchors)
	v.SetDefault("require_index_coverage", d.RequireIndexCoverage)
	v.SetDefault("require_spoke_coverage", d.RequireSpokeCoverage)
	v.SetDefault("strict", d.Strict)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads configuration for the corpus at root.
//
// Priority (highest to lowest):
//  1. Environment variables with SKILLCHECK_ prefix (e.g., SKILLCHECK_LOG_LEVEL)
//  2. explicit, if non-empty, else the first config found by Find
//  3. Built-in defaults
func Load(root, explicit string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	path := explicit
	if path == "" {
		path = Find(root)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Index:                  v.GetString("index"),
		Required:               v.GetStringSlice("required"),
		Ignore:                 v.GetStringSlice("ignore"),
		MaxNameLength:          v.GetInt("max_name_length"),
		MaxDescriptionLength:   v.GetInt("max_description_length"),
		MaxCompatibilityLength: v.GetInt("max_compatibility_length"),
		CheckAnchors:           v.GetBool("check_anchors"),
		RequireIndexCoverage:   v.GetBool("require_index_coverage"),
		RequireSpokeCoverage:   v.GetBool("require_spoke_coverage"),
		Strict:                 v.GetBool("strict"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Source: path,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that limits are usable.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxNameLength <= 0 {
		errs = append(errs, fmt.Errorf("max_name_length must be positive, got %d", c.MaxNameLength))
	}
	if c.MaxDescriptionLength <= 0 {
		errs = append(errs, fmt.Errorf("max_description_length must be positive, got %d", c.MaxDescriptionLength))
	}
	if c.MaxCompatibilityLength <= 0 {
		errs = append(errs, fmt.Errorf("max_compatibility_length must be positive, got %d", c.MaxCompatibilityLength))
	}
	for _, key := range c.Required {
		if strings.TrimSpace(key) == "" || strings.HasPrefix(key, ".") || strings.HasSuffix(key, ".") {
			errs = append(errs, fmt.Errorf("invalid required key %q", key))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Find locates the config that applies to a corpus root.
// It walks up from root looking for .config/skillcheck/config.yaml or
// .skillcheck.yaml, stopping at the repository root, then falls back to
// the user config directory.
func Find(root string) string {
	if dir, err := filepath.Abs(root); err == nil {
		for {
			for _, candidate := range projectCandidates(dir) {
				if isFile(candidate) {
					return candidate
				}
			}

			// Stop at repo root
			if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
				break
			}

			parent := filepath.Dir(dir)
			if parent == dir {
				break // reached filesystem root
			}
			dir = parent
		}
	}

	if userDir, err := UserConfigDir(); err == nil {
		if candidate := filepath.Join(userDir, ConfigFile); isFile(candidate) {
			return candidate
		}
	}

	return ""
}

func projectCandidates(dir string) []string {
	return []string{
		filepath.Join(dir, ".config", ConfigDir, ConfigFile),
		filepath.Join(dir, DotFile),
	}
}

// UserConfigDir returns ~/.config/skillcheck (or $XDG_CONFIG_HOME/skillcheck)
func UserConfigDir() (string, error) {
	// Follow XDG Base Directory spec
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDir), nil
}

// ProjectPath returns where `skillcheck init` writes the config for a corpus root.
func ProjectPath(root string) string {
	return filepath.Join(root, ".config", ConfigDir, ConfigFile)
}

// Write saves cfg as YAML, creating parent directories.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	header := "# skillcheck configuration\n# Environment variables prefixed with SKILLCHECK_ override these values.\n\n"
	return os.WriteFile(path, append([]byte(header), data...), 0644)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
