package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all domark configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Document parsing settings
	Document DocumentConfig `yaml:"document"`

	// Virtual path mappings
	Paths PathsConfig `yaml:"paths"`

	// Shell execution settings
	Execution ExecutionConfig `yaml:"execution"`

	// apply_diff settings
	Patch PatchConfig `yaml:"patch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DocumentConfig configures the document parser.
type DocumentConfig struct {
	// ConfigBlockLang is the info-string tag marking the session config fence.
	ConfigBlockLang string `yaml:"config_block_lang"`

	// MetadataBlockLang is the info-string tag marking per-message metadata fences.
	MetadataBlockLang string `yaml:"metadata_block_lang"`

	// ResolveInclusions toggles [include](...) resolution.
	ResolveInclusions bool `yaml:"resolve_inclusions"`
}

// PathsConfig configures virtual-to-real path mapping.
type PathsConfig struct {
	// FSMap is a raw mapping string: "virtual:real;virtual:real".
	// Overridden by the DOMARK_FS_MAP environment variable.
	FSMap string `yaml:"fs_map"`

	// TmpDir, when set, adds a default /tmp mapping to this directory.
	// Overridden by DOMARK_FS_MAP_TMP_DIR.
	TmpDir string `yaml:"tmp_dir"`
}

// ExecutionConfig configures the execute_command tool.
type ExecutionConfig struct {
	Shell          string `yaml:"shell"`
	Timeout        string `yaml:"timeout"`
	MaxOutputBytes int    `yaml:"max_output_bytes"`
}

// PatchConfig configures the apply_diff matcher.
type PatchConfig struct {
	// SearchWindow is the +/- line offset searched when the declared
	// start line does not match exactly.
	SearchWindow int `yaml:"search_window"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "domark",
		Version: "0.3.0",

		Document: DocumentConfig{
			ConfigBlockLang:   "session-config",
			MetadataBlockLang: "msg-metadata",
			ResolveInclusions: true,
		},

		Paths: PathsConfig{},

		Execution: ExecutionConfig{
			Shell:          "sh",
			Timeout:        "60s",
			MaxOutputBytes: 50000,
		},

		Patch: PatchConfig{
			SearchWindow: 5,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// if the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOMARK_FS_MAP"); v != "" {
		c.Paths.FSMap = v
	}
	if v := os.Getenv("DOMARK_FS_MAP_TMP_DIR"); v != "" {
		c.Paths.TmpDir = v
	}
	if v := os.Getenv("DOMARK_SHELL"); v != "" {
		c.Execution.Shell = v
	}
	if v := os.Getenv("DOMARK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// GetExecutionTimeout parses the execution timeout duration.
func (c *Config) GetExecutionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Execution.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Document.ConfigBlockLang == "" {
		return fmt.Errorf("document.config_block_lang cannot be empty")
	}
	if c.Document.MetadataBlockLang == "" {
		return fmt.Errorf("document.metadata_block_lang cannot be empty")
	}
	if c.Patch.SearchWindow < 0 {
		return fmt.Errorf("patch.search_window cannot be negative")
	}
	if c.Execution.MaxOutputBytes <= 0 {
		return fmt.Errorf("execution.max_output_bytes must be positive")
	}
	return nil
}
