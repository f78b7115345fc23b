// Package config loads the mdls configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
)

// Config is the complete server configuration.
type Config struct {
	Markdown  MarkdownConfig  `yaml:"markdown"`
	Links     LinksConfig     `yaml:"links"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Workspace WorkspaceConfig `yaml:"workspace"`
}

// MarkdownConfig controls which files are treated as Markdown.
type MarkdownConfig struct {
	FileExtensions []string `yaml:"file_extensions"` // Without the leading dot
	// DefaultExtension is appended to extensionless link targets. It defaults
	// to the first file extension.
	DefaultExtension string `yaml:"default_extension,omitempty"`
}

// LinksConfig controls link detection.
type LinksConfig struct {
	// HTMLTags maps a tag name to the attributes holding links, replacing the
	// built-in table when set.
	HTMLTags map[string][]string `yaml:"html_tags,omitempty"`
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Listen string `yaml:"listen,omitempty"` // host:port, empty disables the endpoint
	Path   string `yaml:"path,omitempty"`
}

// WorkspaceConfig controls how workspace folders are scanned.
type WorkspaceConfig struct {
	Exclude []string `yaml:"exclude,omitempty"` // Glob patterns relative to a workspace folder
	Watch   *bool    `yaml:"watch,omitempty"`
}

// WatchEnabled reports whether file system changes should be watched.
func (w WorkspaceConfig) WatchEnabled() bool {
	return w.Watch == nil || *w.Watch
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	if err := applyDefaults(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load reads a configuration file. Environment variables from .env files are
// loaded first and ${VAR} references in the file are expanded. An empty path
// yields the defaults.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	if configPath == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mdlserrors.ConfigError(fmt.Sprintf("configuration file not found: %s", configPath)).
				WithContext("path", configPath).
				Build()
		}
		return nil, mdlserrors.WrapError(err, mdlserrors.CategoryFileSystem, "failed to read config file").
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse decodes, normalizes, defaults and validates configuration YAML.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, mdlserrors.WrapError(err, mdlserrors.CategoryConfig, "failed to unmarshal config").Build()
	}

	res := normalizeConfig(&cfg)
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "config normalization: %s\n", w)
	}
	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return mdlserrors.ConfigError(fmt.Sprintf("configuration file already exists: %s (use --force to overwrite)", configPath)).Build()
	}

	watch := true
	example := Config{
		Markdown: MarkdownConfig{FileExtensions: []string{"md", "markdown"}},
		Logging:  LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Metrics:  MetricsConfig{Listen: "", Path: "/metrics"},
		Workspace: WorkspaceConfig{
			Exclude: []string{"node_modules/**", ".git/**"},
			Watch:   &watch,
		},
	}
	data, err := yaml.Marshal(&example)
	if err != nil {
		return mdlserrors.WrapError(err, mdlserrors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return mdlserrors.WrapError(err, mdlserrors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}
