package config

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// MarkdownDefaultApplier handles Markdown defaults.
type MarkdownDefaultApplier struct{}

func (MarkdownDefaultApplier) Domain() string { return "markdown" }

func (MarkdownDefaultApplier) ApplyDefaults(cfg *Config) error {
	if len(cfg.Markdown.FileExtensions) == 0 {
		cfg.Markdown.FileExtensions = []string{"md", "markdown"}
	}
	if cfg.Markdown.DefaultExtension == "" {
		cfg.Markdown.DefaultExtension = cfg.Markdown.FileExtensions[0]
	}
	return nil
}

// LoggingDefaultApplier handles logging defaults.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	return nil
}

// MetricsDefaultApplier handles metrics endpoint defaults.
type MetricsDefaultApplier struct{}

func (MetricsDefaultApplier) Domain() string { return "metrics" }

func (MetricsDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	return nil
}

// WorkspaceDefaultApplier handles workspace defaults.
type WorkspaceDefaultApplier struct{}

func (WorkspaceDefaultApplier) Domain() string { return "workspace" }

func (WorkspaceDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Workspace.Watch == nil {
		watch := true
		cfg.Workspace.Watch = &watch
	}
	return nil
}

// defaultAppliers run in order.
var defaultAppliers = []DefaultApplier{
	MarkdownDefaultApplier{},
	LoggingDefaultApplier{},
	MetricsDefaultApplier{},
	WorkspaceDefaultApplier{},
}

func applyDefaults(cfg *Config) error {
	for _, applier := range defaultAppliers {
		if err := applier.ApplyDefaults(cfg); err != nil {
			return err
		}
	}
	return nil
}
