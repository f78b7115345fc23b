package config

import (
	"fmt"
	"net"
	"path"
	"strings"

	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
)

// Validate checks the configuration after defaults have been applied.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateMarkdown,
		c.validateLinks,
		c.validateLogging,
		c.validateMetrics,
		c.validateWorkspace,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateMarkdown() error {
	if len(c.Markdown.FileExtensions) == 0 {
		return mdlserrors.ConfigError("markdown.file_extensions must list at least one extension").Build()
	}
	for _, ext := range c.Markdown.FileExtensions {
		if ext == "" || strings.ContainsAny(ext, "/\\ ") {
			return mdlserrors.ConfigError(fmt.Sprintf("invalid markdown file extension %q", ext)).
				WithContext("field", "markdown.file_extensions").
				Build()
		}
	}
	for _, ext := range c.Markdown.FileExtensions {
		if ext == c.Markdown.DefaultExtension {
			return nil
		}
	}
	return mdlserrors.ConfigError(fmt.Sprintf("markdown.default_extension %q is not one of the file extensions", c.Markdown.DefaultExtension)).
		WithContext("field", "markdown.default_extension").
		Build()
}

func (c *Config) validateLinks() error {
	for tag, attrs := range c.Links.HTMLTags {
		if strings.TrimSpace(tag) == "" {
			return mdlserrors.ConfigError("links.html_tags contains an empty tag name").Build()
		}
		if len(attrs) == 0 {
			return mdlserrors.ConfigError(fmt.Sprintf("links.html_tags.%s must list at least one attribute", tag)).
				WithContext("field", "links.html_tags").
				Build()
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logLevels.valid(c.Logging.Level) {
		return mdlserrors.ConfigError(fmt.Sprintf("invalid logging.level %q, valid options: %s", c.Logging.Level, logLevels.describe())).Build()
	}
	if !logFormats.valid(c.Logging.Format) {
		return mdlserrors.ConfigError(fmt.Sprintf("invalid logging.format %q, valid options: %s", c.Logging.Format, logFormats.describe())).Build()
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if c.Metrics.Listen == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
		return mdlserrors.WrapError(err, mdlserrors.CategoryConfig, fmt.Sprintf("invalid metrics.listen %q", c.Metrics.Listen)).Build()
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return mdlserrors.ConfigError(fmt.Sprintf("metrics.path %q must start with '/'", c.Metrics.Path)).Build()
	}
	return nil
}

func (c *Config) validateWorkspace() error {
	for _, pattern := range c.Workspace.Exclude {
		if _, err := path.Match(pattern, ""); err != nil {
			return mdlserrors.WrapError(err, mdlserrors.CategoryConfig, fmt.Sprintf("invalid workspace.exclude pattern %q", pattern)).Build()
		}
	}
	return nil
}
