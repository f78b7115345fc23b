package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments made before defaults are applied.
type NormalizationResult struct {
	Warnings []string
}

// normalizeConfig canonicalizes enumerations and list entries in place.
func normalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	normalizeLogging(&c.Logging, res)
	normalizeMarkdown(&c.Markdown, res)
	return res
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if strings.TrimSpace(string(l.Level)) != "" {
		level, ok := logLevels.normalize(string(l.Level))
		switch {
		case !ok:
			res.Warnings = append(res.Warnings, warnUnknown("logging.level", string(l.Level), string(level)))
		case level != l.Level:
			res.Warnings = append(res.Warnings, warnChanged("logging.level", l.Level, level))
		}
		l.Level = level
	}
	if strings.TrimSpace(string(l.Format)) != "" {
		format, ok := logFormats.normalize(string(l.Format))
		switch {
		case !ok:
			res.Warnings = append(res.Warnings, warnUnknown("logging.format", string(l.Format), string(format)))
		case format != l.Format:
			res.Warnings = append(res.Warnings, warnChanged("logging.format", l.Format, format))
		}
		l.Format = format
	}
}

// normalizeMarkdown strips leading dots and lower-cases extensions.
func normalizeMarkdown(m *MarkdownConfig, res *NormalizationResult) {
	seen := make(map[string]struct{}, len(m.FileExtensions))
	exts := make([]string, 0, len(m.FileExtensions))
	for _, raw := range m.FileExtensions {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), "."))
		if ext != raw {
			res.Warnings = append(res.Warnings, warnChanged("markdown.file_extensions", raw, ext))
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	m.FileExtensions = exts
	m.DefaultExtension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(m.DefaultExtension), "."))
}

func warnChanged[T ~string](field string, from, to T) string {
	return fmt.Sprintf("normalized %s from %q to %q", field, string(from), string(to))
}

func warnUnknown(field, value, fallback string) string {
	return fmt.Sprintf("unknown %s %q, using %q", field, value, fallback)
}
