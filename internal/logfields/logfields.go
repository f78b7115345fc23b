package logfields

import (
	"fmt"
	"log/slog"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyURI        = "uri"
	KeyVersion    = "version"
	KeyPosition   = "position"
	KeyLinkCount  = "link_count"
	KeyHref       = "href"
	KeyMethod     = "method"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyCache      = "cache"
	KeyCount      = "count"
	KeyError      = "error"
	KeyResult     = "result"
	KeyService    = "service"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func URI(uri string) slog.Attr        { return slog.String(KeyURI, uri) }
func Version(v int32) slog.Attr       { return slog.Int(KeyVersion, int(v)) }
func LinkCount(n int) slog.Attr       { return slog.Int(KeyLinkCount, n) }
func Href(h string) slog.Attr         { return slog.String(KeyHref, h) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Cache(name string) slog.Attr     { return slog.String(KeyCache, name) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Result(r string) slog.Attr       { return slog.String(KeyResult, r) }
func Service(name string) slog.Attr   { return slog.String(KeyService, name) }

// Position renders a zero-based line/character pair as "line:character".
func Position(line, character int) slog.Attr {
	return slog.String(KeyPosition, fmt.Sprintf("%d:%d", line, character))
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
