package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// OutputFlags selects how command results are printed.
type OutputFlags struct {
	Format string `short:"f" default:"text" help:"Output format (text, json or yaml)" enum:"text,json,yaml"`
}

// render writes v as JSON or YAML, or calls text for the text format.
func (o OutputFlags) render(w io.Writer, v any, text func(io.Writer) error) error {
	switch o.Format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

// formatRange renders a range with one-based lines and columns, the way
// editors and compilers report locations.
func formatRange(r textrange.Range) string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line+1, r.Start.Character+1, r.End.Line+1, r.End.Character+1)
}
