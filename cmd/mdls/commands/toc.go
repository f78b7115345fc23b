package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// TocCmd implements the 'toc' command.
type TocCmd struct {
	WorkspaceFlags
	OutputFlags
	File string `arg:"" help:"Markdown file" type:"path"`
}

type tocRecord struct {
	Level int    `json:"level" yaml:"level"`
	Text  string `json:"text" yaml:"text"`
	Slug  string `json:"slug" yaml:"slug"`
	Line  int    `json:"line" yaml:"line"`
	// EndLine is the last line of the header's section.
	EndLine int `json:"end_line" yaml:"end_line"`
}

func (t *TocCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(t.Root, root.LoadedConfig())
	if err != nil {
		return err
	}
	doc, err := s.openDocument(ctx, t.File)
	if err != nil {
		return err
	}
	contents, err := s.svc.TOC.GetForDocument(ctx, doc)
	if err != nil {
		return err
	}

	records := make([]tocRecord, 0, len(contents.Entries))
	for _, e := range contents.Entries {
		records = append(records, tocRecord{
			Level:   e.Level,
			Text:    e.Text,
			Slug:    e.Slug.Value(),
			Line:    e.Line + 1,
			EndLine: e.SectionLocation.Range.End.Line + 1,
		})
	}
	return t.render(g.out(), records, func(w io.Writer) error {
		for _, r := range records {
			indent := strings.Repeat("  ", max(r.Level-1, 0))
			if _, err := fmt.Fprintf(w, "%s- %s (#%s) %d-%d\n", indent, r.Text, r.Slug, r.Line, r.EndLine); err != nil {
				return err
			}
		}
		return nil
	})
}
