package commands

import (
	"context"
	"fmt"
	"io"

	"git.home.luguber.info/inful/mdls/internal/references"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// ReferencesCmd implements the 'references' command.
type ReferencesCmd struct {
	WorkspaceFlags
	OutputFlags
	File string `arg:"" help:"Markdown file or other workspace resource" type:"path"`
	Line int    `help:"One-based line; with --column, find references to the link or header there instead of the file"`
	Col  int    `name:"column" help:"One-based column"`
}

type referenceRecord struct {
	Kind       string          `json:"kind" yaml:"kind"`
	URI        string          `json:"uri" yaml:"uri"`
	Range      textrange.Range `json:"range" yaml:"range"`
	Definition bool            `json:"definition,omitempty" yaml:"definition,omitempty"`
	Trigger    bool            `json:"trigger,omitempty" yaml:"trigger,omitempty"`
}

func (r *ReferencesCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(r.Root, root.LoadedConfig())
	if err != nil {
		return err
	}

	var refs []references.Reference
	if r.Line > 0 {
		doc, err := s.openDocument(ctx, r.File)
		if err != nil {
			return err
		}
		refs, err = s.svc.References.GetReferencesAtPosition(ctx, doc, textrange.Pos(r.Line-1, max(r.Col-1, 0)))
		if err != nil {
			return err
		}
	} else {
		uri, err := fileURI(r.File)
		if err != nil {
			return err
		}
		refs, err = s.svc.References.GetReferencesToFileInWorkspace(ctx, uri)
		if err != nil {
			return err
		}
	}

	records := make([]referenceRecord, 0, len(refs))
	for _, ref := range refs {
		kind := "link"
		if ref.Kind == references.KindHeader {
			kind = "header"
		}
		records = append(records, referenceRecord{
			Kind:       kind,
			URI:        ref.Location.URI.String(),
			Range:      ref.Location.Range,
			Definition: ref.IsDefinition,
			Trigger:    ref.IsTriggerLocation,
		})
	}
	return r.render(g.out(), records, func(w io.Writer) error {
		for _, rec := range records {
			if _, err := fmt.Fprintf(w, "%s:%s\t%s\n", rec.URI, formatRange(rec.Range), rec.Kind); err != nil {
				return err
			}
		}
		return nil
	})
}
