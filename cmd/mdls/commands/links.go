package commands

import (
	"context"
	"fmt"
	"io"

	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// LinksCmd implements the 'links' command.
type LinksCmd struct {
	WorkspaceFlags
	OutputFlags
	File    string `arg:"" help:"Markdown file" type:"path"`
	Resolve bool   `help:"Resolve internal link targets"`
}

// linkRecord is one printed link.
type linkRecord struct {
	Kind     string          `json:"kind" yaml:"kind"`
	Href     string          `json:"href" yaml:"href"`
	Range    textrange.Range `json:"range" yaml:"range"`
	Ref      string          `json:"ref,omitempty" yaml:"ref,omitempty"`
	Target   string          `json:"target,omitempty" yaml:"target,omitempty"`
	Resolved *targetRecord   `json:"resolved,omitempty" yaml:"resolved,omitempty"`
}

func (l *LinksCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(l.Root, root.LoadedConfig())
	if err != nil {
		return err
	}
	doc, err := s.openDocument(ctx, l.File)
	if err != nil {
		return err
	}
	docLinks, err := s.svc.Links.GetLinks(ctx, doc)
	if err != nil {
		return err
	}

	records := make([]linkRecord, 0, len(docLinks.Links))
	for _, link := range docLinks.Links {
		rec := linkRecord{Kind: link.Kind.String(), Href: link.Source.HrefText, Range: link.Source.Range}
		if link.Ref != nil {
			rec.Ref = link.Ref.Text
		}
		switch href := link.Href.(type) {
		case links.ExternalHref:
			rec.Target = href.URI.String()
		case links.InternalHref:
			rec.Target = href.Path.WithFragment(href.Fragment).String()
			if l.Resolve {
				target, err := s.svc.Links.ResolveLinkTarget(ctx, link.Source.HrefText, doc.URI())
				if err != nil {
					return err
				}
				rec.Resolved = newTargetRecord(target)
			}
		case links.ReferenceHref:
			if def, ok := docLinks.Definitions.Lookup(href.Ref); ok {
				rec.Target = fmt.Sprintf("[%s] at %s", href.Ref, formatRange(def.Source.HrefRange))
			}
		}
		records = append(records, rec)
	}

	return l.render(g.out(), records, func(w io.Writer) error {
		for _, rec := range records {
			line := fmt.Sprintf("%s\t%s\t%s", formatRange(rec.Range), rec.Kind, rec.Href)
			if rec.Target != "" {
				line += "\t-> " + rec.Target
			}
			if rec.Resolved != nil {
				line += "\t=> " + rec.Resolved.String()
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	})
}
