package commands

import (
	"context"
	"fmt"
	"io"

	mdlserrors "git.home.luguber.info/inful/mdls/internal/foundation/errors"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	WorkspaceFlags
	OutputFlags
	File string `arg:"" help:"Markdown file the link is written in" type:"path"`
	Link string `arg:"" help:"Link destination, e.g. ./other.md#section"`
}

// targetRecord is a printed link target.
type targetRecord struct {
	Kind     string              `json:"kind" yaml:"kind"`
	URI      string              `json:"uri" yaml:"uri"`
	Position *textrange.Position `json:"position,omitempty" yaml:"position,omitempty"`
	Fragment string              `json:"fragment,omitempty" yaml:"fragment,omitempty"`
}

func newTargetRecord(t *links.ResolvedTarget) *targetRecord {
	if t == nil {
		return nil
	}
	return &targetRecord{Kind: string(t.Kind), URI: t.URI.String(), Position: t.Position, Fragment: t.Fragment}
}

func (t *targetRecord) String() string {
	s := t.Kind + " " + t.URI
	if t.Position != nil {
		s += fmt.Sprintf(":%d:%d", t.Position.Line+1, t.Position.Character+1)
	}
	return s
}

func (r *ResolveCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	s, err := openSession(r.Root, root.LoadedConfig())
	if err != nil {
		return err
	}
	source, err := fileURI(r.File)
	if err != nil {
		return err
	}

	target, err := s.svc.Links.ResolveLinkTarget(ctx, r.Link, source)
	if err != nil {
		return err
	}
	if target == nil {
		return mdlserrors.ValidationError("not a resolvable link").WithContext("link", r.Link).Build()
	}

	rec := newTargetRecord(target)
	return r.render(g.out(), rec, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, rec.String())
		return err
	})
}
