// Package langservice assembles the Markdown language features over one
// workspace.
package langservice

import (
	"git.home.luguber.info/inful/mdls/internal/config"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/filerename"
	"git.home.luguber.info/inful/mdls/internal/links"
	"git.home.luguber.info/inful/mdls/internal/markdown"
	"git.home.luguber.info/inful/mdls/internal/metrics"
	"git.home.luguber.info/inful/mdls/internal/references"
	"git.home.luguber.info/inful/mdls/internal/rename"
	"git.home.luguber.info/inful/mdls/internal/selection"
	"git.home.luguber.info/inful/mdls/internal/slugify"
	"git.home.luguber.info/inful/mdls/internal/toc"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

// Options configures a Service.
type Options struct {
	Extensions     workspace.Extensions
	HTMLAttributes map[string][]string
	Recorder       metrics.Recorder
}

// OptionsFromConfig derives service options from the configuration file.
func OptionsFromConfig(cfg *config.Config, recorder metrics.Recorder) Options {
	return Options{
		Extensions:     Extensions(cfg.Markdown),
		HTMLAttributes: cfg.Links.HTMLTags,
		Recorder:       recorder,
	}
}

// Extensions orders the configured extensions so the default comes first.
func Extensions(cfg config.MarkdownConfig) workspace.Extensions {
	if len(cfg.FileExtensions) == 0 {
		return workspace.DefaultExtensions
	}
	out := make(workspace.Extensions, 0, len(cfg.FileExtensions))
	if cfg.DefaultExtension != "" {
		out = append(out, cfg.DefaultExtension)
	}
	for _, ext := range cfg.FileExtensions {
		if ext != cfg.DefaultExtension {
			out = append(out, ext)
		}
	}
	return out
}

// Service holds every language feature provider of one workspace.
type Service struct {
	Workspace  workspace.Workspace
	Extensions workspace.Extensions
	Recorder   metrics.Recorder
	Tokenizer  markdown.Tokenizer
	TOC        *toc.Provider
	Links      *links.Provider
	References *references.Provider
	Rename     *rename.Provider
	FileRename *filerename.Provider
	Selection  *selection.Provider
}

// New wires the providers together.
func New(ws workspace.Workspace, opts Options) *Service {
	recorder := metrics.OrNoop(opts.Recorder)
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = workspace.DefaultExtensions
	}

	tokenizer := markdown.NewTokenizer(recorder)
	tocProvider := toc.NewProvider(ws, tokenizer, slugify.GitHub, recorder)
	computer := links.NewComputer(tokenizer, ws, links.WithHTMLAttributes(opts.HTMLAttributes))
	linkProvider := links.NewProvider(computer, ws, tocProvider, recorder, links.WithExtensions(exts))
	refs := references.NewProvider(linkProvider, tocProvider)

	return &Service{
		Workspace:  ws,
		Extensions: exts,
		Recorder:   recorder,
		Tokenizer:  tokenizer,
		TOC:        tocProvider,
		Links:      linkProvider,
		References: refs,
		Rename:     rename.NewProvider(linkProvider, refs, tocProvider, tokenizer),
		FileRename: filerename.NewProvider(linkProvider),
		Selection:  selection.NewProvider(tokenizer, tocProvider, linkProvider),
	}
}

// Invalidate drops cached results for a document changed outside the editor.
func (s *Service) Invalidate(uri docuri.URI) {
	s.Links.Invalidate(uri)
}
