package links

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"

	"git.home.luguber.info/inful/mdls/internal/doccache"
	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/logfields"
	"git.home.luguber.info/inful/mdls/internal/metrics"
	"git.home.luguber.info/inful/mdls/internal/textrange"
	"git.home.luguber.info/inful/mdls/internal/toc"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

// DocumentLinks are the links of one document version.
type DocumentLinks struct {
	URI         docuri.URI
	Links       []Link
	Definitions *DefinitionSet
}

// DocumentLink is a clickable link handed to an editor. Internal links are
// resolved lazily: Target stays empty and Data carries the href.
type DocumentLink struct {
	Range   textrange.Range
	Target  string
	Tooltip string
	Data    *LinkData
}

// LinkData is the deferred part of an internal document link.
type LinkData struct {
	Path     string `json:"path"`
	Fragment string `json:"fragment"`
}

// TargetKind classifies a resolved link target.
type TargetKind string

const (
	TargetFile     TargetKind = "file"
	TargetFolder   TargetKind = "folder"
	TargetExternal TargetKind = "external"
)

// ResolvedTarget is where following a link leads.
type ResolvedTarget struct {
	Kind TargetKind
	URI  docuri.URI
	// Position is set when the fragment names a line or a header.
	Position *textrange.Position
	// Fragment is set when the target position came from a header.
	Fragment string
}

var lineFragmentRe = regexp.MustCompile(`(?i)^L(\d+)(?:,(\d+))?$`)

// Provider caches document links and resolves link targets.
type Provider struct {
	computer   *Computer
	ws         workspace.Workspace
	toc        *toc.Provider
	extensions workspace.Extensions
	recorder   metrics.Recorder
	cache      *doccache.VersionCache[*DocumentLinks]
}

// ProviderOption customises a Provider.
type ProviderOption func(*Provider)

// WithExtensions sets the Markdown extensions used for extensionless targets.
func WithExtensions(exts workspace.Extensions) ProviderOption {
	return func(p *Provider) {
		if len(exts) > 0 {
			p.extensions = exts
		}
	}
}

// NewProvider creates a link provider.
func NewProvider(computer *Computer, ws workspace.Workspace, tocProvider *toc.Provider, recorder metrics.Recorder, opts ...ProviderOption) *Provider {
	p := &Provider{
		computer:   computer,
		ws:         ws,
		toc:        tocProvider,
		extensions: workspace.DefaultExtensions,
		recorder:   metrics.OrNoop(recorder),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.cache = doccache.New("links", p.compute, p.recorder)
	return p
}

func (p *Provider) compute(ctx context.Context, doc *document.Document) (*DocumentLinks, error) {
	all, err := p.computer.GetAllLinks(ctx, doc)
	if err != nil {
		return nil, err
	}
	p.recorder.ObserveDocumentLinks(len(all))
	slog.Debug("Computed document links",
		logfields.URI(doc.URI().String()),
		logfields.Version(doc.Version()),
		logfields.LinkCount(len(all)))
	return &DocumentLinks{URI: doc.URI(), Links: all, Definitions: NewDefinitionSet(all)}, nil
}

// Extensions returns the configured Markdown extensions.
func (p *Provider) Extensions() workspace.Extensions {
	return p.extensions
}

// Workspace returns the workspace links are resolved against.
func (p *Provider) Workspace() workspace.Workspace {
	return p.ws
}

// GetLinks returns the links and definitions of doc.
func (p *Provider) GetLinks(ctx context.Context, doc *document.Document) (*DocumentLinks, error) {
	return p.cache.Get(ctx, doc)
}

// Invalidate drops cached links for a document.
func (p *Provider) Invalidate(uri docuri.URI) {
	p.cache.Invalidate(uri.Key())
}

// WorkspaceLinks returns the links of every Markdown document in the workspace.
func (p *Provider) WorkspaceLinks(ctx context.Context) ([]*DocumentLinks, error) {
	docs, err := p.ws.AllMarkdownDocuments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*DocumentLinks, 0, len(docs))
	for _, doc := range docs {
		links, err := p.GetLinks(ctx, doc)
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, nil
		}
		out = append(out, links)
	}
	return out, nil
}

// ProvideDocumentLinks returns the clickable links of doc. Reference links are
// only returned when their definition exists.
func (p *Provider) ProvideDocumentLinks(ctx context.Context, doc *document.Document) ([]DocumentLink, error) {
	links, err := p.GetLinks(ctx, doc)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil || links == nil {
		return nil, nil
	}

	out := make([]DocumentLink, 0, len(links.Links))
	for _, link := range links.Links {
		if dl, ok := toDocumentLink(link, links.Definitions); ok {
			out = append(out, dl)
		}
	}
	return out, nil
}

func toDocumentLink(link Link, definitions *DefinitionSet) (DocumentLink, bool) {
	switch href := link.Href.(type) {
	case ExternalHref:
		return DocumentLink{Range: link.Source.HrefRange, Target: href.URI.String()}, true
	case InternalHref:
		return DocumentLink{
			Range: link.Source.HrefRange,
			Data:  &LinkData{Path: href.Path.String(), Fragment: href.Fragment},
		}, true
	case ReferenceHref:
		def, ok := definitions.Lookup(href.Ref)
		if !ok {
			return DocumentLink{}, false
		}
		start := def.Source.HrefRange.Start
		return DocumentLink{
			Range:   link.Source.HrefRange,
			Target:  CommandURI(CommandMoveCursor, start.Line, start.Character),
			Tooltip: "Go to link definition",
		}, true
	default:
		return DocumentLink{}, false
	}
}

// ResolveDocumentLink fills in the target of a deferred internal link. Links
// that carry no deferred data resolve to nil.
func (p *Provider) ResolveDocumentLink(ctx context.Context, link *DocumentLink) (*DocumentLink, error) {
	if link == nil || link.Data == nil {
		return nil, nil
	}
	path, err := docuri.Parse(link.Data.Path)
	if err != nil {
		return nil, err
	}

	target, err := p.resolveInternalTarget(ctx, path, link.Data.Fragment)
	if err != nil || target == nil {
		return nil, err
	}

	resolved := *link
	switch target.Kind {
	case TargetFolder:
		resolved.Target = CommandURI(CommandRevealInExplorer, path.String())
	case TargetExternal:
		resolved.Target = target.URI.String()
	case TargetFile:
		if target.Position != nil {
			resolved.Target = CommandURI(CommandOpen, target.URI.String(), *target.Position)
		} else {
			resolved.Target = target.URI.String()
		}
	}
	return &resolved, nil
}

// ResolveLinkTarget resolves link text written in source without requiring a
// parsed link.
func (p *Provider) ResolveLinkTarget(ctx context.Context, linkText string, source docuri.URI) (*ResolvedTarget, error) {
	href, ok := CreateHref(source, linkText, p.ws)
	if !ok {
		return nil, nil
	}
	switch h := href.(type) {
	case ExternalHref:
		return &ResolvedTarget{Kind: TargetExternal, URI: h.URI}, nil
	case InternalHref:
		return p.resolveInternalTarget(ctx, h.Path, h.Fragment)
	default:
		return nil, nil
	}
}

func (p *Provider) resolveInternalTarget(ctx context.Context, path docuri.URI, fragment string) (*ResolvedTarget, error) {
	target := path

	// Embedded documents have no file of their own to stat.
	if _, embedded := p.ws.GetContainingDocument(target); !embedded {
		stat, err := p.ws.Stat(ctx, target)
		if err != nil {
			return nil, err
		}
		if stat != nil && stat.IsDirectory {
			return &ResolvedTarget{Kind: TargetFolder, URI: target}, nil
		}
		if ctx.Err() != nil {
			return nil, nil
		}
		if stat == nil {
			withExt, ok := TryAppendMarkdownExtension(target, p.extensions)
			if !ok || withExt.Equal(target) {
				return &ResolvedTarget{Kind: TargetFile, URI: target}, nil
			}
			extStat, err := p.ws.Stat(ctx, withExt)
			if err != nil {
				return nil, err
			}
			if extStat == nil {
				return &ResolvedTarget{Kind: TargetFile, URI: target}, nil
			}
			target = withExt
		}
	}

	if fragment == "" {
		return &ResolvedTarget{Kind: TargetFile, URI: target}, nil
	}
	if pos, ok := ParseLineFragment(fragment); ok {
		return &ResolvedTarget{Kind: TargetFile, URI: target, Position: &pos}, nil
	}

	doc, err := p.ws.OpenMarkdownDocument(ctx, target)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, nil
	}
	if doc == nil {
		return &ResolvedTarget{Kind: TargetFile, URI: target}, nil
	}
	contents, err := p.toc.GetForContainingDoc(ctx, doc)
	if err != nil || ctx.Err() != nil {
		return nil, err
	}
	if entry, ok := contents.LookupByFragment(fragment); ok {
		pos := entry.HeaderLocation.Range.Start
		return &ResolvedTarget{Kind: TargetFile, URI: target, Position: &pos, Fragment: fragment}, nil
	}
	return &ResolvedTarget{Kind: TargetFile, URI: target}, nil
}

// ParseLineFragment parses an L<line>[,<column>] fragment with one-based numbers.
func ParseLineFragment(fragment string) (textrange.Position, bool) {
	m := lineFragmentRe.FindStringSubmatch(fragment)
	if m == nil {
		return textrange.Position{}, false
	}
	line, err := strconv.Atoi(m[1])
	if err != nil {
		return textrange.Position{}, false
	}
	character := 1
	if m[2] != "" {
		if character, err = strconv.Atoi(m[2]); err != nil {
			return textrange.Position{}, false
		}
	}
	return textrange.Position{Line: max(line-1, 0), Character: max(character-1, 0)}, true
}
