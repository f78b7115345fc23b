package links

import (
	"context"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/markdown"
	"git.home.luguber.info/inful/mdls/internal/textrange"
	"git.home.luguber.info/inful/mdls/internal/workspace"
)

var (
	// inlineLinkRe matches [text](href "title") and ![alt](src).
	inlineLinkRe = regexp.MustCompile(
		`(!?\[(?:[^\[\]\\]|\\.|\[[^\[\]]*\])*\])` +
			`(\(\s*)` +
			`([^\s\(\)<](?:[^\s\(\)]|\([^\s\(\)]*?\))*|<(?:\\[<>]|[^<>])+>)` +
			`\s*("[^"]*"|'[^']*'|\([^\(\)]*\))?\s*\)`)

	// referenceLinkRe matches [text][ref], [ref][] and the [ref] shorthand.
	// The first group stands in for a look-behind on the preceding character.
	referenceLinkRe         = regexp.MustCompile(`(^|[^\]\\])` + referenceLinkBody)
	referenceLinkUnanchored = regexp.MustCompile(`([^\]\\])` + referenceLinkBody)

	definitionRe = regexp.MustCompile(`(?m)^([\t ]*\[((?:\\\]|[^\]])+)\]:[\t ]*(?:\r?\n[\t ]*)?)([^<\s]\S*|<(?:\\[<>]|[^<>])+>)`)
	definitionTitleRe = regexp.MustCompile(`^[\t ]+("[^"]*"|'[^']*'|\([^\(\)]*\))`)

	autoLinkRe = regexp.MustCompile(`<(\w+:[^>\s]+)>`)

	checkboxRe = regexp.MustCompile(`(?i)^\s*(?:[-*+]|\d+[.)])\s*\[[ x]\]`)
)

const referenceLinkBody = `(?:(!?\[((?:\\.|[^\\\]])*?)\]\[\s*)([^\]]*?)\]|\[\s*?([^\s\\\[\]]*?)\])`

// Computer finds every link in a document.
type Computer struct {
	tokenizer markdown.Tokenizer
	ws        workspace.Workspace
	htmlAttrs map[string][]string
}

// ComputerOption customises a Computer.
type ComputerOption func(*Computer)

// WithHTMLAttributes overrides which HTML tag attributes hold links. Tag
// names are matched case-insensitively.
func WithHTMLAttributes(attrs map[string][]string) ComputerOption {
	return func(c *Computer) {
		if len(attrs) == 0 {
			return
		}
		c.htmlAttrs = make(map[string][]string, len(attrs))
		for tag, names := range attrs {
			c.htmlAttrs[strings.ToLower(tag)] = names
		}
	}
}

// NewComputer creates a link computer.
func NewComputer(tokenizer markdown.Tokenizer, ws workspace.Workspace, opts ...ComputerOption) *Computer {
	c := &Computer{tokenizer: tokenizer, ws: ws, htmlAttrs: DefaultHTMLAttributes()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAllLinks returns the links of doc in pass order: inline links, reference
// links, definitions, autolinks and HTML attribute links.
func (c *Computer) GetAllLinks(ctx context.Context, doc *document.Document) ([]Link, error) {
	tokens, err := c.tokenizer.Tokenize(ctx, doc)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, nil
	}

	noLinks := ComputeNoLinkRanges(tokens, doc)

	inline := c.inlineLinks(doc, noLinks)
	noLinks = noLinks.ConcatInline(linkRanges(inline))

	refs := c.referenceLinks(doc, doc.Text(), 0, true, noLinks)
	noLinks = noLinks.ConcatInline(linkRanges(refs))

	all := make([]Link, 0, len(inline)+len(refs))
	all = append(all, inline...)
	all = append(all, refs...)
	all = append(all, c.definitions(doc, noLinks)...)
	all = append(all, c.autoLinks(doc, noLinks)...)
	all = append(all, c.htmlLinks(doc, noLinks)...)
	return all, nil
}

func linkRanges(links []Link) []textrange.Range {
	out := make([]textrange.Range, len(links))
	for i, l := range links {
		out[i] = l.Source.Range
	}
	return out
}

func (c *Computer) inlineLinks(doc *document.Document, noLinks *NoLinkRanges) []Link {
	text := doc.Text()
	var out []Link
	for pos := 0; pos < len(text); {
		loc := inlineLinkRe.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		abs := shiftLoc(loc, pos)
		start := abs[0]
		if precedingBackslashes(text, start)%2 == 1 {
			pos = start + 1
			continue
		}
		pos = abs[1]

		link, ok := c.createInlineLink(doc, start, abs)
		if !ok || noLinks.Contains(link.Source.Range.Start, "") || noLinks.Contains(link.Source.HrefRange.Start, "") {
			continue
		}
		out = append(out, link)

		// Only the text between the outer brackets can hold nested links.
		textStart := abs[2] + 1
		if text[abs[2]] == '!' {
			textStart++
		}
		linkText := text[textStart : abs[3]-1]
		if strings.Contains(linkText, "![") {
			out = append(out, c.nestedInlineLinks(doc, linkText, textStart, noLinks)...)
		}
		out = append(out, c.referenceLinks(doc, linkText, textStart, false, noLinks)...)
	}
	return out
}

// nestedInlineLinks finds image links inside the text of another link.
func (c *Computer) nestedInlineLinks(doc *document.Document, linkText string, base int, noLinks *NoLinkRanges) []Link {
	var out []Link
	for _, loc := range inlineLinkRe.FindAllStringSubmatchIndex(linkText, -1) {
		start := base + loc[0]
		if precedingBackslashes(doc.Text(), start)%2 == 1 {
			continue
		}
		link, ok := c.createInlineLink(doc, start, shiftLoc(loc, base))
		if ok && !noLinks.Contains(link.Source.Range.Start, "") {
			out = append(out, link)
		}
	}
	return out
}

// shiftLoc rebases submatch offsets onto the document text.
func shiftLoc(loc []int, delta int) []int {
	out := make([]int, len(loc))
	for i, v := range loc {
		if v < 0 {
			out[i] = v
			continue
		}
		out[i] = v + delta
	}
	return out
}

// createInlineLink builds a link from absolute submatch offsets of inlineLinkRe.
func (c *Computer) createInlineLink(doc *document.Document, start int, loc []int) (Link, bool) {
	text := doc.Text()
	rawHref := text[loc[6]:loc[7]]
	isAngle := strings.HasPrefix(rawHref, "<")
	hrefText := rawHref
	hrefStart := loc[6]
	if isAngle {
		hrefText = rawHref[1 : len(rawHref)-1]
		hrefStart++
	}

	href, ok := CreateHref(doc.URI(), hrefText, c.ws)
	if !ok {
		return Link{}, false
	}

	source := c.source(doc, hrefText, start, loc[1], hrefStart, isAngle)
	if loc[8] >= 0 {
		title := doc.RangeAt(loc[8], loc[9])
		source.TitleRange = &title
	}
	return Link{Kind: KindLink, Href: href, Source: source}, true
}

func (c *Computer) source(doc *document.Document, hrefText string, start, end, hrefStart int, isAngle bool) Source {
	hrefEnd := hrefStart + len(hrefText)
	targetStart, targetEnd := hrefStart, hrefEnd
	if isAngle {
		targetStart--
		targetEnd++
	}
	s := Source{
		Resource:           doc.URI(),
		HrefText:           hrefText,
		PathText:           hrefText,
		Range:              doc.RangeAt(start, end),
		TargetRange:        doc.RangeAt(targetStart, targetEnd),
		HrefRange:          doc.RangeAt(hrefStart, hrefEnd),
		IsAngleBracketLink: isAngle,
	}
	if i := strings.IndexByte(hrefText, '#'); i >= 0 {
		s.PathText = hrefText[:i]
		fragment := doc.RangeAt(hrefStart+i+1, hrefEnd)
		s.HrefFragmentRange = &fragment
	}
	return s
}

// referenceLinks scans text, which starts at byte offset base of the document,
// for reference links. When fullText is false the scan runs over link text
// and its start counts as a line start.
func (c *Computer) referenceLinks(doc *document.Document, text string, base int, fullText bool, noLinks *NoLinkRanges) []Link {
	docText := doc.Text()
	var out []Link
	for pos := 0; pos < len(text); {
		loc := referenceLinkRe.FindStringSubmatchIndex(text[pos:])
		if loc != nil && loc[0] == 0 && loc[3] == 0 && pos > 0 && text[pos-1] != '\n' {
			loc = referenceLinkUnanchored.FindStringSubmatchIndex(text[pos:])
		}
		if loc == nil {
			break
		}
		loc = shiftLoc(loc, pos)
		matchStart, matchEnd := loc[0], loc[1]

		// Look-ahead: a trailing ':' or '(' makes this a definition or inline link.
		if matchEnd < len(text) && (text[matchEnd] == ':' || text[matchEnd] == '(') {
			pos = matchStart + 1
			continue
		}
		pos = matchEnd

		linkStart := base + loc[3]
		if fullText && precedingBackslashes(docText, linkStart)%2 == 1 {
			continue
		}
		if noLinks.Contains(doc.PositionAt(linkStart), "") {
			continue
		}

		link, ok := c.createReferenceLink(doc, base, loc, linkStart, noLinks, &out)
		if ok {
			out = append(out, link)
		}
	}
	return out
}

func (c *Computer) createReferenceLink(doc *document.Document, base int, loc []int, linkStart int, noLinks *NoLinkRanges, out *[]Link) (Link, bool) {
	docText := doc.Text()
	group := func(i int) (string, bool) {
		if loc[2*i] < 0 {
			return "", false
		}
		return docText[base+loc[2*i] : base+loc[2*i+1]], true
	}

	isImage := docText[linkStart] == '!'
	var ref string
	var hrefStart int
	if r, matched := group(4); matched {
		linkText, _ := group(3)
		switch {
		case r == "":
			// [ref][]
			if linkText == "" {
				return Link{}, false
			}
			ref = linkText
			hrefStart = base + loc[6]
		default:
			if linkText == "" && !isImage {
				return Link{}, false
			}
			if !isImage && linkText != "" {
				*out = append(*out, c.referenceLinks(doc, linkText, base+loc[6], false, noLinks)...)
			}
			ref = r
			hrefStart = base + loc[8]
		}
	} else if short, matched := group(5); matched && short != "" {
		if strings.HasPrefix(short, "!") {
			return Link{}, false
		}
		ref = short
		hrefStart = base + loc[10]
		pos := doc.PositionAt(hrefStart)
		if m := checkboxRe.FindString(doc.Line(pos.Line)); m != "" && pos.Character <= len(m) {
			return Link{}, false
		}
	} else {
		return Link{}, false
	}

	if strings.HasPrefix(ref, "^") {
		// Footnote reference.
		return Link{}, false
	}

	hrefRange := doc.RangeAt(hrefStart, hrefStart+len(ref))
	return Link{
		Kind: KindLink,
		Href: ReferenceHref{Ref: ref},
		Source: Source{
			Resource:    doc.URI(),
			HrefText:    ref,
			PathText:    ref,
			Range:       doc.RangeAt(linkStart, base+loc[1]),
			TargetRange: hrefRange,
			HrefRange:   hrefRange,
		},
	}, true
}

func (c *Computer) definitions(doc *document.Document, noLinks *NoLinkRanges) []Link {
	text := doc.Text()
	var out []Link
	for _, loc := range definitionRe.FindAllStringSubmatchIndex(text, -1) {
		label := text[loc[4]:loc[5]]
		if strings.HasPrefix(label, "^") {
			continue
		}
		bracket := loc[4] - 1
		if noLinks.Contains(doc.PositionAt(bracket), "") {
			continue
		}

		raw := text[loc[6]:loc[7]]
		isAngle := strings.HasPrefix(raw, "<") && strings.HasSuffix(raw, ">")
		hrefText, hrefStart := raw, loc[6]
		if isAngle {
			hrefText = raw[1 : len(raw)-1]
			hrefStart++
		}
		href, ok := CreateHref(doc.URI(), hrefText, c.ws)
		if !ok {
			continue
		}

		end := loc[7]
		var title *textrange.Range
		if m := definitionTitleRe.FindStringSubmatchIndex(text[end:]); m != nil {
			r := doc.RangeAt(end+m[2], end+m[3])
			title = &r
			end += m[1]
		}
		lineEnd := doc.LineEnd(doc.PositionAt(end).Line)

		source := c.source(doc, hrefText, bracket, loc[7], hrefStart, isAngle)
		source.Range = textrange.Range{Start: doc.PositionAt(bracket), End: lineEnd}
		source.TitleRange = title
		out = append(out, Link{
			Kind:   KindDefinition,
			Href:   href,
			Source: source,
			Ref:    &Ref{Text: label, Range: doc.RangeAt(loc[4], loc[5])},
		})
	}
	return out
}

func (c *Computer) autoLinks(doc *document.Document, noLinks *NoLinkRanges) []Link {
	text := doc.Text()
	var out []Link
	for _, loc := range autoLinkRe.FindAllStringSubmatchIndex(text, -1) {
		if noLinks.Contains(doc.PositionAt(loc[0]), "") {
			continue
		}
		hrefText := text[loc[2]:loc[3]]
		href, ok := CreateHref(doc.URI(), hrefText, c.ws)
		if !ok {
			continue
		}
		if _, external := href.(ExternalHref); !external {
			continue
		}
		source := c.source(doc, hrefText, loc[0], loc[1], loc[2], false)
		out = append(out, Link{Kind: KindAutoLink, Href: href, Source: source})
	}
	return out
}
