package links

import (
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/mdls/internal/document"
	"git.home.luguber.info/inful/mdls/internal/logfields"
	"git.home.luguber.info/inful/mdls/internal/markdown"
)

var (
	htmlTagHintRe = regexp.MustCompile(`<\w`)
	htmlAttrRe    = regexp.MustCompile("([^\\s\"'>/=]+)(?:\\s*=\\s*(?:\"([^\"]*)\"|'([^']*)'|([^\\s\"'=<>`]+)))?")
)

// DefaultHTMLAttributes returns the tag attributes that hold links by default.
func DefaultHTMLAttributes() map[string][]string {
	return map[string][]string{
		"a":      {"href"},
		"img":    {"src"},
		"video":  {"src", "poster"},
		"source": {"src"},
		"audio":  {"src"},
		"track":  {"src"},
	}
}

// htmlLinks finds links in HTML attributes, including HTML blocks.
func (c *Computer) htmlLinks(doc *document.Document, noLinks *NoLinkRanges) []Link {
	text := doc.Text()
	if !htmlTagHintRe.MatchString(text) {
		return nil
	}

	// Code must not open tags or switch the tokenizer into raw text.
	var out []Link
	z := html.NewTokenizer(strings.NewReader(noLinks.MaskCode(doc)))
	offset := 0
	for {
		tt := z.Next()
		raw := z.Raw()
		tokenStart := offset
		offset += len(raw)

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				slog.Debug("HTML link scan aborted", logfields.URI(doc.URI().String()), logfields.Error(err))
				return nil
			}
			return out
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			attrs, ok := c.htmlAttrs[strings.ToLower(string(name))]
			if !ok {
				continue
			}
			out = append(out, c.tagLinks(doc, string(raw), tokenStart, len(name)+1, attrs, noLinks)...)
		}
	}
}

// tagLinks extracts link attributes from the raw text of one start tag that
// begins at byte offset tagStart.
func (c *Computer) tagLinks(doc *document.Document, raw string, tagStart, nameEnd int, wanted []string, noLinks *NoLinkRanges) []Link {
	var out []Link
	for _, m := range htmlAttrRe.FindAllStringSubmatchIndex(raw[nameEnd:], -1) {
		attr := strings.ToLower(raw[nameEnd+m[2] : nameEnd+m[3]])
		if !containsFold(wanted, attr) {
			continue
		}
		valueStart, valueEnd := -1, -1
		for g := 2; g <= 4; g++ {
			if m[2*g] >= 0 {
				valueStart, valueEnd = nameEnd+m[2*g], nameEnd+m[2*g+1]
				break
			}
		}
		if valueStart < 0 || valueStart == valueEnd {
			continue
		}

		start := tagStart + valueStart
		if noLinks.Contains(doc.PositionAt(start), markdown.TokenHTMLBlock) {
			continue
		}
		hrefText := raw[valueStart:valueEnd]
		href, ok := CreateHref(doc.URI(), hrefText, c.ws)
		if !ok {
			continue
		}
		source := c.source(doc, hrefText, start, start+len(hrefText), start, false)
		out = append(out, Link{Kind: KindLink, Href: href, Source: source})
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}
