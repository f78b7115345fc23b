// Package slugify turns heading text into link fragments.
package slugify

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Slug is a normalized fragment identifier.
type Slug struct {
	value string
}

// Value returns the fragment text.
func (s Slug) Value() string { return s.value }

// Equals reports whether two slugs identify the same fragment.
func (s Slug) Equals(other Slug) bool { return s.value == other.value }

func (s Slug) String() string { return s.value }

// Slugifier generates slugs for headings and link fragments.
type Slugifier interface {
	// FromHeading creates the slug for a heading's text.
	FromHeading(heading string) Slug
	// FromFragment creates the slug a link fragment refers to.
	FromFragment(fragment string) Slug
	// NewBuilder returns a builder that disambiguates duplicate slugs within one document.
	NewBuilder() Builder
}

// Builder assigns unique slugs to the headings of one document in order.
type Builder interface {
	Add(heading string) Slug
}

// punctuation lists the characters GitHub drops when generating heading anchors.
const punctuation = "][!/'\"#$%&()*+,./:;<=>?@\\^{|}~`" +
	"。，、；：？！…—·ˉ¨‘’“”々～‖∶＂＇｀｜〃〔〕〈〉《》「」『』．〖〗【】（）［］｛｝"

var punctuationSet = func() map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range punctuation {
		set[r] = struct{}{}
	}
	return set
}()

// GitHub produces anchors compatible with the ones GitHub renders for headings.
var GitHub Slugifier = githubSlugifier{}

type githubSlugifier struct{}

func (githubSlugifier) FromHeading(heading string) Slug {
	lowered := cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(heading)))
	dashed := strings.Join(strings.Fields(lowered), "-")

	var sb strings.Builder
	sb.Grow(len(dashed))
	for _, r := range dashed {
		if _, drop := punctuationSet[r]; drop {
			continue
		}
		sb.WriteRune(r)
	}
	return Slug{value: strings.Trim(sb.String(), "-")}
}

func (g githubSlugifier) FromFragment(fragment string) Slug {
	return g.FromHeading(fragment)
}

func (g githubSlugifier) NewBuilder() Builder {
	return &githubBuilder{slugifier: g, seen: make(map[string]int)}
}

type githubBuilder struct {
	slugifier githubSlugifier
	seen      map[string]int
}

func (b *githubBuilder) Add(heading string) Slug {
	slug := b.slugifier.FromHeading(heading)
	if count, ok := b.seen[slug.value]; ok {
		count++
		b.seen[slug.value] = count
		return b.slugifier.FromHeading(slug.value + "-" + strconv.Itoa(count))
	}
	b.seen[slug.value] = 0
	return slug
}
