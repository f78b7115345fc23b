package links

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeRef returns the lookup key of a reference name. Names compare
// case-insensitively with runs of whitespace collapsed.
func NormalizeRef(ref string) string {
	folded := cases.Fold().String(norm.NFC.String(strings.TrimSpace(ref)))
	return strings.Join(strings.Fields(folded), " ")
}

// DefinitionSet indexes the reference definitions of a document. When a name
// is defined more than once the first definition wins.
type DefinitionSet struct {
	byRef map[string]Link
}

// NewDefinitionSet indexes the definitions among links.
func NewDefinitionSet(links []Link) *DefinitionSet {
	set := &DefinitionSet{byRef: make(map[string]Link)}
	for _, link := range links {
		if link.Kind != KindDefinition || link.Ref == nil {
			continue
		}
		key := NormalizeRef(link.Ref.Text)
		if _, exists := set.byRef[key]; !exists {
			set.byRef[key] = link
		}
	}
	return set
}

// Lookup returns the definition of ref.
func (s *DefinitionSet) Lookup(ref string) (Link, bool) {
	link, ok := s.byRef[NormalizeRef(ref)]
	return link, ok
}

// Len reports the number of distinct definitions.
func (s *DefinitionSet) Len() int {
	return len(s.byRef)
}
