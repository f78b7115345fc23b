package document

import (
	"git.home.luguber.info/inful/mdls/internal/docuri"
	"git.home.luguber.info/inful/mdls/internal/textrange"
)

// Location is a range inside a specific document.
type Location struct {
	URI   docuri.URI
	Range textrange.Range
}

// Equal reports whether both locations name the same resource and range.
func (l Location) Equal(other Location) bool {
	return l.URI.Equal(other.URI) && l.Range.Equal(other.Range)
}
