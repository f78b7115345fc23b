// Package textrange provides line/character position and range arithmetic.
//
// Positions are zero-based. Character offsets count UTF-16 code units, which is
// what editors speaking the Language Server Protocol expect.
package textrange

import "fmt"

// Position is a zero-based line/character coordinate.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Pos is shorthand for Position{Line: line, Character: character}.
func Pos(line, character int) Position {
	return Position{Line: line, Character: character}
}

// Compare returns -1, 0 or 1 depending on whether p is before, equal to or after other.
func (p Position) Compare(other Position) int {
	switch {
	case p.Line < other.Line:
		return -1
	case p.Line > other.Line:
		return 1
	case p.Character < other.Character:
		return -1
	case p.Character > other.Character:
		return 1
	default:
		return 0
	}
}

func (p Position) IsBefore(other Position) bool        { return p.Compare(other) < 0 }
func (p Position) IsBeforeOrEqual(other Position) bool { return p.Compare(other) <= 0 }
func (p Position) IsAfter(other Position) bool         { return p.Compare(other) > 0 }
func (p Position) IsAfterOrEqual(other Position) bool  { return p.Compare(other) >= 0 }
func (p Position) IsEqual(other Position) bool         { return p.Compare(other) == 0 }

// Translate shifts the position by the given deltas.
func (p Position) Translate(lineDelta, characterDelta int) Position {
	return Position{Line: p.Line + lineDelta, Character: p.Character + characterDelta}
}

// WithLine returns a copy of p on another line.
func (p Position) WithLine(line int) Position {
	return Position{Line: line, Character: p.Character}
}

// WithCharacter returns a copy of p at another column.
func (p Position) WithCharacter(character int) Position {
	return Position{Line: p.Line, Character: character}
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Range is a half-open span between two positions. Start is never after End
// for ranges produced by this module.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// NewRange builds a range from raw coordinates.
func NewRange(startLine, startCharacter, endLine, endCharacter int) Range {
	return Range{Start: Pos(startLine, startCharacter), End: Pos(endLine, endCharacter)}
}

// FromPositions builds a range, swapping the ends if they are out of order.
func FromPositions(a, b Position) Range {
	if b.IsBefore(a) {
		return Range{Start: b, End: a}
	}
	return Range{Start: a, End: b}
}

// IsEmpty reports whether the range covers no text.
func (r Range) IsEmpty() bool {
	return r.Start.IsEqual(r.End)
}

// IsSingleLine reports whether the range starts and ends on the same line.
func (r Range) IsSingleLine() bool {
	return r.Start.Line == r.End.Line
}

// Contains reports whether pos lies in the range. Both ends are inclusive.
func (r Range) Contains(pos Position) bool {
	return pos.IsAfterOrEqual(r.Start) && pos.IsBeforeOrEqual(r.End)
}

// ContainsRange reports whether other lies entirely inside r.
func (r Range) ContainsRange(other Range) bool {
	return r.Contains(other.Start) && r.Contains(other.End)
}

// Equal reports whether both ends match.
func (r Range) Equal(other Range) bool {
	return r.Start.IsEqual(other.Start) && r.End.IsEqual(other.End)
}

// Intersects reports whether the two ranges share at least one position.
func (r Range) Intersects(other Range) bool {
	return !r.End.IsBefore(other.Start) && !other.End.IsBefore(r.Start)
}

// Translate shifts both ends of the range.
func (r Range) Translate(lineDelta, characterDelta int) Range {
	return Range{
		Start: r.Start.Translate(lineDelta, characterDelta),
		End:   r.End.Translate(lineDelta, characterDelta),
	}
}

// WithStart returns a copy of r with a new start.
func (r Range) WithStart(start Position) Range {
	return Range{Start: start, End: r.End}
}

// WithEnd returns a copy of r with a new end.
func (r Range) WithEnd(end Position) Range {
	return Range{Start: r.Start, End: end}
}

// Union returns the smallest range enclosing both.
func (r Range) Union(other Range) Range {
	start, end := r.Start, r.End
	if other.Start.IsBefore(start) {
		start = other.Start
	}
	if other.End.IsAfter(end) {
		end = other.End
	}
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	return fmt.Sprintf("[%s-%s]", r.Start, r.End)
}
