package parser

// Position is a zero-based line/character location in a document.
type Position struct {
	Line      int
	Character int
}

// Range is an ordered pair of positions.
type Range struct {
	Start Position
	End   Position
}

// NewRange builds a range from raw coordinates.
func NewRange(startLine, startChar, endLine, endChar int) Range {
	return Range{
		Start: Position{Line: startLine, Character: startChar},
		End:   Position{Line: endLine, Character: endChar},
	}
}

// Before reports whether p is strictly before other.
func (p Position) Before(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// ContainsPosition reports whether pos falls within r. Both the start and the
// end boundary are inclusive: a position exactly on the end coordinate is
// inside the range.
func (r Range) ContainsPosition(pos Position) bool {
	if pos.Line < r.Start.Line || pos.Line > r.End.Line {
		return false
	}
	if pos.Line == r.Start.Line && pos.Character < r.Start.Character {
		return false
	}
	if pos.Line == r.End.Line && pos.Character > r.End.Character {
		return false
	}
	return true
}

// ContainsLine reports whether the line falls within r's line span.
func (r Range) ContainsLine(line int) bool {
	return line >= r.Start.Line && line <= r.End.Line
}
