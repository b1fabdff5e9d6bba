package position

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// Place is a zero-based line and column.
type Place struct {
	Line      int
	Character int
}

func (p Place) String() string {
	return fmt.Sprintf("%d:%d", p.Line+1, p.Character)
}

type Range struct {
	Start Place
	End   Place
}

// RawPosition represents a span of text
type RawPosition struct {
	// Offset is the byte offset in the text
	Offset int
	// Text is the actual text at this position
	Text string
}

func NewBasicPosition(text string, offset int) RawPosition {
	return RawPosition{Text: text, Offset: offset}
}

func (p RawPosition) Length() int {
	return len(p.Text)
}

func (p RawPosition) GetEndPosition() RawPosition {
	return RawPosition{
		Text:   "",
		Offset: p.Offset + p.Length(),
	}
}

// GetLineAndColumn calculates the line and column for the start of the span.
// Returns zero-based line and column numbers, columns in UTF-16 units.
func (p RawPosition) GetLineAndColumn(text string) (line, col int) {
	if p.Offset <= 0 {
		return 0, 0
	}

	end := p.Offset
	if end > len(text) {
		end = len(text)
	}

	cur := NewCursor()
	cur.Advance(text[:end])
	place := cur.Place()

	return place.Line, place.Character
}

// GetRange calculates the line/column range covered by the span
func (p RawPosition) GetRange(text string) Range {
	startLine, startCol := p.GetLineAndColumn(text)
	endLine, endCol := p.GetEndPosition().GetLineAndColumn(text)
	return Range{
		Start: Place{Line: startLine, Character: startCol},
		End:   Place{Line: endLine, Character: endCol},
	}
}

// Cursor tracks the zero-based line and column reached after consuming text
// chunk by chunk.
type Cursor struct {
	offset int
	line   int
	col    int
}

func NewCursor() *Cursor {
	return &Cursor{}
}

// Advance moves the cursor over chunk. Columns count UTF-16 code units.
func (c *Cursor) Advance(chunk string) {
	for i := 0; i < len(chunk); {
		b := chunk[i]
		if b == '\n' {
			c.line++
			c.col = 0
			i++
			continue
		}

		if b < utf8.RuneSelf {
			c.col++
			i++
			continue
		}

		r, size := utf8.DecodeRuneInString(chunk[i:])
		if n := len(utf16.Encode([]rune{r})); n > 0 {
			c.col += n
		} else {
			c.col++
		}
		i += size
	}
	c.offset += len(chunk)
}

// Offset is the number of bytes consumed so far.
func (c *Cursor) Offset() int {
	return c.offset
}

func (c *Cursor) Place() Place {
	return Place{Line: c.line, Character: c.col}
}
