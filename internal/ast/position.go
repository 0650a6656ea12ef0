package ast

import (
	"fmt"
	"strings"
)

// Cursor is a 1-based line/column position. Columns count bytes.
type Cursor struct {
	Line uint
	Col  uint
}

// NewCursor converts an LSP position. The LSP is 0-based, cursors are 1-based.
func NewCursor(lspLine, lspCol uint) Cursor {
	return Cursor{Line: lspLine + 1, Col: lspCol + 1}
}

// CursorAt returns the cursor for a byte offset of text. Offsets past the
// end of text are clamped.
func CursorAt(text string, offset int) Cursor {
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	before := text[:offset]
	line := strings.Count(before, "\n")
	lineStart := strings.LastIndexByte(before, '\n') + 1
	return Cursor{Line: uint(line) + 1, Col: uint(offset-lineStart) + 1}
}

// Offset returns the byte offset of c in text, or -1 when c lies outside of
// it.
func (c Cursor) Offset(text string) int {
	if c.Line == 0 || c.Col == 0 {
		return -1
	}
	offset := 0
	for line := uint(1); line < c.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return -1
		}
		offset += i + 1
	}
	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text) - offset
	}
	if int(c.Col-1) > lineEnd {
		return -1
	}
	return offset + int(c.Col-1)
}

func (c Cursor) String() string {
	return fmt.Sprintf("%d:%d", c.Line, c.Col)
}

// LSP returns the 0-based line and character of c.
func (c Cursor) LSP() (line, char uint) {
	return c.Line - 1, c.Col - 1
}
