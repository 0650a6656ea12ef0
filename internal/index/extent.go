package index

import (
	"fmt"
	"strings"

	"github.com/matkrin/symrename/internal/ast"
	"github.com/matkrin/symrename/internal/scanner"
)

// extend sets the end of every type, method and block node to the end of
// its body. Brackets inside comments and strings are ignored.
func extend(text string, d scanner.Dialect, nodes []*ast.Node) error {
	m := newMask(text, d)
	for _, n := range nodes {
		switch n.Kind {
		case ast.KindClass, ast.KindInterface:
			open := m.next(n.NameEnd(), "{")
			if open < 0 {
				return fmt.Errorf("%s %s has no body", n.Kind, n.Name)
			}
			end, err := m.closing(open)
			if err != nil {
				return fmt.Errorf("%s %s: %w", n.Kind, n.Name, err)
			}
			n.End = end + 1
		case ast.KindMethod:
			open := m.next(n.NameEnd(), "(")
			if open < 0 {
				return fmt.Errorf("method %s has no parameter list", n.Name)
			}
			params, err := m.closing(open)
			if err != nil {
				return fmt.Errorf("method %s: %w", n.Name, err)
			}
			body := m.next(params+1, "{;")
			switch {
			case body < 0:
				return fmt.Errorf("method %s has no body", n.Name)
			case text[body] == ';':
				n.End = body + 1
			default:
				end, err := m.closing(body)
				if err != nil {
					return fmt.Errorf("method %s: %w", n.Name, err)
				}
				n.End = end + 1
			}
		case ast.KindBlock:
			end, err := m.closing(n.Start)
			if err != nil {
				return fmt.Errorf("block at %s: %w", ast.CursorAt(text, n.Start), err)
			}
			n.End = end + 1
		}
	}
	return nil
}

// mask marks the bytes of a text that belong to comments and strings.
type mask struct {
	text    string
	literal []bool
}

func newMask(text string, d scanner.Dialect) *mask {
	m := &mask{text: text}
	spans, err := scanner.Spans(text, d)
	if err != nil {
		return m
	}
	m.literal = make([]bool, len(text))
	for _, s := range spans {
		if s.Kind == scanner.Code {
			continue
		}
		for i := s.Start; i < s.End; i++ {
			m.literal[i] = true
		}
	}
	return m
}

func (m *mask) code(i int) bool {
	return m.literal == nil || !m.literal[i]
}

// next returns the offset of the first code byte at or after from that is
// one of chars, or -1.
func (m *mask) next(from int, chars string) int {
	for i := from; i < len(m.text); i++ {
		if m.code(i) && strings.IndexByte(chars, m.text[i]) >= 0 {
			return i
		}
	}
	return -1
}

// closing returns the offset of the bracket closing the one at open.
func (m *mask) closing(open int) (int, error) {
	var closer byte
	switch m.text[open] {
	case '{':
		closer = '}'
	case '(':
		closer = ')'
	default:
		return 0, fmt.Errorf("no bracket at %d", open)
	}
	depth := 0
	for i := open; i < len(m.text); i++ {
		if !m.code(i) {
			continue
		}
		switch m.text[i] {
		case m.text[open]:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("unbalanced %q at %s", m.text[open], ast.CursorAt(m.text, open))
}

// matchExtent widens the name at [start, end) to what a search engine
// reports for it: the qualifier chain in front and, for a call, the argument
// list. It returns the offset and length of the match.
func matchExtent(text string, start, end int, call bool) (int, int) {
	from := start
	for {
		i := from - 1
		for i >= 0 && isSpace(text[i]) {
			i--
		}
		if i < 0 || text[i] != '.' {
			break
		}
		i--
		for i >= 0 && isSpace(text[i]) {
			i--
		}
		j := i
		for j >= 0 && isIdent(text[j]) {
			j--
		}
		if j == i {
			break
		}
		from = j + 1
	}

	to := end
	if call {
		i := to
		for i < len(text) && isSpace(text[i]) {
			i++
		}
		if i < len(text) && text[i] == '(' {
			depth := 0
		args:
			for k := i; k < len(text); k++ {
				switch text[k] {
				case '(':
					depth++
				case ')':
					depth--
					if depth == 0 {
						to = k + 1
						break args
					}
				}
			}
		}
	}
	return from, to - from
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// isIdent reports whether b may be part of an identifier. Bytes of
// multi-byte runes count as identifier bytes.
func isIdent(b byte) bool {
	return b == '_' || b == '$' || b >= 0x80 ||
		'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9'
}
