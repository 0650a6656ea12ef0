// Package scanner splits source text into code, string and comment spans and
// finds whole-word mentions of a name in the non-code parts.
package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"text/scanner"
	"unicode"
	"unicode/utf8"

	"mvdan.cc/sh/v3/fileutil"
	"mvdan.cc/sh/v3/syntax"
)

type SpanKind uint8

const (
	Code SpanKind = iota
	String
	LineComment
	BlockComment
	DocComment
)

func (k SpanKind) String() string {
	switch k {
	case Code:
		return "code"
	case String:
		return "string"
	case LineComment:
		return "line-comment"
	case BlockComment:
		return "block-comment"
	case DocComment:
		return "doc-comment"
	}
	return fmt.Sprintf("SpanKind(%d)", k)
}

// Span is a classified byte range [Start, End) of a text.
type Span struct {
	Kind  SpanKind
	Start int
	End   int
}

type Dialect uint8

const (
	DialectC Dialect = iota
	DialectShell
)

func (d Dialect) String() string {
	if d == DialectShell {
		return "shell"
	}
	return "c"
}

// ParseDialect parses a dialect name as accepted on the command line.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "c", "java", "":
		return DialectC, nil
	case "shell", "sh", "bash":
		return DialectShell, nil
	}
	return DialectC, fmt.Errorf("unknown dialect %q", s)
}

// DialectFor guesses the dialect of a file from its name and contents.
func DialectFor(name string, data []byte) Dialect {
	base := filepath.Base(name)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return DialectC
	}
	switch fileutil.CouldBeScript2(fileEntry(base)) {
	case fileutil.ConfIsScript:
		return DialectShell
	case fileutil.ConfIfShebang:
		if fileutil.HasShebang(data) {
			return DialectShell
		}
	}
	return DialectC
}

// fileEntry is a regular file known only by name.
type fileEntry string

func (e fileEntry) Name() string               { return string(e) }
func (e fileEntry) IsDir() bool                { return false }
func (e fileEntry) Type() fs.FileMode          { return 0 }
func (e fileEntry) Info() (fs.FileInfo, error) { return nil, fs.ErrNotExist }

// Spans tokenizes text and returns its spans in order. The spans cover text
// completely; gaps between strings and comments are Code spans.
func Spans(text string, d Dialect) ([]Span, error) {
	var (
		literal []Span
		err     error
	)
	switch d {
	case DialectShell:
		literal, err = shellSpans(text)
	default:
		literal, err = cSpans(text)
	}
	if err != nil {
		return nil, err
	}

	var spans []Span
	pos := 0
	for _, s := range literal {
		if s.Start > pos {
			spans = append(spans, Span{Kind: Code, Start: pos, End: s.Start})
		}
		spans = append(spans, s)
		pos = s.End
	}
	if pos < len(text) {
		spans = append(spans, Span{Kind: Code, Start: pos, End: len(text)})
	}
	return spans, nil
}

func cSpans(text string) ([]Span, error) {
	var s scanner.Scanner
	s.Init(strings.NewReader(text))
	s.Mode = scanner.GoTokens &^ scanner.SkipComments
	var firstErr string
	s.Error = func(s *scanner.Scanner, msg string) {
		if firstErr == "" {
			firstErr = fmt.Sprintf("%s: %s", s.Pos(), msg)
		}
	}

	var spans []Span
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		start := s.Position.Offset
		lit := s.TokenText()
		span := Span{Start: start, End: start + len(lit)}
		switch tok {
		case scanner.String, scanner.RawString, scanner.Char:
			span.Kind = String
		case scanner.Comment:
			switch {
			case strings.HasPrefix(lit, "//"):
				span.Kind = LineComment
			case strings.HasPrefix(lit, "/**") && lit != "/**/":
				span.Kind = DocComment
			default:
				span.Kind = BlockComment
			}
		default:
			continue
		}
		spans = append(spans, span)
	}
	if s.ErrorCount > 0 {
		return nil, fmt.Errorf("lexing failed: %s", firstErr)
	}
	return spans, nil
}

func shellSpans(text string) ([]Span, error) {
	parser := syntax.NewParser(syntax.KeepComments(true))
	file, err := parser.Parse(strings.NewReader(text), "")
	if err != nil {
		return nil, err
	}

	var spans []Span
	syntax.Walk(file, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.Comment:
			start := int(n.Hash.Offset())
			spans = append(spans, Span{Kind: LineComment, Start: start, End: start + 1 + len(n.Text)})
		case *syntax.SglQuoted:
			spans = append(spans, Span{Kind: String, Start: int(n.Left.Offset()), End: int(n.Right.Offset()) + 1})
		case *syntax.DblQuoted:
			spans = append(spans, Span{Kind: String, Start: int(n.Left.Offset()), End: int(n.Right.Offset()) + 1})
			return false
		case *syntax.Redirect:
			if n.Hdoc != nil {
				spans = append(spans, Span{Kind: String, Start: int(n.Hdoc.Pos().Offset()), End: int(n.Hdoc.End().Offset())})
			}
		}
		return true
	})

	// Quotes inside heredocs and substitutions nest; keep the outermost.
	slices.SortFunc(spans, func(a, b Span) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return b.End - a.End
	})
	var flat []Span
	for _, s := range spans {
		if s.End > len(text) {
			s.End = len(text)
		}
		if n := len(flat); n > 0 && s.Start < flat[n-1].End {
			continue
		}
		flat = append(flat, s)
	}
	return flat, nil
}

// FindMatches returns the offsets of whole-word occurrences of pattern in the
// string and comment spans of text. Text that cannot be lexed has no matches.
func FindMatches(text, pattern string, d Dialect) []int {
	if pattern == "" {
		return nil
	}
	spans, err := Spans(text, d)
	if err != nil {
		slog.Debug("no textual matches", "dialect", d, "err", err)
		return nil
	}
	var offsets []int
	for _, s := range spans {
		if s.Kind == Code {
			continue
		}
		for _, i := range WholeWords(text[s.Start:s.End], pattern) {
			if boundary(text, s.Start+i, s.Start+i+len(pattern)) {
				offsets = append(offsets, s.Start+i)
			}
		}
	}
	return offsets
}

// WholeWords returns the offsets of every occurrence of pattern in text that
// is not adjacent to a word character.
func WholeWords(text, pattern string) []int {
	if pattern == "" {
		return nil
	}
	var offsets []int
	for from := 0; from <= len(text)-len(pattern); {
		i := strings.Index(text[from:], pattern)
		if i < 0 {
			break
		}
		start := from + i
		if boundary(text, start, start+len(pattern)) {
			offsets = append(offsets, start)
		}
		from = start + 1
	}
	return offsets
}

func boundary(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); IsWordChar(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); IsWordChar(r) {
			return false
		}
	}
	return true
}

// IsWordChar reports whether r may continue an identifier: letters, digits,
// combining marks, '_' and '$'.
func IsWordChar(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.In(r, unicode.Mn, unicode.Mc)
}
