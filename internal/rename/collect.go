package rename

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/matkrin/symrename/internal/ast"
	"github.com/matkrin/symrename/internal/scanner"
)

type OccurrenceKind uint8

const (
	Declared OccurrenceKind = iota
	Reference
	Implicit
	Textual
)

func (k OccurrenceKind) String() string {
	switch k {
	case Declared:
		return "declaration"
	case Reference:
		return "reference"
	case Implicit:
		return "implicit"
	case Textual:
		return "textual"
	}
	return fmt.Sprintf("OccurrenceKind(%d)", k)
}

// Occurrence is one located mention of the renamed symbol. Offset and Length
// delimit the name only; Qualifier is the length of the qualifier that
// preceded it in the raw search match.
type Occurrence struct {
	File      string
	Offset    int
	Length    int
	Kind      OccurrenceKind
	Qualifier int
}

func (o Occurrence) End() int { return o.Offset + o.Length }

func (o Occurrence) Location() *Location {
	return &Location{File: o.File, Offset: o.Offset, Length: o.Length}
}

type Options struct {
	IncludeDeclaration bool
	IncludeReferences  bool
	// UpdateTextualMatches also renames mentions in comments and strings.
	UpdateTextualMatches bool
	// Dialect overrides the dialect guessed from each file's name when
	// looking for textual matches.
	Dialect *scanner.Dialect
}

// DefaultOptions renames the declaration and all of its references.
func DefaultOptions() Options {
	return Options{IncludeDeclaration: true, IncludeReferences: true}
}

// Request is one rename attempt.
type Request struct {
	Snapshot Snapshot
	Decl     *Declaration
	// Overriders are the methods that override or implement Decl. They are
	// renamed with it.
	Overriders []*Declaration
	NewName    string
	Options    Options
}

// renames reports whether b is renamed by the request.
func (r *Request) renames(b Binding) bool {
	if b == r.Decl.Binding {
		return true
	}
	for _, o := range r.Overriders {
		if o.Binding == b {
			return true
		}
	}
	return false
}

// Overriders returns the methods of the subtypes of d's declaring type that
// override or implement d. Private and static methods have none.
func Overriders(ctx context.Context, snap Snapshot, d *Declaration) ([]*Declaration, error) {
	if d.Kind != KindMethod || d.Modifiers.Has(Private|Static) {
		return nil, nil
	}
	descendants, err := walkTypes(ctx, d.Owner, snap.Subtypes)
	if err != nil {
		return nil, err
	}
	var found []*Declaration
	for _, t := range descendants {
		members, err := snap.Members(ctx, t)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			if m.Kind == KindMethod && m.Name == d.Name && !m.Modifiers.Has(Private|Static) && sameSignature(m, d) {
				found = append(found, m)
			}
		}
	}
	return found, nil
}

// walkTypes visits the types reachable from t through next, breadth first,
// excluding t itself.
func walkTypes(ctx context.Context, t Binding, next func(context.Context, Binding) ([]Binding, error)) ([]Binding, error) {
	visited := map[Binding]bool{t: true}
	var found []Binding
	work := []Binding{t}
	for len(work) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := work[0]
		work = work[1:]
		types, err := next(ctx, cur)
		if err != nil {
			return nil, err
		}
		for _, n := range types {
			if visited[n] {
				continue
			}
			visited[n] = true
			found = append(found, n)
			work = append(work, n)
		}
	}
	return found, nil
}

// position is a file offset.
type position struct {
	file   string
	offset int
}

// Collect returns every occurrence of the requested declaration and its
// overriders, ordered by file and offset.
func Collect(ctx context.Context, req *Request) ([]Occurrence, error) {
	decl := req.Decl
	if decl.Kind.IsResource() {
		return nil, nil
	}

	files := req.Snapshot.Files()
	if decl.Kind.IsLocal() {
		f := req.Snapshot.File(decl.File)
		if f == nil {
			return nil, fmt.Errorf("declaring file %s not in snapshot", decl.File)
		}
		files = []*ast.File{f}
	}

	seen := make(map[position]bool)
	var occs []Occurrence
	add := func(o Occurrence) {
		k := position{o.File, o.Offset}
		if seen[k] {
			return
		}
		seen[k] = true
		occs = append(occs, o)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		found, err := collectFile(ctx, req, f)
		if err != nil {
			return nil, err
		}
		for _, o := range found {
			add(o)
		}
	}

	if !decl.Kind.IsLocal() && req.Options.IncludeReferences {
		matches, excluded, err := searchMatches(ctx, req)
		if err != nil {
			return nil, err
		}
		for _, o := range matches {
			add(o)
		}
		occs = slices.DeleteFunc(occs, func(o Occurrence) bool {
			return o.Kind != Declared && excluded[position{o.File, o.Offset}]
		})
	}

	if req.Options.UpdateTextualMatches {
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			d := scanner.DialectFor(f.Path, []byte(f.Text))
			if req.Options.Dialect != nil {
				d = *req.Options.Dialect
			}
			region := f.Root
			if decl.Kind.IsLocal() {
				region = localRegion(f, decl)
			}
			for _, off := range scanner.FindMatches(f.Text, decl.Name, d) {
				if off < region.Start || off+len(decl.Name) > region.End {
					continue
				}
				add(Occurrence{File: f.ID, Offset: off, Length: len(decl.Name), Kind: Textual})
			}
		}
	}

	slices.SortFunc(occs, func(a, b Occurrence) int {
		if c := cmp.Compare(a.File, b.File); c != 0 {
			return c
		}
		return cmp.Compare(a.Offset, b.Offset)
	})
	slog.Debug("collected occurrences", "symbol", decl.Binding, "count", len(occs))
	return occs, nil
}

func collectFile(ctx context.Context, req *Request, f *ast.File) ([]Occurrence, error) {
	decl := req.Decl
	var (
		occs []Occurrence
		err  error
	)
	ast.Walk(f.Root, func(n *ast.Node) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		if n.Name == "" || !(n.Kind.IsDecl() || n.Kind == ast.KindName) {
			return true
		}
		b, ok := req.Snapshot.BindingOf(f, n)
		if !ok || !req.renames(b) {
			return true
		}
		switch {
		case n.Kind.IsDecl():
			if req.Options.IncludeDeclaration && !n.Implicit {
				occs = append(occs, Occurrence{File: f.ID, Offset: n.NamePos, Length: len(n.Name), Kind: Declared})
			}
		case n.Implicit:
			if req.Options.IncludeReferences {
				occs = append(occs, Occurrence{File: f.ID, Offset: n.Start, Length: len(decl.Name), Kind: Implicit})
			}
		default:
			if req.Options.IncludeReferences {
				occs = append(occs, Occurrence{File: f.ID, Offset: n.NamePos, Length: len(n.Name), Kind: Reference})
			}
		}
		return true
	})
	return occs, err
}

// searchMatches refines the search matches of every renamed declaration. The
// positions of matches that are both polymorphic and inaccurate are returned
// separately; they are left alone even where the resolver binds them.
func searchMatches(ctx context.Context, req *Request) ([]Occurrence, map[position]bool, error) {
	var occs []Occurrence
	excluded := make(map[position]bool)
	for _, d := range append([]*Declaration{req.Decl}, req.Overriders...) {
		matches, err := req.Snapshot.Search(ctx, d)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			return nil, nil, fmt.Errorf("searching references of %s: %w", d.Name, err)
		}
		for _, m := range matches {
			f := req.Snapshot.File(m.File)
			if f == nil {
				return nil, nil, fmt.Errorf("search match in unknown file %s", m.File)
			}
			o, ok := refineMatch(f.Text, m, d)
			if !ok {
				continue
			}
			if m.Polymorphic && m.Accuracy == Inaccurate {
				slog.Debug("excluding polymorphic inaccurate match", "file", m.File, "offset", o.Offset)
				excluded[position{o.File, o.Offset}] = true
				continue
			}
			occs = append(occs, o)
		}
	}
	return occs, excluded, nil
}

// localRegion returns the node a local variable or parameter of f can be
// mentioned in: its enclosing method, or the whole file.
func localRegion(f *ast.File, d *Declaration) *ast.Node {
	if n := f.DeclAt(d.Offset); n != nil {
		if m := ast.Enclosing(n, ast.KindMethod); m != nil {
			return m
		}
	}
	return f.Root
}

// refineMatch narrows a raw search match to the name it refers to.
func refineMatch(text string, m RawMatch, decl *Declaration) (Occurrence, bool) {
	oldName := decl.Name
	if m.Implicit {
		return Occurrence{File: m.File, Offset: m.Offset, Length: len(oldName), Kind: Implicit}, true
	}
	if m.Offset < 0 || m.Length < 0 || m.Offset+m.Length > len(text) {
		slog.Debug("search match out of range", "file", m.File, "offset", m.Offset, "length", m.Length)
		return Occurrence{}, false
	}

	raw := text[m.Offset : m.Offset+m.Length]
	if raw == oldName {
		return Occurrence{File: m.File, Offset: m.Offset, Length: len(oldName), Kind: Reference}, true
	}
	if decl.Kind == KindMethod {
		raw = raw[:argumentList(raw)]
	}
	start := strings.LastIndexByte(raw, '.') + 1
	for start < len(raw) && unicode.IsSpace(rune(raw[start])) {
		start++
	}
	return Occurrence{
		File:      m.File,
		Offset:    m.Offset + start,
		Length:    len(oldName),
		Kind:      Reference,
		Qualifier: start,
	}, true
}

// argumentList returns the offset of the parenthesis that opens the argument
// list of a call expression, or len(raw) when raw is not a call.
func argumentList(raw string) int {
	if !strings.HasSuffix(strings.TrimRightFunc(raw, unicode.IsSpace), ")") {
		if i := strings.IndexByte(raw, '('); i >= 0 {
			return i
		}
		return len(raw)
	}
	depth := 0
	for i := len(raw) - 1; i >= 0; i-- {
		switch raw[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(raw)
}
