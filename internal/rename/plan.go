package rename

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/matkrin/symrename/internal/ast"
)

// Edit replaces the bytes [Start, End) of a file with NewText. Offsets refer
// to the unedited file.
type Edit struct {
	File    string
	Start   int
	End     int
	NewText string
}

// Plan converts occurrences into edits and verifies that they cover exactly
// the resolved references of the declaration. When the returned status is
// fatal no edits are returned.
func Plan(ctx context.Context, req *Request, occs []Occurrence) ([]Edit, Status, error) {
	var (
		status Status
		edits  []Edit
	)
	decl := req.Decl
	textual := make(map[Edit]bool)

	byFile := make(map[string][]Occurrence)
	var files []string
	for _, o := range occs {
		if _, ok := byFile[o.File]; !ok {
			files = append(files, o.File)
		}
		byFile[o.File] = append(byFile[o.File], o)
	}
	slices.Sort(files)

	for _, id := range files {
		if err := ctx.Err(); err != nil {
			return nil, Status{}, err
		}
		f := req.Snapshot.File(id)
		if f == nil {
			return nil, Status{}, fmt.Errorf("occurrence in unknown file %s", id)
		}

		var fileEdits []Edit
		for _, o := range byFile[id] {
			if o.Offset < 0 || o.End() > len(f.Text) {
				status.Addf(Fatal, InternalInconsistency, o.Location(), nil,
					"Occurrence at %d lies outside of %s", o.Offset, f.Path)
				continue
			}
			spelled := f.Text[o.Offset:o.End()] == decl.Name
			switch {
			case o.Kind == Implicit && !spelled:
				status.Addf(Info, InternalInconsistency, o.Location(), nil,
					"The implicit reference at %s is not spelled out and is left unchanged", ast.CursorAt(f.Text, o.Offset))
				continue
			case !spelled:
				status.Addf(Fatal, InternalInconsistency, o.Location(), nil,
					"Expected %s at %s, found %q", decl.Name, ast.CursorAt(f.Text, o.Offset), f.Text[o.Offset:o.End()])
				continue
			}
			e := Edit{File: id, Start: o.Offset, End: o.End(), NewText: req.NewName}
			if o.Kind == Textual {
				textual[e] = true
			}
			fileEdits = append(fileEdits, e)
		}

		slices.SortFunc(fileEdits, func(a, b Edit) int {
			return cmp.Compare(a.Start, b.Start)
		})
		for i := 1; i < len(fileEdits); i++ {
			if prev, cur := fileEdits[i-1], fileEdits[i]; cur.Start < prev.End {
				status.Addf(Fatal, InternalInconsistency, &Location{File: id, Offset: cur.Start, Length: cur.End - cur.Start}, nil,
					"Edits [%d,%d) and [%d,%d) of %s overlap", prev.Start, prev.End, cur.Start, cur.End, f.Path)
			}
		}
		edits = append(edits, fileEdits...)
	}

	if !status.HasFatal() {
		problems, err := verify(ctx, req, edits, textual)
		if err != nil {
			return nil, Status{}, err
		}
		status.Merge(problems)
	}
	if status.HasFatal() {
		return nil, status, nil
	}
	return edits, status, nil
}

// verify re-traverses the code the declaration is visible in and checks that
// every literal name bound to a renamed declaration has exactly one edit over
// its name, unless the search excluded it, and that no edit touches a name
// bound to something else.
func verify(ctx context.Context, req *Request, edits []Edit, textual map[Edit]bool) (Status, error) {
	var status Status
	decl := req.Decl
	if decl.Kind.IsResource() {
		return status, nil
	}

	type span struct {
		file       string
		start, end int
	}
	planned := make(map[span]int)
	byFile := make(map[string][]Edit)
	for _, e := range edits {
		if textual[e] {
			continue
		}
		planned[span{e.File, e.Start, e.End}]++
		byFile[e.File] = append(byFile[e.File], e)
	}

	var excluded map[position]bool
	var regions []*ast.Node
	var regionFiles []*ast.File
	if decl.Kind.IsLocal() {
		f := req.Snapshot.File(decl.File)
		if f == nil {
			return status, fmt.Errorf("declaring file %s not in snapshot", decl.File)
		}
		root := localRegion(f, decl)
		regions, regionFiles = []*ast.Node{root}, []*ast.File{f}
		for _, e := range byFile[f.ID] {
			if e.Start < root.Start || e.End > root.End {
				status.Addf(Fatal, InternalInconsistency, &Location{File: f.ID, Offset: e.Start, Length: e.End - e.Start}, nil,
					"Problem node: edit at %s lies outside the scope of %s", ast.CursorAt(f.Text, e.Start), decl.Name)
			}
		}
	} else {
		if req.Options.IncludeReferences {
			var err error
			if _, excluded, err = searchMatches(ctx, req); err != nil {
				return Status{}, err
			}
		}
		for _, f := range req.Snapshot.Files() {
			regions = append(regions, f.Root)
			regionFiles = append(regionFiles, f)
		}
	}

	for i, root := range regions {
		f := regionFiles[i]
		var err error
		ast.Walk(root, func(n *ast.Node) bool {
			if err = ctx.Err(); err != nil {
				return false
			}
			if !n.Literal() {
				return true
			}
			b, ok := req.Snapshot.BindingOf(f, n)
			bound := ok && req.renames(b)
			want := 0
			switch {
			case !bound:
			case n.Kind.IsDecl():
				if req.Options.IncludeDeclaration {
					want = 1
				}
			case req.Options.IncludeReferences && !excluded[position{f.ID, n.NamePos}]:
				want = 1
			}
			s := span{f.ID, n.NamePos, n.NameEnd()}
			got := planned[s]
			switch {
			case got != want && bound:
				status.Addf(Fatal, InternalInconsistency, &Location{File: f.ID, Offset: n.NamePos, Length: len(n.Name)}, nil,
					"Problem node: %s at %s has %d edits, expected %d", n.Name, ast.CursorAt(f.Text, n.NamePos), got, want)
			case !bound && touches(byFile[f.ID], n.NamePos, n.NameEnd()):
				status.Addf(Fatal, InternalInconsistency, &Location{File: f.ID, Offset: n.NamePos, Length: len(n.Name)}, nil,
					"Problem node: %s at %s does not refer to %s but would be renamed", n.Name, ast.CursorAt(f.Text, n.NamePos), decl.Name)
			}
			return true
		})
		if err != nil {
			return Status{}, err
		}
	}
	return status, nil
}

func touches(edits []Edit, start, end int) bool {
	for _, e := range edits {
		if e.Start < end && start < e.End {
			return true
		}
	}
	return false
}

// Apply applies the edits of one file to text. The edits must be sorted and
// must not overlap.
func Apply(text string, edits []Edit) (string, error) {
	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, e := range edits {
		if e.Start < pos || e.End < e.Start || e.End > len(text) {
			return "", fmt.Errorf("edit [%d,%d) out of order or out of range", e.Start, e.End)
		}
		b.WriteString(text[pos:e.Start])
		b.WriteString(e.NewText)
		pos = e.End
	}
	b.WriteString(text[pos:])
	return b.String(), nil
}
