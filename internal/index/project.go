package index

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"slices"
	"strings"

	"github.com/matkrin/symrename/internal/ast"
	"github.com/matkrin/symrename/internal/rename"
	"github.com/matkrin/symrename/internal/scanner"
)

var symbolKinds = map[string]ast.Kind{
	"class":     ast.KindClass,
	"interface": ast.KindInterface,
	"method":    ast.KindMethod,
	"field":     ast.KindField,
	"parameter": ast.KindParameter,
	"local":     ast.KindLocal,
}

// Project is an immutable snapshot built from an Index. It resolves names,
// answers hierarchy queries, searches references and lists resources.
type Project struct {
	files    []*ast.File
	byID     map[string]*ast.File
	bindings map[*ast.Node]rename.Binding

	decls      map[rename.Binding]*rename.Declaration
	order      []rename.Binding
	supertypes map[rename.Binding][]rename.Binding
	subtypes   map[rename.Binding][]rename.Binding
	members    map[rename.Binding][]*rename.Declaration
	refs       map[rename.Binding][]ref
	extra      map[rename.Binding][]rename.RawMatch
	flags      map[*ast.Node]rename.RawMatch
	resources  []string
}

type ref struct {
	file *ast.File
	node *ast.Node
}

var _ rename.Snapshot = (*Project)(nil)

// New builds the project described by idx.
func New(idx *Index) (*Project, error) {
	p := &Project{
		byID:       make(map[string]*ast.File),
		bindings:   make(map[*ast.Node]rename.Binding),
		decls:      make(map[rename.Binding]*rename.Declaration),
		supertypes: make(map[rename.Binding][]rename.Binding),
		subtypes:   make(map[rename.Binding][]rename.Binding),
		members:    make(map[rename.Binding][]*rename.Declaration),
		refs:       make(map[rename.Binding][]ref),
		extra:      make(map[rename.Binding][]rename.RawMatch),
		flags:      make(map[*ast.Node]rename.RawMatch),
		resources:  idx.Resources,
	}

	texts := make(map[string]FileEntry)
	for _, f := range idx.Files {
		if f.ID == "" {
			return nil, fmt.Errorf("file without id")
		}
		if _, dup := texts[f.ID]; dup {
			return nil, fmt.Errorf("duplicate file %s", f.ID)
		}
		if f.Path == "" {
			f.Path = f.ID
		}
		texts[f.ID] = f
	}

	nodes := make(map[string][]*ast.Node)
	symbols := make(map[string]*SymbolEntry)
	for i := range idx.Symbols {
		s := &idx.Symbols[i]
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("symbol %q: id and name are required", s.ID)
		}
		if _, dup := symbols[s.ID]; dup {
			return nil, fmt.Errorf("duplicate symbol %s", s.ID)
		}
		symbols[s.ID] = s
	}

	for _, s := range idx.Symbols {
		b := rename.Binding(s.ID)
		d := &rename.Declaration{
			Binding:    b,
			Name:       s.Name,
			Params:     s.Params,
			ParamTypes: s.ParamTypes,
			Owner:      rename.Binding(s.Owner),
			Path:       s.Path,
		}
		if s.Private {
			d.Modifiers |= rename.Private
		}
		if s.Static {
			d.Modifiers |= rename.Static
		}
		if s.Owner != "" {
			owner, ok := symbols[s.Owner]
			if !ok {
				return nil, fmt.Errorf("symbol %s: unknown owner %s", s.ID, s.Owner)
			}
			if owner.Kind == "interface" {
				d.Modifiers |= rename.InterfaceMember
			}
		}
		if len(s.ParamTypes) > 0 && len(s.ParamTypes) != s.Params {
			return nil, fmt.Errorf("symbol %s: %d parameter types for %d parameters", s.ID, len(s.ParamTypes), s.Params)
		}

		switch s.Kind {
		case "project":
			d.Kind = rename.KindProject
		case "folder":
			d.Kind = rename.KindFolder
		default:
			kind, ok := symbolKinds[s.Kind]
			if !ok {
				return nil, fmt.Errorf("symbol %s: unknown kind %q", s.ID, s.Kind)
			}
			d.Kind = declKind(kind)
			d.Interface = kind == ast.KindInterface
			f, ok := texts[s.File]
			if !ok {
				return nil, fmt.Errorf("symbol %s: unknown file %q", s.ID, s.File)
			}
			off, err := locate(f.Text, s.Anchor, s.Name)
			if err != nil {
				return nil, fmt.Errorf("symbol %s: %w", s.ID, err)
			}
			d.File, d.Offset = f.ID, off
			n := &ast.Node{Kind: kind, Name: s.Name, Start: off, End: off + len(s.Name), NamePos: off}
			nodes[f.ID] = append(nodes[f.ID], n)
			p.bindings[n] = b
		}
		if d.Kind.IsResource() && d.Path == "" {
			return nil, fmt.Errorf("symbol %s: a %s needs a path", s.ID, s.Kind)
		}

		p.decls[b] = d
		p.order = append(p.order, b)
		if d.Owner != "" && (d.Kind == rename.KindField || d.Kind == rename.KindMethod) {
			p.members[d.Owner] = append(p.members[d.Owner], d)
		}
		for _, st := range s.Supertypes {
			if _, ok := symbols[st]; !ok {
				return nil, fmt.Errorf("symbol %s: unknown supertype %s", s.ID, st)
			}
			p.supertypes[b] = append(p.supertypes[b], rename.Binding(st))
			p.subtypes[rename.Binding(st)] = append(p.subtypes[rename.Binding(st)], b)
		}
	}

	for _, blk := range idx.Blocks {
		f, ok := texts[blk.File]
		if !ok {
			return nil, fmt.Errorf("block: unknown file %q", blk.File)
		}
		off, err := locate(f.Text, blk.Anchor, "{")
		if err != nil {
			return nil, fmt.Errorf("block in %s: %w", f.ID, err)
		}
		nodes[f.ID] = append(nodes[f.ID], &ast.Node{Kind: ast.KindBlock, Start: off, End: off + 1, NamePos: off})
	}

	for _, r := range idx.Refs {
		s, ok := symbols[r.Symbol]
		if !ok {
			return nil, fmt.Errorf("reference to unknown symbol %s", r.Symbol)
		}
		f, ok := texts[r.File]
		if !ok {
			return nil, fmt.Errorf("reference to %s: unknown file %q", r.Symbol, r.File)
		}
		var n *ast.Node
		if r.Implicit {
			off, err := locate(f.Text, r.Anchor, "")
			if err != nil {
				return nil, fmt.Errorf("implicit reference to %s: %w", r.Symbol, err)
			}
			n = &ast.Node{Kind: ast.KindName, Name: s.Name, Start: off, End: off, NamePos: off, Implicit: true}
		} else {
			off, err := locate(f.Text, r.Anchor, s.Name)
			if err != nil {
				return nil, fmt.Errorf("reference to %s: %w", r.Symbol, err)
			}
			n = &ast.Node{Kind: ast.KindName, Name: s.Name, Start: off, End: off + len(s.Name), NamePos: off}
		}
		nodes[f.ID] = append(nodes[f.ID], n)
		p.bindings[n] = rename.Binding(r.Symbol)
	}

	for _, fe := range idx.Files {
		if fe.Path == "" {
			fe.Path = fe.ID
		}
		fileNodes := nodes[fe.ID]
		if err := extend(fe.Text, scanner.DialectFor(fe.Path, []byte(fe.Text)), fileNodes); err != nil {
			return nil, fmt.Errorf("%s: %w", fe.ID, err)
		}
		f, err := ast.Build(fe.ID, fe.Path, fe.Text, fileNodes)
		if err != nil {
			return nil, err
		}
		p.files = append(p.files, f)
		p.byID[f.ID] = f
	}

	for n, b := range p.bindings {
		if n.Kind == ast.KindName {
			f := p.fileOf(n)
			p.refs[b] = append(p.refs[b], ref{file: f, node: n})
		}
	}
	for b := range p.refs {
		slices.SortFunc(p.refs[b], func(x, y ref) int {
			if c := strings.Compare(x.file.ID, y.file.ID); c != 0 {
				return c
			}
			return x.node.Start - y.node.Start
		})
	}

	if err := p.addMatches(idx.Matches, texts, symbols); err != nil {
		return nil, err
	}
	slog.Debug("index loaded", "files", len(p.files), "symbols", len(p.decls))
	return p, nil
}

func declKind(k ast.Kind) rename.Kind {
	switch k {
	case ast.KindClass, ast.KindInterface:
		return rename.KindType
	case ast.KindMethod:
		return rename.KindMethod
	case ast.KindField:
		return rename.KindField
	case ast.KindParameter:
		return rename.KindParameter
	case ast.KindLocal:
		return rename.KindLocalVariable
	}
	return rename.KindInvalid
}

func (p *Project) fileOf(n *ast.Node) *ast.File {
	for n.Parent != nil {
		n = n.Parent
	}
	for _, f := range p.files {
		if f.Root == n {
			return f
		}
	}
	return nil
}

// locate returns the offset of name inside the anchor a, preferring a whole
// word match. An empty name locates the anchor itself.
func locate(text string, a Anchor, name string) (int, error) {
	if a.Offset != nil {
		off := *a.Offset
		if off < 0 || off+len(name) > len(text) {
			return 0, fmt.Errorf("offset %d out of range", off)
		}
		return off, nil
	}
	anchor := a.Anchor
	if anchor == "" {
		anchor = name
	}
	if anchor == "" {
		return 0, fmt.Errorf("no anchor given")
	}
	inner := strings.Index(anchor, name)
	if words := scanner.WholeWords(anchor, name); len(words) > 0 {
		inner = words[0]
	}
	if inner < 0 {
		return 0, fmt.Errorf("anchor %q does not contain %q", anchor, name)
	}
	start := -1
	for i := 0; i <= a.Nth; i++ {
		j := strings.Index(text[start+1:], anchor)
		if j < 0 {
			return 0, fmt.Errorf("anchor %q occurrence %d not found", anchor, a.Nth)
		}
		start += j + 1
	}
	return start + inner, nil
}

func (p *Project) addMatches(entries []MatchEntry, texts map[string]FileEntry, symbols map[string]*SymbolEntry) error {
	for _, m := range entries {
		s, ok := symbols[m.Symbol]
		if !ok {
			return fmt.Errorf("match for unknown symbol %s", m.Symbol)
		}
		f, ok := texts[m.File]
		if !ok {
			return fmt.Errorf("match for %s: unknown file %q", m.Symbol, m.File)
		}
		acc := rename.Exact
		switch m.Accuracy {
		case "", "exact":
		case "inaccurate":
			acc = rename.Inaccurate
		default:
			return fmt.Errorf("match for %s: unknown accuracy %q", m.Symbol, m.Accuracy)
		}
		start, err := locate(f.Text, m.Anchor, "")
		if err != nil {
			return fmt.Errorf("match for %s: %w", m.Symbol, err)
		}
		length := len(m.Anchor.Anchor)
		if m.Implicit || m.Anchor.Offset != nil {
			length = 0
		}
		b := rename.Binding(m.Symbol)
		name, err := locate(f.Text, m.Anchor, s.Name)
		if err == nil {
			if n := p.refAt(b, f.ID, name); n != nil {
				p.flags[n] = rename.RawMatch{Accuracy: acc, Polymorphic: m.Polymorphic}
				continue
			}
		}
		p.extra[b] = append(p.extra[b], rename.RawMatch{
			File:        f.ID,
			Offset:      start,
			Length:      length,
			Accuracy:    acc,
			Polymorphic: m.Polymorphic,
			Implicit:    m.Implicit,
		})
	}
	return nil
}

func (p *Project) refAt(b rename.Binding, file string, offset int) *ast.Node {
	for _, r := range p.refs[b] {
		if r.file.ID == file && r.node.NamePos == offset && !r.node.Implicit {
			return r.node
		}
	}
	return nil
}

// Files returns the files of the project in index order.
func (p *Project) Files() []*ast.File { return p.files }

func (p *Project) File(id string) *ast.File { return p.byID[id] }

// FileByPath returns the file whose path is path.
func (p *Project) FileByPath(path string) *ast.File {
	for _, f := range p.files {
		if f.Path == path {
			return f
		}
	}
	return nil
}

func (p *Project) BindingOf(_ *ast.File, n *ast.Node) (rename.Binding, bool) {
	b, ok := p.bindings[n]
	return b, ok
}

// BindingAt returns the binding of the name at offset in file.
func (p *Project) BindingAt(file string, offset int) (rename.Binding, *ast.Node, bool) {
	f := p.byID[file]
	if f == nil {
		return "", nil, false
	}
	n := f.NameAt(offset)
	if n == nil {
		return "", nil, false
	}
	b, ok := p.bindings[n]
	return b, n, ok
}

// Symbols returns every declaration of the project in index order.
func (p *Project) Symbols() []*rename.Declaration {
	decls := make([]*rename.Declaration, 0, len(p.order))
	for _, b := range p.order {
		decls = append(decls, p.decls[b])
	}
	return decls
}

func (p *Project) Declaration(b rename.Binding) (*rename.Declaration, bool) {
	d, ok := p.decls[b]
	return d, ok
}

func (p *Project) Supertypes(ctx context.Context, t rename.Binding) ([]rename.Binding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.supertypes[t], nil
}

func (p *Project) Subtypes(ctx context.Context, t rename.Binding) ([]rename.Binding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.subtypes[t], nil
}

func (p *Project) Members(ctx context.Context, t rename.Binding) ([]*rename.Declaration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, ok := p.decls[t]; !ok {
		return nil, fmt.Errorf("unknown type %s", t)
	}
	return p.members[t], nil
}

// Search reports the references of d the way a search engine does: a match
// spans the qualifier of the reference and, for a method call, its argument
// list.
func (p *Project) Search(ctx context.Context, d *rename.Declaration) ([]rename.RawMatch, error) {
	var matches []rename.RawMatch
	for _, r := range p.refs[d.Binding] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m := p.flags[r.node]
		m.File = r.file.ID
		if r.node.Implicit {
			m.Offset, m.Implicit = r.node.Start, true
		} else {
			m.Offset, m.Length = matchExtent(r.file.Text, r.node.NamePos, r.node.NameEnd(), d.Kind == rename.KindMethod)
		}
		matches = append(matches, m)
	}
	return append(matches, p.extra[d.Binding]...), nil
}

// Siblings returns the names of the resources next to the resource d.
func (p *Project) Siblings(ctx context.Context, d *rename.Declaration) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.Kind.IsResource() {
		return nil, fmt.Errorf("%s is not a resource", d.Name)
	}
	dir := path.Dir(d.Path)
	seen := make(map[string]bool)
	var names []string
	add := func(p string) {
		if p == d.Path || path.Dir(p) != dir || seen[p] {
			return
		}
		seen[p] = true
		names = append(names, path.Base(p))
	}
	for _, b := range p.order {
		if r := p.decls[b]; r.Kind.IsResource() {
			add(r.Path)
		}
	}
	for _, r := range p.resources {
		add(path.Clean(r))
	}
	return names, nil
}
