package rename

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/matkrin/symrename/internal/ast"
)

// Analyze checks whether renaming the requested declaration at occs to the
// new name preserves the meaning of the program.
func Analyze(ctx context.Context, req *Request, occs []Occurrence) (Status, error) {
	a := &analyzer{
		snap:       req.Snapshot,
		decl:       req.Decl,
		overriders: req.Overriders,
		name:       req.NewName,
		renamed:    map[Binding]bool{req.Decl.Binding: true},
		scopes:     make(map[string]*ast.ScopeTree),
	}
	for _, o := range req.Overriders {
		a.renamed[o.Binding] = true
	}
	var err error
	switch req.Decl.Kind {
	case KindLocalVariable, KindParameter:
		err = a.variable(ctx, occs)
	case KindField:
		err = a.field(ctx, occs)
	case KindMethod:
		err = a.method(ctx)
	case KindType:
		err = a.typ(ctx)
	case KindProject, KindFolder:
		err = a.resource(ctx)
	default:
		return Status{}, fmt.Errorf("cannot analyze %s", req.Decl.Kind)
	}
	if err != nil {
		return Status{}, err
	}
	slog.Debug("analyzed rename", "symbol", a.decl.Binding, "to", a.name, "severity", a.status.Severity())
	return a.status, nil
}

type analyzer struct {
	snap       Snapshot
	decl       *Declaration
	overriders []*Declaration
	name       string
	renamed    map[Binding]bool
	status     Status
	scopes     map[string]*ast.ScopeTree
}

func (a *analyzer) scopeTree(f *ast.File) *ast.ScopeTree {
	t, ok := a.scopes[f.ID]
	if !ok {
		t = ast.NewScopeTree(f)
		a.scopes[f.ID] = t
	}
	return t
}

// declNode returns the file and node declaring a.decl. A missing node is
// reported as a fatal conflict.
func (a *analyzer) declNode() (*ast.File, *ast.Node) {
	f := a.snap.File(a.decl.File)
	if f != nil {
		if n := f.DeclAt(a.decl.Offset); n != nil && n.Name == a.decl.Name {
			return f, n
		}
	}
	a.status.Addf(Fatal, DeclarationGone, a.decl.Location(), nil,
		"The declaration of %s is no longer present", a.decl.Name)
	return nil, nil
}

func (a *analyzer) location(f *ast.File, n *ast.Node) *Location {
	return &Location{File: f.ID, Offset: n.NamePos, Length: len(n.Name)}
}

// variable checks a local variable or parameter. Any other variable named
// like the new name whose visibility overlaps the renamed one is a conflict,
// whether it is declared in an enclosing scope, in a nested scope, or in the
// scope of some occurrence.
func (a *analyzer) variable(ctx context.Context, occs []Occurrence) error {
	f, node := a.declNode()
	if node == nil {
		return nil
	}
	tree := a.scopeTree(f)
	declScope := tree.DeclaringScope(node)
	if declScope == nil {
		return fmt.Errorf("%s is not declared in any scope of %s", node.Name, f.ID)
	}
	start, end := ast.VisibleSpan(node, declScope)

	reported := make(map[*ast.Node]bool)
	check := func(s *ast.Scope) {
		for _, d := range s.Lookup(a.name) {
			if d == node || !d.Kind.IsVariable() || reported[d] {
				continue
			}
			ds, de := ast.VisibleSpan(d, tree.DeclaringScope(d))
			if ds >= end || de <= start {
				continue
			}
			reported[d] = true
			a.status.Addf(Fatal, ShadowConflict, a.decl.Location(), a.location(f, d),
				"A %s named %s is already visible where %s is used", d.Kind, a.name, a.decl.Name)
		}
	}

	outward := []*ast.Scope{declScope}
	for _, o := range occs {
		if o.File == f.ID && o.Kind != Textual {
			outward = append(outward, tree.Innermost(o.Offset))
		}
	}
	visited := make(map[*ast.Scope]bool)
	for _, s := range outward {
		for ; s != nil && !visited[s]; s = s.Parent {
			if err := ctx.Err(); err != nil {
				return err
			}
			visited[s] = true
			check(s)
		}
	}

	var err error
	declScope.Descendants(func(s *ast.Scope) bool {
		if err = ctx.Err(); err != nil {
			return false
		}
		if s.End() <= start || s.Start() >= end {
			return false
		}
		if !visited[s] {
			check(s)
		}
		return true
	})
	return err
}

// field checks that no local variable or parameter named like the new name
// is visible at an unqualified occurrence, and that the declaring type and
// its hierarchy do not declare a field of that name.
func (a *analyzer) field(ctx context.Context, occs []Occurrence) error {
	reported := make(map[*ast.Node]bool)
	for _, o := range occs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if o.Kind == Textual || o.Kind == Declared {
			continue
		}
		f := a.snap.File(o.File)
		if f == nil || qualified(f.Text, o.Offset) {
			continue
		}
		tree := a.scopeTree(f)
		for s := tree.Innermost(o.Offset); s != nil; s = s.Parent {
			for _, d := range s.Lookup(a.name) {
				if (d.Kind != ast.KindLocal && d.Kind != ast.KindParameter) || reported[d] {
					continue
				}
				ds, de := ast.VisibleSpan(d, tree.DeclaringScope(d))
				if o.Offset < ds || o.Offset >= de {
					continue
				}
				reported[d] = true
				a.status.Addf(Fatal, ShadowConflict, o.Location(), a.location(f, d),
					"The %s %s would shadow the renamed field %s at this reference", d.Kind, a.name, a.decl.Name)
			}
		}
	}

	members, err := a.snap.Members(ctx, a.decl.Owner)
	if err != nil {
		return a.queryErr(ctx, err)
	}
	for _, m := range members {
		if m.Kind == KindField && m.Name == a.name && m.Binding != a.decl.Binding {
			a.status.Addf(Fatal, NamespaceCollision, a.decl.Location(), m.Location(),
				"The type already declares a field named %s", a.name)
		}
	}

	hierarchy, err := a.hierarchy(ctx, a.decl.Owner, true)
	if err != nil {
		return err
	}
	for _, t := range hierarchy {
		members, err := a.snap.Members(ctx, t)
		if err != nil {
			return a.queryErr(ctx, err)
		}
		for _, m := range members {
			if m.Kind == KindField && m.Name == a.name {
				a.status.Addf(Warning, ShadowConflict, a.decl.Location(), m.Location(),
					"The field %s in %s would hide or be hidden by the renamed field", a.name, a.typeName(t))
			}
		}
	}
	return nil
}

// method runs the override, implementation and hierarchy collision checks.
// Overriders are renamed with the method, so they must not override anything
// else of the old name.
func (a *analyzer) method(ctx context.Context) error {
	owner := a.decl.Owner
	ancestors, err := a.walk(ctx, owner, a.snap.Supertypes)
	if err != nil {
		return err
	}

	if a.decl.Virtual() {
		for _, t := range ancestors {
			members, err := a.snap.Members(ctx, t)
			if err != nil {
				return a.queryErr(ctx, err)
			}
			td, _ := a.snap.Declaration(t)
			for _, m := range members {
				if m.Kind != KindMethod || m.Name != a.decl.Name || m.Modifiers.Has(Private|Static) || !sameSignature(m, a.decl) {
					continue
				}
				if td != nil && td.Interface {
					a.status.Addf(Fatal, StructuralConflict, a.decl.Location(), m.Location(),
						"The method %s implements %s.%s; rename the interface method instead", a.decl.Name, td.Name, m.Name)
				} else {
					a.status.Addf(Fatal, StructuralConflict, a.decl.Location(), m.Location(),
						"The method %s overrides %s.%s; rename the overridden method instead", a.decl.Name, a.typeName(t), m.Name)
				}
			}
		}
	}

	// Private methods are not inherited, so subtypes cannot call them
	// unqualified.
	types := append([]Binding{owner}, ancestors...)
	if !a.decl.Modifiers.Has(Private) {
		descendants, err := a.walk(ctx, owner, a.snap.Subtypes)
		if err != nil {
			return err
		}
		types = append(types, descendants...)
	}

	for _, o := range a.overriders {
		up, err := a.walk(ctx, o.Owner, a.snap.Supertypes)
		if err != nil {
			return err
		}
		for _, t := range up {
			members, err := a.snap.Members(ctx, t)
			if err != nil {
				return a.queryErr(ctx, err)
			}
			for _, m := range members {
				if m.Kind != KindMethod || m.Name != o.Name || a.renamed[m.Binding] || m.Modifiers.Has(Private|Static) || !sameSignature(m, o) {
					continue
				}
				a.status.Addf(Fatal, StructuralConflict, o.Location(), m.Location(),
					"The method %s.%s also overrides %s.%s, which would keep its name", a.typeName(o.Owner), o.Name, a.typeName(t), m.Name)
			}
		}
		types = append(types, up...)
	}

	checked := make(map[Binding]bool)
	for _, t := range types {
		if checked[t] {
			continue
		}
		checked[t] = true
		if err := ctx.Err(); err != nil {
			return err
		}
		members, err := a.snap.Members(ctx, t)
		if err != nil {
			return a.queryErr(ctx, err)
		}
		for _, m := range members {
			if m.Kind == KindMethod && m.Name == a.name && m.Params == a.decl.Params && !a.renamed[m.Binding] {
				a.status.Addf(Fatal, StructuralConflict, a.decl.Location(), m.Location(),
					"%s already declares a method %s with %d parameters", a.typeName(t), a.name, m.Params)
			}
		}
	}

	if od, ok := a.snap.Declaration(owner); ok && od.Name == a.name {
		a.status.Addf(Warning, StructuralConflict, a.decl.Location(), od.Location(),
			"A method named like its type %s reads as a constructor", a.name)
	}
	return nil
}

// typ checks types sharing the enclosing scope and the enclosing and nested
// types of the renamed type.
func (a *analyzer) typ(ctx context.Context) error {
	f, node := a.declNode()
	if node == nil {
		return nil
	}
	tree := a.scopeTree(f)
	scope := tree.DeclaringScope(node)
	if scope == nil {
		return fmt.Errorf("%s is not declared in any scope of %s", node.Name, f.ID)
	}

	for _, d := range scope.Lookup(a.name) {
		if d != node && d.Kind.IsType() {
			a.status.Addf(Fatal, NamespaceCollision, a.decl.Location(), a.location(f, d),
				"A type named %s already exists", a.name)
		}
	}
	if scope == tree.Root {
		for _, other := range a.snap.Files() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if other.ID == f.ID {
				continue
			}
			for _, d := range a.scopeTree(other).Root.Lookup(a.name) {
				if d.Kind.IsType() {
					a.status.Addf(Fatal, NamespaceCollision, a.decl.Location(), a.location(other, d),
						"A type named %s already exists in %s", a.name, other.Path)
				}
			}
		}
	}

	for p := ast.Enclosing(node, ast.KindClass, ast.KindInterface); p != nil; p = ast.Enclosing(p, ast.KindClass, ast.KindInterface) {
		if p.Name == a.name {
			a.status.Addf(Error, NamespaceCollision, a.decl.Location(), a.location(f, p),
				"A nested type cannot be named like its enclosing type %s", a.name)
		}
	}
	ast.Walk(node, func(n *ast.Node) bool {
		if n != node && n.Kind.IsType() && n.Name == a.name {
			a.status.Addf(Error, NamespaceCollision, a.decl.Location(), a.location(f, n),
				"The nested type %s would be named like its enclosing type", a.name)
		}
		return true
	})
	return nil
}

// resource checks the new name against the siblings of a project or folder.
func (a *analyzer) resource(ctx context.Context) error {
	siblings, err := a.snap.Siblings(ctx, a.decl)
	if err != nil {
		return a.queryErr(ctx, err)
	}
	folded := foldName(a.name)
	for _, s := range siblings {
		switch {
		case s == a.decl.Name:
		case s == a.name:
			a.status.Addf(Fatal, NamespaceCollision, nil, nil,
				"A resource named %s already exists", a.name)
		case foldName(s) == folded:
			a.status.Addf(Warning, NamespaceCollision, nil, nil,
				"A resource named %s differs from %s only in case or normalization", s, a.name)
		}
	}
	return nil
}

var folder = cases.Fold()

func foldName(s string) string {
	return folder.String(norm.NFC.String(s))
}

// hierarchy returns the proper ancestors of t followed by its proper
// descendants.
func (a *analyzer) hierarchy(ctx context.Context, t Binding, descendants bool) ([]Binding, error) {
	types, err := a.walk(ctx, t, a.snap.Supertypes)
	if err != nil || !descendants {
		return types, err
	}
	down, err := a.walk(ctx, t, a.snap.Subtypes)
	if err != nil {
		return nil, err
	}
	return append(types, down...), nil
}

// walk visits the types reachable from t through next, breadth first,
// excluding t itself.
func (a *analyzer) walk(ctx context.Context, t Binding, next func(context.Context, Binding) ([]Binding, error)) ([]Binding, error) {
	types, err := walkTypes(ctx, t, next)
	if err != nil {
		return nil, a.queryErr(ctx, err)
	}
	return types, nil
}

func (a *analyzer) queryErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("querying type hierarchy of %s: %w", a.decl.Name, err)
}

func (a *analyzer) typeName(t Binding) string {
	if d, ok := a.snap.Declaration(t); ok {
		return d.Name
	}
	return string(t)
}

// sameSignature reports whether m can override or implement d. Without
// parameter types only the arity is compared.
func sameSignature(m, d *Declaration) bool {
	if m.Params != d.Params {
		return false
	}
	if len(m.ParamTypes) == 0 || len(d.ParamTypes) == 0 {
		return true
	}
	return slices.Equal(m.ParamTypes, d.ParamTypes)
}

// qualified reports whether the name at offset follows a member access.
func qualified(text string, offset int) bool {
	for i := offset - 1; i >= 0; i-- {
		switch text[i] {
		case ' ', '\t', '\n', '\r':
			continue
		case '.':
			return true
		}
		return false
	}
	return false
}
