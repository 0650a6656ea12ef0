package ast

// Scope is a node of the lexical nesting tree: the compilation unit, a type
// body, a method or a block.
type Scope struct {
	Node     *Node
	Parent   *Scope
	Children []*Scope
	Decls    []*Node
}

// Kind returns the kind of the node that opens the scope.
func (s *Scope) Kind() Kind { return s.Node.Kind }

func (s *Scope) Start() int { return s.Node.Start }
func (s *Scope) End() int   { return s.Node.End }

// Lookup returns the declarations named name made directly in s.
func (s *Scope) Lookup(name string) []*Node {
	var found []*Node
	for _, d := range s.Decls {
		if d.Name == name {
			found = append(found, d)
		}
	}
	return found
}

// ScopeTree is the scope structure of one File.
type ScopeTree struct {
	Root   *Scope
	byNode map[*Node]*Scope
	declIn map[*Node]*Scope
}

// NewScopeTree derives the scope tree of f.
func NewScopeTree(f *File) *ScopeTree {
	t := &ScopeTree{
		byNode: make(map[*Node]*Scope),
		declIn: make(map[*Node]*Scope),
	}
	t.Root = &Scope{Node: f.Root}
	t.byNode[f.Root] = t.Root

	type item struct {
		node  *Node
		scope *Scope // innermost scope enclosing node
	}
	work := []item{{f.Root, t.Root}}
	for len(work) > 0 {
		it := work[len(work)-1]
		work = work[:len(work)-1]

		for i := len(it.node.Children) - 1; i >= 0; i-- {
			c := it.node.Children[i]
			if c.Kind.IsDecl() {
				t.declIn[c] = it.scope
			}
			inner := it.scope
			if c.Kind.IsScope() {
				inner = &Scope{Node: c, Parent: it.scope}
				t.byNode[c] = inner
			}
			work = append(work, item{c, inner})
		}
	}

	// Link children and declarations in source order.
	Walk(f.Root, func(n *Node) bool {
		if s, ok := t.byNode[n]; ok && s.Parent != nil {
			s.Parent.Children = append(s.Parent.Children, s)
		}
		if s, ok := t.declIn[n]; ok {
			s.Decls = append(s.Decls, n)
		}
		return true
	})
	return t
}

// Of returns the scope opened by n, or nil.
func (t *ScopeTree) Of(n *Node) *Scope {
	return t.byNode[n]
}

// DeclaringScope returns the scope in which decl is declared, or nil when
// decl does not belong to the tree.
func (t *ScopeTree) DeclaringScope(decl *Node) *Scope {
	return t.declIn[decl]
}

// Innermost returns the innermost scope containing offset.
func (t *ScopeTree) Innermost(offset int) *Scope {
	s := t.Root
	for {
		var next *Scope
		for _, c := range s.Children {
			if c.Node.Contains(offset) {
				next = c
				break
			}
		}
		if next == nil {
			return s
		}
		s = next
	}
}

// Descendants calls fn for every scope nested in s, outermost first. If fn
// returns false, the scopes nested in that scope are skipped.
func (s *Scope) Descendants(fn func(*Scope) bool) {
	work := append([]*Scope(nil), s.Children...)
	for len(work) > 0 {
		c := work[0]
		work = work[1:]
		if fn(c) {
			work = append(work, c.Children...)
		}
	}
}

// VisibleSpan returns the range of source in which decl, declared in scope,
// can be referred to by its simple name. Locals are visible from their
// declaration to the end of their scope; everything else in the whole scope.
func VisibleSpan(decl *Node, scope *Scope) (start, end int) {
	if decl.Kind == KindLocal {
		return decl.Start, scope.End()
	}
	return scope.Start(), scope.End()
}
