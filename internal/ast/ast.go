// Package ast holds the syntax tree a rename runs against: a tagged-variant
// node model with byte-offset ranges, and the lexical scope tree derived from
// it.
//
// Trees are immutable once built. Nothing in this package resolves names;
// binding identity comes from the resolver that produced the tree.
package ast

// Kind tags a Node.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFile
	KindClass
	KindInterface
	KindMethod
	KindField
	KindParameter
	KindLocal
	KindBlock
	KindName // a use of a name
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindFile:      "file",
	KindClass:     "class",
	KindInterface: "interface",
	KindMethod:    "method",
	KindField:     "field",
	KindParameter: "parameter",
	KindLocal:     "local",
	KindBlock:     "block",
	KindName:      "name",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsDecl reports whether nodes of kind k declare a name.
func (k Kind) IsDecl() bool {
	switch k {
	case KindClass, KindInterface, KindMethod, KindField, KindParameter, KindLocal:
		return true
	}
	return false
}

// IsScope reports whether nodes of kind k open a lexical scope.
func (k Kind) IsScope() bool {
	switch k {
	case KindFile, KindClass, KindInterface, KindMethod, KindBlock:
		return true
	}
	return false
}

// IsVariable reports whether k declares a value: a field, parameter or local.
func (k Kind) IsVariable() bool {
	return k == KindField || k == KindParameter || k == KindLocal
}

// IsType reports whether k declares a type.
func (k Kind) IsType() bool {
	return k == KindClass || k == KindInterface
}

// Node is one element of a syntax tree.
//
// Start and End delimit the whole construct (End is exclusive). NamePos is
// the offset of the identifier token the node declares or uses. Implicit
// nodes were synthesized by the compiler and have no identifier token; their
// NamePos is Start.
type Node struct {
	Kind     Kind
	Name     string
	Start    int
	End      int
	NamePos  int
	Implicit bool

	Parent   *Node
	Children []*Node
}

// NameEnd returns the end offset of the node's identifier.
func (n *Node) NameEnd() int {
	return n.NamePos + len(n.Name)
}

// Literal reports whether the node's name is spelled out in the source.
func (n *Node) Literal() bool {
	return n.Name != "" && !n.Implicit && (n.Kind.IsDecl() || n.Kind == KindName)
}

// Contains reports whether offset lies within the node.
func (n *Node) Contains(offset int) bool {
	return n.Start <= offset && offset < n.End
}

// Encloses reports whether other lies entirely within n.
func (n *Node) Encloses(other *Node) bool {
	return n.Start <= other.Start && other.End <= n.End
}

// File is a parsed compilation unit.
type File struct {
	ID   string
	Path string
	Text string
	Root *Node
}

// Walk traverses the tree rooted at root in depth-first preorder, calling fn
// for each node. If fn returns false the children of that node are skipped.
func Walk(root *Node, fn func(*Node) bool) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
}

// NodeAt returns the deepest node of f containing offset.
func (f *File) NodeAt(offset int) *Node {
	var found *Node
	n := f.Root
	for n != nil && n.Contains(offset) {
		found = n
		var next *Node
		for _, c := range n.Children {
			if c.Contains(offset) {
				next = c
				break
			}
		}
		n = next
	}
	return found
}

// NameAt returns the declaring or using node whose identifier covers offset.
// The offset just past the identifier also counts, as editors place the
// cursor there after typing a name.
func (f *File) NameAt(offset int) *Node {
	var found *Node
	Walk(f.Root, func(n *Node) bool {
		if !n.Contains(offset) && n.End != offset {
			return false
		}
		if n.Literal() && n.NamePos <= offset && offset <= n.NameEnd() {
			found = n
		}
		return true
	})
	return found
}

// DeclAt returns the declaration whose identifier starts at offset.
func (f *File) DeclAt(offset int) *Node {
	var found *Node
	Walk(f.Root, func(n *Node) bool {
		if found != nil || !n.Contains(offset) {
			return false
		}
		if n.Kind.IsDecl() && !n.Implicit && n.NamePos == offset {
			found = n
			return false
		}
		return true
	})
	return found
}

// Enclosing returns the nearest proper ancestor of n whose kind is one of
// kinds, or nil.
func Enclosing(n *Node, kinds ...Kind) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		for _, k := range kinds {
			if p.Kind == k {
				return p
			}
		}
	}
	return nil
}
