package ast

import (
	"cmp"
	"fmt"
	"slices"
)

// Build assembles a File from a flat list of nodes by range containment.
//
// Nodes are nested under the smallest node that encloses them; a File node
// spanning the whole text becomes the root. Nodes whose ranges partially
// overlap, or fall outside the text, are rejected.
func Build(id, path, text string, nodes []*Node) (*File, error) {
	root := &Node{Kind: KindFile, Name: id, Start: 0, End: len(text)}

	sorted := slices.Clone(nodes)
	for _, n := range sorted {
		if n.Start < 0 || n.End > len(text) || n.Start > n.End {
			return nil, fmt.Errorf("%s: %s %q has invalid range [%d,%d)", id, n.Kind, n.Name, n.Start, n.End)
		}
		if !n.Implicit && n.Name != "" && (n.NamePos < n.Start || n.NameEnd() > n.End) {
			return nil, fmt.Errorf("%s: %s %q: name at %d outside of [%d,%d)", id, n.Kind, n.Name, n.NamePos, n.Start, n.End)
		}
		n.Parent, n.Children = nil, nil
	}
	// Outer nodes first; among equal ranges, scopes enclose the rest.
	slices.SortStableFunc(sorted, func(a, b *Node) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		if c := cmp.Compare(b.End, a.End); c != 0 {
			return c
		}
		return cmp.Compare(nestRank(a.Kind), nestRank(b.Kind))
	})

	stack := []*Node{root}
	for _, n := range sorted {
		for !stack[len(stack)-1].Encloses(n) {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		if k := len(parent.Children); k > 0 && parent.Children[k-1].End > n.Start {
			prev := parent.Children[k-1]
			return nil, fmt.Errorf("%s: %s %q [%d,%d) overlaps %s %q [%d,%d)",
				id, n.Kind, n.Name, n.Start, n.End, prev.Kind, prev.Name, prev.Start, prev.End)
		}
		n.Parent = parent
		parent.Children = append(parent.Children, n)
		stack = append(stack, n)
	}

	return &File{ID: id, Path: path, Text: text, Root: root}, nil
}

func nestRank(k Kind) int {
	switch k {
	case KindClass, KindInterface:
		return 0
	case KindMethod:
		return 1
	case KindBlock:
		return 2
	}
	return 3
}
