package ast

import (
	"strings"
	"testing"
)

func TestScopeTree(t *testing.T) {
	f := buildSample(t)
	tree := NewScopeTree(f)

	if tree.Root.Kind() != KindFile {
		t.Fatalf("expected file scope at the root, got %s", tree.Root.Kind())
	}
	if len(tree.Root.Decls) != 1 || tree.Root.Decls[0].Name != "Point" {
		t.Fatalf("expected Point declared at file level, got %v", tree.Root.Decls)
	}

	class := tree.Root.Children[0]
	if names := declNames(class); names != "x,move" {
		t.Errorf("class scope declares %q, expected %q", names, "x,move")
	}
	method := class.Children[0]
	if names := declNames(method); names != "dx,y" {
		t.Errorf("method scope declares %q, expected %q", names, "dx,y")
	}
	block := method.Children[0]
	if block.Kind() != KindBlock || declNames(block) != "z" {
		t.Errorf("expected block declaring z, got %s declaring %q", block.Kind(), declNames(block))
	}

	if s := tree.Innermost(strings.Index(sample, "z =")); s != block {
		t.Errorf("expected the block to be innermost at z, got %s", s.Kind())
	}
	if s := tree.Innermost(strings.Index(sample, "return")); s != method {
		t.Errorf("expected the method to be innermost at return, got %s", s.Kind())
	}
	if s := tree.Innermost(0); s != tree.Root {
		t.Errorf("expected the file scope before the class, got %s", s.Kind())
	}

	y := f.DeclAt(strings.Index(sample, "y ="))
	if s := tree.DeclaringScope(y); s != method {
		t.Errorf("expected y declared in the method scope")
	}
	if got := method.Lookup("y"); len(got) != 1 || got[0] != y {
		t.Errorf("Lookup(y) = %v", got)
	}
}

func TestScope_Descendants(t *testing.T) {
	tree := NewScopeTree(buildSample(t))

	var kinds []string
	tree.Root.Descendants(func(s *Scope) bool {
		kinds = append(kinds, s.Kind().String())
		return true
	})
	if got := strings.Join(kinds, ","); got != "class,method,block" {
		t.Errorf("descendants = %q", got)
	}

	kinds = nil
	tree.Root.Descendants(func(s *Scope) bool {
		kinds = append(kinds, s.Kind().String())
		return s.Kind() != KindMethod
	})
	if got := strings.Join(kinds, ","); got != "class,method" {
		t.Errorf("pruned descendants = %q", got)
	}
}

func TestVisibleSpan(t *testing.T) {
	f := buildSample(t)
	tree := NewScopeTree(f)

	y := f.DeclAt(strings.Index(sample, "y ="))
	start, end := VisibleSpan(y, tree.DeclaringScope(y))
	method := Enclosing(y, KindMethod)
	if start != y.Start || end != method.End {
		t.Errorf("local y visible in [%d,%d), expected [%d,%d)", start, end, y.Start, method.End)
	}

	dx := f.DeclAt(strings.Index(sample, "dx"))
	start, end = VisibleSpan(dx, tree.DeclaringScope(dx))
	if start != method.Start || end != method.End {
		t.Errorf("parameter dx visible in [%d,%d), expected the whole method", start, end)
	}
}

func declNames(s *Scope) string {
	var names []string
	for _, d := range s.Decls {
		names = append(names, d.Name)
	}
	return strings.Join(names, ",")
}
