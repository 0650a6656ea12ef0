package rename_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matkrin/symrename/internal/ast"
	"github.com/matkrin/symrename/internal/index"
	"github.com/matkrin/symrename/internal/rename"
)

func load(t *testing.T, name string) *index.Project {
	t.Helper()
	p, err := index.Load(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func parse(t *testing.T, doc string) *index.Project {
	t.Helper()
	p, err := index.Parse([]byte(doc), "")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// check runs a rename of symbol up to and including the final check.
func check(t *testing.T, snap rename.Snapshot, symbol, newName string, opts rename.Options) (*rename.Processor, rename.Status) {
	t.Helper()
	ctx := context.Background()
	p := rename.NewProcessor(snap, rename.Binding(symbol), opts)
	status, err := p.Activate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if status.HasFatal() {
		t.Fatalf("activating %s: %v", symbol, status.Err())
	}
	status, err = p.CheckNewName(newName)
	if err != nil {
		t.Fatal(err)
	}
	if status.HasFatal() {
		t.Fatalf("checking name %s: %v", newName, status.Err())
	}
	status, err = p.CheckFinalConditions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	return p, status
}

// apply returns the text of every file of snap after change.
func apply(t *testing.T, snap rename.Snapshot, change *rename.Change) map[string]string {
	t.Helper()
	texts := make(map[string]string)
	for _, f := range snap.Files() {
		texts[f.ID] = f.Text
	}
	for _, fc := range change.Files {
		text, err := rename.Apply(texts[fc.File], fc.Edits)
		if err != nil {
			t.Fatal(err)
		}
		texts[fc.File] = text
	}
	return texts
}

func messages(s rename.Status) string {
	var msgs []string
	for _, c := range s.Conflicts {
		msgs = append(msgs, c.Severity.String()+": "+c.Message())
	}
	return strings.Join(msgs, "\n")
}

func TestRenameMethod(t *testing.T) {
	snap := load(t, "shapes.yaml")
	p, status := check(t, snap, "Square.grow", "enlarge", rename.DefaultOptions())
	if status.Severity() != rename.OK {
		t.Fatalf("expected no conflicts, got:\n%s", messages(status))
	}
	change, err := p.CreateChange()
	if err != nil {
		t.Fatal(err)
	}
	if p.State() != rename.Committed {
		t.Errorf("expected committed state, got %s", p.State())
	}

	texts := apply(t, snap, change)
	if !strings.Contains(texts["Square.java"], "void enlarge(int by)") {
		t.Errorf("declaration not renamed:\n%s", texts["Square.java"])
	}
	if !strings.Contains(texts["Main.java"], "s.enlarge(1);") {
		t.Errorf("call not renamed:\n%s", texts["Main.java"])
	}
	if !strings.Contains(texts["Main.java"], "// grow the square") {
		t.Errorf("comment renamed without textual matches:\n%s", texts["Main.java"])
	}
	if change.EditCount() != 2 {
		t.Errorf("expected 2 edits, got %d", change.EditCount())
	}
}

func TestRenameMethod_TextualMatches(t *testing.T) {
	snap := load(t, "shapes.yaml")
	opts := rename.DefaultOptions()
	opts.UpdateTextualMatches = true
	p, status := check(t, snap, "Square.grow", "enlarge", opts)
	if status.HasFatal() {
		t.Fatalf("unexpected fatal status:\n%s", messages(status))
	}
	change, err := p.CreateChange()
	if err != nil {
		t.Fatal(err)
	}
	texts := apply(t, snap, change)
	if !strings.Contains(texts["Main.java"], "// enlarge the square") {
		t.Errorf("comment not renamed:\n%s", texts["Main.java"])
	}
}

// hierarchy has a class whose subtype overrides one of its methods and
// implements an interface method through another.
const hierarchy = `
files:
  - id: A.java
    text: |
      interface Runner {
        void go();
      }
      class Base {
        void foo() { }
        static void util() { }
        void go() { }
      }
      class Sub extends Base implements Runner {
        void foo() { }
        void go() { }
        static void helper() { util(); }
        void run() { foo(); }
      }
symbols:
  - {id: Runner, kind: interface, name: Runner, file: A.java}
  - {id: Runner.go, kind: method, name: go, file: A.java, owner: Runner, anchor: "void go"}
  - {id: Base, kind: class, name: Base, file: A.java}
  - {id: Base.foo, kind: method, name: foo, file: A.java, owner: Base, anchor: "void foo"}
  - {id: Base.util, kind: method, name: util, file: A.java, owner: Base, static: true, anchor: "void util"}
  - {id: Base.go, kind: method, name: go, file: A.java, owner: Base, anchor: "void go", nth: 1}
  - {id: Sub, kind: class, name: Sub, file: A.java, supertypes: [Base, Runner]}
  - {id: Sub.foo, kind: method, name: foo, file: A.java, owner: Sub, anchor: "void foo", nth: 1}
  - {id: Sub.go, kind: method, name: go, file: A.java, owner: Sub, anchor: "void go", nth: 2}
  - {id: Sub.helper, kind: method, name: helper, file: A.java, owner: Sub, static: true, anchor: "void helper"}
  - {id: Sub.run, kind: method, name: run, file: A.java, owner: Sub, anchor: "void run"}
refs:
  - {symbol: Base, file: A.java, anchor: "extends Base"}
  - {symbol: Runner, file: A.java, anchor: "implements Runner"}
  - {symbol: Base.util, file: A.java, anchor: "util();"}
  - {symbol: Sub.foo, file: A.java, anchor: "foo();"}
`

func TestRenameMethod_Conflicts(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		symbol   string
		newName  string
		expected error
	}{
		{"hierarchy collision in declaring type", "", "Base.scale", "resize", rename.ErrStructuralConflict},
		{"hierarchy collision in subtype", "", "Base.scale", "grow", rename.ErrStructuralConflict},
		{"overrides", "", "Square.area", "size", rename.ErrStructuralConflict},
		{"implements", "", "Base.area", "size", rename.ErrStructuralConflict},
		{"private method collides in own type", "", "Square.helper", "area", rename.ErrStructuralConflict},
		{"static method collides in subtype", hierarchy, "Base.util", "helper", rename.ErrStructuralConflict},
		{"overrider implements another method", hierarchy, "Base.go", "start", rename.ErrStructuralConflict},
		{"implementation overrides another method", hierarchy, "Runner.go", "start", rename.ErrStructuralConflict},
		{"overload with other arity", "", "Base.scale", "area", nil},
		{"private method with free name", "", "Square.helper", "scale", nil},
		{"method with overrider", hierarchy, "Base.foo", "bar", nil},
		{"interface method with implementations", "", "Shape.area", "size", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var snap *index.Project
			if tt.doc == "" {
				snap = load(t, "shapes.yaml")
			} else {
				snap = parse(t, tt.doc)
			}
			p, status := check(t, snap, tt.symbol, tt.newName, rename.DefaultOptions())
			if tt.expected == nil {
				if status.HasFatal() {
					t.Fatalf("unexpected fatal status:\n%s", messages(status))
				}
				return
			}
			if !status.HasFatal() {
				t.Fatalf("expected a fatal status, got:\n%s", messages(status))
			}
			if err := status.Err(); !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
			if len(p.Edits()) != 0 {
				t.Errorf("expected no edits, got %d", len(p.Edits()))
			}
			if _, err := p.CreateChange(); !errors.Is(err, rename.ErrInvalidState) {
				t.Errorf("expected ErrInvalidState from CreateChange, got %v", err)
			}
		})
	}
}

func TestRenameMethod_RenamesOverriders(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		symbol   string
		newName  string
		edits    int
		expected map[string][]string
	}{
		{
			name:    "subclass override",
			doc:     hierarchy,
			symbol:  "Base.foo",
			newName: "bar",
			edits:   3,
			expected: map[string][]string{
				"A.java": {"class Base {\n  void bar() { }", "Runner {\n  void bar() { }", "void run() { bar(); }"},
			},
		},
		{
			name:    "interface implementations",
			symbol:  "Shape.area",
			newName: "size",
			edits:   4,
			expected: map[string][]string{
				"Shape.java":  {"double size();"},
				"Base.java":   {"public double size() { return 0; }"},
				"Square.java": {"public double size() { return side * side; }"},
				"Main.java":   {"s.size();"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var snap *index.Project
			if tt.doc == "" {
				snap = load(t, "shapes.yaml")
			} else {
				snap = parse(t, tt.doc)
			}
			p, status := check(t, snap, tt.symbol, tt.newName, rename.DefaultOptions())
			if status.HasFatal() {
				t.Fatalf("unexpected fatal status:\n%s", messages(status))
			}
			change, err := p.CreateChange()
			if err != nil {
				t.Fatal(err)
			}
			if change.EditCount() != tt.edits {
				t.Errorf("expected %d edits, got %d", tt.edits, change.EditCount())
			}
			texts := apply(t, snap, change)
			for file, wants := range tt.expected {
				for _, want := range wants {
					if !strings.Contains(texts[file], want) {
						t.Errorf("expected %s to contain %q:\n%s", file, want, texts[file])
					}
				}
			}
		})
	}
}

func TestRenameMethod_CitesOverriddenDeclaration(t *testing.T) {
	snap := load(t, "shapes.yaml")
	_, status := check(t, snap, "Square.area", "size", rename.DefaultOptions())

	var competing []*rename.Location
	for _, c := range status.Conflicts {
		if c.Severity == rename.Fatal && c.Code == rename.StructuralConflict {
			competing = append(competing, c.Competing)
		}
	}
	base, _ := snap.Declaration("Base.area")
	shape, _ := snap.Declaration("Shape.area")
	expected := []*rename.Location{base.Location(), shape.Location()}
	if diff := cmp.Diff(expected, competing); diff != "" {
		t.Errorf("competing declarations mismatch (-want +got):\n%s", diff)
	}
}

type cancelingSnapshot struct {
	*index.Project
	cancel context.CancelFunc
}

func (s cancelingSnapshot) Subtypes(ctx context.Context, t rename.Binding) ([]rename.Binding, error) {
	s.cancel()
	return s.Project.Subtypes(ctx, t)
}

func TestCheckFinalConditions_CanceledDuringHierarchyWalk(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	snap := cancelingSnapshot{Project: load(t, "shapes.yaml"), cancel: cancel}

	p := rename.NewProcessor(snap, "Base.scale", rename.DefaultOptions())
	if _, err := p.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := p.CheckNewName("grow"); err != nil {
		t.Fatal(err)
	}
	status, err := p.CheckFinalConditions(ctx)
	if err != nil {
		t.Fatalf("expected a neutral status, got error %v", err)
	}
	if !status.Canceled {
		t.Error("expected a canceled status")
	}
	if len(status.Conflicts) != 0 || status.HasFatal() {
		t.Errorf("expected no conflicts, got:\n%s", messages(status))
	}
	if len(p.Edits()) != 0 {
		t.Errorf("expected no edits, got %d", len(p.Edits()))
	}
	if p.State() != rename.NameChecked {
		t.Errorf("expected state to stay %s, got %s", rename.NameChecked, p.State())
	}
}

func TestCheckFinalConditions_CanceledAfterCheck(t *testing.T) {
	snap := load(t, "shapes.yaml")
	p, status := check(t, snap, "Square.grow", "enlarge", rename.DefaultOptions())
	if status.HasFatal() || len(p.Edits()) == 0 {
		t.Fatalf("expected a successful check, got %d edits:\n%s", len(p.Edits()), messages(status))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status, err := p.CheckFinalConditions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !status.Canceled {
		t.Error("expected a canceled status")
	}
	if len(p.Edits()) != 0 {
		t.Errorf("expected the earlier edits to be discarded, got %d", len(p.Edits()))
	}
	if p.State() != rename.NameChecked {
		t.Errorf("expected state %s, got %s", rename.NameChecked, p.State())
	}
	if _, err := p.CreateChange(); !errors.Is(err, rename.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState from CreateChange, got %v", err)
	}
}

func TestRenameField(t *testing.T) {
	tests := []struct {
		name     string
		newName  string
		textual  bool
		expected error
		edits    int
	}{
		{"shadowed by parameter", "n", false, rename.ErrShadowConflict, 0},
		{"sibling field", "total", false, rename.ErrNamespaceCollision, 0},
		{"free name", "value", false, nil, 4},
		{"free name with textual matches", "value", true, nil, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := load(t, "counter.yaml")
			opts := rename.DefaultOptions()
			opts.UpdateTextualMatches = tt.textual
			p, status := check(t, snap, "Counter.count", tt.newName, opts)
			if err := status.Err(); !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v\n%s", tt.expected, err, messages(status))
			}
			if len(p.Edits()) != tt.edits {
				t.Errorf("expected %d edits, got %d", tt.edits, len(p.Edits()))
			}
		})
	}
}

func TestRenameField_ShadowAtOccurrence(t *testing.T) {
	snap := load(t, "counter.yaml")
	_, status := check(t, snap, "Counter.count", "n", rename.DefaultOptions())

	f := snap.File("Counter.java")
	param := strings.Index(f.Text, "int n") + len("int ")
	for _, c := range status.Conflicts {
		if c.Code != rename.ShadowConflict {
			continue
		}
		if c.Competing == nil || c.Competing.Offset != param {
			t.Errorf("expected the parameter n as competing declaration, got %v", c.Competing)
		}
		if c.Location == nil || !strings.HasPrefix(f.Text[c.Location.Offset:], "count") {
			t.Errorf("expected the conflict at an occurrence of count, got %v", c.Location)
		}
		if strings.HasPrefix(f.Text[c.Location.Offset-len("this."):], "this.") {
			t.Error("qualified occurrence reported as shadowed")
		}
	}
}

func TestRenameLocal(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		newName  string
		expected error
		edits    int
	}{
		{"local shadows field", "Counter.reset.total", "count", rename.ErrShadowConflict, 0},
		{"parameter shadows field", "Counter.add.n", "count", rename.ErrShadowConflict, 0},
		{"nested declaration", "Counter.loop.i", "j", rename.ErrShadowConflict, 0},
		{"local", "Counter.reset.total", "sum", nil, 2},
		{"name of a local in another method", "Counter.reset.total", "i", nil, 2},
		{"parameter", "Counter.add.n", "delta", nil, 2},
		{"local used in nested block", "Counter.loop.i", "k", nil, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := load(t, "counter.yaml")
			p, status := check(t, snap, tt.symbol, tt.newName, rename.DefaultOptions())
			if err := status.Err(); !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v\n%s", tt.expected, err, messages(status))
			}
			if len(p.Edits()) != tt.edits {
				t.Errorf("expected %d edits, got %d", tt.edits, len(p.Edits()))
			}
		})
	}
}

func TestRenameLocal_TextualMatches(t *testing.T) {
	const doc = `
files:
  - id: T.java
    text: |
      class T {
        // the total of everything
        int f() {
          int total = 0; // running total
          return total;
        }
        /** Not the total of f. */
        int g() { return 1; }
      }
symbols:
  - {id: T, kind: class, name: T, file: T.java}
  - {id: T.f, kind: method, name: f, file: T.java, owner: T, anchor: "int f()"}
  - {id: T.f.total, kind: local, name: total, file: T.java, anchor: "int total"}
  - {id: T.g, kind: method, name: g, file: T.java, owner: T, anchor: "int g()"}
refs:
  - {symbol: T.f.total, file: T.java, anchor: "return total"}
`
	snap := parse(t, doc)
	opts := rename.DefaultOptions()
	opts.UpdateTextualMatches = true
	p, status := check(t, snap, "T.f.total", "count", opts)
	if status.HasFatal() {
		t.Fatalf("unexpected fatal status:\n%s", messages(status))
	}
	change, err := p.CreateChange()
	if err != nil {
		t.Fatal(err)
	}
	if change.EditCount() != 3 {
		t.Errorf("expected 3 edits, got %d", change.EditCount())
	}
	text := apply(t, snap, change)["T.java"]
	for _, want := range []string{"// the total of everything", "int count = 0; // running count", "return count;", "/** Not the total of f. */"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected text to contain %q:\n%s", want, text)
		}
	}
}

func TestRenameType(t *testing.T) {
	snap := load(t, "shapes.yaml")
	_, status := check(t, snap, "Square", "Base", rename.DefaultOptions())
	if !errors.Is(status.Err(), rename.ErrNamespaceCollision) {
		t.Errorf("expected a namespace collision, got:\n%s", messages(status))
	}

	p, status := check(t, snap, "Square", "Quad", rename.DefaultOptions())
	if status.HasFatal() {
		t.Fatalf("unexpected fatal status:\n%s", messages(status))
	}
	change, err := p.CreateChange()
	if err != nil {
		t.Fatal(err)
	}
	texts := apply(t, snap, change)
	if !strings.Contains(texts["Main.java"], "Quad s") || !strings.Contains(texts["Square.java"], "class Quad extends Base") {
		t.Errorf("type not renamed:\n%s\n%s", texts["Square.java"], texts["Main.java"])
	}
}

const calc = `
files:
  - id: Calc.java
    text: |
      class Calc {
        int oldName(int a, int b) { return a + b; }
      }
  - id: Use.java
    text: |
      class Use {
        int f(Calc obj) { return obj.oldName(1,2); }
      }
symbols:
  - {id: Calc, kind: class, name: Calc, file: Calc.java}
  - {id: Calc.oldName, kind: method, name: oldName, file: Calc.java, owner: Calc, params: 2}
  - {id: Use, kind: class, name: Use, file: Use.java}
`

func TestQualifierTrimming(t *testing.T) {
	tests := []struct {
		name  string
		extra string
	}{
		{"resolved reference", "refs:\n  - {symbol: Calc.oldName, file: Use.java, anchor: \"obj.oldName\"}\n"},
		{"search match", "matches:\n  - {symbol: Calc.oldName, file: Use.java, anchor: \"obj.oldName(1,2)\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := parse(t, calc+tt.extra)
			p, status := check(t, snap, "Calc.oldName", "newName", rename.DefaultOptions())
			if status.HasFatal() {
				t.Fatalf("unexpected fatal status:\n%s", messages(status))
			}

			text := snap.File("Use.java").Text
			match := strings.Index(text, "obj.oldName(1,2)")
			var got []rename.Edit
			for _, e := range p.Edits() {
				if e.File == "Use.java" {
					got = append(got, e)
				}
			}
			expected := []rename.Edit{{File: "Use.java", Start: match + 4, End: match + 11, NewText: "newName"}}
			if diff := cmp.Diff(expected, got); diff != "" {
				t.Errorf("edits mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSearchMatchFlags(t *testing.T) {
	tests := []struct {
		name     string
		flags    string
		resolved bool
		renamed  bool
		severity rename.Severity
	}{
		{"polymorphic and inaccurate", "accuracy: inaccurate, polymorphic: true", false, false, rename.OK},
		{"polymorphic", "polymorphic: true", false, true, rename.OK},
		{"inaccurate", "accuracy: inaccurate", false, true, rename.OK},
		{"resolved polymorphic and inaccurate", "accuracy: inaccurate, polymorphic: true", true, false, rename.OK},
		{"resolved polymorphic", "polymorphic: true", true, true, rename.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := calc + "matches:\n  - {symbol: Calc.oldName, file: Use.java, anchor: \"obj.oldName(1,2)\", " + tt.flags + "}\n"
			if tt.resolved {
				doc += "refs:\n  - {symbol: Calc.oldName, file: Use.java, anchor: \"obj.oldName\"}\n"
			}
			snap := parse(t, doc)
			p, status := check(t, snap, "Calc.oldName", "newName", rename.DefaultOptions())
			if status.Severity() != tt.severity {
				t.Fatalf("expected severity %s, got:\n%s", tt.severity, messages(status))
			}
			renamed := false
			for _, e := range p.Edits() {
				renamed = renamed || e.File == "Use.java"
			}
			if renamed != tt.renamed {
				t.Errorf("expected call renamed = %v", tt.renamed)
			}
		})
	}
}

func TestPlan_Inconsistencies(t *testing.T) {
	snap := parse(t, calc+"matches:\n  - {symbol: Calc.oldName, file: Use.java, anchor: \"return\"}\n")
	p, status := check(t, snap, "Calc.oldName", "newName", rename.DefaultOptions())
	if !errors.Is(status.Err(), rename.ErrInternalInconsistency) {
		t.Errorf("expected an internal inconsistency, got:\n%s", messages(status))
	}
	if len(p.Edits()) != 0 {
		t.Errorf("expected no edits, got %d", len(p.Edits()))
	}

	snap = parse(t, calc+"matches:\n  - {symbol: Calc.oldName, file: Use.java, anchor: \"{ return obj\", implicit: true}\n")
	p, status = check(t, snap, "Calc.oldName", "newName", rename.DefaultOptions())
	if status.Severity() != rename.Info {
		t.Errorf("expected an info status for an unspelled implicit reference, got:\n%s", messages(status))
	}
	if len(p.Edits()) != 1 {
		t.Errorf("expected only the declaration to be renamed, got %d edits", len(p.Edits()))
	}
}

// counterWith renders a file in which the field of Counter is named name.
func counterWith(name string) string {
	return strings.ReplaceAll(`
files:
  - id: Counter.java
    text: |
      class Counter {
        int NAME;
        /** Returns NAME. */
        int get() { return NAME; }
        void set(int v) { this.NAME = v; }
      }
symbols:
  - {id: Counter, kind: class, name: Counter, file: Counter.java}
  - {id: Counter.f, kind: field, name: NAME, file: Counter.java, owner: Counter, anchor: "int NAME"}
  - {id: Counter.get, kind: method, name: get, file: Counter.java, owner: Counter}
  - {id: Counter.set, kind: method, name: set, file: Counter.java, owner: Counter, params: 1}
  - {id: Counter.set.v, kind: parameter, name: v, file: Counter.java, anchor: "(int v)"}
refs:
  - {symbol: Counter.f, file: Counter.java, anchor: "return NAME"}
  - {symbol: Counter.f, file: Counter.java, anchor: "this.NAME"}
  - {symbol: Counter.set.v, file: Counter.java, anchor: "= v"}
`, "NAME", name)
}

func occurrences(t *testing.T, snap rename.Snapshot, symbol string, opts rename.Options) []rename.Occurrence {
	t.Helper()
	d, ok := snap.Declaration(rename.Binding(symbol))
	if !ok {
		t.Fatalf("symbol %s not found", symbol)
	}
	occs, err := rename.Collect(context.Background(), &rename.Request{Snapshot: snap, Decl: d, Options: opts})
	if err != nil {
		t.Fatal(err)
	}
	return occs
}

func TestRoundTrip(t *testing.T) {
	opts := rename.DefaultOptions()
	opts.UpdateTextualMatches = true

	original := parse(t, counterWith("value"))
	before := occurrences(t, original, "Counter.f", opts)

	p, status := check(t, original, "Counter.f", "amount", opts)
	if status.HasFatal() {
		t.Fatalf("unexpected fatal status:\n%s", messages(status))
	}
	change, err := p.CreateChange()
	if err != nil {
		t.Fatal(err)
	}
	renamed := parse(t, counterWith("amount"))
	if got := apply(t, original, change)["Counter.java"]; got != renamed.File("Counter.java").Text {
		t.Fatalf("renamed text mismatch:\n%s", got)
	}

	p, status = check(t, renamed, "Counter.f", "value", opts)
	if status.HasFatal() {
		t.Fatalf("unexpected fatal status:\n%s", messages(status))
	}
	change, err = p.CreateChange()
	if err != nil {
		t.Fatal(err)
	}
	if got := apply(t, renamed, change)["Counter.java"]; got != original.File("Counter.java").Text {
		t.Fatalf("text after renaming back mismatch:\n%s", got)
	}

	after := occurrences(t, parse(t, counterWith("value")), "Counter.f", opts)
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("occurrences mismatch (-want +got):\n%s", diff)
	}
	if len(before) != 4 {
		t.Errorf("expected declaration, 2 references and 1 doc mention, got %d occurrences", len(before))
	}
}

func TestCoverage(t *testing.T) {
	for _, symbol := range []string{"Square.side", "Square.grow", "Base", "Main.run.s"} {
		t.Run(symbol, func(t *testing.T) {
			snap := load(t, "shapes.yaml")
			p, status := check(t, snap, symbol, "renamed", rename.DefaultOptions())
			if status.HasFatal() {
				t.Fatalf("unexpected fatal status:\n%s", messages(status))
			}
			covered := make(map[rename.Edit]int)
			for _, e := range p.Edits() {
				covered[e]++
			}
			for _, f := range snap.Files() {
				ast.Walk(f.Root, func(n *ast.Node) bool {
					if b, ok := snap.BindingOf(f, n); ok && b == rename.Binding(symbol) && n.Literal() {
						e := rename.Edit{File: f.ID, Start: n.NamePos, End: n.NameEnd(), NewText: "renamed"}
						if covered[e] != 1 {
							t.Errorf("%s at %d covered by %d edits", n.Name, n.NamePos, covered[e])
						}
						delete(covered, e)
					}
					return true
				})
			}
			if len(covered) != 0 {
				t.Errorf("edits without a bound name: %v", covered)
			}
		})
	}
}

func TestRenameResource(t *testing.T) {
	const doc = `
symbols:
  - {id: src, kind: folder, name: src, path: proj/src}
  - {id: proj, kind: project, name: proj, path: proj}
resources: [proj/test, proj/Docs, other/lib]
`
	tests := []struct {
		newName  string
		severity rename.Severity
		expected error
	}{
		{"test", rename.Fatal, rename.ErrNamespaceCollision},
		{"docs", rename.Warning, nil},
		{"a/b", rename.Fatal, rename.ErrSyntaxInvalidName},
		{" lib", rename.Fatal, rename.ErrSyntaxInvalidName},
		{"lib", rename.OK, nil},
	}
	for _, tt := range tests {
		t.Run(tt.newName, func(t *testing.T) {
			snap := parse(t, doc)
			ctx := context.Background()
			p := rename.NewProcessor(snap, "src", rename.DefaultOptions())
			if _, err := p.Activate(ctx); err != nil {
				t.Fatal(err)
			}
			status, err := p.CheckNewName(tt.newName)
			if err != nil {
				t.Fatal(err)
			}
			if !status.HasFatal() {
				if status, err = p.CheckFinalConditions(ctx); err != nil {
					t.Fatal(err)
				}
			}
			if status.Severity() != tt.severity {
				t.Fatalf("expected severity %s, got:\n%s", tt.severity, messages(status))
			}
			if err := status.Err(); !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}

	snap := parse(t, doc)
	p, _ := check(t, snap, "src", "lib", rename.DefaultOptions())
	change, err := p.CreateChange()
	if err != nil {
		t.Fatal(err)
	}
	expected := &rename.ResourceMove{From: "proj/src", To: "proj/lib"}
	if diff := cmp.Diff(expected, change.Move); diff != "" {
		t.Errorf("move mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessor_InvalidState(t *testing.T) {
	ctx := context.Background()
	snap := load(t, "shapes.yaml")
	p := rename.NewProcessor(snap, "Square.grow", rename.DefaultOptions())

	if _, err := p.CheckNewName("enlarge"); !errors.Is(err, rename.ErrInvalidState) {
		t.Errorf("CheckNewName before Activate: expected ErrInvalidState, got %v", err)
	}
	if _, err := p.CheckFinalConditions(ctx); !errors.Is(err, rename.ErrInvalidState) {
		t.Errorf("CheckFinalConditions before Activate: expected ErrInvalidState, got %v", err)
	}
	if _, err := p.Activate(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Activate(ctx); !errors.Is(err, rename.ErrInvalidState) {
		t.Errorf("second Activate: expected ErrInvalidState, got %v", err)
	}
	if _, err := p.CreateChange(); !errors.Is(err, rename.ErrInvalidState) {
		t.Errorf("CreateChange before final check: expected ErrInvalidState, got %v", err)
	}
	if _, err := p.CheckNewName("enlarge"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.CheckFinalConditions(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := p.CreateChange(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.CheckNewName("bigger"); !errors.Is(err, rename.ErrInvalidState) {
		t.Errorf("CheckNewName after commit: expected ErrInvalidState, got %v", err)
	}
}

func TestActivate_DeclarationGone(t *testing.T) {
	p := rename.NewProcessor(load(t, "shapes.yaml"), "Square.shrink", rename.DefaultOptions())
	status, err := p.Activate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(status.Err(), rename.ErrDeclarationGone) {
		t.Errorf("expected ErrDeclarationGone, got %v", status.Err())
	}
	if p.State() != rename.Created {
		t.Errorf("expected state %s, got %s", rename.Created, p.State())
	}
}

func TestCheckNewName(t *testing.T) {
	tests := []struct {
		name     string
		severity rename.Severity
	}{
		{"", rename.Fatal},
		{"grow", rename.Fatal},
		{"class", rename.Fatal},
		{"null", rename.Fatal},
		{"_", rename.Fatal},
		{"1st", rename.Fatal},
		{"has space", rename.Fatal},
		{"has-dash", rename.Fatal},
		{"grow_$2", rename.OK},
		{"größer", rename.OK},
		{"e\u0301", rename.Warning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := rename.NewProcessor(load(t, "shapes.yaml"), "Square.grow", rename.DefaultOptions())
			if _, err := p.Activate(context.Background()); err != nil {
				t.Fatal(err)
			}
			status, err := p.CheckNewName(tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if status.Severity() != tt.severity {
				t.Errorf("CheckNewName(%q): expected %s, got:\n%s", tt.name, tt.severity, messages(status))
			}
			if tt.severity == rename.Fatal {
				if !errors.Is(status.Err(), rename.ErrSyntaxInvalidName) {
					t.Errorf("expected ErrSyntaxInvalidName, got %v", status.Err())
				}
				if p.State() != rename.Activated {
					t.Errorf("expected state %s, got %s", rename.Activated, p.State())
				}
			}
		})
	}
}
