package rename

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestArgumentList(t *testing.T) {
	tests := []struct {
		raw      string
		expected int
	}{
		{"obj.oldName(1,2)", 11},
		{"get().m(a(b))", 7},
		{"a.m(x) ", 3},
		{"m", 1},
		{"obj.m(unclosed", 5},
		{"(x).m()", 5},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := argumentList(tt.raw); got != tt.expected {
				t.Errorf("argumentList(%q) = %d, expected %d", tt.raw, got, tt.expected)
			}
		})
	}
}

func TestRefineMatch(t *testing.T) {
	method := &Declaration{Binding: "Calc.oldName", Kind: KindMethod, Name: "oldName"}
	field := &Declaration{Binding: "Calc.total", Kind: KindField, Name: "total"}
	const text = "x = obj.oldName(1,2) + this. total + oldName() + get().oldName(f(y));"

	at := func(s string) int {
		for i := 0; i+len(s) <= len(text); i++ {
			if text[i:i+len(s)] == s {
				return i
			}
		}
		t.Fatalf("%q not in text", s)
		return 0
	}
	raw := func(s string) RawMatch {
		return RawMatch{File: "A.java", Offset: at(s), Length: len(s)}
	}

	tests := []struct {
		name     string
		decl     *Declaration
		match    RawMatch
		expected Occurrence
		dropped  bool
	}{
		{
			name:     "qualified call",
			decl:     method,
			match:    raw("obj.oldName(1,2)"),
			expected: Occurrence{File: "A.java", Offset: at("oldName(1,2)"), Length: 7, Kind: Reference, Qualifier: 4},
		},
		{
			name:     "whitespace after the dot",
			decl:     field,
			match:    raw("this. total"),
			expected: Occurrence{File: "A.java", Offset: at("total"), Length: 5, Kind: Reference, Qualifier: 6},
		},
		{
			name:     "unqualified call",
			decl:     method,
			match:    raw("oldName()"),
			expected: Occurrence{File: "A.java", Offset: at("oldName()"), Length: 7, Kind: Reference},
		},
		{
			name:     "call in qualifier and arguments",
			decl:     method,
			match:    raw("get().oldName(f(y))"),
			expected: Occurrence{File: "A.java", Offset: at("oldName(f(y))"), Length: 7, Kind: Reference, Qualifier: 6},
		},
		{
			name:     "exact name",
			decl:     method,
			match:    RawMatch{File: "A.java", Offset: at("oldName"), Length: 7},
			expected: Occurrence{File: "A.java", Offset: at("oldName"), Length: 7, Kind: Reference},
		},
		{
			name:     "implicit",
			decl:     method,
			match:    RawMatch{File: "A.java", Offset: 2, Implicit: true},
			expected: Occurrence{File: "A.java", Offset: 2, Length: 7, Kind: Implicit},
		},
		{
			name:     "polymorphic and inaccurate",
			decl:     method,
			match:    RawMatch{File: "A.java", Offset: at("oldName"), Length: 7, Accuracy: Inaccurate, Polymorphic: true},
			expected: Occurrence{File: "A.java", Offset: at("oldName"), Length: 7, Kind: Reference},
		},
		{
			name:     "polymorphic only",
			decl:     method,
			match:    RawMatch{File: "A.java", Offset: at("oldName"), Length: 7, Polymorphic: true},
			expected: Occurrence{File: "A.java", Offset: at("oldName"), Length: 7, Kind: Reference},
		},
		{
			name:    "out of range",
			decl:    method,
			match:   RawMatch{File: "A.java", Offset: len(text) - 2, Length: 7},
			dropped: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := refineMatch(text, tt.match, tt.decl)
			if ok == tt.dropped {
				t.Fatalf("expected dropped=%v, got occurrence %+v", tt.dropped, got)
			}
			if tt.dropped {
				return
			}
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("occurrence mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
