package scanner

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWholeWords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		pattern  string
		expected []int
	}{
		{"inside longer word", "fooBarfoo", "foo", nil},
		{"qualified", "foo.bar()", "foo", []int{0}},
		{"underscore", "foo_x _foo foo", "foo", []int{11}},
		{"dollar", "$foo foo$ (foo)", "foo", []int{11}},
		{"digits", "foo1 2foo foo", "foo", []int{10}},
		{"unicode letters", "éfoo fooé foo", "foo", []int{12}},
		{"whole text", "foo", "foo", []int{0}},
		{"empty pattern", "foo", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WholeWords(tt.text, tt.pattern)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("WholeWords(%q, %q) mismatch (-want +got):\n%s", tt.text, tt.pattern, diff)
			}
		})
	}
}

func TestSpans_C(t *testing.T) {
	text := `int a = 1; // line
/** doc */ /* block */ /**/ s = "str\"ing"; c = 'x';`
	spans, err := Spans(text, DialectC)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, s := range spans {
		if s.Kind != Code {
			got = append(got, s.Kind.String()+" "+text[s.Start:s.End])
		}
	}
	expected := []string{
		"line-comment // line",
		"doc-comment /** doc */",
		"block-comment /* block */",
		"block-comment /**/",
		`string "str\"ing"`,
		"string 'x'",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("spans mismatch (-want +got):\n%s", diff)
	}

	end := 0
	for _, s := range spans {
		if s.Start != end {
			t.Fatalf("gap or overlap at %d", s.Start)
		}
		end = s.End
	}
	if end != len(text) {
		t.Errorf("spans end at %d, text has %d bytes", end, len(text))
	}
}

func TestFindMatches_C(t *testing.T) {
	text := `/** Returns count. See count(). */
int count() { return count; } // count, recount
String s = "count";`

	got := FindMatches(text, "count", DialectC)
	expected := []int{12, 23, 68, 95}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("FindMatches mismatch (-want +got):\n%s", diff)
	}
	for _, off := range got {
		if text[off:off+5] != "count" {
			t.Errorf("offset %d does not hold the pattern", off)
		}
	}
}

func TestFindMatches_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		dialect Dialect
	}{
		{"unterminated comment", "int a; /* count", DialectC},
		{"unterminated string", "s = \"count\n;", DialectC},
		{"shell syntax error", "if then # count\nfi (", DialectShell},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindMatches(tt.text, "count", tt.dialect); len(got) != 0 {
				t.Errorf("expected no matches for malformed input, got %v", got)
			}
		})
	}
}

func TestFindMatches_Shell(t *testing.T) {
	text := `#!/bin/sh
# run count
echo 'count' "$count" count
cat <<EOF
count
EOF
`
	got := FindMatches(text, "count", DialectShell)
	var words []string
	for _, off := range got {
		words = append(words, text[off-1:off+len("count")])
	}
	expected := []string{" count", "'count", "\ncount"}
	if diff := cmp.Diff(expected, words); diff != "" {
		t.Errorf("shell matches mismatch (-want +got):\n%s", diff)
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected Dialect
	}{
		{"Main.java", "class Main {}", DialectC},
		{"build.sh", "", DialectShell},
		{"scripts/release.bash", "", DialectShell},
		{"bin/deploy", "#!/usr/bin/env bash\n", DialectShell},
		{"bin/tool", "ELF", DialectC},
		{".bashrc", "#!/bin/bash\n", DialectC},
		{"", "", DialectC},
	}
	for _, tt := range tests {
		if got := DialectFor(tt.name, []byte(tt.data)); got != tt.expected {
			t.Errorf("DialectFor(%q) = %s, expected %s", tt.name, got, tt.expected)
		}
	}
}
