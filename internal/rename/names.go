package rename

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/matkrin/symrename/internal/scanner"
)

var reserved = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true, "byte": true,
	"case": true, "catch": true, "char": true, "class": true, "const": true,
	"continue": true, "default": true, "do": true, "double": true, "else": true,
	"enum": true, "extends": true, "final": true, "finally": true, "float": true,
	"for": true, "goto": true, "if": true, "implements": true, "import": true,
	"instanceof": true, "int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true, "public": true,
	"return": true, "short": true, "static": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "this": true, "throw": true, "throws": true,
	"transient": true, "try": true, "void": true, "volatile": true, "while": true,
	"true": true, "false": true, "null": true, "_": true,
}

// CheckName validates name as the new name of d. It does not look for
// conflicts.
func CheckName(d *Declaration, name string) Status {
	var status Status
	fail := func(template string, args ...any) {
		status.Addf(Fatal, SyntaxInvalidName, nil, nil, template, args...)
	}
	switch {
	case name == "":
		fail("Enter a new name")
		return status
	case name == d.Name:
		fail("The new name must differ from the current name %s", d.Name)
		return status
	}
	if d.Kind.IsResource() {
		checkSegment(&status, name)
		return status
	}

	if !utf8.ValidString(name) {
		fail("%q is not valid UTF-8", name)
		return status
	}
	for i, r := range name {
		if i == 0 && !(unicode.IsLetter(r) || r == '_' || r == '$') {
			fail("%s is not a valid %s name: it must start with a letter, '_' or '$'", name, d.Kind)
			return status
		}
		if !scanner.IsWordChar(r) {
			fail("%s is not a valid %s name: %q is not allowed", name, d.Kind, r)
			return status
		}
	}
	if reserved[name] {
		fail("%s is a reserved word", name)
		return status
	}
	if !norm.NFC.IsNormalString(name) {
		status.Addf(Warning, SyntaxInvalidName, nil, nil,
			"%s is not in Unicode normalization form C and may not match other spellings of the same name", name)
	}
	return status
}

func checkSegment(status *Status, name string) {
	fail := func(template string, args ...any) {
		status.Addf(Fatal, SyntaxInvalidName, nil, nil, template, args...)
	}
	if strings.TrimSpace(name) != name {
		fail("A resource name must not start or end with whitespace")
		return
	}
	if name == "." || name == ".." {
		fail("%s is not a valid resource name", name)
		return
	}
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			fail("A resource name must not contain %q", r)
			return
		case unicode.IsControl(r):
			fail("A resource name must not contain control characters")
			return
		}
	}
	if strings.ContainsAny(name, `<>:"|?*`) {
		status.Addf(Warning, SyntaxInvalidName, nil, nil,
			"%s contains characters that are not allowed on every file system", name)
	}
}
