// Package rename decides whether a symbol can be renamed and computes the
// text edits that rename it.
//
// A rename runs as a Processor: the declaration is activated, the new name is
// checked, and the final check collects every occurrence of the symbol,
// analyzes the new name for shadowing, override and namespace conflicts, and
// plans the edits. Name resolution, reference search and resource listing are
// supplied by a Snapshot.
package rename

import (
	"context"

	"github.com/matkrin/symrename/internal/ast"
)

// Binding identifies a resolved symbol. Two name nodes refer to the same
// symbol iff their bindings are equal.
type Binding string

type Kind uint8

const (
	KindInvalid Kind = iota
	KindLocalVariable
	KindParameter
	KindField
	KindMethod
	KindType
	KindProject
	KindFolder
)

var kindNames = [...]string{
	KindInvalid:       "invalid",
	KindLocalVariable: "local variable",
	KindParameter:     "parameter",
	KindField:         "field",
	KindMethod:        "method",
	KindType:          "type",
	KindProject:       "project",
	KindFolder:        "folder",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// IsResource reports whether k names a storage resource rather than a code
// symbol.
func (k Kind) IsResource() bool {
	return k == KindProject || k == KindFolder
}

// IsLocal reports whether symbols of kind k are only visible inside the
// method that declares them.
func (k Kind) IsLocal() bool {
	return k == KindLocalVariable || k == KindParameter
}

type Modifiers uint8

const (
	Private Modifiers = 1 << iota
	Static
	InterfaceMember
)

func (m Modifiers) Has(flag Modifiers) bool { return m&flag != 0 }

// Declaration is the symbol a rename targets.
type Declaration struct {
	Binding   Binding
	Kind      Kind
	Name      string
	File      string // id of the declaring file
	Offset    int    // offset of the declared name in File
	Modifiers Modifiers

	// Methods only. ParamTypes is optional; when set it has Params entries.
	Params     int
	ParamTypes []string

	// Declaring type of a member.
	Owner Binding

	// Types only.
	Interface bool

	// Resources only: the slash separated path of the resource.
	Path string
}

// Virtual reports whether d is an overridable method: one declared in a
// class that is neither private nor static.
func (d *Declaration) Virtual() bool {
	return d.Kind == KindMethod && !d.Modifiers.Has(Private|Static|InterfaceMember)
}

// Location returns the location of d's name.
func (d *Declaration) Location() *Location {
	return &Location{File: d.File, Offset: d.Offset, Length: len(d.Name)}
}

// Resolver answers binding and type hierarchy queries.
type Resolver interface {
	// BindingOf returns the binding of a declaring or name node of f.
	BindingOf(f *ast.File, n *ast.Node) (Binding, bool)
	// Declaration returns the declaration of b, if it still exists.
	Declaration(b Binding) (*Declaration, bool)
	// Supertypes returns the direct supertypes of type t.
	Supertypes(ctx context.Context, t Binding) ([]Binding, error)
	// Subtypes returns the direct subtypes of type t.
	Subtypes(ctx context.Context, t Binding) ([]Binding, error)
	// Members returns the fields and methods declared by type t.
	Members(ctx context.Context, t Binding) ([]*Declaration, error)
}

type Accuracy uint8

const (
	Exact Accuracy = iota
	Inaccurate
)

// RawMatch is a reference reported by a Searcher. Offset and Length delimit
// the text the search engine matched, which may include a qualifier and, for
// method calls, the argument list.
type RawMatch struct {
	File        string
	Offset      int
	Length      int
	Accuracy    Accuracy
	Implicit    bool
	Polymorphic bool
}

// Searcher finds references to a declaration across the project.
type Searcher interface {
	Search(ctx context.Context, d *Declaration) ([]RawMatch, error)
}

// Container lists the names a resource competes with.
type Container interface {
	Siblings(ctx context.Context, d *Declaration) ([]string, error)
}

// Snapshot is the immutable view of a project a rename runs against.
type Snapshot interface {
	Files() []*ast.File
	File(id string) *ast.File
	Resolver
	Searcher
	Container
}
