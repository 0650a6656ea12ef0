package rename

import (
	"errors"
	"fmt"
)

type Severity uint8

const (
	OK Severity = iota
	Info
	Warning
	Error
	Fatal
)

func (s Severity) String() string {
	switch s {
	case OK:
		return "ok"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("Severity(%d)", s)
}

type Code uint8

const (
	SyntaxInvalidName Code = iota + 1
	DeclarationGone
	StructuralConflict
	ShadowConflict
	NamespaceCollision
	InternalInconsistency
)

var (
	// ErrSyntaxInvalidName indicates a new name that is not a valid name for
	// the symbol's kind.
	ErrSyntaxInvalidName = errors.New("invalid name")

	// ErrDeclarationGone indicates the symbol no longer exists.
	ErrDeclarationGone = errors.New("declaration no longer exists")

	// ErrStructuralConflict indicates an override, implementation or
	// hierarchy clash.
	ErrStructuralConflict = errors.New("structural conflict")

	// ErrShadowConflict indicates the new name would shadow or be shadowed by
	// another variable.
	ErrShadowConflict = errors.New("shadow conflict")

	// ErrNamespaceCollision indicates a sibling already has the new name.
	ErrNamespaceCollision = errors.New("namespace collision")

	// ErrInternalInconsistency indicates the planned edits do not match the
	// resolved references.
	ErrInternalInconsistency = errors.New("internal inconsistency")

	// ErrInvalidState is returned when a Processor operation is called out
	// of order.
	ErrInvalidState = errors.New("invalid processor state")
)

// Err returns the sentinel error of c.
func (c Code) Err() error {
	switch c {
	case SyntaxInvalidName:
		return ErrSyntaxInvalidName
	case DeclarationGone:
		return ErrDeclarationGone
	case StructuralConflict:
		return ErrStructuralConflict
	case ShadowConflict:
		return ErrShadowConflict
	case NamespaceCollision:
		return ErrNamespaceCollision
	case InternalInconsistency:
		return ErrInternalInconsistency
	}
	return nil
}

func (c Code) String() string {
	if err := c.Err(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("Code(%d)", c)
}

// Location is a range of a file.
type Location struct {
	File   string
	Offset int
	Length int
}

func (l *Location) String() string {
	return fmt.Sprintf("%s:%d", l.File, l.Offset)
}

// Conflict is one problem found while checking a rename.
type Conflict struct {
	Severity Severity
	Code     Code
	Template string
	Args     []any

	// Location is the offending occurrence, if any.
	Location *Location
	// Competing is the declaration the rename competes with, if any.
	Competing *Location
}

func (c Conflict) Message() string {
	return fmt.Sprintf(c.Template, c.Args...)
}

// ConflictError is the error form of a Conflict. It matches the sentinel of
// its code with errors.Is.
type ConflictError struct {
	Conflict Conflict
}

func (e *ConflictError) Error() string {
	return e.Conflict.Message()
}

func (e *ConflictError) Unwrap() error {
	return e.Conflict.Code.Err()
}

// Status is the outcome of a rename check: the conflicts found, in the order
// they were found. A canceled status carries no conflicts.
type Status struct {
	Conflicts []Conflict
	Canceled  bool
}

// Canceled returns the neutral status of an aborted check.
func Canceled() Status {
	return Status{Canceled: true}
}

func (s *Status) Add(c Conflict) {
	s.Conflicts = append(s.Conflicts, c)
}

func (s *Status) Addf(sev Severity, code Code, loc, competing *Location, template string, args ...any) {
	s.Add(Conflict{
		Severity:  sev,
		Code:      code,
		Template:  template,
		Args:      args,
		Location:  loc,
		Competing: competing,
	})
}

func (s *Status) Merge(other Status) {
	s.Conflicts = append(s.Conflicts, other.Conflicts...)
	s.Canceled = s.Canceled || other.Canceled
}

// Severity returns the highest severity of s.
func (s Status) Severity() Severity {
	highest := OK
	for _, c := range s.Conflicts {
		if c.Severity > highest {
			highest = c.Severity
		}
	}
	return highest
}

func (s Status) HasFatal() bool {
	return s.Severity() == Fatal
}

// Err returns the first conflict of the highest severity as an error, or nil
// when s has no errors.
func (s Status) Err() error {
	sev := s.Severity()
	if sev < Error {
		return nil
	}
	for _, c := range s.Conflicts {
		if c.Severity == sev {
			return &ConflictError{Conflict: c}
		}
	}
	return nil
}
