package rename

import (
	"context"
	"fmt"
	"log/slog"
	"path"
)

type State uint8

const (
	Created State = iota
	Activated
	NameChecked
	FinalChecked
	Committed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Activated:
		return "activated"
	case NameChecked:
		return "name checked"
	case FinalChecked:
		return "final checked"
	case Committed:
		return "committed"
	}
	return fmt.Sprintf("State(%d)", s)
}

// Processor drives one rename of one symbol. Operations must be called in
// order: Activate, CheckNewName, CheckFinalConditions, CreateChange.
// CheckNewName may be repeated before the change is created.
//
// A Processor is not safe for concurrent use.
type Processor struct {
	snap    Snapshot
	binding Binding
	opts    Options

	state   State
	decl    *Declaration
	newName string
	status  Status
	edits   []Edit
}

func NewProcessor(snap Snapshot, b Binding, opts Options) *Processor {
	return &Processor{snap: snap, binding: b, opts: opts}
}

func (p *Processor) State() State { return p.state }

// Declaration returns the activated declaration, or nil.
func (p *Processor) Declaration() *Declaration { return p.decl }

func (p *Processor) NewName() string { return p.newName }

// Edits returns the edits planned by the last final check.
func (p *Processor) Edits() []Edit { return p.edits }

func (p *Processor) invalid(op string) error {
	return fmt.Errorf("%s in state %s: %w", op, p.state, ErrInvalidState)
}

// Activate resolves the declaration to rename.
func (p *Processor) Activate(ctx context.Context) (Status, error) {
	if p.state != Created {
		return Status{}, p.invalid("activate")
	}
	if ctx.Err() != nil {
		return Canceled(), nil
	}

	status := p.checkDeclaration()
	if status.HasFatal() {
		return status, nil
	}
	p.decl, _ = p.snap.Declaration(p.binding)
	p.state = Activated
	slog.Debug("rename activated", "symbol", p.binding, "kind", p.decl.Kind)
	return status, nil
}

// checkDeclaration verifies that the declaration still exists and can be
// renamed.
func (p *Processor) checkDeclaration() Status {
	var status Status
	d, ok := p.snap.Declaration(p.binding)
	if !ok {
		status.Addf(Fatal, DeclarationGone, nil, nil, "The symbol %s no longer exists", p.binding)
		return status
	}
	if d.Kind == KindInvalid || d.Kind > KindFolder {
		status.Addf(Fatal, DeclarationGone, d.Location(), nil, "%s cannot be renamed", d.Name)
		return status
	}
	if d.Kind.IsResource() {
		return status
	}
	f := p.snap.File(d.File)
	if f == nil {
		status.Addf(Fatal, DeclarationGone, d.Location(), nil, "The file declaring %s no longer exists", d.Name)
		return status
	}
	if n := f.DeclAt(d.Offset); n == nil || n.Name != d.Name {
		status.Addf(Fatal, DeclarationGone, d.Location(), nil, "The declaration of %s is no longer present in %s", d.Name, f.Path)
	}
	return status
}

// CheckNewName validates the syntax of name. A name that passes becomes the
// candidate for the final check.
func (p *Processor) CheckNewName(name string) (Status, error) {
	switch p.state {
	case Activated, NameChecked, FinalChecked:
	default:
		return Status{}, p.invalid("check new name")
	}

	status := CheckName(p.decl, name)
	p.edits = nil
	p.status = Status{}
	if status.HasFatal() {
		p.state = Activated
		p.newName = ""
		return status, nil
	}
	p.newName = name
	p.state = NameChecked
	return status, nil
}

// CheckFinalConditions collects the occurrences of the declaration, analyzes
// the new name for conflicts and plans the edits. If the returned status is
// fatal no edits are retained. A canceled check discards the edits of any
// earlier check and leaves the processor name checked.
func (p *Processor) CheckFinalConditions(ctx context.Context) (Status, error) {
	if p.state != NameChecked && p.state != FinalChecked {
		return Status{}, p.invalid("check final conditions")
	}

	status, edits, err := p.finalCheck(ctx)
	if err != nil {
		if ctx.Err() != nil {
			slog.Debug("rename canceled", "symbol", p.binding)
			p.edits = nil
			p.status = Status{}
			p.state = NameChecked
			return Canceled(), nil
		}
		return Status{}, err
	}

	p.status = status
	p.edits = edits
	p.state = FinalChecked
	slog.Debug("final conditions checked", "symbol", p.binding, "severity", status.Severity(), "edits", len(edits))
	return status, nil
}

func (p *Processor) finalCheck(ctx context.Context) (Status, []Edit, error) {
	status := p.checkDeclaration()
	if status.HasFatal() {
		return status, nil, nil
	}
	if err := ctx.Err(); err != nil {
		return Status{}, nil, err
	}

	overriders, err := Overriders(ctx, p.snap, p.decl)
	if err != nil {
		return Status{}, nil, fmt.Errorf("finding overriders of %s: %w", p.decl.Name, err)
	}
	req := &Request{Snapshot: p.snap, Decl: p.decl, Overriders: overriders, NewName: p.newName, Options: p.opts}
	occs, err := Collect(ctx, req)
	if err != nil {
		return Status{}, nil, err
	}
	analysis, err := Analyze(ctx, req, occs)
	if err != nil {
		return Status{}, nil, err
	}
	status.Merge(analysis)
	if status.HasFatal() {
		return status, nil, nil
	}

	edits, planned, err := Plan(ctx, req, occs)
	if err != nil {
		return Status{}, nil, err
	}
	status.Merge(planned)
	if status.HasFatal() {
		return status, nil, nil
	}
	return status, edits, nil
}

// ResourceMove renames a project or folder.
type ResourceMove struct {
	From string
	To   string
}

// FileChange is the sorted edits of one file.
type FileChange struct {
	File  string
	Edits []Edit
}

// Change is the result of a rename, ready to be applied.
type Change struct {
	Name  string
	Files []FileChange
	Move  *ResourceMove
}

// EditCount returns the number of edits in c.
func (c *Change) EditCount() int {
	n := 0
	for _, f := range c.Files {
		n += len(f.Edits)
	}
	return n
}

// CreateChange returns the change computed by a non-fatal final check.
func (p *Processor) CreateChange() (*Change, error) {
	if p.state != FinalChecked {
		return nil, p.invalid("create change")
	}
	if p.status.HasFatal() {
		return nil, fmt.Errorf("create change: %w: %w", ErrInvalidState, p.status.Err())
	}

	c := &Change{Name: fmt.Sprintf("Rename %s %s to %s", p.decl.Kind, p.decl.Name, p.newName)}
	for _, e := range p.edits {
		if n := len(c.Files); n == 0 || c.Files[n-1].File != e.File {
			c.Files = append(c.Files, FileChange{File: e.File})
		}
		fc := &c.Files[len(c.Files)-1]
		fc.Edits = append(fc.Edits, e)
	}
	if p.decl.Kind.IsResource() {
		c.Move = &ResourceMove{From: p.decl.Path, To: path.Join(path.Dir(p.decl.Path), p.newName)}
	}
	p.state = Committed
	return c, nil
}
