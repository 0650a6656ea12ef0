package server

import (
	"errors"
	"fmt"

	"github.com/matkrin/symrename/internal/ast"
	"github.com/matkrin/symrename/internal/lsp"
	"github.com/matkrin/symrename/internal/rename"
)

var errNoSymbol = errors.New("no symbol at position")

// symbolAt resolves the name under the cursor to its node and declaration.
func symbolAt(state *State, params lsp.TextDocumentPositionParams) (*ast.File, *ast.Node, *rename.Declaration, error) {
	f, err := state.File(params.TextDocument.URI)
	if err != nil {
		return nil, nil, nil, err
	}
	cursor := ast.NewCursor(params.Position.Line, params.Position.Character)
	offset := cursor.Offset(f.Text)
	if offset < 0 {
		return nil, nil, nil, fmt.Errorf("position %s outside of %s", cursor, f.ID)
	}
	binding, node, ok := state.Project.BindingAt(f.ID, offset)
	if !ok {
		return nil, nil, nil, errNoSymbol
	}
	decl, ok := state.Project.Declaration(binding)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s has no declaration", errNoSymbol, binding)
	}
	return f, node, decl, nil
}
