package server

import (
	"strings"

	"github.com/matkrin/symrename/internal/lsp"
	"github.com/matkrin/symrename/internal/rename"
)

func handleWorkspaceSymbol(request *lsp.WorkspaceSymbolRequest, state *State) *lsp.WorkspaceSymbolResponse {
	query := strings.ToLower(request.Params.Query)

	workspaceSymbols := []lsp.WorkspaceSymbol{}
	for _, decl := range state.Project.Symbols() {
		if decl.Kind.IsResource() || !strings.Contains(strings.ToLower(decl.Name), query) {
			continue
		}
		workspaceSymbols = append(workspaceSymbols, findWorkspaceSymbol(decl, state))
	}
	response := lsp.NewWorkspaceSymbolResponse(request.ID, workspaceSymbols)
	return &response
}

func findWorkspaceSymbol(decl *rename.Declaration, state *State) lsp.WorkspaceSymbol {
	var kind lsp.SymbolKind
	switch decl.Kind {
	case rename.KindType:
		kind = lsp.SymbolClass
		if decl.Interface {
			kind = lsp.SymbolInterface
		}
	case rename.KindMethod:
		kind = lsp.SymbolMethod
	case rename.KindField:
		kind = lsp.SymbolField
	default:
		kind = lsp.SymbolVariable
	}

	container := ""
	if owner, ok := state.Project.Declaration(decl.Owner); ok {
		container = owner.Name
	}

	return lsp.WorkspaceSymbol{
		Name:          decl.Name,
		Kind:          kind,
		ContainerName: container,
		Location:      state.Location(decl.File, decl.Offset, decl.Offset+len(decl.Name)),
	}
}
