package server

import (
	"log/slog"

	"github.com/matkrin/symrename/internal/lsp"
)

func handleDefinition(request *lsp.DefinitionRequest, state *State) *lsp.DefinitionResponse {
	response := lsp.DefinitionResponse{
		Response: lsp.Response{
			RPC: lsp.RPC_VERSION,
			ID:  &request.ID,
		},
	}

	_, _, decl, err := symbolAt(state, request.Params.TextDocumentPositionParams)
	if err != nil {
		slog.Info("No definition", "err", err)
		return &response
	}
	if decl.Kind.IsResource() || decl.File == "" {
		return &response
	}

	location := state.Location(decl.File, decl.Offset, decl.Offset+len(decl.Name))
	response.Result = &location
	return &response
}
