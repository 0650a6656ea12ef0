package server

import (
	"context"
	"log/slog"

	"github.com/matkrin/symrename/internal/lsp"
	"github.com/matkrin/symrename/internal/rename"
)

func handleReferences(request *lsp.ReferencesRequest, state *State) *lsp.ReferencesResponse {
	params := request.Params
	response := lsp.NewReferencesResponse(request.ID, nil)

	_, _, decl, err := symbolAt(state, params.TextDocumentPositionParams)
	if err != nil {
		slog.Info("No references", "err", err)
		return &response
	}

	req := &rename.Request{
		Snapshot: state.Project,
		Decl:     decl,
		Options: rename.Options{
			IncludeDeclaration: params.Context.IncludeDeclaration,
			IncludeReferences:  true,
		},
	}
	occs, err := rename.Collect(context.Background(), req)
	if err != nil {
		slog.Error("Could not collect references", "symbol", decl.Binding, "err", err)
		return &response
	}
	for _, o := range occs {
		if o.Kind == rename.Implicit {
			continue
		}
		response.Result = append(response.Result, state.Location(o.File, o.Offset, o.End()))
	}
	return &response
}
