package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/matkrin/symrename/internal/lsp"
	"github.com/matkrin/symrename/internal/rename"
	"github.com/matkrin/symrename/internal/scanner"
)

func handlePrepareRename(
	request *lsp.PrepareRenameRequest,
	state *State,
) *lsp.PrepareRenameResponse {
	response := lsp.PrepareRenameResponse{
		Response: lsp.Response{
			RPC: lsp.RPC_VERSION,
			ID:  &request.ID,
		},
	}

	f, node, decl, err := symbolAt(state, request.Params.TextDocumentPositionParams)
	if err != nil {
		slog.Info("Nothing to rename", "err", err)
		return &response
	}

	p := rename.NewProcessor(state.Project, decl.Binding, renameOptions(state))
	status, err := p.Activate(context.Background())
	if err != nil || status.HasFatal() {
		slog.Info("Symbol cannot be renamed", "symbol", decl.Binding, "err", err, "status", status.Err())
		return &response
	}

	r := state.Range(f.ID, node.NamePos, node.NameEnd())
	response.Result = &r
	return &response
}

func handleRename(request *lsp.RenameRequest, state *State) *lsp.RenameResponse {
	ctx := context.Background()
	params := request.Params
	response := lsp.RenameResponse{
		Response: lsp.Response{
			RPC: lsp.RPC_VERSION,
			ID:  &request.ID,
		},
	}
	fail := func(code int, err error) *lsp.RenameResponse {
		slog.Error("Rename failed", "newName", params.NewName, "err", err)
		response.Error = &lsp.ResponseError{Code: code, Message: err.Error()}
		return &response
	}

	_, _, decl, err := symbolAt(state, params.TextDocumentPositionParams)
	if err != nil {
		return fail(lsp.InvalidParams, err)
	}

	p := rename.NewProcessor(state.Project, decl.Binding, renameOptions(state))
	steps := []func() (rename.Status, error){
		func() (rename.Status, error) { return p.Activate(ctx) },
		func() (rename.Status, error) { return p.CheckNewName(params.NewName) },
		func() (rename.Status, error) { return p.CheckFinalConditions(ctx) },
	}
	for _, step := range steps {
		status, err := step()
		switch {
		case err != nil:
			return fail(lsp.InternalError, err)
		case status.Canceled:
			return fail(lsp.RequestCancelled, errors.New("rename canceled"))
		case status.HasFatal():
			return fail(lsp.RequestFailed, status.Err())
		}
		for _, c := range status.Conflicts {
			slog.Warn("Rename conflict", "severity", c.Severity, "message", c.Message())
		}
	}

	change, err := p.CreateChange()
	if err != nil {
		return fail(lsp.InternalError, err)
	}

	changes := map[string][]lsp.TextEdit{}
	for _, fc := range change.Files {
		uri := state.URI(fc.File)
		for _, e := range fc.Edits {
			changes[uri] = append(changes[uri], lsp.TextEdit{
				Range:   state.Range(e.File, e.Start, e.End),
				NewText: e.NewText,
			})
		}
	}
	slog.Info("Rename", "symbol", decl.Binding, "newName", params.NewName, "edits", change.EditCount())

	response.Result = &lsp.WorkspaceEdit{Changes: changes}
	return &response
}

func renameOptions(state *State) rename.Options {
	opts := rename.DefaultOptions()
	opts.UpdateTextualMatches = state.Config.Textual
	if state.Config.Dialect != "" {
		d, err := scanner.ParseDialect(state.Config.Dialect)
		if err != nil {
			slog.Warn("Ignoring configured dialect", "err", err)
		} else {
			opts.Dialect = &d
		}
	}
	return opts
}
