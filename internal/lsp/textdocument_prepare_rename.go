package lsp

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_prepareRename
type PrepareRenameRequest struct {
	Request
	Params PrepareRenameParams `json:"params"`
}

type PrepareRenameParams struct {
	TextDocumentPositionParams
}

// PrepareRenameResponse has a null result when nothing at the position can
// be renamed.
type PrepareRenameResponse struct {
	Response
	Result *Range `json:"result"`
}
