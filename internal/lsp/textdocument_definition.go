package lsp

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_definition
type DefinitionRequest struct {
	Request
	Params DefinitionParams `json:"params"`
}

type DefinitionParams struct {
	TextDocumentPositionParams
}

type DefinitionResponse struct {
	Response
	Result *Location `json:"result"`
}

func NewDefinitionResponse(
	id int,
	documentURI string,
	startLine, startChar, endLine, endChar uint,
) DefinitionResponse {
	return DefinitionResponse{
		Response: Response{
			RPC: RPC_VERSION,
			ID:  &id,
		},
		Result: &Location{
			URI:   documentURI,
			Range: NewRange(startLine, startChar, endLine, endChar),
		},
	}
}
