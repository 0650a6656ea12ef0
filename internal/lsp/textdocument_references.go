package lsp

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#textDocument_references
type ReferencesRequest struct {
	Request
	Params ReferencesParams `json:"params"`
}

type ReferencesParams struct {
	TextDocumentPositionParams
	Context ReferencesContext `json:"context"`
}

// ReferencesContext carries the options of a references request.
type ReferencesContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

// ReferencesResponse answers with every location of the symbol. An empty
// result is encoded as [] rather than null.
type ReferencesResponse struct {
	Response
	Result []Location `json:"result"`
}

func NewReferencesResponse(id int, locations []Location) ReferencesResponse {
	if locations == nil {
		locations = []Location{}
	}
	return ReferencesResponse{
		Response: Response{
			RPC: RPC_VERSION,
			ID:  &id,
		},
		Result: locations,
	}
}
