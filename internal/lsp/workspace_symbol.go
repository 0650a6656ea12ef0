package lsp

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#workspace_symbol
type WorkspaceSymbolRequest struct {
	Request
	Params WorkspaceSymbolParams `json:"params"`
}

type WorkspaceSymbolParams struct {
	Query string `json:"query"`
}

type WorkspaceSymbolResponse struct {
	Response
	Result []WorkspaceSymbol `json:"result"`
}

type WorkspaceSymbol struct {
	Name          string     `json:"name"`
	Kind          SymbolKind `json:"kind"`
	ContainerName string     `json:"containerName,omitempty"`
	Location      Location   `json:"location"`
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#symbolKind
type SymbolKind int

const (
	SymbolFile SymbolKind = iota + 1
	SymbolModule
	SymbolNamespace
	SymbolPackage
	SymbolClass
	SymbolMethod
	SymbolProperty
	SymbolField
	SymbolConstructor
	SymbolEnum
	SymbolInterface
	SymbolFunction
	SymbolVariable
)

func NewWorkspaceSymbolResponse(
	id int,
	workspaceSymbols []WorkspaceSymbol,
) WorkspaceSymbolResponse {
	return WorkspaceSymbolResponse{
		Response: Response{
			RPC: RPC_VERSION,
			ID:  &id,
		},
		Result: workspaceSymbols,
	}
}
