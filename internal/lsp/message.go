package lsp

const RPC_VERSION = "2.0"

type Request struct {
	RPC    string `json:"jsonrpc"`
	ID     int    `json:"id"`
	Method string `json:"method"`
	// Params are decoded by the request types embedding Request.
}

type Response struct {
	RPC   string         `json:"jsonrpc"`
	ID    *int           `json:"id"`
	Error *ResponseError `json:"error,omitempty"`
	// Result is set by the response types embedding Response.
}

type Notification struct {
	RPC    string `json:"jsonrpc"`
	Method string `json:"method"`
}

// https://microsoft.github.io/language-server-protocol/specifications/lsp/3.17/specification/#responseMessage
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error codes used in ResponseError.
const (
	ParseError           = -32700
	InvalidRequest       = -32600
	MethodNotFound       = -32601
	InvalidParams        = -32602
	InternalError        = -32603
	ServerNotInitialized = -32002
	RequestFailed        = -32803
	RequestCancelled     = -32800
)

// ErrorResponse answers a request with an error and no result.
type ErrorResponse struct {
	Response
}

func NewErrorResponse(id int, code int, message string) ErrorResponse {
	return ErrorResponse{
		Response: Response{
			RPC:   RPC_VERSION,
			ID:    &id,
			Error: &ResponseError{Code: code, Message: message},
		},
	}
}

type ShutdownRequest struct {
	Request
}

type ShutdownResponse struct {
	Response
	Result *struct{} `json:"result"`
}
