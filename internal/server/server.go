package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/matkrin/symrename/internal/lsp"
)

type queuedMessage struct {
	method   string
	contents []byte
}

type Server struct {
	name         string
	version      string
	state        State
	writer       io.Writer
	messageQueue chan queuedMessage
	wg           sync.WaitGroup
	mu           sync.Mutex
	exit         func(code int)
}

func NewServer(name, version string, state State, writer io.Writer) *Server {
	s := &Server{
		name:         name,
		version:      version,
		state:        state,
		writer:       writer,
		messageQueue: make(chan queuedMessage),
		exit:         os.Exit,
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *Server) run() {
	defer s.wg.Done()
	for msg := range s.messageQueue {
		s.dispatchMessage(msg.method, msg.contents)
	}
}

func (s *Server) HandleMessage(method string, contents []byte) {
	s.messageQueue <- queuedMessage{method: method, contents: contents}
}

func (s *Server) Stop() {
	close(s.messageQueue)
	s.wg.Wait()
}

func (s *Server) dispatchMessage(method string, contents []byte) {
	slog.Info("Received message", "method", method)

	switch method {
	case "initialize":
		var request lsp.InitializeRequest
		if !s.decode(method, contents, &request) {
			return
		}

		if info := request.Params.ClientInfo; info != nil {
			slog.Info("Connected to client", "name", info.Name, "version", info.Version)
		}

		s.state.WorkspaceFolders = request.Params.WorkspaceFolders
		slog.Info("Workspace folders set", "workspaceFolders", s.state.WorkspaceFolders)

		capabilities := lsp.ServerCapabilities{
			DefinitionProvider:      true,
			ReferencesProvider:      true,
			WorkspaceSymbolProvider: true,
			RenameProvider: lsp.RenameOptions{
				PrepareProvider: true,
			},
		}
		info := lsp.ServerInfo{
			Name:    s.name,
			Version: s.version,
		}

		msg := lsp.NewInitializeResponse(request.ID, &capabilities, &info)
		s.writeResponse(msg)

	case "shutdown":
		var request lsp.ShutdownRequest
		if !s.decode(method, contents, &request) {
			return
		}

		slog.Info("Received shutdown request")
		s.state.ShutdownRequested = true

		response := lsp.ShutdownResponse{
			Response: lsp.Response{
				RPC: lsp.RPC_VERSION,
				ID:  &request.ID,
			},
			Result: nil,
		}
		s.writeResponse(response)

	case "exit":
		slog.Info("Exiting")
		if s.state.ShutdownRequested {
			s.exit(0)
		} else {
			slog.Warn("Exiting without preceding shutdown request")
			s.exit(1)
		}

	case "textDocument/definition":
		var request lsp.DefinitionRequest
		if !s.decode(method, contents, &request) {
			return
		}
		s.writeResponse(handleDefinition(&request, &s.state))

	case "textDocument/references":
		var request lsp.ReferencesRequest
		if !s.decode(method, contents, &request) {
			return
		}
		s.writeResponse(handleReferences(&request, &s.state))

	case "textDocument/prepareRename":
		var request lsp.PrepareRenameRequest
		if !s.decode(method, contents, &request) {
			return
		}
		s.writeResponse(handlePrepareRename(&request, &s.state))

	case "textDocument/rename":
		var request lsp.RenameRequest
		if !s.decode(method, contents, &request) {
			return
		}
		s.writeResponse(handleRename(&request, &s.state))

	case "workspace/symbol":
		var request lsp.WorkspaceSymbolRequest
		if !s.decode(method, contents, &request) {
			return
		}
		s.writeResponse(handleWorkspaceSymbol(&request, &s.state))

	default:
		var request lsp.Request
		if err := json.Unmarshal(contents, &request); err == nil && request.ID != 0 {
			s.writeResponse(lsp.NewErrorResponse(request.ID, lsp.MethodNotFound, "method not supported: "+method))
		}
	}
}

// decode unmarshals a request, answering with an error when it is malformed.
func (s *Server) decode(method string, contents []byte, request any) bool {
	if err := json.Unmarshal(contents, request); err != nil {
		slog.Error("Could not parse request", "method", method, "err", err)
		var base lsp.Request
		if json.Unmarshal(contents, &base) == nil && base.ID != 0 {
			s.writeResponse(lsp.NewErrorResponse(base.ID, lsp.ParseError, err.Error()))
		}
		return false
	}
	return true
}

func (s *Server) writeResponse(msg any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reply := lsp.EncodeMessage(msg)
	if _, err := s.writer.Write([]byte(reply)); err != nil {
		slog.Error("Could not write response", "err", err)
	}
}
