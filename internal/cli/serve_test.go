package cli

import (
	"strings"
	"testing"

	"github.com/matkrin/symrename/internal/lsp"
)

func TestServeCommand(t *testing.T) {
	indexPath := setupProject(t)
	initialize := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params":  map[string]any{"clientInfo": map[string]any{"name": "test"}},
	}
	shutdown := map[string]any{"jsonrpc": "2.0", "id": 2, "method": "shutdown"}
	stdin := lsp.EncodeMessage(initialize) + lsp.EncodeMessage(shutdown)

	output, err := run(t, stdin, "serve", "--index", indexPath)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	for _, want := range []string{`"name":"symrename"`, `"renameProvider"`, `"id":2`} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %s, got:\n%s", want, output)
		}
	}
}

func TestServeCommand_MissingIndex(t *testing.T) {
	if _, err := run(t, "", "serve"); err == nil {
		t.Error("expected error without --index")
	}
}
