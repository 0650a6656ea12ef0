package lsp

import (
	"bufio"
	"errors"
	"strings"
	"testing"
)

type encodingExample struct {
	Testing bool `json:"testing"`
}

func TestEncodeMessage(t *testing.T) {
	expected := "Content-Length: 16\r\n\r\n{\"testing\":true}"
	actual := EncodeMessage(encodingExample{Testing: true})
	if expected != actual {
		t.Fatalf("expected %q, got %q", expected, actual)
	}
}

func TestEncodeMessage_Shutdown(t *testing.T) {
	id := 1
	msg := EncodeMessage(ShutdownResponse{Response: Response{RPC: RPC_VERSION, ID: &id}})
	expected := "Content-Length: 38\r\n\r\n{\"jsonrpc\":\"2.0\",\"id\":1,\"result\":null}"
	if msg != expected {
		t.Fatalf("expected %q, got %q", expected, msg)
	}
}

func TestEncodeMessage_Error(t *testing.T) {
	msg := EncodeMessage(NewErrorResponse(7, RequestFailed, "boom"))
	if !strings.Contains(msg, `"error":{"code":-32803,"message":"boom"}`) {
		t.Errorf("error missing from %q", msg)
	}
}

func TestEncodeMessage_EmptyReferences(t *testing.T) {
	msg := EncodeMessage(NewReferencesResponse(3, nil))
	if !strings.HasSuffix(msg, `{"jsonrpc":"2.0","id":3,"result":[]}`) {
		t.Errorf("expected an empty result list, got %q", msg)
	}
}

func TestDecodeMessage(t *testing.T) {
	incoming := "Content-Length: 15\r\n\r\n{\"method\":\"hi\"}"
	method, content, err := DecodeMessage([]byte(incoming))
	if err != nil {
		t.Fatal(err)
	}
	if len(content) != 15 {
		t.Errorf("expected content length 15, got %d", len(content))
	}
	if method != "hi" {
		t.Errorf("expected method hi, got %q", method)
	}
}

func TestDecodeMessage_Errors(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		expected error
	}{
		{"no separator", "Content-Length: 15{\"method\":\"hi\"}", ErrMissingSeparator},
		{"no length", "Content-Type: json\r\n\r\n{}", ErrBadContentLength},
		{"bad length", "Content-Length: x\r\n\r\n{}", ErrBadContentLength},
		{"short content", "Content-Length: 10\r\n\r\n{}", ErrBadContentLength},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeMessage([]byte(tt.incoming))
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestSplit(t *testing.T) {
	first := EncodeMessage(map[string]string{"method": "initialize"})
	second := EncodeMessage(map[string]string{"method": "shutdown"})
	scanner := bufio.NewScanner(strings.NewReader(first + second))
	scanner.Split(Split)

	var methods []string
	for scanner.Scan() {
		method, _, err := DecodeMessage(scanner.Bytes())
		if err != nil {
			t.Fatal(err)
		}
		methods = append(methods, method)
	}
	if err := scanner.Err(); err != nil {
		t.Fatal(err)
	}
	if strings.Join(methods, ",") != "initialize,shutdown" {
		t.Errorf("unexpected methods %v", methods)
	}
}
