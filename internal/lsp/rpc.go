package lsp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrMissingSeparator = errors.New("missing header separator")
	ErrBadContentLength = errors.New("invalid Content-Length")
)

const contentLengthHeader = "Content-Length: "

// EncodeMessage frames msg as a JSON-RPC message with a Content-Length header.
func EncodeMessage(msg any) string {
	content, err := json.Marshal(msg)
	if err != nil {
		// Every message type of this package marshals.
		panic(err)
	}
	return fmt.Sprintf("%s%d\r\n\r\n%s", contentLengthHeader, len(content), content)
}

type baseMessage struct {
	Method string `json:"method"`
}

// DecodeMessage splits a framed message into its method and JSON content.
func DecodeMessage(msg []byte) (string, []byte, error) {
	header, content, found := bytes.Cut(msg, []byte{'\r', '\n', '\r', '\n'})
	if !found {
		return "", nil, ErrMissingSeparator
	}

	contentLength, err := parseContentLength(header)
	if err != nil {
		return "", nil, err
	}
	if contentLength > len(content) {
		return "", nil, fmt.Errorf("%w: %d bytes announced, %d present", ErrBadContentLength, contentLength, len(content))
	}

	var base baseMessage
	if err := json.Unmarshal(content[:contentLength], &base); err != nil {
		return "", nil, fmt.Errorf("decoding message: %w", err)
	}
	return base.Method, content[:contentLength], nil
}

func parseContentLength(header []byte) (int, error) {
	for line := range bytes.SplitSeq(header, []byte{'\r', '\n'}) {
		value, ok := bytes.CutPrefix(line, []byte(contentLengthHeader))
		if !ok {
			continue
		}
		n, err := strconv.Atoi(string(value))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrBadContentLength, value)
		}
		return n, nil
	}
	return 0, fmt.Errorf("%w: header missing", ErrBadContentLength)
}

// Split is a bufio.SplitFunc that yields one framed message per token.
func Split(data []byte, _ bool) (advance int, token []byte, err error) {
	header, content, found := bytes.Cut(data, []byte{'\r', '\n', '\r', '\n'})
	if !found {
		return 0, nil, nil
	}

	contentLength, err := parseContentLength(header)
	if err != nil {
		return 0, nil, err
	}
	if len(content) < contentLength {
		return 0, nil, nil
	}

	totalLength := len(header) + 4 + contentLength
	return totalLength, data[:totalLength], nil
}
