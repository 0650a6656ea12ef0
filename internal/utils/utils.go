// Package utils converts between file paths and the file URIs of the
// language server protocol.
package utils

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
)

var ErrUnsupportedScheme = errors.New("unsupported URI scheme")

func UriToPath(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parsing URI %q: %w", uri, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return filepath.FromSlash(u.Path), nil
}

func PathToURI(path string) string {
	uri := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return uri.String()
}
