package server

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/matkrin/symrename/internal/ast"
	"github.com/matkrin/symrename/internal/config"
	"github.com/matkrin/symrename/internal/index"
	"github.com/matkrin/symrename/internal/lsp"
	"github.com/matkrin/symrename/internal/utils"
)

type State struct {
	Project           *index.Project
	Config            config.Config
	WorkspaceFolders  []lsp.WorkspaceFolder
	ShutdownRequested bool

	uris  map[string]string // file id -> URI
	files map[string]string // URI -> file id
}

func NewState(project *index.Project, cfg config.Config) State {
	s := State{
		Project: project,
		Config:  cfg,
		uris:    make(map[string]string),
		files:   make(map[string]string),
	}
	for _, f := range project.Files() {
		path := f.Path
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		uri := utils.PathToURI(path)
		s.uris[f.ID] = uri
		s.files[uri] = f.ID
	}
	slog.Info("Project loaded", "files", len(s.uris))
	return s
}

// File returns the file of the project with the given URI.
func (s *State) File(uri string) (*ast.File, error) {
	id, ok := s.files[uri]
	if !ok {
		path, err := utils.UriToPath(uri)
		if err != nil {
			return nil, err
		}
		f := s.Project.FileByPath(path)
		if f == nil {
			return nil, fmt.Errorf("%s is not part of the project", uri)
		}
		return f, nil
	}
	return s.Project.File(id), nil
}

func (s *State) URI(fileID string) string {
	if uri, ok := s.uris[fileID]; ok {
		return uri
	}
	return utils.PathToURI(fileID)
}

// Range converts the byte range [start, end) of a file to an LSP range.
func (s *State) Range(fileID string, start, end int) lsp.Range {
	text := ""
	if f := s.Project.File(fileID); f != nil {
		text = f.Text
	}
	startLine, startChar := ast.CursorAt(text, start).LSP()
	endLine, endChar := ast.CursorAt(text, end).LSP()
	return lsp.NewRange(startLine, startChar, endLine, endChar)
}

// Location converts a rename location to an LSP location.
func (s *State) Location(fileID string, start, end int) lsp.Location {
	return lsp.Location{URI: s.URI(fileID), Range: s.Range(fileID, start, end)}
}
