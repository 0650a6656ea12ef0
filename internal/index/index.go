// Package index loads a project snapshot from a YAML or JSON index: the
// source files of a project together with the symbols declared in them and
// the resolved references to those symbols.
//
// A symbol or reference is located by an anchor, a snippet of the file text
// that contains the symbol's name. The name's offset is the position of the
// name inside the nth occurrence of the anchor. An explicit offset may be
// given instead.
package index

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Index is the document an index file decodes into.
type Index struct {
	Files     []FileEntry   `yaml:"files"`
	Symbols   []SymbolEntry `yaml:"symbols"`
	Blocks    []BlockEntry  `yaml:"blocks"`
	Refs      []RefEntry    `yaml:"refs"`
	Matches   []MatchEntry  `yaml:"matches"`
	Resources []string      `yaml:"resources"`
}

type FileEntry struct {
	ID   string `yaml:"id"`
	Path string `yaml:"path"`
	Text string `yaml:"text"`
	// Source is read relative to the index file when Text is empty.
	Source string `yaml:"source"`
}

// Anchor locates a name in a file.
type Anchor struct {
	File   string `yaml:"file"`
	Anchor string `yaml:"anchor"`
	Nth    int    `yaml:"nth"`
	Offset *int   `yaml:"offset"`
}

type SymbolEntry struct {
	ID         string `yaml:"id"`
	Kind       string `yaml:"kind"`
	Name       string `yaml:"name"`
	Anchor     `yaml:",inline"`
	Owner      string   `yaml:"owner"`
	Params     int      `yaml:"params"`
	ParamTypes []string `yaml:"paramTypes"`
	Private    bool     `yaml:"private"`
	Static     bool     `yaml:"static"`
	Supertypes []string `yaml:"supertypes"`
	Path       string   `yaml:"path"`
}

// BlockEntry marks a brace delimited block. The block starts at the first
// '{' of the anchor.
type BlockEntry struct {
	Anchor `yaml:",inline"`
}

type RefEntry struct {
	Symbol   string `yaml:"symbol"`
	Anchor   `yaml:",inline"`
	Implicit bool `yaml:"implicit"`
}

// MatchEntry adjusts or adds a search match. A match anchored at a reference
// changes the flags the search reports for it; any other match is reported
// as found by the search only, covering the whole anchor.
type MatchEntry struct {
	Symbol      string `yaml:"symbol"`
	Anchor      `yaml:",inline"`
	Accuracy    string `yaml:"accuracy"`
	Polymorphic bool   `yaml:"polymorphic"`
	Implicit    bool   `yaml:"implicit"`
}

// Load reads the index file at path. Sources are resolved relative to its
// directory.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes an index document and builds its project.
func Parse(data []byte, baseDir string) (*Project, error) {
	var idx Index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decoding index: %w", err)
	}
	for i := range idx.Files {
		f := &idx.Files[i]
		if f.Text != "" || f.Source == "" {
			continue
		}
		path := f.Source
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading source of %s: %w", f.ID, err)
		}
		f.Text = string(text)
		if f.Path == "" {
			f.Path = path
		}
	}
	return New(&idx)
}
