package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matkrin/symrename/internal/ast"
	"github.com/matkrin/symrename/internal/index"
	"github.com/matkrin/symrename/internal/rename"
	"github.com/matkrin/symrename/internal/scanner"
)

type renameOptions struct {
	indexPath string
	symbol    string
	newName   string
	textual   bool
	write     bool
	json      bool
	dialect   string
}

func newRenameCmd(a *app) *cobra.Command {
	var o renameOptions
	cmd := &cobra.Command{
		Use:   "rename --index FILE --symbol ID --to NAME",
		Short: "Rename a symbol and all of its references",
		Long: `Rename the symbol with the given id in the project described by the index.

Conflicts are printed before anything is changed. Without --write the planned
edits are only printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("textual") {
				o.textual = a.cfg.Textual
			}
			if o.dialect == "" {
				o.dialect = a.cfg.Dialect
			}
			return runRename(cmd.Context(), cmd.OutOrStdout(), &o)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.indexPath, "index", "", "Index file describing the project")
	flags.StringVar(&o.symbol, "symbol", "", "Id of the symbol to rename")
	flags.StringVar(&o.newName, "to", "", "New name")
	flags.BoolVar(&o.textual, "textual", false, "Also rename mentions in comments and strings")
	flags.BoolVar(&o.write, "write", false, "Write the renamed files")
	flags.BoolVar(&o.json, "json", false, "Output in JSON format")
	flags.StringVar(&o.dialect, "dialect", "", "Dialect for textual matches: c or shell (default: by file name)")
	for _, name := range []string{"index", "symbol", "to"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

type renameResult struct {
	Symbol    string               `json:"symbol"`
	NewName   string               `json:"newName"`
	Conflicts []conflictResult     `json:"conflicts"`
	Files     []fileResult         `json:"files,omitempty"`
	Move      *rename.ResourceMove `json:"move,omitempty"`
	Written   bool                 `json:"written"`
}

type conflictResult struct {
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

type fileResult struct {
	File  string       `json:"file"`
	Edits []editResult `json:"edits"`
}

type editResult struct {
	Position string `json:"position"`
	Old      string `json:"old"`
	New      string `json:"new"`
}

func runRename(ctx context.Context, out io.Writer, o *renameOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	project, err := index.Load(o.indexPath)
	if err != nil {
		return err
	}

	opts := rename.DefaultOptions()
	opts.UpdateTextualMatches = o.textual
	if o.dialect != "" {
		d, err := scanner.ParseDialect(o.dialect)
		if err != nil {
			return err
		}
		opts.Dialect = &d
	}

	text := func(file string) string {
		if f := project.File(file); f != nil {
			return f.Text
		}
		return ""
	}
	result := renameResult{Symbol: o.symbol, NewName: o.newName, Conflicts: []conflictResult{}}
	report := func(status rename.Status) {
		for _, c := range status.Conflicts {
			cr := conflictResult{Severity: c.Severity.String(), Code: c.Code.String(), Message: c.Message()}
			if c.Location != nil {
				cr.Location = position(c.Location, text)
			}
			result.Conflicts = append(result.Conflicts, cr)
		}
		if !o.json {
			printStatus(out, status, text)
		}
	}
	finish := func(err error) error {
		if o.json {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(result); encErr != nil {
				return encErr
			}
		}
		return err
	}

	p := rename.NewProcessor(project, rename.Binding(o.symbol), opts)
	steps := []func() (rename.Status, error){
		func() (rename.Status, error) { return p.Activate(ctx) },
		func() (rename.Status, error) { return p.CheckNewName(o.newName) },
		func() (rename.Status, error) { return p.CheckFinalConditions(ctx) },
	}
	for _, step := range steps {
		status, err := step()
		if err != nil {
			return err
		}
		if status.Canceled {
			return finish(context.Canceled)
		}
		report(status)
		if status.HasFatal() {
			return finish(fmt.Errorf("%w: %w", ErrFatalStatus, status.Err()))
		}
	}

	change, err := p.CreateChange()
	if err != nil {
		return err
	}
	for _, fc := range change.Files {
		fr := fileResult{File: fc.File}
		t := text(fc.File)
		for _, e := range fc.Edits {
			fr.Edits = append(fr.Edits, editResult{
				Position: fmt.Sprintf("%s:%s", e.File, ast.CursorAt(t, e.Start)),
				Old:      t[e.Start:e.End],
				New:      e.NewText,
			})
		}
		result.Files = append(result.Files, fr)
	}
	result.Move = change.Move

	if o.write {
		if err := writeChange(project, change, filepath.Dir(o.indexPath)); err != nil {
			return finish(err)
		}
		result.Written = true
	}

	if !o.json {
		printChange(out, &result, change)
	}
	return finish(nil)
}

// writeChange applies change to the files on disk. Every file and the
// resource move are checked before anything is written. Resource paths are
// relative to baseDir.
func writeChange(project *index.Project, change *rename.Change, baseDir string) error {
	type write struct {
		path  string
		text  string
		edits int
	}
	var writes []write
	for _, fc := range change.Files {
		f := project.File(fc.File)
		if _, err := os.Stat(f.Path); err != nil {
			return fmt.Errorf("file %s has no source on disk: %w", f.ID, err)
		}
		text, err := rename.Apply(f.Text, fc.Edits)
		if err != nil {
			return err
		}
		writes = append(writes, write{path: f.Path, text: text, edits: len(fc.Edits)})
	}

	var from, to string
	if m := change.Move; m != nil {
		from, to = resolvePath(baseDir, m.From), resolvePath(baseDir, m.To)
		if _, err := os.Stat(from); err != nil {
			return fmt.Errorf("moving resource: %w", err)
		}
		if _, err := os.Stat(to); err == nil {
			return fmt.Errorf("moving resource: %s already exists", to)
		}
	}

	for _, w := range writes {
		if err := os.WriteFile(w.path, []byte(w.text), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", w.path, err)
		}
		slog.Info("Wrote file", "path", w.path, "edits", w.edits)
	}
	if from != "" {
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("moving resource: %w", err)
		}
		slog.Info("Moved resource", "from", from, "to", to)
	}
	return nil
}

// resolvePath resolves a slash separated resource path the way index sources
// are resolved.
func resolvePath(baseDir, p string) string {
	p = filepath.FromSlash(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

func printChange(out io.Writer, result *renameResult, change *rename.Change) {
	printSection(out, change.Name)
	for _, fr := range result.Files {
		for _, e := range fr.Edits {
			fmt.Fprintf(out, "  %s  %s -> %s\n", e.Position, e.Old, e.New)
		}
	}
	if m := result.Move; m != nil {
		fmt.Fprintf(out, "  %s -> %s\n", m.From, m.To)
	}
	summary := fmt.Sprintf("%d edits in %d files", change.EditCount(), len(change.Files))
	if result.Written {
		summary = "Wrote " + summary
	}
	printSuccess(out, summary)
}
