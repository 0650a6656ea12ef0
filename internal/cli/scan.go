package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"

	"github.com/matkrin/symrename/internal/ast"
	"github.com/matkrin/symrename/internal/scanner"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		pattern string
		dialect string
		tree    bool
	)
	cmd := &cobra.Command{
		Use:   "scan [FILE]",
		Short: "Print the code, string and comment spans of a file",
		Long: `Print the spans a file is split into when looking for textual matches.

The file is read from stdin when no FILE is given. With --pattern the offsets
of the whole-word matches in strings and comments are printed as well.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, data, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			text := string(data)

			d := scanner.DialectFor(name, data)
			if dialect == "" {
				dialect = a.cfg.Dialect
			}
			if dialect != "" {
				if d, err = scanner.ParseDialect(dialect); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			if tree {
				if d != scanner.DialectShell {
					return fmt.Errorf("--tree needs the shell dialect, got %s", d)
				}
				file, err := syntax.NewParser(syntax.KeepComments(true)).Parse(strings.NewReader(text), name)
				if err != nil {
					return err
				}
				return syntax.DebugPrint(out, file)
			}

			spans, err := scanner.Spans(text, d)
			if err != nil {
				return err
			}
			printSection(out, fmt.Sprintf("%s (%s)", name, d))
			for _, s := range spans {
				fmt.Fprintf(out, "%-13s %5d-%-5d %s\n", s.Kind, s.Start, s.End, ast.CursorAt(text, s.Start))
			}
			if pattern == "" {
				return nil
			}
			matches := scanner.FindMatches(text, pattern, d)
			printSection(out, fmt.Sprintf("%d matches of %s", len(matches), pattern))
			for _, off := range matches {
				fmt.Fprintf(out, "%5d %s\n", off, ast.CursorAt(text, off))
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&pattern, "pattern", "", "Name to look for in strings and comments")
	flags.StringVar(&dialect, "dialect", "", "Dialect: c or shell (default: by file name)")
	flags.BoolVar(&tree, "tree", false, "Print the syntax tree of a shell script instead")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, []byte, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", nil, fmt.Errorf("reading stdin: %w", err)
		}
		return "<stdin>", data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", nil, err
	}
	return args[0], data, nil
}
