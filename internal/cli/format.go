package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/matkrin/symrename/internal/ast"
	"github.com/matkrin/symrename/internal/rename"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
)

func severityColor(s rename.Severity) *color.Color {
	switch s {
	case rename.Fatal, rename.Error:
		return errorColor
	case rename.Warning:
		return warningColor
	}
	return infoColor
}

// printStatus prints one line per conflict, most severe first.
func printStatus(w io.Writer, status rename.Status, text func(file string) string) {
	for _, sev := range []rename.Severity{rename.Fatal, rename.Error, rename.Warning, rename.Info} {
		for _, c := range status.Conflicts {
			if c.Severity != sev {
				continue
			}
			_, _ = severityColor(sev).Fprintf(w, "%-7s ", sev)
			fmt.Fprint(w, c.Message())
			if c.Location != nil {
				_, _ = dimColor.Fprintf(w, " (%s)", position(c.Location, text))
			}
			fmt.Fprintln(w)
			if c.Competing != nil {
				_, _ = dimColor.Fprintf(w, "        see %s\n", position(c.Competing, text))
			}
		}
	}
}

func position(loc *rename.Location, text func(file string) string) string {
	return fmt.Sprintf("%s:%s", loc.File, ast.CursorAt(text(loc.File), loc.Offset))
}

func printSection(w io.Writer, title string) {
	_, _ = headerColor.Fprintf(w, "▸ %s\n", title)
}

func printSuccess(w io.Writer, msg string) {
	_, _ = successColor.Fprintf(w, "✓ %s\n", msg)
}
