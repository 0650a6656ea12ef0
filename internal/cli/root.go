// Package cli implements the symrename command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matkrin/symrename/internal/config"
)

// ErrFatalStatus is returned when a rename is refused.
var ErrFatalStatus = errors.New("rename refused")

var version = "dev"

func SetVersion(v string) {
	if v == "" {
		return
	}
	version = v
}

// app is the state shared by the commands of one invocation.
type app struct {
	configPath string
	logLevel   string
	logFile    string

	cfg     config.Config
	logSink io.Closer
}

// Execute runs symrename with the process arguments.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}
	rootCmd := &cobra.Command{
		Use:     "symrename",
		Version: version,
		Short:   "Rename symbols of a project snapshot safely",
		Long: `symrename renames a declaration together with every reference to it.

It checks the new name against shadowing, hierarchy and namespace conflicts
before producing any edit, and refuses renames that would change the meaning
of the program.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Flags())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Configuration file (default $SYMRENAME_CONFIG or the user config dir)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&a.logFile, "log-file", "", "Write the log to this file instead of stderr")

	rootCmd.AddCommand(newRenameCmd(a), newServeCmd(a), newScanCmd(a))
	return rootCmd
}

// setup loads the configuration, applies flag overrides and starts logging.
func (a *app) setup(flags *pflag.FlagSet) error {
	path, required := a.configPath, a.configPath != ""
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if flags.Changed("log-level") {
		a.cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-file") {
		a.cfg.LogFile = a.logFile
	}
	level, err := a.cfg.SlogLevel()
	if err != nil {
		return err
	}
	sink, err := initLogging(level, a.cfg.LogFile)
	if err != nil {
		return err
	}
	a.logSink = sink
	slog.Debug("Logging initialized", "level", level, "config", path)
	return nil
}

func (a *app) close() error {
	if a.logSink == nil {
		return nil
	}
	err := a.logSink.Close()
	a.logSink = nil
	return err
}

// initLogging installs the default logger. The returned closer is nil when
// logging to stderr.
func initLogging(l slog.Level, filename string) (io.Closer, error) {
	level := new(slog.LevelVar)
	level.Set(l)

	var (
		out    io.Writer = os.Stderr
		closer io.Closer
	)
	if filename != "" {
		logfile, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o666)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		out, closer = logfile, logfile
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
	return closer, nil
}
