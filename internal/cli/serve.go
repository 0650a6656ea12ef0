package cli

import (
	"bufio"
	"bytes"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/matkrin/symrename/internal/index"
	"github.com/matkrin/symrename/internal/lsp"
	"github.com/matkrin/symrename/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var indexPath string
	cmd := &cobra.Command{
		Use:   "serve --index FILE",
		Short: "Serve renames over the language server protocol on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := index.Load(indexPath)
			if err != nil {
				return err
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
			scanner.Split(lsp.Split)

			serverVersion := a.cfg.Server.Version
			if serverVersion == "" {
				serverVersion = version
			}
			state := server.NewState(project, a.cfg)
			s := server.NewServer(a.cfg.Server.Name, serverVersion, state, cmd.OutOrStdout())
			defer s.Stop()

			for scanner.Scan() {
				msg := scanner.Bytes()
				method, contents, err := lsp.DecodeMessage(msg)
				if err != nil {
					slog.Error("ERROR decoding message", "err", err)
					continue
				}
				s.HandleMessage(method, bytes.Clone(contents))
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&indexPath, "index", "", "Index file describing the project")
	_ = cmd.MarkFlagRequired("index")
	return cmd
}
