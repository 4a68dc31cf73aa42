package cli

import (
	"github.com/spf13/cobra"

	"github.com/BrandonIrizarry/docpicker/internal/server"
)

func newServeCmd(g *globals) *cobra.Command {
	var (
		addr     string
		root     string
		inputDir string
		strict   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the path suggestion and document upload server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg.Server
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if flags.Changed("root") {
				cfg.Root = root
			}
			if flags.Changed("input-dir") {
				cfg.InputDir = inputDir
			}
			if flags.Changed("strict-paths") {
				cfg.StrictPaths = strict
			}

			g.cfg.Server = cfg
			if err := g.cfg.Check(); err != nil {
				return err
			}

			srv, err := server.New(cfg, g.stderrLogger())
			if err != nil {
				return err
			}
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address")
	cmd.Flags().StringVar(&root, "root", "", "directory suggestion paths are resolved against")
	cmd.Flags().StringVar(&inputDir, "input-dir", "", "directory uploads are stored in")
	cmd.Flags().BoolVar(&strict, "strict-paths", false, "refuse paths outside the root")

	return cmd
}
