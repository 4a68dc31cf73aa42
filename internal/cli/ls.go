package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLsCmd(g *globals) *cobra.Command {
	var extensions string

	cmd := &cobra.Command{
		Use:   "ls [PATH]",
		Short: "List path suggestions from the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "input"
			if len(args) == 1 {
				path = args[0]
			}

			entries, err := g.client(g.stderrLogger()).Suggest(cmd.Context(), path, extensions)
			if err != nil {
				return err
			}

			dir := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()
			for _, e := range entries {
				if strings.HasSuffix(e, "/") {
					dir.Fprintln(out, e)
					continue
				}
				fmt.Fprintln(out, e)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&extensions, "extensions", "e", "", "comma-separated extension filter, e.g. pdf,txt")

	return cmd
}
