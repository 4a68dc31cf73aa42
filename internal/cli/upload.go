package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/BrandonIrizarry/docpicker"
	"github.com/BrandonIrizarry/docpicker/internal/client"
)

func newUploadCmd(g *globals) *cobra.Command {
	var (
		nodeType string
		quiet    bool
	)

	cmd := &cobra.Command{
		Use:   "upload FILE...",
		Short: "Upload documents as if dropped on a document node",
		Long: `Upload documents to the server's input directory by dropping them on a
fresh document node. Only PDF, plain text and Word files are accepted;
the first accepted file becomes the node's file_path.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := g.stderrLogger()
			docpicker.SetLogger(log)

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			failures := 0
			opts := docpicker.DocumentsOptions{
				Alert: func(msg string) {
					failures++
					fmt.Fprintln(errOut, color.RedString("✗ %s", msg))
				},
			}
			var clientOpts []client.Option
			if !quiet {
				clientOpts = append(clientOpts, client.WithProgress(func(name string, total int64) io.Writer {
					return newUploadBar(errOut, name, total)
				}))
			}

			host := docpicker.NewHost(docpicker.Canvas{Scale: 1})
			if err := docpicker.RegisterDocuments(host, g.client(log, clientOpts...), opts); err != nil {
				return err
			}
			node, err := host.CreateNode(cmd.Context(), nodeType)
			if err != nil {
				return err
			}

			files := make([]docpicker.File, 0, len(args))
			for _, path := range args {
				f, err := docpicker.FileFromPath(path)
				if err != nil {
					return err
				}
				files = append(files, f)
			}

			if !node.DragDrop(cmd.Context(), files) {
				return fmt.Errorf("none of the files is a supported document")
			}
			if failures > 0 {
				return fmt.Errorf("%d upload(s) failed", failures)
			}

			w := node.Widget(docpicker.PathWidget)
			fmt.Fprintf(out, "%s %s\n", color.GreenString("✓"), w.Value())
			return nil
		},
	}

	cmd.Flags().StringVarP(&nodeType, "node", "n", docpicker.NodeDocumentLoader, "node type: DocumentLoader or PDFToImage")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress bars")

	return cmd
}

// newUploadBar is a byte progress bar for one upload request. A retried
// upload gets a fresh bar.
func newUploadBar(w io.Writer, name string, total int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
		progressbar.OptionSetRenderBlankState(true),
	)
}
