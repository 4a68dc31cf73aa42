package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/BrandonIrizarry/docpicker"
	"github.com/BrandonIrizarry/docpicker/internal/logging"
)

// errNothingPicked makes the picker exit non-zero when cancelled.
var errNothingPicked = errors.New("no document picked")

func newPickCmd(g *globals) *cobra.Command {
	var (
		nodeType   string
		value      string
		scale      float64
		x, y       int
		allowEmpty bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "pick",
		Short: "Pick a document path with the autocomplete popup",
		Long: `Create a document node and open the path autocomplete popup on its
file_path widget. The picked path is printed on stdout.

Logs go to the configured log file, since the terminal belongs to the
popup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, f, err := logging.NewFile(g.cfg.Log.File, g.cfg.Log.Level)
			if err != nil {
				return err
			}
			defer f.Close()
			docpicker.SetLogger(log)

			host := docpicker.NewHost(docpicker.Canvas{
				Scale:  scale,
				Bounds: terminalBounds(),
			})

			opts := docpicker.DocumentsOptions{AllowEmptyCommit: allowEmpty}
			if err := docpicker.RegisterDocuments(host, g.client(log), opts); err != nil {
				return err
			}

			node, err := host.CreateNode(cmd.Context(), nodeType)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("value") {
				node.Widget(docpicker.PathWidget).SetValue(value)
			}

			var ev *docpicker.PointerEvent
			if x >= 0 && y >= 0 {
				ev = &docpicker.PointerEvent{ClientX: x, ClientY: y}
			}

			model, ok := node.Pointer(docpicker.PathWidget, ev, docpicker.Point{})
			if !ok {
				return fmt.Errorf("%s node has no path popup", nodeType)
			}

			p := tea.NewProgram(docpicker.NewStandalone(model.(docpicker.Popup)), tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				return err
			}

			if !final.(docpicker.Standalone).Result().Committed {
				return errNothingPicked
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"id":      node.ID,
					"type":    node.Type,
					"widgets": node.Serialize(),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), node.Widget(docpicker.PathWidget).Value())
			return nil
		},
	}

	cmd.Flags().StringVarP(&nodeType, "node", "n", docpicker.NodeDocumentLoader, "node type: DocumentLoader or PDFToImage")
	cmd.Flags().StringVar(&value, "value", "", "initial path, replacing the first listed document")
	cmd.Flags().Float64Var(&scale, "scale", 1, "canvas zoom factor; the popup widens above 1")
	cmd.Flags().IntVar(&x, "x", -1, "pointer column the popup is anchored to")
	cmd.Flags().IntVar(&y, "y", -1, "pointer row the popup is anchored to")
	cmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "commit even when the widget starts out empty")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the serialized node instead of the path")

	return cmd
}

// terminalBounds is the canvas rectangle: the whole terminal, or 80x24
// when stdout is not one.
func terminalBounds() docpicker.Rect {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return docpicker.Rect{Width: 80, Height: 24}
	}
	return docpicker.Rect{Width: w, Height: h}
}
