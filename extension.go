package docpicker

import (
	"context"
	"io"
	"slices"
	"strings"
	"time"
)

// Node types decorated by the documents extension.
const (
	NodeDocumentLoader = "DocumentLoader"
	NodePDFToImage     = "PDFToImage"
)

const (
	// ExtensionName is the registration name of the documents
	// extension.
	ExtensionName = "ComfyUI-Documents"

	// PathWidget is the widget holding the document path.
	PathWidget = "file_path"

	// UploadButton is the name of the upload button widget.
	UploadButton = "upload_document"

	// inputFolder is listed to seed the path widget's known values.
	inputFolder = "input"

	optionsTimeout = 10 * time.Second
)

// DocumentNodeDefs returns the node types the documents extension
// decorates.
func DocumentNodeDefs() []NodeDef {
	return []NodeDef{
		{
			Name: NodeDocumentLoader,
			Widgets: []WidgetDef{
				{Name: PathWidget, Kind: KindCombo, Extensions: "pdf,txt,doc,docx"},
			},
		},
		{
			Name: NodePDFToImage,
			Widgets: []WidgetDef{
				{Name: PathWidget, Kind: KindCombo, Extensions: "pdf"},
				{Name: "start_page", Kind: KindNumber, Default: "1"},
				{Name: "end_page", Kind: KindNumber, Default: "1"},
				{Name: "dpi", Kind: KindNumber, Default: "300"},
			},
		},
	}
}

// DocumentsOptions tune the documents extension.
type DocumentsOptions struct {
	// The Alert field receives upload failures.
	Alert func(msg string)

	// The Pick field backs the upload button; see [UploadWidget.Pick].
	Pick func() (File, error)

	// The Wrap field is handed to every upload controller; see
	// [UploadWidget.Wrap].
	Wrap func(f File, r io.Reader) io.Reader

	// The AllowEmptyCommit field is handed to every search box; see
	// [SearchBox.AllowEmptyCommit].
	AllowEmptyCommit bool
}

// DocumentsExtension builds the extension that gives document nodes
// their path popup and upload controls.
func DocumentsExtension(svc Services, opts DocumentsOptions) Extension {
	return Extension{
		Name:      ExtensionName,
		NodeTypes: []string{NodeDocumentLoader, NodePDFToImage},
		OnNodeCreated: []NodeObserver{
			func(ctx context.Context, n *Node) {
				loadOptions(ctx, n, svc)
			},
			func(_ context.Context, n *Node) {
				w := n.Widget(PathWidget)
				if w == nil {
					return
				}
				box := NewSearchBox(w, svc)
				box.AllowEmptyCommit = opts.AllowEmptyCommit
				w.OnPointer = box.Handler()
			},
			func(_ context.Context, n *Node) {
				u := AttachUpload(n, UploadButton, PathWidget, svc)
				u.Alert = opts.Alert
				u.Pick = opts.Pick
				u.Wrap = opts.Wrap
			},
		},
	}
}

// RegisterDocuments registers the document node types and the documents
// extension with h.
func RegisterDocuments(h *Host, svc Services, opts DocumentsOptions) error {
	for _, def := range DocumentNodeDefs() {
		h.RegisterNodeDef(def)
	}
	return h.RegisterExtension(DocumentsExtension(svc, opts))
}

// loadOptions seeds the path widget's known values with the documents
// in the input folder. The first file becomes the value; subfolders are
// listed but never picked, since a node can only load a file.
func loadOptions(ctx context.Context, n *Node, svc Suggester) {
	w := n.Widget(PathWidget)
	if w == nil {
		return
	}
	w.SetValues(nil)

	ctx, cancel := context.WithTimeout(ctx, optionsTimeout)
	defer cancel()

	files, err := svc.Suggest(ctx, inputFolder, w.Extensions())
	if err != nil {
		logger.Error().Err(err).Int("node", n.ID).Msg("couldn't list input documents")
		return
	}

	w.SetValues(files)
	if i := slices.IndexFunc(files, isFileEntry); i >= 0 {
		w.SetValue(files[i])
	}
}

func isFileEntry(entry string) bool {
	return !strings.HasSuffix(entry, "/")
}
