package docpicker

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func newDocumentsHost(t *testing.T, svc *fakeService) *Host {
	t.Helper()
	h := NewHost(Canvas{Scale: 1, Bounds: Rect{Width: 80, Height: 24}})
	if err := RegisterDocuments(h, svc, DocumentsOptions{}); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestDocumentLoaderNode(t *testing.T) {
	svc := &fakeService{entries: map[string][]string{"input": {"a.pdf", "b.txt"}}}
	h := newDocumentsHost(t, svc)

	n, err := h.CreateNode(context.Background(), NodeDocumentLoader)
	if err != nil {
		t.Fatal(err)
	}

	w := n.Widget(PathWidget)
	if !slices.Equal(w.Values(), []string{"a.pdf", "b.txt"}) || w.Value() != "a.pdf" {
		t.Fatalf("options: %v value %q", w.Values(), w.Value())
	}
	if got := svc.Queries(); !slices.Equal(got, []query{{"input", "pdf,txt,doc,docx"}}) {
		t.Fatalf("queries: %v", got)
	}

	if n.Widget(UploadButton) == nil {
		t.Fatal("upload button missing")
	}
	if _, ok := n.Serialize()[UploadButton]; ok {
		t.Fatal("upload button serialized")
	}
	if !n.DragOver([]DragItem{{Kind: "file", Type: "application/pdf"}}) {
		t.Fatal("node refuses a PDF drag")
	}

	model, ok := n.Pointer(PathWidget, &PointerEvent{ClientX: 40, ClientY: 30}, Point{})
	if !ok {
		t.Fatal("path widget did not open a popup")
	}
	if p := model.(Popup); p.Value() != "a.pdf" {
		t.Fatalf("popup input: %q", p.Value())
	}
	if _, ok := n.Pointer(PathWidget, nil, Point{}); ok {
		t.Fatal("second popup opened")
	}
}

func TestDefaultSkipsSubfolders(t *testing.T) {
	svc := &fakeService{entries: map[string][]string{"input": {"scans/", "a.pdf"}}}
	h := newDocumentsHost(t, svc)

	n, err := h.CreateNode(context.Background(), NodeDocumentLoader)
	if err != nil {
		t.Fatal(err)
	}
	w := n.Widget(PathWidget)
	if w.Value() != "a.pdf" {
		t.Fatalf("default value: got %q, want a.pdf", w.Value())
	}
	if got := n.Serialize()[PathWidget]; got != "a.pdf" {
		t.Fatalf("serialized file_path: %q", got)
	}
}

func TestDefaultWithOnlySubfolders(t *testing.T) {
	svc := &fakeService{entries: map[string][]string{"input": {"scans/"}}}
	h := newDocumentsHost(t, svc)

	n, err := h.CreateNode(context.Background(), NodeDocumentLoader)
	if err != nil {
		t.Fatal(err)
	}
	if w := n.Widget(PathWidget); w.Value() != "" {
		t.Fatalf("a subfolder became the value: %q", w.Value())
	}
}

func TestPDFToImageNode(t *testing.T) {
	svc := &fakeService{}
	h := newDocumentsHost(t, svc)

	n, err := h.CreateNode(context.Background(), NodePDFToImage)
	if err != nil {
		t.Fatal(err)
	}
	if got := svc.Queries(); len(got) != 1 || got[0].extensions != "pdf" {
		t.Fatalf("queries: %v", got)
	}

	got := n.Serialize()
	want := map[string]string{PathWidget: "", "start_page": "1", "end_page": "1", "dpi": "300"}
	if len(got) != len(want) {
		t.Fatalf("serialized: %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %q, want %q", k, got[k], v)
		}
	}
}

func TestOptionsLoadFailure(t *testing.T) {
	svc := &fakeService{err: errors.New("connection refused")}
	h := newDocumentsHost(t, svc)

	n, err := h.CreateNode(context.Background(), NodeDocumentLoader)
	if err != nil {
		t.Fatal(err)
	}
	w := n.Widget(PathWidget)
	if len(w.Values()) != 0 || w.Value() != "" {
		t.Fatalf("options after failure: %v value %q", w.Values(), w.Value())
	}
	if w.OnPointer == nil {
		t.Fatal("popup binding skipped after a failed listing")
	}
}

func TestNodeWithoutPathWidget(t *testing.T) {
	svc := &fakeService{}
	h := newDocumentsHost(t, svc)
	h.RegisterNodeDef(NodeDef{Name: NodeDocumentLoader})

	n, err := h.CreateNode(context.Background(), NodeDocumentLoader)
	if err != nil {
		t.Fatal(err)
	}
	if len(svc.Queries()) != 0 {
		t.Fatal("listed options for a node without a path widget")
	}
	if n.Widget(UploadButton) == nil {
		t.Fatal("upload button missing")
	}
}

func TestRegisterDocumentsTwice(t *testing.T) {
	h := newDocumentsHost(t, &fakeService{})
	if err := RegisterDocuments(h, &fakeService{}, DocumentsOptions{}); err == nil {
		t.Fatal("documents extension registered twice")
	}
}

func TestOtherNodeTypesUntouched(t *testing.T) {
	svc := &fakeService{}
	h := newDocumentsHost(t, svc)
	h.RegisterNodeDef(NodeDef{Name: "KSampler", Widgets: []WidgetDef{{Name: PathWidget, Kind: KindCombo}}})

	n, err := h.CreateNode(context.Background(), "KSampler")
	if err != nil {
		t.Fatal(err)
	}
	if n.Widget(PathWidget).OnPointer != nil || n.Widget(UploadButton) != nil || len(svc.Queries()) != 0 {
		t.Fatal("extension decorated a foreign node type")
	}
}
