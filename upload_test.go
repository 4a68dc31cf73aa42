package docpicker

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func textFile(name, mimeType, body string) File {
	return File{
		Name: name,
		Type: mimeType,
		Size: int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func attach(t *testing.T, svc *fakeService) (*UploadWidget, *Widget, *[]string) {
	t.Helper()
	n := newTestNode(t, Canvas{}, "pdf,txt", "old.pdf")
	u := AttachUpload(n, UploadButton, PathWidget, svc)

	var alerts []string
	u.Alert = func(msg string) { alerts = append(alerts, msg) }
	return u, n.Widget(PathWidget), &alerts
}

func TestUploadSetsWidget(t *testing.T) {
	svc := &fakeService{subfolder: "input"}
	u, w, alerts := attach(t, svc)

	if err := u.Upload(context.Background(), textFile("f.txt", "text/plain", "hello"), true); err != nil {
		t.Fatal(err)
	}

	if w.Value() != "input/f.txt" {
		t.Fatalf("widget value: %q", w.Value())
	}
	if !slices.Contains(w.Values(), "input/f.txt") {
		t.Fatalf("known values: %v", w.Values())
	}
	if len(*alerts) != 0 {
		t.Fatalf("alerts: %v", *alerts)
	}
}

func TestUploadFailureAlerts(t *testing.T) {
	svc := &fakeService{uploadErr: &StatusError{Code: 500, Status: "Internal Server Error"}}
	u, w, alerts := attach(t, svc)
	before := w.Values()

	err := u.Upload(context.Background(), textFile("f.txt", "text/plain", "hello"), true)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !slices.Equal(*alerts, []string{"500 - Internal Server Error"}) {
		t.Fatalf("alerts: %v", *alerts)
	}
	if w.Value() != "old.pdf" || !slices.Equal(w.Values(), before) {
		t.Fatalf("widget changed on failure: %q %v", w.Value(), w.Values())
	}
}

func TestDragOver(t *testing.T) {
	u, _, _ := attach(t, &fakeService{})

	cases := []struct {
		items []DragItem
		want  bool
	}{
		{[]DragItem{{Kind: "file", Type: "application/pdf"}}, true},
		{[]DragItem{{Kind: "file", Type: "image/png"}, {Kind: "file", Type: "text/plain"}}, true},
		{[]DragItem{{Kind: "string", Type: "text/plain"}}, false},
		{[]DragItem{{Kind: "file", Type: "image/png"}}, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := u.DragOver(tc.items); got != tc.want {
			t.Errorf("DragOver(%v) = %v, want %v", tc.items, got, tc.want)
		}
	}
}

func TestDropUploadsAcceptedFiles(t *testing.T) {
	svc := &fakeService{}
	u, w, _ := attach(t, svc)

	handled := u.Drop(context.Background(), []File{
		textFile("photo.png", "image/png", "png"),
		textFile("a.pdf", "application/pdf", "%PDF"),
		textFile("b.txt", "text/plain", "text"),
	})
	if !handled {
		t.Fatal("drop not handled")
	}
	if got := svc.Uploads(); !slices.Equal(got, []string{"a.pdf", "b.txt"}) {
		t.Fatalf("uploads: %v", got)
	}
	if w.Value() != "a.pdf" {
		t.Fatalf("only the first accepted file should become the value, got %q", w.Value())
	}
	if !slices.Contains(w.Values(), "b.txt") {
		t.Fatalf("known values: %v", w.Values())
	}
}

func TestDropNothingAccepted(t *testing.T) {
	svc := &fakeService{}
	u, _, _ := attach(t, svc)

	if u.Drop(context.Background(), []File{textFile("photo.png", "image/png", "png")}) {
		t.Fatal("drop of an unsupported file reported as handled")
	}
	if len(svc.Uploads()) != 0 {
		t.Fatal("unsupported file uploaded")
	}
}

func TestChooseRejectsExtension(t *testing.T) {
	svc := &fakeService{}
	u, _, alerts := attach(t, svc)

	err := u.Choose(context.Background(), textFile("sheet.xlsx", "application/pdf", "x"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if len(*alerts) != 1 || len(svc.Uploads()) != 0 {
		t.Fatalf("alerts %v uploads %v", *alerts, svc.Uploads())
	}
}

func TestButtonPicksAndUploads(t *testing.T) {
	svc := &fakeService{}
	u, w, _ := attach(t, svc)

	if u.Button().Label != "Choose file to upload" || !u.Button().Transient {
		t.Fatalf("button: %+v", u.Button())
	}

	// Without a picker the button does nothing.
	u.Button().Click()
	if len(svc.Uploads()) != 0 {
		t.Fatal("inert button uploaded")
	}

	var wrapped []string
	u.Pick = func() (File, error) { return textFile("Report.DOCX", TypeByExtension("Report.DOCX"), "doc"), nil }
	u.Wrap = func(f File, r io.Reader) io.Reader {
		wrapped = append(wrapped, f.Name)
		return r
	}
	u.Button().Click()

	if w.Value() != "Report.DOCX" || !slices.Equal(wrapped, []string{"Report.DOCX"}) {
		t.Fatalf("value %q wrapped %v", w.Value(), wrapped)
	}
}

func TestUploadMissingTarget(t *testing.T) {
	h := NewHost(Canvas{})
	h.RegisterNodeDef(NodeDef{Name: "Bare"})
	n, err := h.CreateNode(context.Background(), "Bare")
	if err != nil {
		t.Fatal(err)
	}

	svc := &fakeService{}
	u := AttachUpload(n, UploadButton, PathWidget, svc)
	if err := u.Upload(context.Background(), textFile("a.pdf", "application/pdf", "x"), true); err != nil {
		t.Fatal(err)
	}
	if len(svc.Uploads()) != 1 {
		t.Fatal("file not uploaded")
	}
}

func TestTypeByExtension(t *testing.T) {
	cases := map[string]string{
		"a.pdf":  "application/pdf",
		"B.TXT":  "text/plain",
		"c.doc":  "application/msword",
		"d.docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"e":      "",
	}
	for name, want := range cases {
		if got := TypeByExtension(name); got != want {
			t.Errorf("TypeByExtension(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestFileFromPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := FileFromPath(p)
	if err != nil {
		t.Fatal(err)
	}
	if f.Name != "notes.txt" || f.Type != "text/plain" || f.Size != 5 {
		t.Fatalf("file: %+v", f)
	}
	rc, err := f.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if b, _ := io.ReadAll(rc); string(b) != "hello" {
		t.Fatalf("contents: %q", b)
	}

	if _, err := FileFromPath(dir); err == nil {
		t.Fatal("directory accepted as a file")
	}
}
