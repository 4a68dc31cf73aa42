package httpx

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSONSetsHeadersAndBody(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 201, map[string]string{"ok": "yes"})

	if rec.Code != 201 {
		t.Fatalf("status code: got %d want %d", rec.Code, 201)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("content-type: got %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Fatalf("cache-control missing no-store: %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"ok":"yes"`) {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestWriteJSONEmptySliceIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, 200, []string{})
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Fatalf("empty slice should encode as [], got %q", got)
	}
}

func TestWriteText(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteText(rec, 403, "Invalid file path")

	if rec.Code != 403 {
		t.Fatalf("status code: got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Fatalf("content-type: got %q", got)
	}
	if rec.Body.String() != "Invalid file path" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}
