package docpicker

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Suggester is the client side of the path suggestion service. Given a
// partial path and an optional comma-separated extension filter, it
// returns candidate path segments. Directories end in a slash.
type Suggester interface {
	Suggest(ctx context.Context, path, extensions string) ([]string, error)
}

// UploadService is the client side of the document upload service.
type UploadService interface {
	Upload(ctx context.Context, name string, body io.Reader) (UploadResult, error)
}

// Services bundles both halves of the server API, which is what the
// documents extension needs for each node it decorates.
type Services interface {
	Suggester
	UploadService
}

// Suggestion is a single row of the autocomplete popup.
type Suggestion struct {
	Text  string
	IsDir bool
}

func newSuggestions(entries []string) []Suggestion {
	out := make([]Suggestion, 0, len(entries))
	for _, e := range entries {
		out = append(out, Suggestion{Text: e, IsDir: strings.HasSuffix(e, "/")})
	}
	return out
}

// UploadResult is the stored-file descriptor returned by the upload
// service.
type UploadResult struct {
	Name      string `json:"name"`
	Subfolder string `json:"subfolder,omitempty"`
}

// Path joins the subfolder, if any, with the stored name.
func (r UploadResult) Path() string {
	if r.Subfolder == "" {
		return r.Name
	}
	return r.Subfolder + "/" + r.Name
}

// StatusError reports a non-200 reply from one of the services. Its
// message is the "status - statusText" form shown to users.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d - %s", e.Code, e.Status)
}

// Point is a position in terminal cells.
type Point struct {
	X, Y int
}

// Rect is the bounding rectangle of the canvas, in terminal cells.
type Rect struct {
	Left, Top, Width, Height int
}

// Canvas describes the host's drawing surface.
type Canvas struct {
	// The Scale field is the current zoom factor. Popups grow with it
	// when it exceeds 1.
	Scale float64

	// The Bounds field is the pixel (here: cell) bounding rectangle
	// of the canvas.
	Bounds Rect
}

// PointerEvent is the pointer interaction that triggered a widget.
type PointerEvent struct {
	ClientX, ClientY int
}

// PointerHandler is the pointer-interaction slot of a [Widget]. It
// returns the model to mount, or false when nothing should be mounted.
type PointerHandler func(ev *PointerEvent, pos Point, node *Node) (tea.Model, bool)

// Widget kinds known to the host.
const (
	KindCombo  = "combo"
	KindNumber = "number"
	KindButton = "button"
)

// WidgetOptions are the host-side options of a widget.
type WidgetOptions struct {
	// The Values field lists the known values of a combo widget.
	Values []string

	// The Extensions field is the comma-separated extension filter
	// forwarded verbatim to the path suggestion service. Empty means
	// no filter.
	Extensions string
}

// Widget is a host UI control bound to a node parameter. The value and
// the known-values list may be written by several controllers; the last
// write wins.
type Widget struct {
	Name  string
	Kind  string
	Label string

	// The Transient field marks widgets that the host leaves out of
	// the serialized graph (buttons, mostly).
	Transient bool

	// The Callback field, when set, is invoked with the new value
	// after a controller commits one.
	Callback func(value string)

	// The OnPointer field is the pointer-interaction slot.
	OnPointer PointerHandler

	// The OnClick field is invoked when a button widget is pressed.
	OnClick func()

	mu      sync.Mutex
	value   string
	options WidgetOptions
}

func (w *Widget) Value() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

// SetValue assigns the value without invoking the callback, the way the
// host itself assigns values.
func (w *Widget) SetValue(v string) {
	w.mu.Lock()
	w.value = v
	w.mu.Unlock()
}

// Set assigns the value and then invokes the callback, if any, exactly
// once.
func (w *Widget) Set(v string) {
	w.SetValue(v)
	if w.Callback != nil {
		w.Callback(v)
	}
}

func (w *Widget) Extensions() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.options.Extensions
}

// Values returns a copy of the known-values list.
func (w *Widget) Values() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.options.Values...)
}

func (w *Widget) SetValues(values []string) {
	w.mu.Lock()
	w.options.Values = append([]string(nil), values...)
	w.mu.Unlock()
}

// AddValue appends v to the known-values list unless it is already
// present. It reports whether the list changed.
func (w *Widget) AddValue(v string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, have := range w.options.Values {
		if have == v {
			return false
		}
	}
	w.options.Values = append(w.options.Values, v)
	return true
}

// Click presses a button widget.
func (w *Widget) Click() {
	if w.OnClick != nil {
		w.OnClick()
	}
}

// DragItem describes one entry of a drag payload while it hovers over a
// node.
type DragItem struct {
	Kind string // "file" or "string"
	Type string // MIME type
}

// File is a local file offered to a node, either dropped or picked.
type File struct {
	Name string
	Type string
	Size int64

	// The Open field returns a fresh reader over the file contents.
	Open func() (io.ReadCloser, error)
}
