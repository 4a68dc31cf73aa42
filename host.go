package docpicker

import (
	"context"
	"fmt"
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// NodeObserver runs once for every node instance created of a type it
// was registered for.
type NodeObserver func(ctx context.Context, n *Node)

// Extension groups lifecycle observers under a name. Observers of all
// extensions run in registration order.
type Extension struct {
	Name          string
	NodeTypes     []string
	OnNodeCreated []NodeObserver
}

// WidgetDef declares one widget of a node type.
type WidgetDef struct {
	Name       string
	Kind       string
	Default    string
	Values     []string
	Extensions string
}

// NodeDef declares a node type.
type NodeDef struct {
	Name    string
	Widgets []WidgetDef
}

// Graph is the set of live nodes. The dirty flag tells the host a redraw
// is due.
type Graph struct {
	mu    sync.Mutex
	dirty bool
	nodes []*Node
}

func (g *Graph) SetDirtyCanvas(dirty bool) {
	g.mu.Lock()
	g.dirty = dirty
	g.mu.Unlock()
}

func (g *Graph) Dirty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dirty
}

func (g *Graph) Nodes() []*Node {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.nodes)
}

// Host is the integration layer the document widgets plug into. It
// stands in for the node editor: it knows node types, creates node
// instances, and tells registered extensions about them.
type Host struct {
	Canvas Canvas

	mu         sync.Mutex
	defs       map[string]NodeDef
	extensions []Extension
	graph      Graph
}

func NewHost(canvas Canvas) *Host {
	return &Host{
		Canvas: canvas,
		defs:   make(map[string]NodeDef),
	}
}

func (h *Host) Graph() *Graph {
	return &h.graph
}

func (h *Host) RegisterNodeDef(def NodeDef) {
	h.mu.Lock()
	h.defs[def.Name] = def
	h.mu.Unlock()
}

// RegisterExtension appends ext to the observer list. Extension names
// are unique.
func (h *Host) RegisterExtension(ext Extension) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, e := range h.extensions {
		if e.Name == ext.Name {
			return fmt.Errorf("extension %q already registered", ext.Name)
		}
	}
	h.extensions = append(h.extensions, ext)

	logger.Debug().Str("extension", ext.Name).Strs("nodeTypes", ext.NodeTypes).Msg("extension registered")
	return nil
}

// CreateNode instantiates a node of the named type, then runs every
// observer registered for that type.
func (h *Host) CreateNode(ctx context.Context, typeName string) (*Node, error) {
	h.mu.Lock()
	def, ok := h.defs[typeName]
	var observers []NodeObserver
	for _, ext := range h.extensions {
		if slices.Contains(ext.NodeTypes, typeName) {
			observers = append(observers, ext.OnNodeCreated...)
		}
	}
	h.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown node type %q", typeName)
	}

	n := &Node{
		ID:   nextID(),
		Type: typeName,
		host: h,
	}
	for _, wd := range def.Widgets {
		w := n.AddWidget(wd.Kind, wd.Name, wd.Default, nil)
		w.options = WidgetOptions{
			Values:     slices.Clone(wd.Values),
			Extensions: wd.Extensions,
		}
	}

	for _, observe := range observers {
		observe(ctx, n)
	}

	h.graph.mu.Lock()
	h.graph.nodes = append(h.graph.nodes, n)
	h.graph.mu.Unlock()

	return n, nil
}

// Node is one unit of the graph.
type Node struct {
	ID      int
	Type    string
	Widgets []*Widget

	// The OnDragOver field reports whether the node would accept a
	// drag payload.
	OnDragOver func(items []DragItem) bool

	// The OnDragDrop field receives dropped files and reports whether
	// any of them was handled.
	OnDragDrop func(ctx context.Context, files []File) bool

	host *Host
}

// Graph is the graph the node lives in.
func (n *Node) Graph() *Graph {
	return &n.host.graph
}

// Widget returns the widget with the given name, or nil.
func (n *Node) Widget(name string) *Widget {
	for _, w := range n.Widgets {
		if w.Name == name {
			return w
		}
	}
	return nil
}

// AddWidget appends a widget to the node and returns it. onClick only
// matters for buttons.
func (n *Node) AddWidget(kind, name, value string, onClick func()) *Widget {
	w := &Widget{
		Name:    name,
		Kind:    kind,
		OnClick: onClick,
		value:   value,
	}
	n.Widgets = append(n.Widgets, w)
	return w
}

// Pointer delivers a pointer interaction to the named widget. It returns
// the model the widget wants mounted, if any.
func (n *Node) Pointer(widgetName string, ev *PointerEvent, pos Point) (tea.Model, bool) {
	w := n.Widget(widgetName)
	if w == nil || w.OnPointer == nil {
		return nil, false
	}
	return w.OnPointer(ev, pos, n)
}

// DragOver asks the node whether it accepts the payload.
func (n *Node) DragOver(items []DragItem) bool {
	if n.OnDragOver == nil {
		return false
	}
	return n.OnDragOver(items)
}

// DragDrop hands dropped files to the node.
func (n *Node) DragDrop(ctx context.Context, files []File) bool {
	if n.OnDragDrop == nil {
		return false
	}
	return n.OnDragDrop(ctx, files)
}

// Serialize returns the widget values the host persists with the graph.
func (n *Node) Serialize() map[string]string {
	out := make(map[string]string, len(n.Widgets))
	for _, w := range n.Widgets {
		if w.Transient {
			continue
		}
		out[w.Name] = w.Value()
	}
	return out
}
