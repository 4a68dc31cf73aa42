package docpicker

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

const (
	// debounceDelay is how long typing must pause before a
	// suggestion query goes out.
	debounceDelay = 100 * time.Millisecond

	// focusDelay is the pause between mounting a popup and its first
	// query, giving the input a chance to take focus.
	focusDelay = 100 * time.Millisecond

	// anchorOffset is added to both coordinates of the triggering
	// pointer position.
	anchorOffset = -20

	// baseWidth is the popup width at zoom factor 1.
	baseWidth = 48

	// maxViewHeight is the number of suggestions visible at any given
	// moment.
	maxViewHeight = 10
)

// logger is where popups and controllers report. Terminal programs point
// it at a file with [SetLogger].
var logger = zerolog.Nop()

// SetLogger replaces the package logger. Call it before mounting any
// popup.
func SetLogger(l zerolog.Logger) {
	logger = l
}

// phase is the state of the debounced query loop.
type phase int

const (
	phaseIdle phase = iota
	phasePending
	phaseFetching
	phaseRendered
)

func (p phase) String() string {
	switch p {
	case phasePending:
		return "pending"
	case phaseFetching:
		return "fetching"
	case phaseRendered:
		return "rendered"
	default:
		return "idle"
	}
}

type focusMsg struct {
	popupID int
}

type debounceMsg struct {
	popupID int
	seq     int
}

type suggestionsMsg struct {
	popupID int
	seq     int
	entries []string
	err     error
}

// ClosedMsg is emitted once when a popup unmounts, whatever the reason.
type ClosedMsg struct {
	PopupID   int
	Committed bool
	Value     string
}

// SearchBox binds the autocomplete popup to one widget. It owns the
// re-entrancy guard, so at most one popup per binding is open at a time.
type SearchBox struct {
	widget  *Widget
	service Suggester

	// The AllowEmptyCommit field lets Enter and OK set a value on a
	// widget whose current value is empty. When false such commits
	// are skipped, and a warning is logged.
	AllowEmptyCommit bool

	open atomic.Bool
}

func NewSearchBox(w *Widget, service Suggester) *SearchBox {
	return &SearchBox{widget: w, service: service}
}

// IsOpen reports whether a popup from this binding is mounted.
func (b *SearchBox) IsOpen() bool {
	return b.open.Load()
}

// Handler adapts the binding to a widget's pointer-interaction slot.
func (b *SearchBox) Handler() PointerHandler {
	return func(ev *PointerEvent, pos Point, node *Node) (tea.Model, bool) {
		p, ok := b.Open(ev, pos, node)
		if !ok {
			return nil, false
		}
		return p, true
	}
}

// Open builds a popup anchored near ev. When a popup from this binding
// is already open, Open does nothing and returns false.
//
// The pos argument is the canvas-local position of the interaction; the
// popup is placed from the client position of ev instead.
func (b *SearchBox) Open(ev *PointerEvent, pos Point, node *Node) (Popup, bool) {
	if !b.open.CompareAndSwap(false, true) {
		logger.Debug().Str("widget", b.widget.Name).Msg("popup already open")
		return Popup{}, false
	}

	canvas := Canvas{Scale: 1, Bounds: Rect{Width: 80, Height: 24}}
	if node != nil && node.host != nil {
		canvas = node.host.Canvas
	}

	width := baseWidth
	if canvas.Scale > 1 {
		width = int(float64(baseWidth) * canvas.Scale)
	}

	input := textinput.New()
	input.Prompt = ""
	input.Width = max(10, width-16)
	input.SetValue(b.widget.Value())
	input.CursorEnd()
	input.Focus()

	p := Popup{
		id:     nextID(),
		box:    b,
		node:   node,
		input:  input,
		anchor: anchor(ev, canvas),
		width:  width,
	}
	logger.Debug().Int("popup", p.id).Str("widget", b.widget.Name).Int("x", pos.X).Int("y", pos.Y).Msg("popup opened")

	return p, true
}

func (b *SearchBox) release() {
	b.open.Store(false)
}

// anchor places the popup at the pointer position plus a fixed offset,
// relative to the canvas. Without an event the popup goes to the middle
// of the canvas.
func anchor(ev *PointerEvent, c Canvas) Point {
	x := anchorOffset - c.Bounds.Left
	y := anchorOffset - c.Bounds.Top

	if ev != nil {
		x += ev.ClientX
		y += ev.ClientY
	} else {
		x += c.Bounds.Width / 2
		y += c.Bounds.Height / 2
	}

	return Point{X: max(0, x), Y: max(0, y)}
}

// Popup is the autocomplete popup. It is a [tea.Model]; hosts mount it
// by forwarding messages to [Popup.Update] until a [ClosedMsg] arrives.
type Popup struct {
	id   int
	box  *SearchBox
	node *Node

	input       textinput.Model
	suggestions []Suggestion

	// The querySeq field numbers debounce timers. Only the timer
	// carrying the latest number may start a fetch.
	querySeq int

	// The fetchSeq field numbers fetches. Replies to anything but
	// the latest fetch are dropped.
	fetchSeq int
	cancel   context.CancelFunc

	phase  phase
	closed bool

	// The cursor field is the zero-indexed suggestion under the
	// arrow; viewMin and viewMax bound the visible slice of
	// suggestions.
	cursor, viewMin, viewMax int

	anchor Point
	width  int
}

func (m Popup) ID() int { return m.id }

// Value is the current input text.
func (m Popup) Value() string { return m.input.Value() }

func (m Popup) Suggestions() []Suggestion {
	return append([]Suggestion(nil), m.suggestions...)
}

func (m Popup) Closed() bool { return m.closed }

func (m Popup) Init() tea.Cmd {
	id := m.id
	return tea.Batch(textinput.Blink, tea.Tick(focusDelay, func(time.Time) tea.Msg {
		return focusMsg{popupID: id}
	}))
}

func (m Popup) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.closed {
		return m, nil
	}

	switch msg := msg.(type) {
	case focusMsg:
		if msg.popupID != m.id {
			return m, nil
		}
		return m.fetch()

	case debounceMsg:
		if msg.popupID != m.id || msg.seq != m.querySeq {
			return m, nil
		}
		return m.fetch()

	case suggestionsMsg:
		if msg.popupID != m.id {
			return m, nil
		}
		if msg.seq != m.fetchSeq {
			logger.Debug().Int("popup", m.id).Int("seq", msg.seq).Int("latest", m.fetchSeq).Msg("dropping stale suggestions")
			return m, nil
		}
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}

		if msg.err != nil {
			logger.Error().Err(msg.err).Int("popup", m.id).Msg("error fetching suggestions")
			m.phase = phaseRendered
			return m, nil
		}

		m.suggestions = newSuggestions(msg.entries)
		m.resetView()
		m.phase = phaseRendered
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.cancel):
			return m.close(false, "")

		case key.Matches(msg, keys.commit), key.Matches(msg, keys.confirm):
			return m.commit(m.input.Value())

		case key.Matches(msg, keys.up):
			m.scrollUp(1)
			return m, nil

		case key.Matches(msg, keys.down):
			m.scrollDown(1)
			return m, nil

		case key.Matches(msg, keys.activate):
			return m.Activate(m.cursor)
		}

		var inputCmd, armCmd tea.Cmd
		m.input, inputCmd = m.input.Update(msg)
		m, armCmd = m.arm()
		return m, tea.Batch(inputCmd, armCmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// Activate acts on the i-th suggestion as if it were clicked. A
// directory fills the input and schedules a new query; a file is
// committed and closes the popup.
func (m Popup) Activate(i int) (tea.Model, tea.Cmd) {
	if m.closed || i < 0 || i >= len(m.suggestions) {
		return m, nil
	}

	s := m.suggestions[i]
	if s.IsDir {
		m.input.SetValue(s.Text)
		m.input.CursorEnd()
		return m.arm()
	}

	return m.commit(s.Text)
}

// arm supersedes any pending debounce timer with a new one.
func (m Popup) arm() (Popup, tea.Cmd) {
	m.querySeq++
	m.phase = phasePending

	id, seq := m.id, m.querySeq
	return m, tea.Tick(debounceDelay, func(time.Time) tea.Msg {
		return debounceMsg{popupID: id, seq: seq}
	})
}

// fetch queries the suggestion service with the current input. A
// request still in flight is cancelled; its reply will be dropped.
func (m Popup) fetch() (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.fetchSeq++
	m.phase = phaseFetching

	var (
		id         = m.id
		seq        = m.fetchSeq
		query      = m.input.Value()
		extensions = m.box.widget.Extensions()
		service    = m.box.service
	)

	logger.Debug().Int("popup", id).Int("seq", seq).Str("query", query).Str("extensions", extensions).Msg("fetching suggestions")

	return m, func() tea.Msg {
		entries, err := service.Suggest(ctx, query, extensions)
		return suggestionsMsg{popupID: id, seq: seq, entries: entries, err: err}
	}
}

// commit writes value to the widget and closes the popup. A widget
// holding an empty value is left alone unless the binding allows it.
func (m Popup) commit(value string) (tea.Model, tea.Cmd) {
	w := m.box.widget

	if w.Value() == "" && !m.box.AllowEmptyCommit {
		logger.Warn().Str("widget", w.Name).Str("value", value).Msg("widget has no value; commit skipped")
		return m.close(false, "")
	}

	w.Set(value)
	if m.node != nil && m.node.host != nil {
		m.node.Graph().SetDirtyCanvas(true)
	}

	return m.close(true, value)
}

// close unmounts the popup: the in-flight request is cancelled and the
// guard released.
func (m Popup) close(committed bool, value string) (tea.Model, tea.Cmd) {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.closed = true
	m.phase = phaseIdle
	m.box.release()

	logger.Debug().Int("popup", m.id).Bool("committed", committed).Msg("popup closed")

	id := m.id
	return m, func() tea.Msg {
		return ClosedMsg{PopupID: id, Committed: committed, Value: value}
	}
}

func (m *Popup) resetView() {
	m.viewMin = 0
	m.viewMax = min(maxViewHeight, len(m.suggestions)) - 1
	m.cursor = 0
}

func (m *Popup) scrollDown(times int) {
	if len(m.suggestions) == 0 {
		return
	}

	for i := 0; i < times; i++ {
		m.cursor++
		if m.cursor > len(m.suggestions)-1 {
			m.cursor = len(m.suggestions) - 1
		}

		if m.viewMax < len(m.suggestions)-1 && m.cursor > (m.viewMax+m.viewMin)/2 {
			m.viewMin++
			m.viewMax++
		}
	}
}

func (m *Popup) scrollUp(times int) {
	for i := 0; i < times; i++ {
		m.cursor--
		if m.cursor < 0 {
			m.cursor = 0
		}

		if m.viewMin > 0 && m.cursor < (m.viewMax+m.viewMin)/2 {
			m.viewMin--
			m.viewMax--
		}
	}
}

func (m Popup) View() string {
	// Nothing is left on screen once the popup is gone.
	if m.closed {
		return ""
	}

	var (
		view     strings.Builder
		boxStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("63")).
				Padding(0, 1).
				Width(m.width).
				MarginLeft(m.anchor.X).
				MarginTop(m.anchor.Y)
		nameStyle   = lipgloss.NewStyle().Bold(true)
		buttonStyle = lipgloss.NewStyle().Reverse(true).Padding(0, 1)
		dirStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
		helpStyle   = lipgloss.NewStyle().Faint(true)
	)

	fmt.Fprintf(&view, "%s %s %s", nameStyle.Render("File Path"), m.input.View(), buttonStyle.Render("OK"))

	if m.viewMin > 0 {
		view.WriteString("\n   ↑")
	}

	for i, s := range m.suggestions {
		if i < m.viewMin || i > m.viewMax {
			continue
		}

		text := s.Text
		if s.IsDir {
			text = dirStyle.Render(text)
		}

		if i == m.cursor {
			view.WriteString("\n→ " + lipgloss.NewStyle().Underline(true).Render(text))
		} else {
			view.WriteString("\n  " + text)
		}
	}

	if m.viewMax < len(m.suggestions)-1 {
		view.WriteString("\n   ↓")
	}

	var help []string
	for _, b := range keys.help() {
		help = append(help, fmt.Sprintf("%s %s", b.Help().Key, b.Help().Desc))
	}
	view.WriteString("\n" + helpStyle.Render(strings.Join(help, " • ")))

	return boxStyle.Render(view.String())
}

// Standalone runs a single popup as a whole program, quitting once the
// popup closes.
type Standalone struct {
	popup  Popup
	result ClosedMsg
}

func NewStandalone(p Popup) Standalone {
	return Standalone{popup: p}
}

// Result is the close message of the popup, valid after the program
// has quit.
func (s Standalone) Result() ClosedMsg {
	return s.result
}

func (s Standalone) Init() tea.Cmd {
	return s.popup.Init()
}

func (s Standalone) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if c, ok := msg.(ClosedMsg); ok && c.PopupID == s.popup.id {
		s.result = c
		return s, tea.Quit
	}

	m, cmd := s.popup.Update(msg)
	s.popup = m.(Popup)
	return s, cmd
}

func (s Standalone) View() string {
	return s.popup.View()
}
