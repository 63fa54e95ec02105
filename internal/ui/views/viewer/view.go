package viewer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docshelf/internal/modules/shelf/dto"
	"docshelf/internal/ui/components"
	"docshelf/internal/ui/theme"
)

const (
	textTimeout  = 10 * time.Second
	transitionID = 2
)

// Document is the slice of a handle the viewer reads from.
type Document interface {
	PageCount() int
	PageText(ctx context.Context, page int) (string, error)
}

// Config mirrors the viewer configuration of the detail region.
type Config struct {
	ShowChrome bool
}

// PageTextMsg delivers the text of one page. It is dropped unless it
// matches the bound document and current page.
type PageTextMsg struct {
	Identity string
	Handle   Document
	Page     int
	Text     string
	Err      error
}

// Model is the full-screen document viewer. It is bound to one document at
// a time; which document is decided by the shelf selection, not here.
type Model struct {
	cfg      Config
	identity string
	title    string
	doc      Document
	page     int
	pages    int
	loading  bool
	err      error
	viewport viewport.Model
	slide    components.Transition
	width    int
	height   int
}

func New(cfg Config) Model {
	return Model{
		cfg:      cfg,
		viewport: viewport.New(0, 0),
		slide:    components.NewTransition(transitionID),
	}
}

// Bind points the viewer at doc. Rebinding the same document and handle is
// a no-op so page position survives unrelated snapshots.
func (m *Model) Bind(doc dto.DocumentOutput) tea.Cmd {
	if doc.Identity == m.identity && doc.Handle != nil && Document(doc.Handle) == m.doc {
		m.title = titleOf(doc)
		return nil
	}
	m.identity = doc.Identity
	m.title = titleOf(doc)
	m.doc = doc.Handle
	m.pages = doc.PageCount
	m.page = 0
	m.err = nil
	m.viewport.SetContent("")
	return tea.Batch(m.slide.Start(), m.fetch())
}

// Enter replays the slide-in for the bound document.
func (m *Model) Enter() tea.Cmd {
	return m.slide.Start()
}

// Leave slides the viewer out. The document stays bound until the caller
// unbinds it.
func (m *Model) Leave() tea.Cmd {
	return m.slide.Leave()
}

func (m Model) Leaving() bool { return m.slide.Leaving() }

// Unbind forgets the current document.
func (m *Model) Unbind() {
	m.identity = ""
	m.title = ""
	m.doc = nil
	m.pages = 0
	m.page = 0
	m.loading = false
	m.err = nil
	m.viewport.SetContent("")
}

func (m Model) Identity() string { return m.identity }
func (m Model) Page() int        { return m.page }
func (m Model) ShowChrome() bool { return m.cfg.ShowChrome }

func (m *Model) ToggleChrome() {
	m.cfg.ShowChrome = !m.cfg.ShowChrome
	m.resize()
}

func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.resize()
}

// GoTo moves to page (zero-based) and fetches its text.
func (m *Model) GoTo(page int) tea.Cmd {
	if m.doc == nil || page < 0 || page >= m.pages || page == m.page {
		return nil
	}
	m.page = page
	return m.fetch()
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case PageTextMsg:
		if msg.Identity != m.identity || msg.Handle != m.doc || msg.Page != m.page {
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		m.setText(msg.Text)
		return m, nil

	case components.TransitionTickMsg:
		var cmd tea.Cmd
		m.slide, cmd = m.slide.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "left", "h", "pgup":
			cmd := m.GoTo(m.page - 1)
			return m, cmd
		case "right", "l", "pgdown":
			cmd := m.GoTo(m.page + 1)
			return m, cmd
		case "u":
			m.ToggleChrome()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.doc == nil {
		return ""
	}
	body := m.viewport.View()
	switch {
	case m.loading:
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("Reading page…"))
	case m.err != nil:
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
			theme.Error.Render("Page unavailable: "+m.err.Error()))
	}

	view := body
	if m.cfg.ShowChrome {
		view = lipgloss.JoinVertical(lipgloss.Left, m.header(), body, m.footer())
	}
	if offset := m.SlideOffset(); offset > 0 {
		style := lipgloss.NewStyle().PaddingLeft(offset)
		if m.width > 0 {
			style = style.MaxWidth(m.width)
		}
		view = style.Render(view)
	}
	return view
}

func (m Model) header() string {
	pos := theme.Muted.Render(fmt.Sprintf("  page %d/%d", m.page+1, max(m.pages, 1)))
	return lipgloss.NewStyle().Width(m.width).Render(theme.Title.Render(m.title) + pos)
}

func (m Model) footer() string {
	return theme.Faint.Render("←/→ page  ↑/↓ scroll  u chrome  esc close")
}

// SlideOffset shifts the region in from the right while it enters and back
// out to the right while it leaves.
func (m Model) SlideOffset() int {
	return int((1 - m.slide.Progress()) * float64(m.width) / 2)
}

func (m *Model) resize() {
	h := m.height
	if m.cfg.ShowChrome {
		h -= 2
	}
	m.viewport.Width = m.width
	m.viewport.Height = max(h, 1)
}

func (m *Model) setText(text string) {
	if text == "" {
		text = theme.Faint.Render("(no text on this page)")
	}
	if m.width > 0 {
		text = lipgloss.NewStyle().Width(m.width).Render(text)
	}
	m.viewport.SetContent(text)
	m.viewport.GotoTop()
}

func (m *Model) fetch() tea.Cmd {
	if m.doc == nil {
		return nil
	}
	m.loading = true
	id, doc, page := m.identity, m.doc, m.page
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), textTimeout)
		defer cancel()
		text, err := doc.PageText(ctx, page)
		return PageTextMsg{Identity: id, Handle: doc, Page: page, Text: text, Err: err}
	}
}

func titleOf(doc dto.DocumentOutput) string {
	if doc.HasTitle {
		return doc.Title
	}
	return "Untitled Document"
}
