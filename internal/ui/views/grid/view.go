package grid

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docshelf/internal/modules/shelf/dto"
	"docshelf/internal/platform/raster"
	"docshelf/internal/ui/components"
	"docshelf/internal/ui/theme"
)

const (
	thumbnailPage = 0
	cardWidth     = 24
	thumbCols     = cardWidth - 2
	thumbRows     = 9
	// Samples per terminal cell handed to the renderer.
	sampleX = 4
	sampleY = 8

	renderTimeout = 10 * time.Second
	transitionID  = 1
)

// UntitledLabel is shown for documents whose metadata carries no title.
const UntitledLabel = "Untitled Document"

// Page is the slice of a document handle a thumbnail needs.
type Page interface {
	PageSize(page int) (float64, float64, error)
	RenderPage(ctx context.Context, page, width, height int) (*image.Gray, error)
}

// ThumbnailMsg carries a rasterized first page back to the UI loop. It is
// dropped when Handle no longer matches the cached handle for Identity.
type ThumbnailMsg struct {
	Identity string
	Handle   Page
	Lines    []string
	Err      error
}

type thumbnail struct {
	handle Page
	lines  []string
	err    error
	ready  bool
}

// Model renders loaded documents as a grid of cards. Cards come from the
// latest snapshot; the model only owns the cursor and the thumbnail cache.
type Model struct {
	docs   []dto.DocumentOutput
	cursor int
	offset int
	thumbs map[string]thumbnail
	fade   components.Transition
	width  int
	height int
}

func New() Model {
	return Model{
		thumbs: map[string]thumbnail{},
		fade:   components.NewTransition(transitionID),
	}
}

// SetDocuments replaces the visible documents. Cache entries whose handle
// changed or disappeared are evicted and the returned command renders the
// missing thumbnails.
func (m *Model) SetDocuments(docs []dto.DocumentOutput) tea.Cmd {
	wasEmpty := len(m.docs) == 0
	m.docs = docs
	live := make(map[string]bool, len(docs))
	for _, doc := range docs {
		live[doc.Identity] = true
		if th, ok := m.thumbs[doc.Identity]; ok && !sameHandle(th.handle, doc.Handle) {
			delete(m.thumbs, doc.Identity)
		}
	}
	for id := range m.thumbs {
		if !live[id] {
			delete(m.thumbs, id)
		}
	}
	if m.cursor >= len(docs) {
		m.cursor = max(len(docs)-1, 0)
	}
	m.clampOffset()

	cmds := []tea.Cmd{m.renderMissing()}
	if wasEmpty && len(docs) > 0 {
		cmds = append(cmds, m.fade.Start())
	}
	return tea.Batch(cmds...)
}

// SetSize changes the card area.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.clampOffset()
}

// Enter restarts the fade-in, used when the grid region becomes visible.
func (m *Model) Enter() tea.Cmd {
	return m.fade.Start()
}

// Leave fades the grid out before another region replaces it.
func (m *Model) Leave() tea.Cmd {
	return m.fade.Leave()
}

func (m Model) Leaving() bool { return m.fade.Leaving() }

// Selected returns the document under the cursor.
func (m Model) Selected() (dto.DocumentOutput, bool) {
	if m.cursor < 0 || m.cursor >= len(m.docs) {
		return dto.DocumentOutput{}, false
	}
	return m.docs[m.cursor], true
}

// Select moves the cursor to the document with the given identity.
func (m *Model) Select(identity string) bool {
	for i, doc := range m.docs {
		if doc.Identity == identity {
			m.cursor = i
			m.clampOffset()
			return true
		}
	}
	return false
}

// Thumbnail reports the cached art for identity.
func (m Model) Thumbnail(identity string) ([]string, bool) {
	th, ok := m.thumbs[identity]
	if !ok || !th.ready {
		return nil, false
	}
	return th.lines, true
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ThumbnailMsg:
		th, ok := m.thumbs[msg.Identity]
		if !ok || !sameHandle(th.handle, msg.Handle) {
			return m, nil
		}
		th.lines, th.err, th.ready = msg.Lines, msg.Err, true
		m.thumbs[msg.Identity] = th
		return m, nil

	case components.TransitionTickMsg:
		var cmd tea.Cmd
		m.fade, cmd = m.fade.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		perRow := m.perRow()
		switch msg.String() {
		case "left", "h":
			m.move(-1)
		case "right", "l":
			m.move(1)
		case "up", "k":
			m.move(-perRow)
		case "down", "j":
			m.move(perRow)
		case "home", "g":
			m.cursor = 0
		case "end", "G":
			m.cursor = max(len(m.docs)-1, 0)
		}
		m.clampOffset()
	}
	return m, nil
}

func (m Model) View() string {
	if len(m.docs) == 0 {
		return ""
	}
	perRow := m.perRow()
	visible := m.visibleRows()
	style := theme.Fade(m.fade.Progress())

	var rows []string
	for r := m.offset; r < m.offset+visible; r++ {
		start := r * perRow
		if start >= len(m.docs) {
			break
		}
		end := min(start+perRow, len(m.docs))
		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cards = append(cards, m.card(i, style))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) card(i int, style lipgloss.Style) string {
	doc := m.docs[i]
	inner := thumbCols

	art := theme.Faint.Render("rendering…")
	if th, ok := m.thumbs[doc.Identity]; ok && th.ready {
		if th.err != nil {
			art = theme.Error.Render("no preview")
		} else {
			art = style.Render(strings.Join(th.lines, "\n"))
		}
	}
	art = lipgloss.Place(inner, thumbRows, lipgloss.Center, lipgloss.Center, art)

	title := doc.Title
	if !doc.HasTitle {
		title = UntitledLabel
	}
	label := theme.Title.Render(truncate(title, inner))
	pages := theme.Muted.Render(pageLabel(doc.PageCount))

	frame := theme.Card
	if i == m.cursor {
		frame = theme.CardActive
		label = theme.Hot.Render(truncate(title, inner))
	}
	body := lipgloss.JoinVertical(lipgloss.Left, art, label, pages)
	return frame.Width(inner).Render(body)
}

func (m Model) perRow() int {
	if m.width < cardWidth {
		return 1
	}
	return m.width / cardWidth
}

// cardHeight is border + thumbnail + title + page count.
func (m Model) cardHeight() int {
	return 2 + thumbRows + 2
}

func (m Model) visibleRows() int {
	if m.height <= 0 {
		return 1
	}
	return max(m.height/m.cardHeight(), 1)
}

func (m *Model) move(delta int) {
	if len(m.docs) == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= len(m.docs) {
		return
	}
	m.cursor = next
}

func (m *Model) clampOffset() {
	row := m.cursor / m.perRow()
	visible := m.visibleRows()
	if row < m.offset {
		m.offset = row
	}
	if row >= m.offset+visible {
		m.offset = row - visible + 1
	}
}

// renderMissing queues a render for every document without a cached
// thumbnail.
func (m *Model) renderMissing() tea.Cmd {
	var cmds []tea.Cmd
	for _, doc := range m.docs {
		if doc.Handle == nil {
			continue
		}
		if _, ok := m.thumbs[doc.Identity]; ok {
			continue
		}
		m.thumbs[doc.Identity] = thumbnail{handle: doc.Handle}
		cmds = append(cmds, renderThumbnail(doc.Identity, doc.Handle))
	}
	return tea.Batch(cmds...)
}

func renderThumbnail(identity string, page Page) tea.Cmd {
	return func() tea.Msg {
		msg := ThumbnailMsg{Identity: identity, Handle: page}
		ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
		defer cancel()

		w, h, err := page.PageSize(thumbnailPage)
		if err != nil {
			msg.Err = err
			return msg
		}
		cols, rows := raster.Fit(w, h, thumbCols, thumbRows)
		img, err := page.RenderPage(ctx, thumbnailPage, cols*sampleX, rows*sampleY)
		if err != nil {
			msg.Err = err
			return msg
		}
		msg.Lines = raster.Shade(img, cols, rows)
		return msg
	}
}

func sameHandle(a, b Page) bool {
	return a == b
}

func pageLabel(n int) string {
	if n == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
