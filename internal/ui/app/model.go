package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docshelf/internal/modules/shelf/dto"
	"docshelf/internal/ui/components"
	"docshelf/internal/ui/theme"
	gridview "docshelf/internal/ui/views/grid"
	viewerview "docshelf/internal/ui/views/viewer"
)

// ─── ports ───────────────────────────────────────────────────────────────────

// shelfPort is everything the presentation layer may ask of the shelf.
// Selection and the document set are read from snapshots only.
type shelfPort interface {
	Load(ctx context.Context) (dto.LoadReportOutput, error)
	Open(ctx context.Context, identity string) error
	CloseDocument(ctx context.Context) error
	Snapshot(ctx context.Context) dto.Snapshot
	Subscribe(ctx context.Context) (<-chan dto.Snapshot, func())
}

// Options configures the root model.
type Options struct {
	AppTitle    string
	ShowChrome  bool
	LoadOnStart bool
}

const (
	defaultTitle = "docshelf"
	regionFadeID = 3
)

// ─── async messages ───────────────────────────────────────────────────────────

type snapshotMsg struct {
	snap dto.Snapshot
	ok   bool
}

type loadedMsg struct {
	report dto.LoadReportOutput
	err    error
}

type openedMsg struct{ err error }

type closedMsg struct{ err error }

// ─── key bindings ─────────────────────────────────────────────────────────────

type keyMap struct {
	Open    key.Binding
	Close   key.Binding
	Load    key.Binding
	Move    key.Binding
	Page    key.Binding
	Chrome  key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Close:   key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "close")),
		Load:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "load")),
		Move:    key.NewBinding(key.WithKeys("up", "down", "left", "right"), key.WithHelp("←↑↓→", "move")),
		Page:    key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "page")),
		Chrome:  key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "chrome")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Load, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Move, k.Open, k.Load},
		{k.Page, k.Chrome, k.Close},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It renders whichever region the latest
// snapshot names and forwards user gestures to the shelf port.
type Model struct {
	shelf       shelfPort
	snapshots   <-chan dto.Snapshot
	unsubscribe func()
	opts        Options

	snap   dto.Snapshot
	grid   gridview.Model
	viewer viewerview.Model
	fade   components.Transition
	// leaving is the region still on screen while its exit plays; empty
	// when the snapshot's region is shown.
	leaving dto.Region

	spinner  spinner.Model
	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette
	status   string
	width    int
	height   int
}

// NewModel subscribes to shelf snapshots. Call Close when the program
// exits to release the subscription.
func NewModel(shelf shelfPort, opts Options) Model {
	if opts.AppTitle == "" {
		opts.AppTitle = defaultTitle
	}
	snapshots, unsubscribe := shelf.Subscribe(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		shelf:       shelf,
		snapshots:   snapshots,
		unsubscribe: unsubscribe,
		opts:        opts,
		snap:        shelf.Snapshot(context.Background()),
		grid:        gridview.New(),
		viewer:      viewerview.New(viewerview.Config{ShowChrome: opts.ShowChrome}),
		fade:        components.NewTransition(regionFadeID),
		spinner:     sp,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(components.DefaultCommands),
		status:      "ready",
	}
}

// Close releases the snapshot subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitSnapshot(m.snapshots), m.spinner.Tick, m.fade.Start()}
	if m.opts.LoadOnStart {
		cmds = append(cmds, m.loadCmd())
	}
	return tea.Batch(cmds...)
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The palette intercepts all input while open.
	if m.palette.Visible() {
		if _, isKey := msg.(tea.KeyMsg); isKey {
			var cmd tea.Cmd
			m.palette, cmd = m.palette.Update(msg)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()
		return m, nil

	case snapshotMsg:
		if !msg.ok {
			return m, nil
		}
		cmd := m.applySnapshot(msg.snap)
		return m, tea.Batch(cmd, waitSnapshot(m.snapshots))

	case loadedMsg:
		switch {
		case errors.Is(msg.err, context.Canceled):
			m.status = "load superseded"
		case msg.err != nil:
			m.status = "load failed: " + msg.err.Error()
		case msg.report.Cancelled:
			m.status = "load cancelled"
		default:
			m.status = fmt.Sprintf("loaded %d of %d documents", msg.report.Succeeded, len(msg.report.Results))
		}
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.status = "open: " + msg.err.Error()
		}
		return m, nil

	case closedMsg:
		if msg.err != nil {
			m.status = "close: " + msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case components.TransitionTickMsg:
		var gridCmd, viewerCmd, fadeCmd tea.Cmd
		m.grid, gridCmd = m.grid.Update(msg)
		m.viewer, viewerCmd = m.viewer.Update(msg)
		m.fade, fadeCmd = m.fade.Update(msg)
		enterCmd := m.finishLeaving()
		return m, tea.Batch(gridCmd, viewerCmd, fadeCmd, enterCmd)

	case gridview.ThumbnailMsg:
		var cmd tea.Cmd
		m.grid, cmd = m.grid.Update(msg)
		return m, cmd

	case viewerview.PageTextMsg:
		var cmd tea.Cmd
		m.viewer, cmd = m.viewer.Update(msg)
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		if msg.String() == "?" || msg.String() == "esc" {
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = true
		return m, nil
	case ":":
		cmd := m.palette.Open()
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.snap.Region {
	case dto.RegionDetail:
		switch msg.String() {
		case "esc", "backspace":
			return m, m.closeCmd()
		}
		m.viewer, cmd = m.viewer.Update(msg)

	case dto.RegionGrid:
		switch msg.String() {
		case "enter":
			if doc, ok := m.grid.Selected(); ok {
				return m, m.openCmd(doc.Identity)
			}
			return m, nil
		case "r":
			return m, m.loadCmd()
		}
		m.grid, cmd = m.grid.Update(msg)

	case dto.RegionEmpty:
		switch msg.String() {
		case "enter", "r":
			return m, m.loadCmd()
		}
	}
	return m, cmd
}

// applySnapshot syncs the views with a newly published state.
func (m *Model) applySnapshot(snap dto.Snapshot) tea.Cmd {
	prev := m.snap.Region
	m.snap = snap

	cmds := []tea.Cmd{m.grid.SetDocuments(snap.Documents)}
	detail := snap.Region == dto.RegionDetail
	if doc, ok := snap.SelectedDocument(); ok && detail {
		m.grid.Select(doc.Identity)
		cmds = append(cmds, m.viewer.Bind(doc))
	}
	if snap.Region != prev {
		cmds = append(cmds, m.switchRegion(prev))
	}
	if !detail && m.leaving != dto.RegionDetail {
		m.viewer.Unbind()
	}
	return tea.Batch(cmds...)
}

// switchRegion starts the exit of the region on screen. The snapshot's
// region enters once that exit settles.
func (m *Model) switchRegion(prev dto.Region) tea.Cmd {
	switch {
	case m.leaving != "" && m.leaving == m.snap.Region:
		m.leaving = ""
		return m.enter(m.snap.Region)
	case m.leaving != "":
		return nil
	}
	m.leaving = prev
	return m.leave(prev)
}

// finishLeaving swaps in the snapshot's region after an exit settles.
func (m *Model) finishLeaving() tea.Cmd {
	if m.leaving == "" || m.isLeaving(m.leaving) {
		return nil
	}
	if m.leaving == dto.RegionDetail && m.snap.Region != dto.RegionDetail {
		m.viewer.Unbind()
	}
	m.leaving = ""
	return m.enter(m.snap.Region)
}

func (m *Model) enter(region dto.Region) tea.Cmd {
	switch region {
	case dto.RegionGrid:
		return m.grid.Enter()
	case dto.RegionDetail:
		return m.viewer.Enter()
	default:
		return m.fade.Start()
	}
}

func (m *Model) leave(region dto.Region) tea.Cmd {
	switch region {
	case dto.RegionGrid:
		return m.grid.Leave()
	case dto.RegionDetail:
		return m.viewer.Leave()
	default:
		return m.fade.Leave()
	}
}

func (m Model) isLeaving(region dto.Region) bool {
	switch region {
	case dto.RegionGrid:
		return m.grid.Leaving()
	case dto.RegionDetail:
		return m.viewer.Leaving()
	default:
		return m.fade.Leaving()
	}
}

// shownRegion is the region drawn this frame.
func (m Model) shownRegion() dto.Region {
	if m.leaving != "" {
		return m.leaving
	}
	return m.snap.Region
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	top := m.renderTopBar()
	status := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(top)-lipgloss.Height(status), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).
			Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH,
			lipgloss.Center, lipgloss.Center, m.palette.View())
	default:
		content = m.renderRegion(contentH)
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, content, status)
}

func (m Model) renderRegion(height int) string {
	faded := theme.Fade(m.fade.Progress())
	switch m.shownRegion() {
	case dto.RegionLoading:
		body := lipgloss.JoinVertical(lipgloss.Center,
			faded.Render("Please wait while your documents are being loaded"),
			"",
			m.spinner.View(),
		)
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, body)

	case dto.RegionEmpty:
		button := theme.TopBar.Render("Load Documents")
		body := lipgloss.JoinVertical(lipgloss.Center,
			faded.Render("It looks like there are no documents yet."),
			"",
			button,
			theme.Faint.Render("press enter or r"),
		)
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, body)

	case dto.RegionDetail:
		return lipgloss.NewStyle().Height(height).Render(m.viewer.View())

	default:
		return lipgloss.NewStyle().Height(height).Render(m.grid.View())
	}
}

func (m Model) renderTopBar() string {
	title := m.opts.AppTitle
	if doc, ok := m.snap.SelectedDocument(); ok {
		title = doc.Title
		if !doc.HasTitle {
			title = gridview.UntitledLabel
		}
	}
	return theme.TopBar.Width(max(m.width, lipgloss.Width(title)+2)).Render(title)
}

func (m Model) renderStatusBar() string {
	left := theme.Muted.Render(m.status)
	if failed := len(m.snap.Failures); failed > 0 {
		left = theme.Banner.Render(fmt.Sprintf("%d of %d documents failed to load", failed, m.snap.CatalogSize))
	}
	right := m.help.ShortHelpView(m.keys.ShortHelp())
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

// ─── palette execution ────────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	switch parts[0] {
	case "load":
		return m, m.loadCmd()

	case "open":
		if len(parts) < 2 {
			m.status = "usage: open <number|name>"
			return m, nil
		}
		doc, ok := m.findDocument(strings.Join(parts[1:], " "))
		if !ok {
			m.status = "no loaded document matches " + strconv.Quote(strings.Join(parts[1:], " "))
			return m, nil
		}
		return m, m.openCmd(doc.Identity)

	case "close":
		if m.snap.Selected == "" {
			return m, nil
		}
		return m, m.closeCmd()

	case "chrome":
		m.viewer.ToggleChrome()
		return m, nil

	case "quit":
		return m, tea.Quit

	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// findDocument resolves a 1-based grid position, a title, or the tail of an
// identity to a loaded document.
func (m Model) findDocument(query string) (dto.DocumentOutput, bool) {
	if n, err := strconv.Atoi(query); err == nil {
		if n >= 1 && n <= len(m.snap.Documents) {
			return m.snap.Documents[n-1], true
		}
		return dto.DocumentOutput{}, false
	}
	q := strings.ToLower(query)
	for _, doc := range m.snap.Documents {
		if strings.EqualFold(doc.Title, query) || strings.HasSuffix(strings.ToLower(doc.Identity), "/"+q) {
			return doc, true
		}
	}
	return dto.DocumentOutput{}, false
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) propagateSize() {
	top := lipgloss.Height(m.renderTopBar())
	h := max(m.height-top-1, 1)
	m.grid.SetSize(m.width, h)
	m.viewer.SetSize(m.width, h)
}

// ─── async commands ───────────────────────────────────────────────────────────

func waitSnapshot(ch <-chan dto.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		return snapshotMsg{snap: snap, ok: ok}
	}
}

func (m Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		report, err := m.shelf.Load(context.Background())
		return loadedMsg{report: report, err: err}
	}
}

// openCmd refuses identities the current snapshot has not loaded.
func (m Model) openCmd(identity string) tea.Cmd {
	if _, ok := m.snap.Lookup(identity); !ok {
		return nil
	}
	return func() tea.Msg {
		return openedMsg{err: m.shelf.Open(context.Background(), identity)}
	}
}

func (m Model) closeCmd() tea.Cmd {
	return func() tea.Msg {
		return closedMsg{err: m.shelf.CloseDocument(context.Background())}
	}
}
