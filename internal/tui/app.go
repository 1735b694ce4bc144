package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"granthx/internal/auth"
	"granthx/internal/chat"
	"granthx/internal/indexing"
	"granthx/internal/integration"
	"granthx/internal/toast"
)

// Backend is the API surface the dashboard needs.
type Backend interface {
	indexing.Backend
	chat.Backend
}

// Deps wires the dashboard to its collaborators.
type Deps struct {
	Identity    *auth.Identity
	Backend     Backend
	Integration []integration.Option
	Timeout     time.Duration // per request; zero means none
	Log         *zap.Logger
}

// Model is the root bubbletea model: the signed-in shell with its tab
// router, or the sign-in view.
type Model struct {
	identity    *auth.Identity
	backend     Backend
	integration []integration.Option
	timeout     time.Duration
	log         *zap.Logger
	now         func() time.Time

	toasts *toast.Queue
	tickAt time.Time // pending toast tick, zero when none

	width  int
	height int

	tab      Tab
	indexing indexingView
	integ    integrationView
	chat     chatView
	signIn   signInView
}

func New(d Deps) Model {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	m := Model{
		identity:    d.Identity,
		backend:     d.Backend,
		integration: d.Integration,
		timeout:     d.Timeout,
		log:         log,
		now:         time.Now,
		toasts:      toast.NewQueue(),
		width:       100,
		height:      30,
		signIn:      newSignInView(d.Identity),
	}
	m.startSession()
	return m
}

// startSession builds the per-session views. The chat panel lives as long
// as the session; tab panels are rebuilt on every switch.
func (m *Model) startSession() {
	m.chat = newChatView(chat.NewPanel(m.backend, m.log.Named("chat")), m.timeout, m.width, m.height)
	m.tab = TabIndexing
	m.mountTab()
}

// mountTab recreates the active tab's state.
func (m *Model) mountTab() {
	switch m.tab {
	case TabIndexing:
		panel := indexing.NewPanel(m.backend, m.toasts, m.log.Named("indexing"))
		m.indexing = newIndexingView(panel, m.timeout, m.contentWidth())
	case TabIntegration:
		opts := append([]integration.Option{integration.WithLogger(m.log.Named("integration"))}, m.integration...)
		m.integ = newIntegrationView(integration.NewHelper(opts...), m.toasts)
	}
}

func (m Model) signedIn() bool {
	return m.identity.SignedIn(m.now())
}

// ActiveTab returns the tab currently shown.
func (m Model) ActiveTab() Tab {
	return m.tab
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.chat.resize(m.width, m.height)
		if m.tab == TabIndexing {
			m.indexing.resize(m.contentWidth())
		}

	case toastTickMsg:
		m.tickAt = time.Time{}
		m.toasts.Prune(m.now())

	case indexDoneMsg:
		if m.tab == TabIndexing && msg.panel == m.indexing.panel {
			m.indexing = m.indexing.done(msg)
		}

	case chatDoneMsg:
		m.chat.refresh()

	case spinner.TickMsg:
		m.chat, cmd = m.chat.tick(msg)

	case copyResetMsg:
		// redraw only

	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)
	}

	tick := m.scheduleToastTick()
	return m, tea.Batch(cmd, tick)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if !m.signedIn() {
		var ok bool
		var cmd tea.Cmd
		m.signIn, ok, cmd = m.signIn.update(msg)
		if ok {
			m.startSession()
		}
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+x":
		m.identity.SignOut()
		return m, nil
	case "ctrl+t":
		m.chat.panel.Toggle()
		m.chat.refresh()
		if m.tab == TabIndexing {
			m.indexing.resize(m.contentWidth())
		}
		return m, nil
	}
	if t, ok := tabForKey(msg.String()); ok {
		m.switchTab(t)
		return m, nil
	}

	var cmd tea.Cmd
	if m.chat.panel.IsOpen() {
		m.chat, cmd = m.chat.update(msg)
		return m, cmd
	}

	switch m.tab {
	case TabIndexing:
		m.indexing, cmd = m.indexing.update(msg)
	case TabIntegration:
		m.integ, cmd = m.integ.update(msg)
	}
	return m, cmd
}

// switchTab always remounts, even when t is already active.
func (m *Model) switchTab(t Tab) {
	m.tab = t
	m.mountTab()
}

func (m *Model) scheduleToastTick() tea.Cmd {
	now := m.now()
	next, ok := nextToastChange(m.toasts, now)
	if !ok {
		return nil
	}
	if !m.tickAt.IsZero() && !next.Before(m.tickAt) {
		return nil
	}
	m.tickAt = next
	return toastTick(next, now)
}

func (m Model) contentWidth() int {
	if m.chat.panel != nil && m.chat.panel.IsOpen() {
		return m.width - m.chat.width - 6
	}
	return m.width
}

func (m Model) View() string {
	if !m.signedIn() {
		return m.signIn.view()
	}

	top := m.topBar()
	tabs := renderTabs(m.tab)

	var content string
	switch m.tab {
	case TabIndexing:
		content = m.indexing.view()
	case TabAnalytics:
		content = analyticsView()
	case TabIntegration:
		content = m.integ.view()
	}
	content = lipgloss.NewStyle().Padding(1, 2).Render(content)

	if m.chat.panel.IsOpen() {
		content = lipgloss.JoinHorizontal(lipgloss.Top, content, m.chat.view())
	}

	footer := helpStyle.Render("F1-F3: tabs  ctrl+t: chat  ctrl+x: sign out  ctrl+c: quit")
	if !m.chat.panel.IsOpen() {
		footer += "  " + launcherStyle.Render("Ask GranthX (ctrl+t)")
	}

	toasts := renderToasts(m.toasts, m.now())
	if toasts != "" {
		toasts = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, toasts)
	}
	return joinNonEmpty(top, tabs, content, toasts, footer)
}

func (m Model) topBar() string {
	user := ""
	if s, err := m.identity.Session(); err == nil {
		user = s.DisplayName()
	}
	left := brandStyle.Render("GranthX Dashboard")
	right := dimStyle.Render(user)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return topBarStyle.Render(left + lipgloss.NewStyle().Width(gap).Render("") + right)
}

// Run starts the dashboard on the alternate screen with bracketed paste,
// which is how dropped files arrive.
func Run(d Deps) error {
	p := tea.NewProgram(New(d), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
