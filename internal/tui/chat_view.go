package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"granthx/internal/api"
	"granthx/internal/chat"
)

const thinkingText = "GranthX is thinking..."

// chatView is the assistant overlay. It is created once per session and
// stays mounted across tab switches, so an in-flight request always lands.
type chatView struct {
	panel   *chat.Panel
	timeout time.Duration

	input     textinput.Model
	search    textinput.Model
	searching bool
	viewport  viewport.Model
	spinner   spinner.Model
	renderer  *glamour.TermRenderer

	rendered uint64 // transcript version currently in the viewport
	query    string // search query currently in the viewport
	width    int
	height   int
}

func newChatView(panel *chat.Panel, timeout time.Duration, width, height int) chatView {
	in := textinput.New()
	in.Placeholder = "Ask about your indexed content..."
	in.CharLimit = 2000
	in.Focus()

	se := textinput.New()
	se.Placeholder = "search transcript"
	se.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	v := chatView{
		panel:   panel,
		timeout: timeout,
		input:   in,
		search:  se,
		spinner: sp,
	}
	v.resize(width, height)
	return v
}

func (v *chatView) resize(width, height int) {
	w := width/2 - 4
	if w < 30 {
		w = 30
	}
	h := height - 10
	if h < 5 {
		h = 5
	}
	if v.width == w && v.height == h {
		return
	}
	v.width, v.height = w, h
	v.viewport = viewport.New(w, h)
	v.input.Width = w - 4
	v.search.Width = w - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(w-2),
	)
	if err != nil {
		r = nil
	}
	v.renderer = r
	v.rendered = ^uint64(0)
	v.refresh()
}

func (v chatView) update(msg tea.KeyMsg) (chatView, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if v.searching {
			v.searching = false
			v.search.Reset()
			v.search.Blur()
			v.input.Focus()
			v.refresh()
			return v, nil
		}
		v.panel.Close()
		return v, nil
	case "ctrl+l":
		v.panel.Clear()
		v.refresh()
		return v, nil
	case "ctrl+f":
		v.searching = !v.searching
		if v.searching {
			v.input.Blur()
			v.search.Focus()
		} else {
			v.search.Blur()
			v.input.Focus()
		}
		v.refresh()
		return v, nil
	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	case "enter":
		if v.searching {
			return v, nil
		}
		q, ok := v.panel.Begin(v.input.Value())
		if !ok {
			return v, nil
		}
		v.input.Reset()
		v.refresh()
		return v, tea.Batch(v.complete(q), v.spinner.Tick)
	}

	var cmd tea.Cmd
	if v.searching {
		v.search, cmd = v.search.Update(msg)
		v.refresh()
		return v, cmd
	}
	// input is disabled while a reply is pending
	if v.panel.Loading() {
		return v, nil
	}
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v chatView) complete(q string) tea.Cmd {
	p, timeout := v.panel, v.timeout
	return func() tea.Msg {
		ctx, cancel := api.RequestContext(context.Background(), timeout)
		defer cancel()
		p.Complete(ctx, q)
		return chatDoneMsg{}
	}
}

func (v chatView) tick(msg spinner.TickMsg) (chatView, tea.Cmd) {
	if !v.panel.Loading() {
		return v, nil
	}
	var cmd tea.Cmd
	v.spinner, cmd = v.spinner.Update(msg)
	return v, cmd
}

// refresh re-renders the transcript when it or the search query changed and
// scrolls to the newest message.
func (v *chatView) refresh() {
	query := ""
	if v.searching {
		query = strings.TrimSpace(v.search.Value())
	}
	version := v.panel.Version()
	if version == v.rendered && query == v.query {
		return
	}
	v.rendered, v.query = version, query

	var msgs []chat.Message
	if query != "" {
		msgs = v.panel.Search(query)
	} else {
		msgs = v.panel.Messages()
	}

	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(v.renderMessage(m))
		b.WriteString("\n")
	}
	if len(msgs) == 0 {
		if query != "" {
			b.WriteString(dimStyle.Render("No matching messages"))
		} else {
			b.WriteString(dimStyle.Render("Hi! Ask me anything about your indexed content."))
		}
	}
	v.viewport.SetContent(b.String())
	v.viewport.GotoBottom()
}

func (v chatView) renderMessage(m chat.Message) string {
	stamp := dimStyle.Render(m.At.Format("15:04"))
	if m.Role == chat.RoleUser {
		return userRoleStyle.Render("You") + " " + stamp + "\n" + m.Text + "\n"
	}
	body := m.Text
	if v.renderer != nil {
		if out, err := v.renderer.Render(m.Text); err == nil {
			body = strings.TrimRight(out, "\n")
		}
	}
	return assistantRoleStyle.Render("GranthX") + " " + stamp + "\n" + body + "\n"
}

func (v chatView) view() string {
	var b strings.Builder
	b.WriteString(brandStyle.Render("GranthX AI Assistant") + "\n")
	b.WriteString(v.viewport.View() + "\n")
	switch {
	case v.panel.Loading():
		b.WriteString(v.spinner.View() + " " + dimStyle.Render(thinkingText) + "\n")
	default:
		b.WriteString("\n")
	}
	if v.searching {
		b.WriteString("/ " + v.search.View() + "\n")
	} else {
		b.WriteString("> " + v.input.View() + "\n")
	}
	b.WriteString(helpStyle.Render("Enter: send  ctrl+f: search  ctrl+l: clear  Esc: close"))
	return chatBoxStyle.Width(v.width + 2).Render(b.String())
}
