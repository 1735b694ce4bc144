package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"granthx/internal/integration"
	"granthx/internal/toast"
)

type integrationView struct {
	helper *integration.Helper
	notify toast.Notifier
}

func newIntegrationView(helper *integration.Helper, notify toast.Notifier) integrationView {
	return integrationView{helper: helper, notify: notify}
}

func (v integrationView) update(msg tea.KeyMsg) (integrationView, tea.Cmd) {
	var target integration.Target
	switch msg.String() {
	case "a":
		target = integration.TargetAPI
	case "s":
		target = integration.TargetSnippet
	default:
		return v, nil
	}
	if err := v.helper.Copy(target); err != nil {
		v.notify.Warn("Clipboard unavailable, select the text to copy it")
	}
	return v, tea.Tick(v.helper.ResetAfter(), func(time.Time) tea.Msg { return copyResetMsg{} })
}

func (v integrationView) view() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Integration") + "\n")
	b.WriteString(dimStyle.Render("Embed GranthX AI Assistant on your website. Copy the API endpoint or the chatbot UI snippet below.") + "\n\n")

	b.WriteString(fieldLabelStyle.Render("API Endpoint") + "  " + v.copyHint("a", integration.TargetAPI) + "\n")
	b.WriteString(codeBoxStyle.Render(v.helper.Text(integration.TargetAPI)) + "\n\n")

	b.WriteString(fieldLabelStyle.Render("Chatbot UI Snippet") + "  " + v.copyHint("s", integration.TargetSnippet) + "\n")
	b.WriteString(codeBoxStyle.Render(v.helper.Text(integration.TargetSnippet)) + "\n")
	return b.String()
}

func (v integrationView) copyHint(key string, target integration.Target) string {
	if v.helper.Copied(target) {
		return copiedStyle.Render("Copied!")
	}
	return helpStyle.Render("[" + key + "] Copy")
}

func analyticsView() string {
	return headingStyle.Render("Analytics") + "\n" + dimStyle.Render("Analytics Coming Soon")
}
