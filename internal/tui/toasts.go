package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"granthx/internal/toast"
)

// nextToastChange is when the toast stack next looks different: the
// earliest fade start or expiry among active toasts.
func nextToastChange(q *toast.Queue, now time.Time) (time.Time, bool) {
	var next time.Time
	for _, t := range q.Active(now) {
		at := t.ExpiresAt
		if fadeAt := t.ExpiresAt.Add(-toast.Fade); now.Before(fadeAt) {
			at = fadeAt
		}
		if next.IsZero() || at.Before(next) {
			next = at
		}
	}
	return next, !next.IsZero()
}

func toastTick(at, now time.Time) tea.Cmd {
	d := at.Sub(now)
	if d < 0 {
		d = 0
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return toastTickMsg{} })
}

func renderToasts(q *toast.Queue, now time.Time) string {
	active := q.Active(now)
	if len(active) == 0 {
		return ""
	}
	lines := make([]string, 0, len(active))
	for _, t := range active {
		style := toastStyle.Background(toastKindColors[t.Kind.String()])
		if t.Fading(now) {
			style = style.Faint(true)
		}
		lines = append(lines, style.Render(t.Message))
	}
	return lipgloss.JoinVertical(lipgloss.Right, lines...)
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
