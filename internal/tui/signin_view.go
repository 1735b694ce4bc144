package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"granthx/internal/auth"
)

// signInView is shown while signed out. The hosted sign-in page issues a
// session token which the user pastes here.
type signInView struct {
	identity *auth.Identity
	token    textinput.Model
	err      string
}

func newSignInView(identity *auth.Identity) signInView {
	ti := textinput.New()
	ti.Placeholder = "paste session token"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 8192
	ti.Width = 48
	ti.Focus()
	return signInView{identity: identity, token: ti}
}

// update returns signedIn=true once the identity accepted a token.
func (v signInView) update(msg tea.KeyMsg) (signInView, bool, tea.Cmd) {
	if msg.String() == "enter" {
		_, err := v.identity.SignIn(v.token.Value())
		switch {
		case err == nil:
			v.token.Reset()
			v.err = ""
			return v, true, nil
		case errors.Is(err, auth.ErrTokenExpired):
			v.err = "That session has expired, sign in again."
		default:
			v.err = "That doesn't look like a session token."
		}
		return v, false, nil
	}

	var cmd tea.Cmd
	v.token, cmd = v.token.Update(msg)
	return v, false, cmd
}

func (v signInView) view() string {
	var b strings.Builder
	b.WriteString(brandStyle.Render("GranthX") + "\n\n")
	b.WriteString(headingStyle.Render("Sign in to continue") + "\n")
	b.WriteString("1. Open " + v.identity.SignInURL() + "\n")
	b.WriteString("2. Sign in and copy your session token\n")
	b.WriteString("3. Paste it below and press Enter\n\n")
	b.WriteString(v.token.View() + "\n")
	if v.err != "" {
		b.WriteString(errStyle.Render(v.err) + "\n")
	}
	b.WriteString("\n" + helpStyle.Render("ctrl+c: quit"))
	return b.String()
}
