package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"granthx/internal/api"
	"granthx/internal/indexing"
)

type indexField int

const (
	fieldFile indexField = iota
	fieldURL
	fieldText
	fieldCount
)

// indexingView is the Content Indexing tab. It owns the input widgets and
// mirrors their values into the panel, which owns the actual state.
type indexingView struct {
	panel   *indexing.Panel
	timeout time.Duration

	file  textinput.Model
	url   textinput.Model
	text  textarea.Model
	focus indexField
}

func newIndexingView(panel *indexing.Panel, timeout time.Duration, width int) indexingView {
	fi := textinput.New()
	fi.Placeholder = "type or drop a path, then Enter"
	fi.CharLimit = 4096

	ui := textinput.New()
	ui.Placeholder = "https://example.com/article"
	ui.CharLimit = 2048

	ta := textarea.New()
	ta.Placeholder = "...or paste some text"
	ta.ShowLineNumbers = false
	ta.SetHeight(4)

	v := indexingView{
		panel:   panel,
		timeout: timeout,
		file:    fi,
		url:     ui,
		text:    ta,
	}
	v.resize(width)
	v.setFocus(fieldFile)
	return v
}

func (v *indexingView) resize(width int) {
	w := width - 8
	if w < 20 {
		w = 20
	}
	v.file.Width = w
	v.url.Width = w
	v.text.SetWidth(w)
}

// setFocus moves focus between fields. The file field doubles as the drop
// zone, so focusing it is the terminal's drag-over.
func (v *indexingView) setFocus(f indexField) {
	v.file.Blur()
	v.url.Blur()
	v.text.Blur()
	v.panel.DragLeave()

	v.focus = f
	switch f {
	case fieldFile:
		v.file.Focus()
		v.panel.DragOver()
	case fieldURL:
		v.url.Focus()
	case fieldText:
		v.text.Focus()
	}
}

func (v indexingView) update(msg tea.KeyMsg) (indexingView, tea.Cmd) {
	switch msg.String() {
	case "tab":
		v.setFocus((v.focus + 1) % fieldCount)
		return v, nil
	case "shift+tab":
		v.setFocus((v.focus + fieldCount - 1) % fieldCount)
		return v, nil
	case "ctrl+u":
		return v, v.submitFile()
	case "ctrl+s":
		v.syncFields()
		return v, v.submitURLOrText()
	case "enter":
		switch v.focus {
		case fieldFile:
			path := strings.TrimSpace(v.file.Value())
			if path == "" {
				return v, nil
			}
			if err := v.panel.SelectFile(path); err == nil {
				v.file.Reset()
			}
			return v, nil
		case fieldURL:
			v.syncFields()
			return v, v.submitURLOrText()
		}
	}

	if v.focus == fieldFile && msg.Paste {
		// terminals deliver dropped files as a bracketed paste
		if err := v.panel.Drop(string(msg.Runes)); err == nil {
			v.file.Reset()
		}
		v.panel.DragOver()
		return v, nil
	}

	var cmd tea.Cmd
	switch v.focus {
	case fieldFile:
		v.file, cmd = v.file.Update(msg)
	case fieldURL:
		v.url, cmd = v.url.Update(msg)
	case fieldText:
		v.text, cmd = v.text.Update(msg)
	}
	v.syncFields()
	return v, cmd
}

func (v indexingView) syncFields() {
	v.panel.SetURL(v.url.Value())
	v.panel.SetText(v.text.Value())
}

// done applies a finished submission: on success the panel cleared its
// fields and the widgets follow.
func (v indexingView) done(msg indexDoneMsg) indexingView {
	if msg.err != nil {
		return v
	}
	link, text := v.panel.Fields()
	v.url.SetValue(link)
	v.text.SetValue(text)
	return v
}

func (v indexingView) submitFile() tea.Cmd {
	p, timeout := v.panel, v.timeout
	return func() tea.Msg {
		ctx, cancel := api.RequestContext(context.Background(), timeout)
		defer cancel()
		return indexDoneMsg{panel: p, err: p.SubmitFile(ctx)}
	}
}

func (v indexingView) submitURLOrText() tea.Cmd {
	p, timeout := v.panel, v.timeout
	return func() tea.Msg {
		ctx, cancel := api.RequestContext(context.Background(), timeout)
		defer cancel()
		return indexDoneMsg{panel: p, err: p.SubmitURLOrText(ctx)}
	}
}

func (v indexingView) view() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Content Indexing") + "\n")
	b.WriteString(dimStyle.Render("Upload documents or add links and text for the assistant to answer from.") + "\n\n")

	zone := dropZoneStyle
	if v.panel.DropActive() {
		zone = dropZoneActiveStyle
	}
	b.WriteString(v.label(fieldFile, "Document (.pdf, .csv)") + "\n")
	b.WriteString(zone.Render(v.panel.FileLabel()+"\n\n"+v.file.View()) + "\n")
	b.WriteString(helpStyle.Render("  Enter: select  ctrl+u: upload") + "\n\n")

	b.WriteString(v.label(fieldURL, "Website URL") + "\n")
	b.WriteString(v.url.View() + "\n\n")
	b.WriteString(v.label(fieldText, "Text") + "\n")
	b.WriteString(v.text.View() + "\n")
	b.WriteString(helpStyle.Render("  ctrl+s: add content (URL wins when both are filled)") + "\n\n")

	if v.panel.Busy() {
		b.WriteString(dimStyle.Render("Indexing...") + "\n\n")
	}

	b.WriteString(headingStyle.Render("Indexed sources") + "\n")
	sources := v.panel.Sources()
	if len(sources) == 0 {
		b.WriteString(dimStyle.Render("Nothing indexed yet") + "\n")
	}
	for _, s := range sources {
		badge := s.Kind.Badge()
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			badgeStyles[badge].Render(fmt.Sprintf("%-3s", badge)),
			s.Label,
			dimStyle.Render(s.IndexedAt.Format("15:04:05")),
		))
	}
	return b.String()
}

func (v indexingView) label(f indexField, text string) string {
	if v.focus == f {
		return focusedLabelStyle.Render("> " + text)
	}
	return fieldLabelStyle.Render("  " + text)
}
