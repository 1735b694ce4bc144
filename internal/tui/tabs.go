package tui

import (
	"fmt"
	"strings"
)

// Tab is a top-level dashboard view.
type Tab int

const (
	TabIndexing Tab = iota
	TabAnalytics
	TabIntegration
)

var tabOrder = []Tab{TabIndexing, TabAnalytics, TabIntegration}

func (t Tab) Title() string {
	switch t {
	case TabAnalytics:
		return "Analytics"
	case TabIntegration:
		return "Integration"
	default:
		return "Content Indexing"
	}
}

// tabForKey maps the function keys to tabs.
func tabForKey(key string) (Tab, bool) {
	switch key {
	case "f1":
		return TabIndexing, true
	case "f2":
		return TabAnalytics, true
	case "f3":
		return TabIntegration, true
	}
	return 0, false
}

func renderTabs(active Tab) string {
	var b strings.Builder
	for i, t := range tabOrder {
		label := fmt.Sprintf("F%d %s", i+1, t.Title())
		if t == active {
			b.WriteString(activeTabStyle.Render(label))
		} else {
			b.WriteString(tabStyle.Render(label))
		}
	}
	return b.String()
}
