package tui

import "granthx/internal/indexing"

// indexDoneMsg reports a finished submission of the given panel. Results for
// a panel that has since been replaced by a tab switch are dropped.
type indexDoneMsg struct {
	panel *indexing.Panel
	err   error
}

// chatDoneMsg reports that the in-flight chat request finished.
type chatDoneMsg struct{}

// toastTickMsg fires when the earliest toast starts fading or expires.
type toastTickMsg struct{}

// copyResetMsg redraws the integration tab once a copied flag has dropped.
type copyResetMsg struct{}
