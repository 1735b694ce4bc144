package chat

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// NoResponse is shown when the backend answered without a response field.
	NoResponse = "No response"
	// ErrorReply replaces the assistant's answer when the request failed.
	ErrorReply = "Sorry, I encountered an error while processing your question."
)

// Backend is the subset of the API client the chat panel needs.
type Backend interface {
	Chat(ctx context.Context, query string) (string, error)
}

// State of the single in-flight exchange.
type State int32

const (
	Idle State = iota
	Sending
)

// Panel is the assistant chat popup. At most one request is in flight;
// the Idle→Sending transition is a compare-and-swap, so concurrent sends
// cannot both pass the guard.
type Panel struct {
	backend    Backend
	log        *zap.Logger
	now        func() time.Time
	transcript *Transcript

	state atomic.Int32
	open  atomic.Bool
}

func NewPanel(backend Backend, log *zap.Logger) *Panel {
	if log == nil {
		log = zap.NewNop()
	}
	return &Panel{
		backend:    backend,
		log:        log,
		now:        time.Now,
		transcript: NewTranscript(),
	}
}

// ========== Visibility ==========

func (p *Panel) Open()        { p.open.Store(true) }
func (p *Panel) Close()       { p.open.Store(false) }
func (p *Panel) IsOpen() bool { return p.open.Load() }

// Toggle flips visibility and returns the new state.
func (p *Panel) Toggle() bool {
	for {
		cur := p.open.Load()
		if p.open.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}

// ========== Exchange ==========

func (p *Panel) State() State {
	return State(p.state.Load())
}

// Loading reports whether a request is in flight.
func (p *Panel) Loading() bool {
	return p.State() == Sending
}

// Begin admits a query: it is ignored when blank or while another request
// is in flight. On admission the trimmed query is appended as a user message
// immediately and returned; the caller must follow with Complete.
func (p *Panel) Begin(query string) (string, bool) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", false
	}
	if !p.state.CompareAndSwap(int32(Idle), int32(Sending)) {
		return "", false
	}
	p.transcript.Append(Message{Role: RoleUser, Text: q, At: p.now()})
	return q, true
}

// Complete performs the request for an admitted query and appends the
// assistant's reply. Failures are absorbed into ErrorReply.
func (p *Panel) Complete(ctx context.Context, q string) {
	defer p.state.Store(int32(Idle))

	reply, err := p.backend.Chat(ctx, q)
	switch {
	case err != nil:
		p.log.Error("chat request failed", zap.Error(err))
		reply = ErrorReply
	case reply == "":
		reply = NoResponse
	}
	p.transcript.Append(Message{Role: RoleAssistant, Text: reply, At: p.now()})
}

// Send is Begin followed by Complete. It reports whether the query was admitted.
func (p *Panel) Send(ctx context.Context, query string) bool {
	q, ok := p.Begin(query)
	if !ok {
		return false
	}
	p.Complete(ctx, q)
	return true
}

// Clear empties the transcript. An in-flight request is not cancelled; its
// reply lands in the cleared transcript.
func (p *Panel) Clear() {
	p.transcript.Clear()
}

func (p *Panel) Messages() []Message {
	return p.transcript.Messages()
}

func (p *Panel) Version() uint64 {
	return p.transcript.Version()
}

// Search filters the transcript by full-text query.
func (p *Panel) Search(query string) []Message {
	return p.transcript.Search(query)
}
