package integration

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"go.uber.org/zap"
)

// DefaultEndpoint is the hosted chat API shown to integrators.
const DefaultEndpoint = "https://granthx.ai/api/chat"

// ResetAfter is how long a target shows "Copied!".
const ResetAfter = 1500 * time.Millisecond

// Snippet embeds the hosted chat widget on a web page.
const Snippet = `<!-- Load React & ReactDOM from CDN -->
<script src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
<script src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>

<!-- Load GranthX Chatbot -->
<script src="https://granthx.ai/widget/granthx-chat.umd.js"></script>

<!-- Place chat inside a div -->
<div id="granthx-chat"></div>`

// Target is a copyable item on the integration tab.
type Target int

const (
	TargetAPI Target = iota
	TargetSnippet
)

func (t Target) String() string {
	switch t {
	case TargetAPI:
		return "api"
	case TargetSnippet:
		return "snippet"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// Clipboard writes text somewhere the user can paste it from.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard uses the OS clipboard (pbcopy, xclip, wl-copy, ...).
type SystemClipboard struct{}

func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// TerminalClipboard asks the terminal to set the clipboard with an OSC 52
// escape sequence. Works over SSH where no OS clipboard is reachable.
type TerminalClipboard struct {
	Out io.Writer
}

func (c TerminalClipboard) WriteAll(text string) error {
	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	}
	_, err := seq.WriteTo(out)
	return err
}

type Option func(*Helper)

func WithEndpoint(endpoint string) Option {
	return func(h *Helper) {
		if e := strings.TrimSpace(endpoint); e != "" {
			h.endpoint = e
		}
	}
}

func WithClipboards(primary, fallback Clipboard) Option {
	return func(h *Helper) {
		h.primary = primary
		h.fallback = fallback
	}
}

func WithResetAfter(d time.Duration) Option {
	return func(h *Helper) { h.resetAfter = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(h *Helper) { h.log = log }
}

// Helper backs the integration tab: it copies the endpoint or the embed
// snippet and tracks the per-target "Copied!" flag.
type Helper struct {
	endpoint   string
	primary    Clipboard
	fallback   Clipboard
	resetAfter time.Duration
	log        *zap.Logger

	mu     sync.Mutex
	gen    uint64
	copied map[Target]uint64 // generation of the live flag per target
}

func NewHelper(opts ...Option) *Helper {
	h := &Helper{
		endpoint:   DefaultEndpoint,
		primary:    SystemClipboard{},
		fallback:   TerminalClipboard{},
		resetAfter: ResetAfter,
		log:        zap.NewNop(),
		copied:     make(map[Target]uint64),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Helper) Endpoint() string { return h.endpoint }

// ResetAfter is the delay before a copied flag clears.
func (h *Helper) ResetAfter() time.Duration { return h.resetAfter }

// Text returns what Copy(target) puts on the clipboard.
func (h *Helper) Text(target Target) string {
	if target == TargetSnippet {
		return Snippet
	}
	return h.endpoint
}

// Copy writes the target's text to the primary clipboard, falling back to
// the secondary writer on failure. The copied flag is raised either way and
// drops after the reset delay; copying the same target again restarts it.
// The returned error is non-nil only when both writers failed.
func (h *Helper) Copy(target Target) error {
	text := h.Text(target)

	var err error
	if perr := h.primary.WriteAll(text); perr != nil {
		h.log.Debug("primary clipboard failed", zap.Stringer("target", target), zap.Error(perr))
		if ferr := h.fallback.WriteAll(text); ferr != nil {
			err = fmt.Errorf("copy %s: %w", target, errors.Join(perr, ferr))
			h.log.Warn("clipboard unavailable", zap.Error(err))
		}
	}

	h.mu.Lock()
	h.gen++
	gen := h.gen
	h.copied[target] = gen
	h.mu.Unlock()

	time.AfterFunc(h.resetAfter, func() { h.reset(target, gen) })
	return err
}

func (h *Helper) reset(target Target, gen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.copied[target] == gen {
		delete(h.copied, target)
	}
}

// Copied reports whether target should show "Copied!".
func (h *Helper) Copied(target Target) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.copied[target]
	return ok
}
