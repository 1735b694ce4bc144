package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind selects how a toast is styled.
type Kind int

const (
	Success Kind = iota
	Warning
	Error
)

func (k Kind) String() string {
	switch k {
	case Warning:
		return "warn"
	case Error:
		return "err"
	default:
		return "ok"
	}
}

const (
	// Visible is how long a toast is shown before it starts fading.
	Visible = 3 * time.Second
	// Fade is the fade-out window after Visible.
	Fade = 300 * time.Millisecond
)

// Toast is one queued notification.
type Toast struct {
	ID        string
	Message   string
	Kind      Kind
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Fading reports whether the toast is inside its fade-out window.
func (t Toast) Fading(now time.Time) bool {
	return !now.Before(t.ExpiresAt.Add(-Fade)) && now.Before(t.ExpiresAt)
}

// Notifier is what panels use to surface user-visible messages.
type Notifier interface {
	Success(msg string)
	Warn(msg string)
	Error(msg string)
}

// Queue is an ordered list of toasts. Expired entries are dropped by Prune;
// NextExpiry tells the renderer when to schedule that removal.
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
	now    func() time.Time
}

func NewQueue() *Queue {
	return &Queue{now: time.Now}
}

// NewQueueWithClock is NewQueue with an injectable clock.
func NewQueueWithClock(now func() time.Time) *Queue {
	return &Queue{now: now}
}

// Push appends a toast and returns it. Toasts stack; nothing is deduplicated.
func (q *Queue) Push(kind Kind, message string) Toast {
	now := q.now()
	t := Toast{
		ID:        uuid.NewString(),
		Message:   message,
		Kind:      kind,
		CreatedAt: now,
		ExpiresAt: now.Add(Visible + Fade),
	}

	q.mu.Lock()
	q.toasts = append(q.toasts, t)
	q.mu.Unlock()
	return t
}

func (q *Queue) Success(msg string) { q.Push(Success, msg) }
func (q *Queue) Warn(msg string)    { q.Push(Warning, msg) }
func (q *Queue) Error(msg string)   { q.Push(Error, msg) }

// Active returns toasts not yet expired at now, oldest first.
func (q *Queue) Active(now time.Time) []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []Toast
	for _, t := range q.toasts {
		if now.Before(t.ExpiresAt) {
			out = append(out, t)
		}
	}
	return out
}

// Prune removes every toast expired at now and returns how many were removed.
func (q *Queue) Prune(now time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.toasts[:0]
	for _, t := range q.toasts {
		if now.Before(t.ExpiresAt) {
			kept = append(kept, t)
		}
	}
	removed := len(q.toasts) - len(kept)
	// clear the tail so dropped toasts are not retained by the backing array
	for i := len(kept); i < len(q.toasts); i++ {
		q.toasts[i] = Toast{}
	}
	q.toasts = kept
	return removed
}

// NextExpiry returns the earliest expiry among queued toasts.
func (q *Queue) NextExpiry() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.toasts) == 0 {
		return time.Time{}, false
	}
	next := q.toasts[0].ExpiresAt
	for _, t := range q.toasts[1:] {
		if t.ExpiresAt.Before(next) {
			next = t.ExpiresAt
		}
	}
	return next, true
}

// Len returns the number of queued toasts, expired or not.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}
