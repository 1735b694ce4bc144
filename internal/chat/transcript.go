package chat

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
)

// Role identifies who wrote a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single transcript entry. Messages are never edited.
type Message struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"timestamp"`
}

// Transcript is the append-only conversation shown in the chat panel.
// It lives only as long as the panel; nothing is persisted.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message
	version  uint64

	// full-text index over messages; nil if the in-memory index could not be
	// created or a message failed to index, in which case Search falls back
	// to substring matching until the next Clear
	index bleve.Index
}

func NewTranscript() *Transcript {
	return &Transcript{index: newMemIndex()}
}

func newMemIndex() bleve.Index {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil
	}
	return idx
}

// Append adds m at the end of the transcript.
func (t *Transcript) Append(m Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = append(t.messages, m)
	t.version++
	if t.index != nil {
		id := strconv.Itoa(len(t.messages) - 1)
		err := t.index.Index(id, map[string]interface{}{
			"role": string(m.Role),
			"text": m.Text,
		})
		if err != nil {
			// an incomplete index would hide this message from Search
			_ = t.index.Close()
			t.index = nil
		}
	}
}

// Clear empties the transcript.
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = nil
	t.version++
	if t.index != nil {
		// the old index is dropped either way
		_ = t.index.Close()
	}
	t.index = newMemIndex()
}

// Messages returns a copy of the transcript in send order.
func (t *Transcript) Messages() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]Message, len(t.messages))
	copy(result, t.messages)
	return result
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Version changes on every mutation so renderers know when to scroll.
func (t *Transcript) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}

// Search returns the messages matching query, in transcript order.
// An empty query returns everything.
func (t *Transcript) Search(query string) []Message {
	query = strings.TrimSpace(query)
	if query == "" {
		return t.Messages()
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.index == nil || len(t.messages) == 0 {
		return t.substringSearch(query)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), len(t.messages), 0, false)
	res, err := t.index.Search(req)
	if err != nil {
		return t.substringSearch(query)
	}

	positions := make([]int, 0, len(res.Hits))
	for _, hit := range res.Hits {
		pos, err := strconv.Atoi(hit.ID)
		if err != nil || pos >= len(t.messages) {
			continue
		}
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	result := make([]Message, 0, len(positions))
	for _, pos := range positions {
		result = append(result, t.messages[pos])
	}
	return result
}

// substringSearch must be called with t.mu held.
func (t *Transcript) substringSearch(query string) []Message {
	q := strings.ToLower(query)
	var result []Message
	for _, m := range t.messages {
		if strings.Contains(strings.ToLower(m.Text), q) {
			result = append(result, m)
		}
	}
	return result
}
