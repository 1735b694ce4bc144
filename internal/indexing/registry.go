package indexing

import (
	"sync"
	"time"
)

// SourceKind is the type of content that was indexed.
type SourceKind string

const (
	KindFile SourceKind = "file"
	KindLink SourceKind = "link"
	KindText SourceKind = "text"
)

// Badge is the short tag shown next to a source.
func (k SourceKind) Badge() string {
	switch k {
	case KindFile:
		return "DOC"
	case KindLink:
		return "WEB"
	default:
		return "TXT"
	}
}

// Source records one successful indexing call. Sources are never mutated.
type Source struct {
	Kind      SourceKind `json:"type"`
	Label     string     `json:"label"`
	IndexedAt time.Time  `json:"when"`
}

// Registry holds the sources indexed during this session, newest first.
// It is client-local: the backend's own list is never fetched.
type Registry struct {
	mu      sync.RWMutex
	sources []Source
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Prepend adds s as the newest source. Duplicate labels are allowed.
func (r *Registry) Prepend(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources = append([]Source{s}, r.sources...)
}

// List returns a copy of all sources, newest first.
func (r *Registry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Source, len(r.sources))
	copy(result, r.sources)
	return result
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
