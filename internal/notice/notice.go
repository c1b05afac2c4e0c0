// Package notice provides transient, ID-keyed user notifications.
package notice

import (
	"sync"
	"time"
)

// Status is the severity of a notice.
type Status string

const (
	StatusInfo    Status = "is-info"
	StatusSuccess Status = "is-success"
	StatusError   Status = "is-error"
)

// Notice is a single transient message. Notices with the same ID replace
// each other.
type Notice struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink receives notices.
type Sink interface {
	Create(n Notice)
	Remove(id string)
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Create(Notice) {}
func (discard) Remove(string) {}

// Board is an in-memory Sink that keeps the current notice for each ID in
// creation order. It is safe for concurrent use.
type Board struct {
	mu      sync.Mutex
	notices []Notice
	subs    []chan<- Notice
}

// NewBoard creates an empty Board.
func NewBoard() *Board {
	return &Board{}
}

// Create posts n, replacing any notice with the same ID.
func (b *Board) Create(n Notice) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	b.mu.Lock()
	b.removeLocked(n.ID)
	b.notices = append(b.notices, n)
	subs := append([]chan<- Notice(nil), b.subs...)
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Remove drops the notice with the given ID, if any.
func (b *Board) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(id)
}

func (b *Board) removeLocked(id string) {
	kept := b.notices[:0]
	for _, n := range b.notices {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	b.notices = kept
}

// List returns the current notices, oldest first.
func (b *Board) List() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notice(nil), b.notices...)
}

// Get returns the current notice with the given ID.
func (b *Board) Get(id string) (Notice, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.notices {
		if n.ID == id {
			return n, true
		}
	}
	return Notice{}, false
}

// Subscribe registers ch to receive every created notice. Sends never
// block; a full channel misses the notice.
func (b *Board) Subscribe(ch chan<- Notice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, ch)
}

// Func adapts a callback into a Sink; removals are ignored.
type Func func(Notice)

// Create calls f.
func (f Func) Create(n Notice) { f(n) }

// Remove does nothing.
func (f Func) Remove(string) {}
