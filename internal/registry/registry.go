// Package registry is the single source of truth for which models are
// addressable. Tools resolve identifiers here instead of caching locally.
package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/fluxgate/fluxgate/internal/model"
)

// ErrNotLoaded reports a model identifier with no registry entry.
type ErrNotLoaded struct {
	ModelID string
}

func (e ErrNotLoaded) Error() string {
	return fmt.Sprintf("model %q not loaded, call load_model first", e.ModelID)
}

// Entry pairs an identifier with its loaded model. The embedded mutex
// serializes all work against the model: a scoped mutation (mutate, read,
// revert) must not interleave with any other operation on the same entry.
type Entry struct {
	ID       string
	LoadedAt time.Time

	mu    sync.Mutex
	model *model.Model
}

// Do runs fn with exclusive access to the entry's model. The lock spans the
// whole call, so engine work against one model is strictly sequential while
// other models proceed in parallel.
func (e *Entry) Do(fn func(m *model.Model) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.model)
}

// Info is a registry listing row.
type Info struct {
	model.Summary
	LoadedAt time.Time `json:"loaded_at"`
}

// Registry maps model identifiers to loaded models. Insertion order is
// preserved for stable listings.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

func New() *Registry {
	return &Registry{
		entries: map[string]*Entry{},
	}
}

// Put inserts or replaces the entry for id. A replaced model is simply
// discarded; models hold no external resources of their own.
func (r *Registry) Put(id string, m *model.Model) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		r.order = append(r.order, id)
	}
	r.entries[id] = &Entry{ID: id, LoadedAt: time.Now(), model: m}
}

func (r *Registry) Get(id string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, ErrNotLoaded{ModelID: id}
	}
	return e, nil
}

// List returns a snapshot of current entries in insertion order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		// Summary only reads element counts, which no mutation touches, so
		// listing does not wait for in-flight engine work on the entry.
		sum := e.model.Summary()
		// The listing is keyed by the registry id, not the document's
		// self-declared id.
		sum.ModelID = e.ID
		out = append(out, Info{Summary: sum, LoadedAt: e.LoadedAt})
	}
	return out
}

// Remove deletes the entry if present and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Len reports the number of loaded models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
