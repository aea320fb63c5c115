package productform

import (
	"sync"
	"time"
)

type key struct {
	client string
	mode   Mode
}

// Registry keeps one create form and one edit form per client, so the edit form is
// reused across products and stale loads are discarded.
type Registry struct {
	mu      sync.Mutex
	forms   map[key]*Form
	factory func(clientID string, mode Mode) *Form
}

// NewRegistry takes a factory that builds a client's form on first use.
func NewRegistry(factory func(clientID string, mode Mode) *Form) *Registry {
	return &Registry{forms: make(map[key]*Form), factory: factory}
}

func (r *Registry) get(clientID string, mode Mode) *Form {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key{clientID, mode}
	f, ok := r.forms[k]
	if !ok {
		f = r.factory(clientID, mode)
		r.forms[k] = f
	}
	f.markUsed()
	return f
}

func (r *Registry) Create(clientID string) *Form { return r.get(clientID, Create) }
func (r *Registry) Edit(clientID string) *Form   { return r.get(clientID, Edit) }

// Drop forgets both forms of a client, e.g. on logout.
func (r *Registry) Drop(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.forms, key{clientID, Create})
	delete(r.forms, key{clientID, Edit})
}

// PurgeIdle drops forms not used since before and returns how many were dropped.
func (r *Registry) PurgeIdle(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, f := range r.forms {
		if f.lastUsed().Before(before) {
			delete(r.forms, k)
			n++
		}
	}
	return n
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}
