package session

import (
	"context"
	"sync"
)

// Manager hands out one Controller per session key, hydrating it from
// the store on first access.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Controller
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:     deps,
		sessions: make(map[string]*Controller),
	}
}

// Get returns the controller for the key, creating it if needed.
func (m *Manager) Get(ctx context.Context, key string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.sessions[key]; ok {
		return c
	}
	c := New(ctx, key, m.deps)
	m.sessions[key] = c
	return c
}

// Drop forgets the in-memory controller for the key. The next Get
// re-hydrates from the store, which is how a host simulates a reload.
func (m *Manager) Drop(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
}
