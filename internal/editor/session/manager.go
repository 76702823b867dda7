package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gofiber/fiber/v3/log"
)

// ============================================================
// Session Manager
// ============================================================

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	defaults Options
}

// NewManager creates sessions from defaults unless a request overrides them.
func NewManager(defaults Options) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		defaults: defaults,
	}
}

func (m *Manager) Defaults() Options { return m.defaults }

func (m *Manager) Create(opts Options) *Session {
	s := New(opts)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	log.Infof("[SESSION] created %s (%gx%g)", s.ID, s.opts.Width, s.opts.Height)
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete unregisters a session and closes it, which exits its active
// strategy.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	s.Close()
	log.Infof("[SESSION] deleted %s", id)
	return nil
}

// IDs lists live sessions, oldest first.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })

	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	return ids
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
