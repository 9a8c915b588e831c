package session

import (
	"context"
	"sync"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
)

// Manager tracks the live Engine for each (quiz, student) pair so stateless
// HTTP requests can reach their session. Engines are created through the
// injected factory and dropped once they reach a terminal state.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Engine
	newEngine func() *Engine
}

func NewManager(newEngine func() *Engine) *Manager {
	return &Manager{
		sessions:  make(map[string]*Engine),
		newEngine: newEngine,
	}
}

// Open returns the existing active session for the pair, or loads a new one.
// A session found in a terminal or error state is replaced.
func (m *Manager) Open(ctx context.Context, quizID, studentID string) (*Engine, *LoadReport, error) {
	key := repositories.AttemptKey(quizID, studentID)

	m.mu.Lock()
	if engine, ok := m.sessions[key]; ok {
		state := engine.State()
		if state == StateActive || state == StateSubmitting {
			m.mu.Unlock()
			return engine, engine.Report(), nil
		}
		engine.Close()
		delete(m.sessions, key)
	}
	engine := m.newEngine()
	m.sessions[key] = engine
	m.mu.Unlock()

	report, err := engine.Load(ctx, quizID, studentID)
	if err != nil {
		m.mu.Lock()
		delete(m.sessions, key)
		m.mu.Unlock()
		return nil, nil, err
	}
	return engine, report, nil
}

// Get returns the live session for the pair, if any.
func (m *Manager) Get(quizID, studentID string) (*Engine, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	engine, ok := m.sessions[repositories.AttemptKey(quizID, studentID)]
	return engine, ok
}

// Remove closes and forgets the session for the pair.
func (m *Manager) Remove(quizID, studentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := repositories.AttemptKey(quizID, studentID)
	if engine, ok := m.sessions[key]; ok {
		engine.Close()
		delete(m.sessions, key)
	}
}

// Close shuts every live session down. Used on server shutdown; in-progress
// answers survive through the autosave snapshots.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, engine := range m.sessions {
		engine.Close()
		delete(m.sessions, key)
	}
}
