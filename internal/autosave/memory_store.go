package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
)

// MemoryStore is an in-process Store for tests and single-device setups.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string]*models.AutosaveSnapshot
	ttl       time.Duration
	now       func() time.Time

	failSave bool
}

type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock overrides the time source.
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	store := &MemoryStore{
		snapshots: make(map[string]*models.AutosaveSnapshot),
		ttl:       DefaultSnapshotTTL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// FailSaves toggles save failures for engine error-path tests.
func (s *MemoryStore) FailSaves(fail bool) {
	s.mu.Lock()
	s.failSave = fail
	s.mu.Unlock()
}

func (s *MemoryStore) Save(ctx context.Context, quizID, studentID string, answers models.AnswerMap, flagged []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failSave {
		return context.DeadlineExceeded
	}

	s.snapshots[quizID+":"+studentID] = &models.AutosaveSnapshot{
		QuizID:    quizID,
		StudentID: studentID,
		Answers:   answers.Clone(),
		Flagged:   append([]string(nil), flagged...),
		SavedAt:   s.now(),
	}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, quizID, studentID string) (*models.AutosaveSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot, ok := s.snapshots[quizID+":"+studentID]
	if !ok {
		return nil, nil
	}
	if snapshot.Age(s.now()) >= s.ttl {
		return nil, nil
	}

	copied := *snapshot
	copied.Answers = snapshot.Answers.Clone()
	copied.Flagged = append([]string(nil), snapshot.Flagged...)
	return &copied, nil
}

func (s *MemoryStore) Clear(ctx context.Context, quizID, studentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, quizID+":"+studentID)
	return nil
}

// Contains reports whether a snapshot (stale or not) is stored.
func (s *MemoryStore) Contains(quizID, studentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.snapshots[quizID+":"+studentID]
	return ok
}
