package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps autosave snapshots in Redis, one JSON value per
// (quiz, student) key. The clock is injectable so staleness is testable.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

type RedisStoreOption func(*RedisStore)

// WithClock overrides the time source used for stamping and staleness.
func WithClock(now func() time.Time) RedisStoreOption {
	return func(s *RedisStore) {
		s.now = now
	}
}

// WithSnapshotTTL overrides the staleness window.
func WithSnapshotTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	store := &RedisStore{
		client: client,
		ttl:    DefaultSnapshotTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) Save(ctx context.Context, quizID, studentID string, answers models.AnswerMap, flagged []string) error {
	snapshot := models.AutosaveSnapshot{
		QuizID:    quizID,
		StudentID: studentID,
		Answers:   answers,
		Flagged:   flagged,
		SavedAt:   s.now(),
	}

	payload, err := json.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal autosave snapshot: %w", err)
	}

	// No expiry: stale snapshots are filtered on read and overwritten by
	// the next save, matching the recovery semantics.
	if err := s.client.Set(ctx, s.key(quizID, studentID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write autosave snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, quizID, studentID string) (*models.AutosaveSnapshot, error) {
	payload, err := s.client.Get(ctx, s.key(quizID, studentID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read autosave snapshot: %w", err)
	}

	var snapshot models.AutosaveSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode autosave snapshot: %w", err)
	}

	if snapshot.Age(s.now()) >= s.ttl {
		return nil, nil
	}
	return &snapshot, nil
}

func (s *RedisStore) Clear(ctx context.Context, quizID, studentID string) error {
	if err := s.client.Del(ctx, s.key(quizID, studentID)).Err(); err != nil {
		return fmt.Errorf("failed to clear autosave snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) key(quizID, studentID string) string {
	return "quiz:autosave:" + quizID + ":" + studentID
}
