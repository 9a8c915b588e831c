package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
)

// DefaultQuizTTL bounds how long a cached quiz definition may be served.
// Published quizzes change rarely, so a short TTL keeps edits visible without
// hammering the store on every session load.
const DefaultQuizTTL = 5 * time.Minute

// QuizCache is a read-through cache in front of the quiz repository. Misses
// and cache failures fall back to the store; a cache outage slows loads down
// but never fails them.
type QuizCache struct {
	cache   CacheService
	quizzes repositories.QuizRepository
	logger  *slog.Logger
	ttl     time.Duration
}

func NewQuizCache(cache CacheService, quizzes repositories.QuizRepository, logger *slog.Logger) *QuizCache {
	return &QuizCache{
		cache:   cache,
		quizzes: quizzes,
		logger:  logger,
		ttl:     DefaultQuizTTL,
	}
}

func quizKey(quizID string) string {
	return "quiz:def:" + quizID
}

func (c *QuizCache) GetQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	var quiz models.Quiz
	err := c.cache.Get(ctx, quizKey(quizID), &quiz)
	if err == nil {
		return &quiz, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("quiz cache read failed, falling back to store",
			"quiz_id", quizID, "error", err)
	}

	fetched, err := c.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, quizKey(quizID), fetched, c.ttl); err != nil {
		c.logger.Warn("quiz cache write failed", "quiz_id", quizID, "error", err)
	}
	return fetched, nil
}

// Invalidate drops the cached definition, forcing the next load to hit the
// store. Called after a quiz is edited or republished.
func (c *QuizCache) Invalidate(ctx context.Context, quizID string) error {
	return c.cache.Delete(ctx, quizKey(quizID))
}
