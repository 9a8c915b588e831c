package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/config"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
)

// ResultService persists a finished attempt together with its result. The
// write is conditional on the (quiz, student) key: a retried write of the
// same attempt succeeds (idempotent by attempt identity), a competing
// attempt is rejected with ErrAlreadyCompleted.
type ResultService interface {
	PersistSubmission(ctx context.Context, attempt *models.Attempt, result *models.Result) error
	GetResult(ctx context.Context, quizID, studentID string) (*models.Result, error)
}

type resultService struct {
	repo   repositories.Repository
	logger *slog.Logger
	cfg    config.SessionConfig
}

func NewResultService(repo repositories.Repository, logger *slog.Logger, cfg config.SessionConfig) ResultService {
	return &resultService{
		repo:   repo,
		logger: logger,
		cfg:    cfg,
	}
}

func (s *resultService) PersistSubmission(ctx context.Context, attempt *models.Attempt, result *models.Result) error {
	s.logger.Info("Persisting submission",
		"attempt_id", attempt.ID,
		"quiz_id", attempt.QuizID,
		"student_id", attempt.StudentID,
		"end_reason", attempt.EndReason)

	// Attempt first so the answers a result refers to are always present.
	err := WithRetry(ctx, s.cfg.LoadRetries, s.cfg.RetryBaseDelay, func() error {
		err := s.repo.Attempt().Create(ctx, attempt)
		if repositories.IsConflictError(err) {
			return s.reconcileAttempt(ctx, attempt)
		}
		return err
	})
	if err != nil {
		return s.classifyWriteError(err, "attempt")
	}

	err = WithRetry(ctx, s.cfg.LoadRetries, s.cfg.RetryBaseDelay, func() error {
		err := s.repo.Result().Create(ctx, result)
		if repositories.IsConflictError(err) {
			return s.reconcileResult(ctx, result)
		}
		return err
	})
	if err != nil {
		return s.classifyWriteError(err, "result")
	}

	s.logger.Info("Submission persisted",
		"attempt_id", attempt.ID,
		"score", result.Score)
	return nil
}

func (s *resultService) GetResult(ctx context.Context, quizID, studentID string) (*models.Result, error) {
	result, err := s.repo.Result().GetByQuizAndStudent(ctx, quizID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, nil
}

// reconcileAttempt resolves a conditional-create conflict: the same attempt
// id means a crashed submit is being retried, anything else lost the race.
func (s *resultService) reconcileAttempt(ctx context.Context, attempt *models.Attempt) error {
	existing, err := s.repo.Attempt().GetByQuizAndStudent(ctx, attempt.QuizID, attempt.StudentID)
	if err != nil {
		return fmt.Errorf("failed to reconcile attempt conflict: %w", err)
	}
	if existing.ID == attempt.ID {
		return nil
	}
	return PermanentError(ErrAlreadyCompleted)
}

func (s *resultService) reconcileResult(ctx context.Context, result *models.Result) error {
	existing, err := s.repo.Result().GetByQuizAndStudent(ctx, result.QuizID, result.StudentID)
	if err != nil {
		return fmt.Errorf("failed to reconcile result conflict: %w", err)
	}
	if existing.AttemptID == result.AttemptID {
		return nil
	}
	return PermanentError(ErrAlreadyCompleted)
}

func (s *resultService) classifyWriteError(err error, kind string) error {
	if errors.Is(err, ErrAlreadyCompleted) {
		return err
	}
	s.logger.Error("Submission write failed",
		"kind", kind,
		"error", err)
	return fmt.Errorf("%w: %v", ErrSubmitWriteFailed, err)
}

// NewResultID derives a deterministic result id from quiz, student and time
// of grading so retried writes carry the same identity.
func NewResultID(attemptID string) string {
	return "result:" + attemptID
}

// Deadline returns the absolute end time for an attempt started now with the
// given limit, or zero when untimed.
func Deadline(startedAt time.Time, timeLimitSeconds *int) time.Time {
	if timeLimitSeconds == nil {
		return time.Time{}
	}
	return startedAt.Add(time.Duration(*timeLimitSeconds) * time.Second)
}
