package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/events"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/scoring"
)

// RegradePolicy selects which question definitions a regrade runs against.
type RegradePolicy string

const (
	// RegradeCurrentDefinitions rescores against the quiz as it stands now,
	// so a teacher's fix to a correct answer propagates to past attempts.
	// This is the historical product behavior.
	RegradeCurrentDefinitions RegradePolicy = "current"
	// RegradePinnedDefinitions rescores against the gradable snapshot taken
	// at submit time, keeping historical grades pinned to what the student
	// actually saw.
	RegradePinnedDefinitions RegradePolicy = "pinned"
)

// RegradeRequest identifies the attempt to rescore and who asked for it.
type RegradeRequest struct {
	QuizID    string          `json:"quiz_id" validate:"required"`
	StudentID string          `json:"student_id" validate:"required"`
	ActorID   string          `json:"actor_id" validate:"required"`
	ActorRole models.UserRole `json:"actor_role" validate:"required,user_role"`
	Policy    RegradePolicy   `json:"policy" validate:"omitempty,oneof=current pinned"`
}

// RegradeService recomputes a completed attempt's score from its stored
// answers. Only scoring-derived fields are overwritten; answers are never
// touched.
type RegradeService interface {
	Regrade(ctx context.Context, req *RegradeRequest) (*models.Result, error)
}

type regradeService struct {
	repo          repositories.Repository
	publisher     events.EventPublisher
	logger        *slog.Logger
	scoringOpts   scoring.Options
	defaultPolicy RegradePolicy
}

func NewRegradeService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, opts scoring.Options) RegradeService {
	return &regradeService{
		repo:          repo,
		publisher:     publisher,
		logger:        logger,
		scoringOpts:   opts,
		defaultPolicy: RegradeCurrentDefinitions,
	}
}

// NewRegradeServiceWithPolicy overrides the policy used when a request does
// not name one.
func NewRegradeServiceWithPolicy(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, opts scoring.Options, defaultPolicy RegradePolicy) RegradeService {
	s := NewRegradeService(repo, publisher, logger, opts).(*regradeService)
	if defaultPolicy != "" {
		s.defaultPolicy = defaultPolicy
	}
	return s
}

func (s *regradeService) Regrade(ctx context.Context, req *RegradeRequest) (*models.Result, error) {
	if req.ActorRole != models.RoleTeacher && req.ActorRole != models.RoleAdmin {
		return nil, ErrRegradeNotAllowed
	}

	policy := req.Policy
	if policy == "" {
		policy = s.defaultPolicy
	}

	s.logger.Info("Regrading attempt",
		"quiz_id", req.QuizID,
		"student_id", req.StudentID,
		"actor_id", req.ActorID,
		"policy", policy)

	attempt, err := s.repo.Attempt().GetByQuizAndStudent(ctx, req.QuizID, req.StudentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	existing, err := s.repo.Result().GetByQuizAndStudent(ctx, req.QuizID, req.StudentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	questions, err := s.questionsForPolicy(ctx, attempt, policy)
	if err != nil {
		return nil, err
	}

	if malformed := scoring.MalformedQuestions(questions); len(malformed) > 0 {
		s.logger.Warn("Regrading with malformed questions, scoring them as incorrect",
			"quiz_id", req.QuizID,
			"question_ids", malformed)
	}

	rescored := scoring.ScoreQuestions(questions, attempt.Answers, s.scoringOpts)

	// Carry identity and provenance over; only scoring-derived fields move.
	updated := *existing
	updated.Score = rescored.Score
	updated.CorrectCount = rescored.CorrectCount
	updated.IncorrectCount = rescored.IncorrectCount
	updated.UnansweredCount = rescored.UnansweredCount
	updated.PendingManualCount = rescored.PendingManualCount
	updated.PerQuestion = rescored.PerQuestion
	now := time.Now()
	updated.RegradedAt = &now

	if err := s.repo.Result().Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("failed to persist regraded result: %w", err)
	}

	event := events.NewSessionEvent(events.EventAttemptRegraded, events.AttemptRegradedEvent{
		AttemptID:     attempt.ID,
		QuizID:        req.QuizID,
		StudentID:     req.StudentID,
		RegradedBy:    req.ActorID,
		PreviousScore: existing.Score,
		NewScore:      updated.Score,
		Policy:        string(policy),
	})
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish regrade event",
			"attempt_id", attempt.ID,
			"error", err)
	}

	s.logger.Info("Attempt regraded",
		"attempt_id", attempt.ID,
		"previous_score", existing.Score,
		"new_score", updated.Score)

	return &updated, nil
}

func (s *regradeService) questionsForPolicy(ctx context.Context, attempt *models.Attempt, policy RegradePolicy) ([]models.Question, error) {
	if policy == RegradePinnedDefinitions && len(attempt.GradableSnapshot) > 0 {
		return attempt.GradableSnapshot, nil
	}

	// Pinned attempts from before snapshots existed fall through to the
	// current definitions, same as the historical behavior.
	quiz, err := s.repo.Quiz().GetByID(ctx, attempt.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz.Questions, nil
}
