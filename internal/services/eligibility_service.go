package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
)

// IneligibilityReason names the guard check that rejected the student.
type IneligibilityReason string

const (
	ReasonNotPublished     IneligibilityReason = "not_published"
	ReasonPastDue          IneligibilityReason = "past_due"
	ReasonNotEnrolled      IneligibilityReason = "not_enrolled"
	ReasonAlreadyCompleted IneligibilityReason = "already_completed"
)

// Decision is the guard's verdict. When Eligible is false, Reason names the
// first failing check and Err is its sentinel.
type Decision struct {
	Eligible bool
	Reason   IneligibilityReason
	Err      error
}

// EligibilityService validates that a student may start a session: the quiz
// is published, not past due, the student is enrolled, and no prior result
// exists. Read-only; store failures surface as ErrEligibilityCheckFailed.
type EligibilityService interface {
	Check(ctx context.Context, quiz *models.Quiz, studentID string) (Decision, error)
}

type eligibilityService struct {
	repo   repositories.Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewEligibilityService(repo repositories.Repository, logger *slog.Logger) EligibilityService {
	return &eligibilityService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// NewEligibilityServiceWithClock injects a time source for due-date tests.
func NewEligibilityServiceWithClock(repo repositories.Repository, logger *slog.Logger, now func() time.Time) EligibilityService {
	return &eligibilityService{repo: repo, logger: logger, now: now}
}

// Check runs the guard checks in order, short-circuiting on the first
// failure. It has no side effects.
func (s *eligibilityService) Check(ctx context.Context, quiz *models.Quiz, studentID string) (Decision, error) {
	if !quiz.IsPublished {
		return ineligible(ReasonNotPublished, ErrQuizNotPublished), nil
	}

	if quiz.DueAt != nil && quiz.DueAt.Before(s.now()) {
		return ineligible(ReasonPastDue, ErrQuizPastDue), nil
	}

	enrolled := quiz.HasEnrolledStudent(studentID)
	if !enrolled {
		approved, err := s.repo.Enrollment().HasApprovedEnrollment(ctx, quiz.CourseID, studentID)
		if err != nil {
			s.logger.Error("Enrollment lookup failed during eligibility check",
				"quiz_id", quiz.ID,
				"student_id", studentID,
				"error", err)
			return Decision{}, fmt.Errorf("%w: %v", ErrEligibilityCheckFailed, err)
		}
		enrolled = approved
	}
	if !enrolled {
		return ineligible(ReasonNotEnrolled, ErrNotEnrolled), nil
	}

	_, err := s.repo.Result().GetByQuizAndStudent(ctx, quiz.ID, studentID)
	if err == nil {
		return ineligible(ReasonAlreadyCompleted, ErrAlreadyCompleted), nil
	}
	if !repositories.IsNotFoundError(err) {
		s.logger.Error("Result lookup failed during eligibility check",
			"quiz_id", quiz.ID,
			"student_id", studentID,
			"error", err)
		return Decision{}, fmt.Errorf("%w: %v", ErrEligibilityCheckFailed, err)
	}

	return Decision{Eligible: true}, nil
}

func ineligible(reason IneligibilityReason, err error) Decision {
	return Decision{Eligible: false, Reason: reason, Err: err}
}
