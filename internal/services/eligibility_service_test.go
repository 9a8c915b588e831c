package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories"
	"github.com/VAL02142004/Online-Quiz--sub000/internal/repositories/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func eligibleQuiz() *models.Quiz {
	due := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.Quiz{
		ID:                 "quiz-1",
		CourseID:           "course-1",
		Title:              "Midterm",
		IsPublished:        true,
		DueAt:              &due,
		EnrolledStudentIDs: []string{"student-1"},
	}
}

func TestEligibility_Check(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	newService := func() (EligibilityService, repositories.Repository, *memory.DocumentStore) {
		store := memory.NewDocumentStore()
		repo := repositories.New(store)
		return NewEligibilityServiceWithClock(repo, testLogger(), clock), repo, store
	}

	t.Run("eligible student passes every gate", func(t *testing.T) {
		service, _, _ := newService()

		decision, err := service.Check(ctx, eligibleQuiz(), "student-1")
		require.NoError(t, err)
		assert.True(t, decision.Eligible)
		assert.Nil(t, decision.Err)
	})

	t.Run("unpublished quiz", func(t *testing.T) {
		service, _, _ := newService()
		quiz := eligibleQuiz()
		quiz.IsPublished = false

		decision, err := service.Check(ctx, quiz, "student-1")
		require.NoError(t, err)
		assert.False(t, decision.Eligible)
		assert.Equal(t, ReasonNotPublished, decision.Reason)
		assert.ErrorIs(t, decision.Err, ErrQuizNotPublished)
	})

	t.Run("past due quiz", func(t *testing.T) {
		service, _, _ := newService()
		quiz := eligibleQuiz()
		past := now.Add(-time.Hour)
		quiz.DueAt = &past

		decision, err := service.Check(ctx, quiz, "student-1")
		require.NoError(t, err)
		assert.Equal(t, ReasonPastDue, decision.Reason)
		assert.ErrorIs(t, decision.Err, ErrQuizPastDue)
	})

	t.Run("due date in the future is fine", func(t *testing.T) {
		service, _, _ := newService()
		quiz := eligibleQuiz()
		future := now.Add(time.Minute)
		quiz.DueAt = &future

		decision, err := service.Check(ctx, quiz, "student-1")
		require.NoError(t, err)
		assert.True(t, decision.Eligible)
	})

	t.Run("student not enrolled", func(t *testing.T) {
		service, _, _ := newService()

		decision, err := service.Check(ctx, eligibleQuiz(), "stranger")
		require.NoError(t, err)
		assert.Equal(t, ReasonNotEnrolled, decision.Reason)
		assert.ErrorIs(t, decision.Err, ErrNotEnrolled)
	})

	t.Run("approved course enrollment also counts", func(t *testing.T) {
		service, _, store := newService()
		require.NoError(t, store.CreateDocument(ctx, repositories.CollectionEnrollments, "enr-1", &models.CourseEnrollment{
			ID:        "enr-1",
			CourseID:  "course-1",
			StudentID: "student-2",
			Status:    models.EnrollmentApproved,
		}))

		decision, err := service.Check(ctx, eligibleQuiz(), "student-2")
		require.NoError(t, err)
		assert.True(t, decision.Eligible)
	})

	t.Run("pending enrollment does not count", func(t *testing.T) {
		service, _, store := newService()
		require.NoError(t, store.CreateDocument(ctx, repositories.CollectionEnrollments, "enr-2", &models.CourseEnrollment{
			ID:        "enr-2",
			CourseID:  "course-1",
			StudentID: "student-3",
			Status:    models.EnrollmentPending,
		}))

		decision, err := service.Check(ctx, eligibleQuiz(), "student-3")
		require.NoError(t, err)
		assert.Equal(t, ReasonNotEnrolled, decision.Reason)
	})

	t.Run("prior result blocks a second attempt", func(t *testing.T) {
		service, repo, _ := newService()
		require.NoError(t, repo.Result().Create(ctx, &models.Result{
			ID:        "result:attempt-1",
			AttemptID: "attempt-1",
			QuizID:    "quiz-1",
			StudentID: "student-1",
			Score:     80,
		}))

		decision, err := service.Check(ctx, eligibleQuiz(), "student-1")
		require.NoError(t, err)
		assert.Equal(t, ReasonAlreadyCompleted, decision.Reason)
		assert.ErrorIs(t, decision.Err, ErrAlreadyCompleted)
	})

	t.Run("checks run in order, first failure wins", func(t *testing.T) {
		service, repo, _ := newService()
		require.NoError(t, repo.Result().Create(ctx, &models.Result{
			ID: "result:attempt-1", AttemptID: "attempt-1", QuizID: "quiz-1", StudentID: "student-1",
		}))
		quiz := eligibleQuiz()
		quiz.IsPublished = false
		past := now.Add(-time.Hour)
		quiz.DueAt = &past

		decision, err := service.Check(ctx, quiz, "student-1")
		require.NoError(t, err)
		assert.Equal(t, ReasonNotPublished, decision.Reason)
	})

	t.Run("ineligibility flips once the condition clears", func(t *testing.T) {
		service, _, _ := newService()
		quiz := eligibleQuiz()
		quiz.IsPublished = false

		decision, err := service.Check(ctx, quiz, "student-1")
		require.NoError(t, err)
		assert.False(t, decision.Eligible)

		quiz.IsPublished = true
		decision, err = service.Check(ctx, quiz, "student-1")
		require.NoError(t, err)
		assert.True(t, decision.Eligible)
	})

	t.Run("store failure surfaces as check failed", func(t *testing.T) {
		service, _, store := newService()
		store.FailNextOps(1)

		_, err := service.Check(ctx, eligibleQuiz(), "student-1")
		require.ErrorIs(t, err, ErrEligibilityCheckFailed)
	})
}
