package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
)

// repository implements Repository on top of any DocumentStore.
type repository struct {
	quizzes     QuizRepository
	attempts    AttemptRepository
	results     ResultRepository
	enrollments EnrollmentRepository
}

// New builds the typed repositories over a document store.
func New(store DocumentStore) Repository {
	return &repository{
		quizzes:     &quizRepository{store: store},
		attempts:    &attemptRepository{store: store},
		results:     &resultRepository{store: store},
		enrollments: &enrollmentRepository{store: store},
	}
}

func (r *repository) Quiz() QuizRepository             { return r.quizzes }
func (r *repository) Attempt() AttemptRepository       { return r.attempts }
func (r *repository) Result() ResultRepository         { return r.results }
func (r *repository) Enrollment() EnrollmentRepository { return r.enrollments }

// ===== QUIZ =====

type quizRepository struct {
	store DocumentStore
}

func (r *quizRepository) GetByID(ctx context.Context, id string) (*models.Quiz, error) {
	raw, err := r.store.GetDocument(ctx, CollectionQuizzes, id)
	if err != nil {
		return nil, err
	}

	var quiz models.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return nil, fmt.Errorf("failed to decode quiz %s: %w", id, err)
	}
	return &quiz, nil
}

func (r *quizRepository) Create(ctx context.Context, quiz *models.Quiz) error {
	return r.store.CreateDocument(ctx, CollectionQuizzes, quiz.ID, quiz)
}

func (r *quizRepository) Update(ctx context.Context, quiz *models.Quiz) error {
	return r.store.UpdateDocument(ctx, CollectionQuizzes, quiz.ID, quiz)
}

// ===== ATTEMPT =====

type attemptRepository struct {
	store DocumentStore
}

func (r *attemptRepository) GetByQuizAndStudent(ctx context.Context, quizID, studentID string) (*models.Attempt, error) {
	raw, err := r.store.GetDocument(ctx, CollectionAttempts, AttemptKey(quizID, studentID))
	if err != nil {
		return nil, err
	}

	var attempt models.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return nil, fmt.Errorf("failed to decode attempt: %w", err)
	}
	return &attempt, nil
}

func (r *attemptRepository) Create(ctx context.Context, attempt *models.Attempt) error {
	return r.store.CreateDocument(ctx, CollectionAttempts, AttemptKey(attempt.QuizID, attempt.StudentID), attempt)
}

// ===== RESULT =====

type resultRepository struct {
	store DocumentStore
}

func (r *resultRepository) GetByQuizAndStudent(ctx context.Context, quizID, studentID string) (*models.Result, error) {
	raw, err := r.store.GetDocument(ctx, CollectionResults, AttemptKey(quizID, studentID))
	if err != nil {
		return nil, err
	}

	var result models.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &result, nil
}

func (r *resultRepository) Create(ctx context.Context, result *models.Result) error {
	return r.store.CreateDocument(ctx, CollectionResults, AttemptKey(result.QuizID, result.StudentID), result)
}

func (r *resultRepository) Update(ctx context.Context, result *models.Result) error {
	return r.store.UpdateDocument(ctx, CollectionResults, AttemptKey(result.QuizID, result.StudentID), result)
}

// ===== ENROLLMENT =====

type enrollmentRepository struct {
	store DocumentStore
}

func (r *enrollmentRepository) HasApprovedEnrollment(ctx context.Context, courseID, studentID string) (bool, error) {
	docs, err := r.store.Query(ctx, CollectionEnrollments, []Filter{
		{Field: "course_id", Op: OpEqual, Value: courseID},
		{Field: "student_id", Op: OpEqual, Value: studentID},
		{Field: "status", Op: OpEqual, Value: string(models.EnrollmentApproved)},
	})
	if err != nil {
		return false, err
	}
	return len(docs) > 0, nil
}
