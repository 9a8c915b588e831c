package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
)

// ===== DOCUMENT STORE CONTRACT =====

// Collection names used by the engine.
const (
	CollectionQuizzes     = "quizzes"
	CollectionAttempts    = "attempts"
	CollectionResults     = "results"
	CollectionEnrollments = "enrollments"
)

var (
	// ErrDocumentNotFound is returned when a document id does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrDocumentExists is returned by CreateDocument when the id is taken.
	// The conditional create is what gives results their exactly-once write.
	ErrDocumentExists = errors.New("document already exists")
)

type FilterOp string

const (
	OpEqual       FilterOp = "=="
	OpLessThan    FilterOp = "<"
	OpGreaterThan FilterOp = ">"
)

// Filter is a simple equality/range predicate over a top-level document field.
type Filter struct {
	Field string
	Op    FilterOp
	Value string
}

// DocumentStore is the generic remote persistent store the engine runs
// against. Implementations provide document-level reads and writes plus
// simple equality/range queries; everything richer lives in the typed
// repositories above it.
type DocumentStore interface {
	GetDocument(ctx context.Context, collection, id string) (json.RawMessage, error)
	Query(ctx context.Context, collection string, filters []Filter) ([]json.RawMessage, error)
	// CreateDocument is create-if-absent: it fails with ErrDocumentExists
	// when the id is already taken, never overwrites.
	CreateDocument(ctx context.Context, collection, id string, data interface{}) error
	UpdateDocument(ctx context.Context, collection, id string, data interface{}) error
}

// ===== TYPED REPOSITORIES =====

type QuizRepository interface {
	GetByID(ctx context.Context, id string) (*models.Quiz, error)
	Create(ctx context.Context, quiz *models.Quiz) error
	Update(ctx context.Context, quiz *models.Quiz) error
}

type AttemptRepository interface {
	// GetByQuizAndStudent returns the stored (submitted or expired) attempt.
	GetByQuizAndStudent(ctx context.Context, quizID, studentID string) (*models.Attempt, error)
	// Create persists a finished attempt, keyed by (quiz, student).
	Create(ctx context.Context, attempt *models.Attempt) error
}

type ResultRepository interface {
	GetByQuizAndStudent(ctx context.Context, quizID, studentID string) (*models.Result, error)
	// Create is conditional on the (quiz, student) key. A retry of the same
	// attempt's write is safe; a second attempt's write is rejected.
	Create(ctx context.Context, result *models.Result) error
	// Update overwrites scoring-derived fields after a regrade.
	Update(ctx context.Context, result *models.Result) error
}

type EnrollmentRepository interface {
	HasApprovedEnrollment(ctx context.Context, courseID, studentID string) (bool, error)
}

// Repository aggregates the typed repositories behind one injection point.
type Repository interface {
	Quiz() QuizRepository
	Attempt() AttemptRepository
	Result() ResultRepository
	Enrollment() EnrollmentRepository
}

// IsNotFoundError checks if error represents a "not found" condition
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrDocumentNotFound)
}

// IsConflictError checks if error represents a conditional-create conflict
func IsConflictError(err error) bool {
	return errors.Is(err, ErrDocumentExists)
}

// AttemptKey is the document id for attempts and results: one per
// (quiz, student), which is exactly the single-submission invariant.
func AttemptKey(quizID, studentID string) string {
	return quizID + ":" + studentID
}
