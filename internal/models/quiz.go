package models

import (
	"time"
)

// Quiz is the definition a session runs against: an ordered question list
// plus the attempt policy.
type Quiz struct {
	ID       string `json:"id" validate:"required"`
	CourseID string `json:"course_id"`
	Title    string `json:"title" gorm:"size:200" validate:"required,min=1,max=200"`

	Questions []Question `json:"questions" validate:"required,min=1,dive"`

	// Attempt policy
	TimeLimitSeconds *int       `json:"time_limit_seconds,omitempty" validate:"omitempty,min=10"`
	DueAt            *time.Time `json:"due_at,omitempty"`
	IsPublished      bool       `json:"is_published"`
	ShuffleQuestions bool       `json:"shuffle_questions"`
	ShuffleOptions   bool       `json:"shuffle_options"`
	LockNavigation   bool       `json:"lock_navigation"`

	// Students granted access directly, independent of course enrollment.
	EnrolledStudentIDs []string `json:"enrolled_student_ids"`

	// Ownership
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QuestionByID returns the question with the given id, or nil.
func (q *Quiz) QuestionByID(id string) *Question {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i]
		}
	}
	return nil
}

// HasEnrolledStudent reports whether studentID appears in the quiz-level
// enrollment list.
func (q *Quiz) HasEnrolledStudent(studentID string) bool {
	for _, id := range q.EnrolledStudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// EmptyAnswers returns an answer map covering every question, all unanswered.
func (q *Quiz) EmptyAnswers() AnswerMap {
	answers := make(AnswerMap, len(q.Questions))
	for _, question := range q.Questions {
		answers[question.ID] = nil
	}
	return answers
}
