package models

import (
	"time"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptExpired    AttemptStatus = "expired"
)

type AttemptEndReason string

const (
	EndReasonManual  AttemptEndReason = "manual_submit"
	EndReasonTimeout AttemptEndReason = "timer_expired"
)

// Attempt is one student's run at a quiz. At most one non-draft attempt per
// (quiz, student) ever reaches the remote store; the eligibility guard and
// the conditional result write together enforce that.
type Attempt struct {
	ID        string `json:"id"`
	QuizID    string `json:"quiz_id"`
	StudentID string `json:"student_id"`

	Answers AnswerMap `json:"answers"`
	Flagged []string  `json:"flagged"` // question ids flagged for review

	StartedAt        time.Time         `json:"started_at"`
	SubmittedAt      *time.Time        `json:"submitted_at,omitempty"`
	TimeSpentSeconds int               `json:"time_spent_seconds"`
	Status           AttemptStatus     `json:"status"`
	EndReason        *AttemptEndReason `json:"end_reason,omitempty"`

	// GradableSnapshot captures the machine-checkable payload of every
	// question as it stood at submit time. It exists only to support the
	// pinned regrade policy; answers themselves are never rewritten.
	GradableSnapshot []Question `json:"gradable_snapshot,omitempty"`
}

// IsFlagged reports whether the question is in the review-flag set.
func (a *Attempt) IsFlagged(questionID string) bool {
	for _, id := range a.Flagged {
		if id == questionID {
			return true
		}
	}
	return false
}

// QuestionOutcome is the per-question grading verdict.
type QuestionOutcome string

const (
	OutcomeCorrect       QuestionOutcome = "correct"
	OutcomeIncorrect     QuestionOutcome = "incorrect"
	OutcomeUnanswered    QuestionOutcome = "unanswered"
	OutcomePendingManual QuestionOutcome = "pending_manual"
)

// Result is derived from an attempt's answers and is immutable once written,
// except for teacher-initiated regrades which may only overwrite the
// scoring-derived fields.
type Result struct {
	ID        string `json:"id"`
	AttemptID string `json:"attempt_id"`
	QuizID    string `json:"quiz_id"`
	StudentID string `json:"student_id"`

	Score              int               `json:"score"` // 0..100
	CorrectCount       int               `json:"correct_count"`
	IncorrectCount     int               `json:"incorrect_count"`
	UnansweredCount    int               `json:"unanswered_count"`
	PendingManualCount int               `json:"pending_manual_count"`
	PerQuestion        []QuestionOutcome `json:"per_question"` // quiz question order

	GradedAt   time.Time  `json:"graded_at"`
	RegradedAt *time.Time `json:"regraded_at,omitempty"`
}

// TotalQuestions is the number of questions the result covers.
func (r *Result) TotalQuestions() int {
	return len(r.PerQuestion)
}
