package events

import (
	"time"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
)

type EventType string

const (
	EventAttemptStarted   EventType = "attempt_started"
	EventAttemptSubmitted EventType = "attempt_submitted"
	EventAttemptExpired   EventType = "attempt_expired"
	EventAttemptRegraded  EventType = "attempt_regraded"
)

// SessionEvent is the envelope published for every attempt lifecycle change.
type SessionEvent struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// AttemptStartedEvent is emitted when a session enters Active. The attempt
// id does not exist yet at this point; it is minted at submit time.
type AttemptStartedEvent struct {
	QuizID        string `json:"quiz_id"`
	StudentID     string `json:"student_id"`
	ResumedFrom   string `json:"resumed_from,omitempty"` // snapshot save time, RFC3339
	QuestionCount int    `json:"question_count"`
}

// AttemptSubmittedEvent is emitted after a result is persisted. EndReason
// distinguishes manual submission from timer expiry.
type AttemptSubmittedEvent struct {
	AttemptID       string                  `json:"attempt_id"`
	QuizID          string                  `json:"quiz_id"`
	StudentID       string                  `json:"student_id"`
	EndReason       models.AttemptEndReason `json:"end_reason"`
	Score           int                     `json:"score"`
	CorrectCount    int                     `json:"correct_count"`
	UnansweredCount int                     `json:"unanswered_count"`
}

// AttemptRegradedEvent is emitted when a teacher regrades a stored attempt.
type AttemptRegradedEvent struct {
	AttemptID     string `json:"attempt_id"`
	QuizID        string `json:"quiz_id"`
	StudentID     string `json:"student_id"`
	RegradedBy    string `json:"regraded_by"`
	PreviousScore int    `json:"previous_score"`
	NewScore      int    `json:"new_score"`
	Policy        string `json:"policy"`
}
