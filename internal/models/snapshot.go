package models

import (
	"time"
)

// AutosaveSnapshot is the ephemeral device-local copy of in-progress answers
// used for crash/reload recovery. It is overwritten on every autosave tick,
// consulted once at session start while fresh, and cleared on submit.
type AutosaveSnapshot struct {
	QuizID    string    `json:"quiz_id"`
	StudentID string    `json:"student_id"`
	Answers   AnswerMap `json:"answers"`
	Flagged   []string  `json:"flagged"`
	SavedAt   time.Time `json:"saved_at"`
}

// Age returns how long ago the snapshot was written.
func (s *AutosaveSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.SavedAt)
}
