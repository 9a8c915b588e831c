package autosave

import (
	"context"
	"time"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
)

// DefaultSnapshotTTL is how long a snapshot stays usable for recovery.
const DefaultSnapshotTTL = 4 * time.Hour

// Store is the device-local recovery store for in-progress answers.
//
// Save overwrites any prior snapshot for the (quiz, student) key and stamps
// it with the current time. Load returns nil when no snapshot exists or the
// stored one is stale. Stale snapshots are ignored, not deleted; the next
// save overwrites them and Clear removes them on submit. Clear is called
// exactly once, right after the result write succeeds.
type Store interface {
	Save(ctx context.Context, quizID, studentID string, answers models.AnswerMap, flagged []string) error
	Load(ctx context.Context, quizID, studentID string) (*models.AutosaveSnapshot, error)
	Clear(ctx context.Context, quizID, studentID string) error
}
