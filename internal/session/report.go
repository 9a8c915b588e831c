package session

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
)

// LoadReport is what the caller gets back when a session reaches Active.
type LoadReport struct {
	Quiz *models.Quiz `json:"quiz"`

	// RestoredFromSnapshot drives the "progress restored" notice.
	RestoredFromSnapshot bool       `json:"restored_from_snapshot"`
	SnapshotSavedAt      *time.Time `json:"snapshot_saved_at,omitempty"`

	// QuestionOrder is the presentation order of question ids, shuffled when
	// the quiz asks for it. OptionOrder maps question id to a permutation of
	// its option indices. Both are deterministic per (quiz, student) so a
	// reload shows the same arrangement; grading always uses authored order.
	QuestionOrder  []string         `json:"question_order"`
	OptionOrder    map[string][]int `json:"option_order,omitempty"`
	LockNavigation bool             `json:"lock_navigation"`

	TimeRemaining *time.Duration `json:"time_remaining,omitempty"`
}

func buildLoadReport(quiz *models.Quiz, studentID string) *LoadReport {
	report := &LoadReport{
		Quiz:           quiz,
		LockNavigation: quiz.LockNavigation,
		QuestionOrder:  make([]string, len(quiz.Questions)),
	}

	for i, question := range quiz.Questions {
		report.QuestionOrder[i] = question.ID
	}

	rng := rand.New(rand.NewSource(presentationSeed(quiz.ID, studentID)))

	if quiz.ShuffleQuestions {
		rng.Shuffle(len(report.QuestionOrder), func(i, j int) {
			report.QuestionOrder[i], report.QuestionOrder[j] = report.QuestionOrder[j], report.QuestionOrder[i]
		})
	}

	if quiz.ShuffleOptions {
		report.OptionOrder = make(map[string][]int)
		for _, question := range quiz.Questions {
			if len(question.Options) == 0 {
				continue
			}
			order := rng.Perm(len(question.Options))
			report.OptionOrder[question.ID] = order
		}
	}

	return report
}

func presentationSeed(quizID, studentID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(quizID))
	h.Write([]byte{0})
	h.Write([]byte(studentID))
	return int64(h.Sum64())
}
