package scoring

import (
	"math"
	"time"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
)

// Options controls the aggregate policy for manually graded kinds.
type Options struct {
	// CountPendingInDenominator keeps essay/short-answer questions in the
	// percentage denominator even before a manual grade exists. True matches
	// the historical product behavior, where such questions drag the score
	// down until graded. False excludes them from the denominator.
	CountPendingInDenominator bool
}

// DefaultOptions returns the historical, source-compatible policy.
func DefaultOptions() Options {
	return Options{CountPendingInDenominator: true}
}

// Score grades a full answer map against a quiz definition. It is a pure
// function: callable at submission time and again at regrade time, with no
// I/O and no mutation of its inputs.
func Score(quiz *models.Quiz, answers models.AnswerMap) *models.Result {
	return ScoreQuestions(quiz.Questions, answers, DefaultOptions())
}

// ScoreQuestions grades answers against an explicit question list. Regrading
// calls this directly so the caller can choose between current and pinned
// question definitions.
func ScoreQuestions(questions []models.Question, answers models.AnswerMap, opts Options) *models.Result {
	result := &models.Result{
		PerQuestion: make([]models.QuestionOutcome, len(questions)),
		GradedAt:    time.Now(),
	}

	for i, question := range questions {
		outcome := scoreQuestion(&question, answers[question.ID])
		result.PerQuestion[i] = outcome

		switch outcome {
		case models.OutcomeCorrect:
			result.CorrectCount++
		case models.OutcomeUnanswered:
			result.UnansweredCount++
		case models.OutcomePendingManual:
			result.PendingManualCount++
		case models.OutcomeIncorrect:
			result.IncorrectCount++
		}
	}

	// Pending answers contribute to neither count until graded, but they are
	// still "not correct": the aggregate incorrect count absorbs them under
	// the historical policy so correct+incorrect+unanswered covers the quiz.
	denominator := len(questions)
	if opts.CountPendingInDenominator {
		result.IncorrectCount += result.PendingManualCount
	} else {
		denominator -= result.PendingManualCount
	}

	if denominator > 0 {
		result.Score = int(math.Round(100 * float64(result.CorrectCount) / float64(denominator)))
	}
	return result
}

// scoreQuestion applies the per-kind correctness rule. Unanswered wins over
// everything; a malformed payload makes the question unconditionally
// incorrect rather than failing the whole attempt.
func scoreQuestion(question *models.Question, answer *models.AnswerValue) models.QuestionOutcome {
	if answer.IsEmpty() {
		return models.OutcomeUnanswered
	}

	switch question.Kind {
	case models.ShortAnswer, models.Essay:
		return models.OutcomePendingManual

	case models.SingleChoice, models.TrueFalse:
		if len(question.CorrectIndices) != 1 {
			return models.OutcomeIncorrect // malformed payload
		}
		if answer.SelectedIndex != nil && *answer.SelectedIndex == question.CorrectIndices[0] {
			return models.OutcomeCorrect
		}
		return models.OutcomeIncorrect

	case models.MultiChoice:
		if len(question.CorrectIndices) == 0 {
			return models.OutcomeIncorrect // malformed payload
		}
		if indexSetsEqual(answer.SelectedIndices, question.CorrectIndices) {
			return models.OutcomeCorrect
		}
		return models.OutcomeIncorrect

	case models.FillBlank:
		if len(question.Blanks) == 0 {
			return models.OutcomeIncorrect // malformed payload
		}
		if len(answer.Texts) != len(question.Blanks) {
			return models.OutcomeIncorrect
		}
		for i, accepted := range question.Blanks {
			// exact match, case-sensitive, no trimming
			if answer.Texts[i] != accepted {
				return models.OutcomeIncorrect
			}
		}
		return models.OutcomeCorrect

	case models.Matching:
		if len(question.Pairs) == 0 {
			return models.OutcomeIncorrect // malformed payload
		}
		if len(answer.Texts) != len(question.Pairs) {
			return models.OutcomeIncorrect
		}
		for i, pair := range question.Pairs {
			if answer.Texts[i] != pair.Right {
				return models.OutcomeIncorrect
			}
		}
		return models.OutcomeCorrect

	case models.Ordering:
		if len(question.Items) == 0 {
			return models.OutcomeIncorrect // malformed payload
		}
		if len(answer.SelectedIndices) != len(question.Items) {
			return models.OutcomeIncorrect
		}
		for i, index := range answer.SelectedIndices {
			if index != i {
				return models.OutcomeIncorrect
			}
		}
		return models.OutcomeCorrect

	default:
		// Unknown kind is a data-integrity issue, scored like any other
		// malformed question.
		return models.OutcomeIncorrect
	}
}

// indexSetsEqual compares two index slices as sets. Supersets and subsets of
// the correct set are both wrong: there is no partial credit.
func indexSetsEqual(submitted, correct []int) bool {
	if len(submitted) != len(correct) {
		return false
	}

	set := make(map[int]bool, len(correct))
	for _, index := range correct {
		set[index] = true
	}
	matched := make(map[int]bool, len(submitted))
	for _, index := range submitted {
		if !set[index] || matched[index] {
			return false
		}
		matched[index] = true
	}
	return len(matched) == len(set)
}

// MalformedQuestions returns ids of questions whose payload cannot support
// grading. Callers log these; scoring itself never fails because of them.
func MalformedQuestions(questions []models.Question) []string {
	var malformed []string
	for _, question := range questions {
		switch question.Kind {
		case models.SingleChoice, models.TrueFalse:
			if len(question.CorrectIndices) != 1 || outOfRange(question.CorrectIndices, len(question.Options)) {
				malformed = append(malformed, question.ID)
			}
		case models.MultiChoice:
			if len(question.CorrectIndices) == 0 || outOfRange(question.CorrectIndices, len(question.Options)) {
				malformed = append(malformed, question.ID)
			}
		case models.FillBlank:
			if len(question.Blanks) == 0 {
				malformed = append(malformed, question.ID)
			}
		case models.Matching:
			if len(question.Pairs) == 0 {
				malformed = append(malformed, question.ID)
			}
		case models.Ordering:
			if len(question.Items) == 0 {
				malformed = append(malformed, question.ID)
			}
		case models.ShortAnswer, models.Essay:
			// nothing machine-checkable
		default:
			malformed = append(malformed, question.ID)
		}
	}
	return malformed
}

func outOfRange(indices []int, length int) bool {
	for _, index := range indices {
		if index < 0 || index >= length {
			return true
		}
	}
	return false
}

// SnapshotGradable copies the machine-checkable payload of every question,
// in quiz order. The submit path stores this with the attempt so a pinned
// regrade can reproduce the original grading inputs.
func SnapshotGradable(quiz *models.Quiz) []models.Question {
	snapshot := make([]models.Question, len(quiz.Questions))
	for i, question := range quiz.Questions {
		snapshot[i] = models.Question{
			ID:             question.ID,
			Kind:           question.Kind,
			Text:           question.Text,
			Options:        append([]string(nil), question.Options...),
			CorrectIndices: append([]int(nil), question.CorrectIndices...),
			Blanks:         append([]string(nil), question.Blanks...),
			Pairs:          append([]models.MatchPair(nil), question.Pairs...),
			Items:          append([]string(nil), question.Items...),
		}
	}
	return snapshot
}
