package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
)

func validQuestion(kind models.QuestionKind) models.Question {
	question := models.Question{ID: "q1", Kind: kind, Text: "Prompt"}
	switch kind {
	case models.SingleChoice:
		question.Options = []string{"a", "b", "c"}
		question.CorrectIndices = []int{0}
	case models.MultiChoice:
		question.Options = []string{"a", "b", "c"}
		question.CorrectIndices = []int{0, 2}
	case models.TrueFalse:
		question.Options = []string{"True", "False"}
		question.CorrectIndices = []int{1}
	case models.FillBlank:
		question.Blanks = []string{"answer"}
	case models.Matching:
		question.Pairs = []models.MatchPair{{Left: "a", Right: "1"}, {Left: "b", Right: "2"}}
	case models.Ordering:
		question.Items = []string{"first", "second"}
	}
	return question
}

func TestValidateQuestion_ValidPayloads(t *testing.T) {
	v := NewQuestionValidator()
	for _, kind := range models.AllQuestionKinds {
		t.Run(string(kind), func(t *testing.T) {
			question := validQuestion(kind)
			assert.NoError(t, v.ValidateQuestion(&question))
		})
	}
}

func TestValidateQuestion_ChoicePayloads(t *testing.T) {
	v := NewQuestionValidator()

	tests := []struct {
		name     string
		mutate   func(*models.Question)
		kind     models.QuestionKind
		wantPart string
	}{
		{"missing text", func(q *models.Question) { q.Text = "" }, models.SingleChoice, "text is required"},
		{"too few options", func(q *models.Question) { q.Options = []string{"a"}; q.CorrectIndices = []int{0} }, models.SingleChoice, "at least 2 options"},
		{"too many options", func(q *models.Question) {
			q.Options = []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}
		}, models.SingleChoice, "more than 10"},
		{"empty option text", func(q *models.Question) { q.Options = []string{"a", ""} }, models.SingleChoice, "cannot be empty"},
		{"two correct for single choice", func(q *models.Question) { q.CorrectIndices = []int{0, 1} }, models.SingleChoice, "exactly 1 correct"},
		{"no correct index", func(q *models.Question) { q.CorrectIndices = nil }, models.SingleChoice, "exactly 1 correct"},
		{"multi choice needs a correct index", func(q *models.Question) { q.CorrectIndices = nil }, models.MultiChoice, "at least 1 correct"},
		{"out of range index", func(q *models.Question) { q.CorrectIndices = []int{5} }, models.SingleChoice, "out of range"},
		{"negative index", func(q *models.Question) { q.CorrectIndices = []int{-1} }, models.SingleChoice, "out of range"},
		{"duplicate index", func(q *models.Question) { q.CorrectIndices = []int{0, 0} }, models.MultiChoice, "duplicated"},
		{"true false with three options", func(q *models.Question) { q.Options = []string{"True", "False", "Maybe"} }, models.TrueFalse, "exactly 2 options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			question := validQuestion(tt.kind)
			tt.mutate(&question)
			err := v.ValidateQuestion(&question)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantPart)
		})
	}
}

func TestValidateQuestion_ManualKindsRejectStrayPayload(t *testing.T) {
	v := NewQuestionValidator()

	for _, kind := range []models.QuestionKind{models.ShortAnswer, models.Essay} {
		t.Run(string(kind), func(t *testing.T) {
			question := validQuestion(kind)
			require.NoError(t, v.ValidateQuestion(&question))

			question.CorrectIndices = []int{0}
			err := v.ValidateQuestion(&question)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "must not carry an auto-grading payload")
		})
	}
}

func TestValidateQuestion_StructuredPayloads(t *testing.T) {
	v := NewQuestionValidator()

	t.Run("fill blank needs a blank", func(t *testing.T) {
		question := validQuestion(models.FillBlank)
		question.Blanks = nil
		assert.Error(t, v.ValidateQuestion(&question))
	})

	t.Run("fill blank rejects empty accepted answer", func(t *testing.T) {
		question := validQuestion(models.FillBlank)
		question.Blanks = []string{"ok", ""}
		assert.Error(t, v.ValidateQuestion(&question))
	})

	t.Run("matching needs both sides of every pair", func(t *testing.T) {
		question := validQuestion(models.Matching)
		question.Pairs[1].Right = ""
		assert.Error(t, v.ValidateQuestion(&question))
	})

	t.Run("matching needs at least 2 pairs", func(t *testing.T) {
		question := validQuestion(models.Matching)
		question.Pairs = question.Pairs[:1]
		assert.Error(t, v.ValidateQuestion(&question))
	})

	t.Run("ordering needs at least 2 items", func(t *testing.T) {
		question := validQuestion(models.Ordering)
		question.Items = []string{"only"}
		assert.Error(t, v.ValidateQuestion(&question))
	})

	t.Run("unknown kind", func(t *testing.T) {
		question := models.Question{ID: "q1", Kind: "word_cloud", Text: "?"}
		err := v.ValidateQuestion(&question)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported question kind")
	})
}

func TestValidateQuiz(t *testing.T) {
	v := NewQuestionValidator()

	t.Run("valid quiz passes", func(t *testing.T) {
		quiz := &models.Quiz{
			ID:    "quiz-1",
			Title: "Unit 1",
			Questions: []models.Question{
				validQuestion(models.SingleChoice),
				func() models.Question {
					q := validQuestion(models.Essay)
					q.ID = "q2"
					return q
				}(),
			},
		}
		assert.Empty(t, v.ValidateQuiz(quiz))
	})

	t.Run("empty quiz is rejected", func(t *testing.T) {
		errs := v.ValidateQuiz(&models.Quiz{ID: "quiz-1", Title: "Empty"})
		require.Len(t, errs, 1)
		assert.Equal(t, "questions", errs[0].Field)
	})

	t.Run("duplicate question ids are flagged", func(t *testing.T) {
		quiz := &models.Quiz{
			ID:    "quiz-1",
			Title: "Dupes",
			Questions: []models.Question{
				validQuestion(models.SingleChoice),
				validQuestion(models.SingleChoice),
			},
		}
		errs := v.ValidateQuiz(quiz)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0].Message, "duplicated")
	})

	t.Run("per question errors carry the index", func(t *testing.T) {
		bad := validQuestion(models.SingleChoice)
		bad.ID = "q2"
		bad.CorrectIndices = []int{9}
		quiz := &models.Quiz{
			ID:        "quiz-1",
			Title:     "Mixed",
			Questions: []models.Question{validQuestion(models.SingleChoice), bad},
		}
		errs := v.ValidateQuiz(quiz)
		require.Len(t, errs, 1)
		assert.Equal(t, "questions[1]", errs[0].Field)
	})
}
