package validator

import (
	"fmt"

	"github.com/VAL02142004/Online-Quiz--sub000/internal/models"
)

// QuestionValidator checks that a question's payload is internally consistent
// with its kind. The scoring engine relies on these invariants; a question
// that fails them is still scoreable but always counts as incorrect.
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuiz validates every question of a quiz and checks id uniqueness.
func (v *QuestionValidator) ValidateQuiz(quiz *models.Quiz) ValidationErrors {
	var errs ValidationErrors

	if len(quiz.Questions) == 0 {
		errs = append(errs, *NewValidationError("questions", "quiz must have at least 1 question", nil))
		return errs
	}

	seen := make(map[string]bool, len(quiz.Questions))
	for i, question := range quiz.Questions {
		field := fmt.Sprintf("questions[%d]", i)

		if question.ID == "" {
			errs = append(errs, *NewValidationError(field+".id", "question id is required", nil))
		} else if seen[question.ID] {
			errs = append(errs, *NewValidationError(field+".id", "question id is duplicated within the quiz", question.ID))
		}
		seen[question.ID] = true

		if err := v.ValidateQuestion(&question); err != nil {
			errs = append(errs, *NewValidationError(field, err.Error(), string(question.Kind)))
		}
	}

	return errs
}

// ValidateQuestion validates a single question's payload against its kind.
func (v *QuestionValidator) ValidateQuestion(question *models.Question) error {
	if question.Text == "" {
		return fmt.Errorf("question text is required")
	}

	switch question.Kind {
	case models.SingleChoice:
		return v.validateChoicePayload(question, 1)
	case models.TrueFalse:
		if len(question.Options) != 2 {
			return fmt.Errorf("true/false question must have exactly 2 options")
		}
		return v.validateChoicePayload(question, 1)
	case models.MultiChoice:
		return v.validateChoicePayload(question, 0)
	case models.ShortAnswer, models.Essay:
		return v.validateManualPayload(question)
	case models.FillBlank:
		return v.validateFillBlankPayload(question)
	case models.Matching:
		return v.validateMatchingPayload(question)
	case models.Ordering:
		return v.validateOrderingPayload(question)
	default:
		return fmt.Errorf("unsupported question kind: %s", question.Kind)
	}
}

// validateChoicePayload covers single-choice, multi-choice and true/false.
// exactCorrect > 0 pins the number of correct indices; 0 means "at least 1".
func (v *QuestionValidator) validateChoicePayload(question *models.Question, exactCorrect int) error {
	if len(question.Options) < 2 {
		return fmt.Errorf("must have at least 2 options")
	}
	if len(question.Options) > 10 {
		return fmt.Errorf("cannot have more than 10 options")
	}
	for i, option := range question.Options {
		if option == "" {
			return fmt.Errorf("option %d text cannot be empty", i)
		}
	}

	if exactCorrect > 0 && len(question.CorrectIndices) != exactCorrect {
		return fmt.Errorf("must have exactly %d correct index, got %d", exactCorrect, len(question.CorrectIndices))
	}
	if len(question.CorrectIndices) == 0 {
		return fmt.Errorf("must have at least 1 correct index")
	}

	seen := make(map[int]bool, len(question.CorrectIndices))
	for _, index := range question.CorrectIndices {
		if index < 0 || index >= len(question.Options) {
			return fmt.Errorf("correct index %d is out of range [0, %d)", index, len(question.Options))
		}
		if seen[index] {
			return fmt.Errorf("correct index %d is duplicated", index)
		}
		seen[index] = true
	}

	return nil
}

func (v *QuestionValidator) validateManualPayload(question *models.Question) error {
	// Manual kinds carry no machine-checkable payload. Reject stray payload
	// fields so an authoring bug surfaces at save time instead of at grading.
	if len(question.Options) > 0 || len(question.CorrectIndices) > 0 ||
		len(question.Blanks) > 0 || len(question.Pairs) > 0 || len(question.Items) > 0 {
		return fmt.Errorf("%s question must not carry an auto-grading payload", question.Kind)
	}
	return nil
}

func (v *QuestionValidator) validateFillBlankPayload(question *models.Question) error {
	if len(question.Blanks) == 0 {
		return fmt.Errorf("must have at least 1 blank")
	}
	for i, accepted := range question.Blanks {
		if accepted == "" {
			return fmt.Errorf("blank %d must have a non-empty accepted answer", i)
		}
	}
	return nil
}

func (v *QuestionValidator) validateMatchingPayload(question *models.Question) error {
	if len(question.Pairs) < 2 {
		return fmt.Errorf("must have at least 2 pairs")
	}
	if len(question.Pairs) > 10 {
		return fmt.Errorf("cannot have more than 10 pairs")
	}
	for i, pair := range question.Pairs {
		if pair.Left == "" || pair.Right == "" {
			return fmt.Errorf("pair %d must have both left and right text", i)
		}
	}
	return nil
}

func (v *QuestionValidator) validateOrderingPayload(question *models.Question) error {
	if len(question.Items) < 2 {
		return fmt.Errorf("must have at least 2 items")
	}
	if len(question.Items) > 10 {
		return fmt.Errorf("cannot have more than 10 items")
	}
	for i, item := range question.Items {
		if item == "" {
			return fmt.Errorf("item %d text cannot be empty", i)
		}
	}
	return nil
}
