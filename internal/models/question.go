package models

type QuestionKind string

const (
	SingleChoice QuestionKind = "single_choice"
	MultiChoice  QuestionKind = "multi_choice"
	TrueFalse    QuestionKind = "true_false"
	ShortAnswer  QuestionKind = "short_answer"
	Essay        QuestionKind = "essay"
	FillBlank    QuestionKind = "fill_blank"
	Matching     QuestionKind = "matching"
	Ordering     QuestionKind = "ordering"
)

// AllQuestionKinds lists every supported kind, in a stable order.
var AllQuestionKinds = []QuestionKind{
	SingleChoice,
	MultiChoice,
	TrueFalse,
	ShortAnswer,
	Essay,
	FillBlank,
	Matching,
	Ordering,
}

// MatchPair is one authored (left, right) association of a matching question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Question is one entry of a quiz. The payload fields are kind-specific:
// only the fields relevant to Kind are populated, everything else stays at
// its zero value. Once the owning quiz is published a question is immutable
// from the student's point of view; teachers may still edit it, which is
// what makes regrading meaningful.
type Question struct {
	ID   string       `json:"id" validate:"required"`
	Kind QuestionKind `json:"kind" validate:"required,question_kind"`
	Text string       `json:"text" validate:"required"` // markdown prompt

	// single_choice / multi_choice / true_false
	Options        []string `json:"options,omitempty"`
	CorrectIndices []int    `json:"correct_indices,omitempty"`

	// fill_blank: one accepted literal per blank slot, case-sensitive
	Blanks []string `json:"blanks,omitempty"`

	// matching
	Pairs []MatchPair `json:"pairs,omitempty"`

	// ordering: items listed in the correct order
	Items []string `json:"items,omitempty"`
}

// IsAutoGradable reports whether correctness for this kind can be decided by
// exact comparison. Essay and short-answer always route to manual grading.
func (k QuestionKind) IsAutoGradable() bool {
	switch k {
	case SingleChoice, MultiChoice, TrueFalse, FillBlank, Matching, Ordering:
		return true
	case ShortAnswer, Essay:
		return false
	default:
		return false
	}
}

// IsValidKind reports whether k is one of the supported question kinds.
func IsValidKind(k QuestionKind) bool {
	for _, valid := range AllQuestionKinds {
		if k == valid {
			return true
		}
	}
	return false
}
