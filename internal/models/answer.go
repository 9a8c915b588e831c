package models

// AnswerValue is the submitted answer for a single question. Exactly one of
// the payload fields is meaningful, determined by the question kind:
//
//	single_choice / true_false  -> SelectedIndex
//	multi_choice                -> SelectedIndices (treated as a set)
//	ordering                    -> SelectedIndices (treated as a permutation)
//	short_answer / essay        -> Text
//	fill_blank                  -> Texts (one entry per blank slot)
//	matching                    -> Texts (right-hand value per left item index)
//
// A nil *AnswerValue in an AnswerMap means "not answered yet"; that is a
// valid state, not an error.
type AnswerValue struct {
	SelectedIndex   *int     `json:"selected_index,omitempty"`
	SelectedIndices []int    `json:"selected_indices,omitempty"`
	Text            *string  `json:"text,omitempty"`
	Texts           []string `json:"texts,omitempty"`
}

// AnswerMap maps question id to the student's answer. Unanswered questions
// are present with a nil value so the map always covers the whole quiz.
type AnswerMap map[string]*AnswerValue

// IndexAnswer builds an AnswerValue for single-choice and true/false questions.
func IndexAnswer(i int) *AnswerValue {
	return &AnswerValue{SelectedIndex: &i}
}

// IndicesAnswer builds an AnswerValue for multi-choice and ordering questions.
func IndicesAnswer(indices ...int) *AnswerValue {
	return &AnswerValue{SelectedIndices: indices}
}

// TextAnswer builds an AnswerValue for short-answer and essay questions.
func TextAnswer(text string) *AnswerValue {
	return &AnswerValue{Text: &text}
}

// TextsAnswer builds an AnswerValue for fill-blank and matching questions.
func TextsAnswer(texts ...string) *AnswerValue {
	return &AnswerValue{Texts: texts}
}

// IsEmpty reports whether the value carries no submitted content. An empty
// value counts as unanswered for scoring and for the manual-submit gate.
func (a *AnswerValue) IsEmpty() bool {
	if a == nil {
		return true
	}
	if a.SelectedIndex != nil {
		return false
	}
	if len(a.SelectedIndices) > 0 {
		return false
	}
	if a.Text != nil && *a.Text != "" {
		return false
	}
	if len(a.Texts) > 0 {
		return false
	}
	return true
}

// Clone returns a deep copy so engine snapshots never alias live state.
func (a *AnswerValue) Clone() *AnswerValue {
	if a == nil {
		return nil
	}
	clone := &AnswerValue{}
	if a.SelectedIndex != nil {
		v := *a.SelectedIndex
		clone.SelectedIndex = &v
	}
	if a.SelectedIndices != nil {
		clone.SelectedIndices = append([]int(nil), a.SelectedIndices...)
	}
	if a.Text != nil {
		v := *a.Text
		clone.Text = &v
	}
	if a.Texts != nil {
		clone.Texts = append([]string(nil), a.Texts...)
	}
	return clone
}

// Clone returns a deep copy of the map, including nil (unanswered) entries.
func (m AnswerMap) Clone() AnswerMap {
	if m == nil {
		return nil
	}
	clone := make(AnswerMap, len(m))
	for id, value := range m {
		clone[id] = value.Clone()
	}
	return clone
}

// AnsweredCount returns the number of non-empty answers.
func (m AnswerMap) AnsweredCount() int {
	count := 0
	for _, value := range m {
		if !value.IsEmpty() {
			count++
		}
	}
	return count
}
