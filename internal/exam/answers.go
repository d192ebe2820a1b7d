package exam

import (
	"errors"
	"fmt"

	"cadetquiz/internal/testdef"
)

var (
	ErrInvalidIndex  = errors.New("question index out of range")
	ErrUnknownOption = errors.New("option not found in question")
)

// AnswerState is the user's selection for one question.
type AnswerState struct {
	Selected   []string `json:"selected"`
	IsAnswered bool     `json:"isAnswered"`
	IsCorrect  bool     `json:"isCorrect"`
}

func (a AnswerState) has(key string) bool {
	for _, k := range a.Selected {
		if k == key {
			return true
		}
	}
	return false
}

func (a AnswerState) clone() AnswerState {
	out := a
	out.Selected = append([]string{}, a.Selected...)
	return out
}

// AnswerSheet holds one AnswerState per question. It knows question types but not correctness.
type AnswerSheet struct {
	questions []testdef.Question
	states    []AnswerState
}

func NewAnswerSheet(questions []testdef.Question) *AnswerSheet {
	states := make([]AnswerState, len(questions))
	for i := range states {
		states[i] = AnswerState{Selected: []string{}}
	}
	return &AnswerSheet{questions: questions, states: states}
}

func (s *AnswerSheet) Len() int {
	return len(s.states)
}

// Select applies a click on option key of question index. Single-choice questions replace the
// selection, multiple_response questions toggle membership.
func (s *AnswerSheet) Select(index int, key string) error {
	if index < 0 || index >= len(s.states) {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	q := s.questions[index]
	if !q.Options.Has(key) {
		return fmt.Errorf("%w: %q", ErrUnknownOption, key)
	}

	st := &s.states[index]
	if q.MultiSelect() {
		if st.has(key) {
			kept := st.Selected[:0]
			for _, k := range st.Selected {
				if k != key {
					kept = append(kept, k)
				}
			}
			st.Selected = kept
		} else {
			st.Selected = append(st.Selected, key)
		}
	} else {
		st.Selected = []string{key}
	}
	st.IsAnswered = len(st.Selected) > 0
	return nil
}

func (s *AnswerSheet) State(index int) (AnswerState, error) {
	if index < 0 || index >= len(s.states) {
		return AnswerState{}, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	return s.states[index].clone(), nil
}

// Snapshot returns a deep copy of every state.
func (s *AnswerSheet) Snapshot() []AnswerState {
	out := make([]AnswerState, len(s.states))
	for i, st := range s.states {
		out[i] = st.clone()
	}
	return out
}

func (s *AnswerSheet) Answered() int {
	n := 0
	for _, st := range s.states {
		if st.IsAnswered {
			n++
		}
	}
	return n
}
