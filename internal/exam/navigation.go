package exam

import "fmt"

type QuestionStatus string

const (
	StatusCurrent    QuestionStatus = "current"
	StatusAnswered   QuestionStatus = "answered"
	StatusUnanswered QuestionStatus = "unanswered"
)

// Navigator tracks the current question. Exactly one index in [0, total) is current.
type Navigator struct {
	current int
	total   int
}

func NewNavigator(total int) Navigator {
	return Navigator{total: total}
}

func (n Navigator) Current() int { return n.current }
func (n Navigator) Total() int   { return n.total }

func (n Navigator) CanPrevious() bool {
	return n.current > 0
}

func (n Navigator) CanNext() bool {
	return n.current < n.total-1
}

// Previous moves back one question and reports whether the index changed.
func (n *Navigator) Previous() bool {
	if !n.CanPrevious() {
		return false
	}
	n.current--
	return true
}

func (n *Navigator) Next() bool {
	if !n.CanNext() {
		return false
	}
	n.current++
	return true
}

func (n *Navigator) JumpTo(index int) error {
	if index < 0 || index >= n.total {
		return fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}
	n.current = index
	return nil
}

// Progress is the position of the current question as a percentage of the total.
func (n Navigator) Progress() float64 {
	if n.total == 0 {
		return 0
	}
	return float64(n.current+1) / float64(n.total) * 100
}

// Statuses derives the jump-control state of every question.
func Statuses(current int, answers []AnswerState) []QuestionStatus {
	out := make([]QuestionStatus, len(answers))
	for i, a := range answers {
		switch {
		case i == current:
			out[i] = StatusCurrent
		case a.IsAnswered:
			out[i] = StatusAnswered
		default:
			out[i] = StatusUnanswered
		}
	}
	return out
}

type keyAction int

const (
	keyNone keyAction = iota
	keyPrevious
	keyNext
	keySelect
)

// mapKey translates a keyboard key. Digits 1-4 select options a-d on the current question.
func mapKey(key string) (keyAction, string) {
	switch key {
	case "ArrowLeft":
		return keyPrevious, ""
	case "ArrowRight":
		return keyNext, ""
	case "1", "2", "3", "4":
		return keySelect, string(rune('a' + key[0] - '1'))
	}
	return keyNone, ""
}
