package exam

import (
	"errors"
	"testing"
)

func TestNavigatorBoundaries(t *testing.T) {
	n := NewNavigator(3)

	if n.CanPrevious() || !n.CanNext() {
		t.Fatalf("unexpected controls at start: prev=%v next=%v", n.CanPrevious(), n.CanNext())
	}
	if n.Previous() || n.Current() != 0 {
		t.Fatalf("previous at 0 must be a no-op, got %d", n.Current())
	}

	n.Next()
	n.Next()
	if n.Current() != 2 || n.CanNext() || !n.CanPrevious() {
		t.Fatalf("unexpected state at end: %+v", n)
	}
	if n.Next() || n.Current() != 2 {
		t.Fatalf("next at last index must be a no-op, got %d", n.Current())
	}
}

func TestNavigatorJumpTo(t *testing.T) {
	n := NewNavigator(4)
	for _, from := range []int{0, 3, 1} {
		for to := 0; to < 4; to++ {
			if err := n.JumpTo(from); err != nil {
				t.Fatalf("jump to %d: %v", from, err)
			}
			if err := n.JumpTo(to); err != nil {
				t.Fatalf("jump %d->%d: %v", from, to, err)
			}
			if n.Current() != to {
				t.Fatalf("expected %d, got %d", to, n.Current())
			}
		}
	}
	if err := n.JumpTo(4); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
	if err := n.JumpTo(-1); !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}
}

func TestNavigatorProgress(t *testing.T) {
	n := NewNavigator(4)
	n.Next()
	if got := n.Progress(); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
}

func TestStatuses(t *testing.T) {
	answers := []AnswerState{
		{Selected: []string{"a"}, IsAnswered: true},
		{Selected: []string{"b"}, IsAnswered: true},
		{Selected: []string{}},
	}
	got := Statuses(1, answers)
	want := []QuestionStatus{StatusAnswered, StatusCurrent, StatusUnanswered}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("status %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestMapKey(t *testing.T) {
	tests := []struct {
		key    string
		action keyAction
		option string
	}{
		{key: "ArrowLeft", action: keyPrevious},
		{key: "ArrowRight", action: keyNext},
		{key: "1", action: keySelect, option: "a"},
		{key: "4", action: keySelect, option: "d"},
		{key: "5", action: keyNone},
		{key: "Enter", action: keyNone},
	}
	for _, tc := range tests {
		action, option := mapKey(tc.key)
		if action != tc.action || option != tc.option {
			t.Fatalf("key %q: expected (%d,%q), got (%d,%q)", tc.key, tc.action, tc.option, action, option)
		}
	}
}
