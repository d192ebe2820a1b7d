package report

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareRoundTrip(t *testing.T) {
	s, err := NewSigner("unit-test-secret")
	require.NoError(t, err)

	q := s.Query("Drill Basics", 85)
	assert.Equal(t, "true", q.Get("shared"))

	out, err := s.Verify(q)
	require.NoError(t, err)
	assert.Equal(t, Shared{Title: "Drill Basics", Score: 85, Note: sharedNote}, out)
}

func TestShareRejectsTampering(t *testing.T) {
	s, _ := NewSigner("unit-test-secret")
	other, _ := NewSigner("another-secret")

	good := s.Query("Drill Basics", 40)

	tampered := url.Values{}
	for k, v := range good {
		tampered[k] = v
	}
	tampered.Set("score", "100")

	tests := map[string]url.Values{
		"edited score":   tampered,
		"other key":      other.Query("Drill Basics", 40),
		"missing sig":    {"test": {"Drill Basics"}, "score": {"40"}},
		"non hex sig":    {"test": {"Drill Basics"}, "score": {"40"}, "sig": {"zz"}},
		"score too high": {"test": {"x"}, "score": {"101"}, "sig": {s.Sign("x", 101)}},
	}
	for name, q := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(q)
			assert.ErrorIs(t, err, ErrInvalidShare)
		})
	}
}

func TestRandomSignerKeysDiffer(t *testing.T) {
	a, err := NewSigner("")
	require.NoError(t, err)
	b, err := NewSigner("")
	require.NoError(t, err)
	assert.NotEqual(t, a.Sign("t", 1), b.Sign("t", 1))
}
