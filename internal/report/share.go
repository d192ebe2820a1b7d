package report

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

var ErrInvalidShare = errors.New("invalid share link")

const sharedNote = "Detailed question review is only available to the test taker."

// Shared is what a share link reveals: title and score, never the review.
type Shared struct {
	Title string `json:"title"`
	Score int    `json:"score"`
	Note  string `json:"note"`
}

// Signer authenticates share links with a keyed BLAKE2b MAC so a recipient
// cannot edit the score in the query string.
type Signer struct {
	key []byte
}

// NewSigner derives a 32-byte MAC key from secret. An empty secret gets a
// random key, which invalidates links on restart.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate share key: %w", err)
		}
		return &Signer{key: key}, nil
	}
	sum := blake2b.Sum256([]byte(secret))
	return &Signer{key: sum[:]}, nil
}

func (s *Signer) Sign(title string, score int) string {
	mac, err := blake2b.New256(s.key)
	if err != nil {
		// Only returned for keys longer than 64 bytes.
		panic(err)
	}
	mac.Write([]byte(title))
	mac.Write([]byte{0})
	mac.Write([]byte(strconv.Itoa(score)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Query builds the share query string for a finished attempt.
func (s *Signer) Query(title string, score int) url.Values {
	q := url.Values{}
	q.Set("shared", "true")
	q.Set("test", title)
	q.Set("score", strconv.Itoa(score))
	q.Set("sig", s.Sign(title, score))
	return q
}

// Verify checks a share query and returns the public summary.
func (s *Signer) Verify(q url.Values) (Shared, error) {
	title := strings.TrimSpace(q.Get("test"))
	rawScore := strings.TrimSpace(q.Get("score"))
	sig := strings.TrimSpace(q.Get("sig"))
	if title == "" || rawScore == "" || sig == "" {
		return Shared{}, ErrInvalidShare
	}
	score, err := strconv.Atoi(rawScore)
	if err != nil || score < 0 || score > 100 {
		return Shared{}, ErrInvalidShare
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return Shared{}, ErrInvalidShare
	}
	want, _ := hex.DecodeString(s.Sign(title, score))
	if !hmac.Equal(got, want) {
		return Shared{}, ErrInvalidShare
	}
	return Shared{Title: title, Score: score, Note: sharedNote}, nil
}
