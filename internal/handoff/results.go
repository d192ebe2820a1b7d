package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cadetquiz/internal/exam"
)

// ResultsKey is the storage key the finished attempt is written under.
const ResultsKey = "testResults"

const DefaultTTL = 2 * time.Hour

var ErrNoResults = errors.New("no test results found")

// Results writes finished attempts into a Store and reads them back for the
// results view. It satisfies exam.Handoff.
type Results struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewResults(store Store, ttl time.Duration) *Results {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Results{store: store, ttl: ttl, now: time.Now}
}

func (r *Results) SaveResults(ctx context.Context, visitorID string, bundle exam.ResultBundle) error {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	if err := r.store.Put(ctx, visitorID, ResultsKey, payload, r.now().Add(r.ttl)); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

func (r *Results) LoadResults(ctx context.Context, visitorID string) (*exam.ResultBundle, error) {
	payload, err := r.store.Get(ctx, visitorID, ResultsKey, r.now())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNoResults
		}
		return nil, fmt.Errorf("load results: %w", err)
	}

	var bundle exam.ResultBundle
	if err := json.Unmarshal(payload, &bundle); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	if bundle.TestData == nil {
		return nil, ErrNoResults
	}
	return &bundle, nil
}

// Purge drops every expired entry, results included.
func (r *Results) Purge(ctx context.Context) (int64, error) {
	return r.store.Purge(ctx, r.now())
}
