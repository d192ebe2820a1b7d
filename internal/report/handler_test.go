package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cadetquiz/internal/exam"
	"cadetquiz/internal/handoff"
	"cadetquiz/internal/visitor"
)

type mockLoader struct {
	loadFn func(ctx context.Context, visitorID string) (*exam.ResultBundle, error)
}

func (m *mockLoader) LoadResults(ctx context.Context, visitorID string) (*exam.ResultBundle, error) {
	if m.loadFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.loadFn(ctx, visitorID)
}

func newTestHandler(t *testing.T, fn func(ctx context.Context, visitorID string) (*exam.ResultBundle, error)) *Handler {
	t.Helper()
	signer, err := NewSigner("handler-secret")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	return NewHandler(NewService(&mockLoader{loadFn: fn}, signer))
}

func TestResultsNoResults(t *testing.T) {
	h := newTestHandler(t, func(ctx context.Context, visitorID string) (*exam.ResultBundle, error) {
		return nil, handoff.ErrNoResults
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/results", nil)
	w := httptest.NewRecorder()

	h.Results(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"no_results"`) || !strings.Contains(w.Body.String(), msgNoResults) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestResultsUsesVisitor(t *testing.T) {
	h := newTestHandler(t, func(ctx context.Context, visitorID string) (*exam.ResultBundle, error) {
		if visitorID != "v42" {
			t.Fatalf("expected visitor v42, got %q", visitorID)
		}
		return bundle(t, [][]string{{"a"}}, 30), nil
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/results", nil)
	req = req.WithContext(visitor.ContextWithID(req.Context(), "v42"))
	w := httptest.NewRecorder()

	h.Results(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestExportSetsAttachmentHeaders(t *testing.T) {
	h := newTestHandler(t, func(ctx context.Context, visitorID string) (*exam.ResultBundle, error) {
		return bundle(t, nil, 0), nil
	})
	w := httptest.NewRecorder()
	h.Export(w, httptest.NewRequest(http.MethodGet, "/api/v1/results/export", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="map-reading-results.xlsx"` {
		t.Fatalf("unexpected disposition: %s", got)
	}
	if w.Body.Len() == 0 {
		t.Fatalf("expected workbook bytes")
	}
}

func TestShareThenShared(t *testing.T) {
	h := newTestHandler(t, func(ctx context.Context, visitorID string) (*exam.ResultBundle, error) {
		return bundle(t, [][]string{{"a"}, {"a", "b"}}, 30), nil
	})

	w := httptest.NewRecorder()
	h.Share(w, httptest.NewRequest(http.MethodPost, "/api/v1/results/share", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var env struct {
		Data ShareLink `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.Score != 75 || !strings.HasPrefix(env.Data.URL, "/api/v1/shared?") {
		t.Fatalf("unexpected link: %+v", env.Data)
	}

	w = httptest.NewRecorder()
	h.Shared(w, httptest.NewRequest(http.MethodGet, env.Data.URL, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a valid link, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "Grid terms") {
		t.Fatalf("shared view must not expose the review")
	}

	w = httptest.NewRecorder()
	h.Shared(w, httptest.NewRequest(http.MethodGet, strings.Replace(env.Data.URL, "score=75", "score=99", 1), nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a tampered link, got %d", w.Code)
	}
}

func TestResultsLoadFailure(t *testing.T) {
	h := newTestHandler(t, func(ctx context.Context, visitorID string) (*exam.ResultBundle, error) {
		return nil, errors.New("decode results: unexpected EOF")
	})
	w := httptest.NewRecorder()
	h.Results(w, httptest.NewRequest(http.MethodGet, "/api/v1/results", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
