package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const smokeTestJSON = `{
	"title": "Drill Basics",
	"metadata": {"time_limit": 600, "passing_score": 50},
	"questions": [
		{"text": "Savdhan means?", "options": {"a": "Attention", "b": "Stand at ease"}, "correct_answer": ["a"], "explanation": "Savdhan is attention."},
		{"text": "Vishram means?", "options": {"a": "Attention", "b": "Stand at ease"}, "correct_answer": ["b"]}
	]
}`

func newSmokeServer(t *testing.T) *httptest.Server {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "test", "common"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "test", "common", "drill.json"), []byte(smokeTestJSON), 0o644); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	cfg := Config{
		TestDir:              dir,
		ResultStore:          StoreMemory,
		StartRateLimitPerMin: 60,
		ShareSecret:          "smoke",
	}
	store, conn, err := OpenStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc, err := NewServices(cfg, store, conn)
	if err != nil {
		t.Fatalf("services: %v", err)
	}
	t.Cleanup(svc.Close)

	srv := httptest.NewServer(NewRouter(cfg, svc))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func call(t *testing.T, c *http.Client, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func TestRouterSmoke(t *testing.T) {
	srv := newSmokeServer(t)
	c := newClient(t)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{name: "healthz", method: http.MethodGet, target: "/healthz", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, target: "/metrics", wantStatus: http.StatusOK},
		{name: "catalog", method: http.MethodGet, target: "/api/v1/catalog", wantStatus: http.StatusOK},
		{name: "test_file", method: http.MethodGet, target: "/test/common/drill.json", wantStatus: http.StatusOK},
		{name: "start_missing_params", method: http.MethodPost, target: "/api/v1/sessions?category=common", wantStatus: http.StatusBadRequest},
		{name: "start_invalid_params", method: http.MethodPost, target: "/api/v1/sessions?category=common&subcategory=..%2Fetc", wantStatus: http.StatusBadRequest},
		{name: "start_missing_file", method: http.MethodPost, target: "/api/v1/sessions?category=common&subcategory=nope", wantStatus: http.StatusNotFound},
		{name: "session_unknown", method: http.MethodGet, target: "/api/v1/sessions/6f1c2a9e-4b7d-4c1e-9a53-2d8f0b7e6c41", wantStatus: http.StatusNotFound},
		{name: "no_results", method: http.MethodGet, target: "/api/v1/results", wantStatus: http.StatusNotFound},
		{name: "shared_bad_sig", method: http.MethodGet, target: "/api/v1/shared?test=x&score=1&sig=00", wantStatus: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := call(t, c, tc.method, srv.URL+tc.target, "")
			if code != tc.wantStatus {
				t.Fatalf("%s %s: got status %d, want %d (%s)", tc.method, tc.target, code, tc.wantStatus, body)
			}
		})
	}
}

func TestRouterAttemptFlow(t *testing.T) {
	srv := newSmokeServer(t)
	c := newClient(t)

	code, body := call(t, c, http.MethodPost, srv.URL+"/api/v1/sessions?category=common&subcategory=drill&mode=exam", "")
	if code != http.StatusCreated {
		t.Fatalf("start: got %d (%s)", code, body)
	}
	var started struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &started); err != nil || started.Data.ID == "" {
		t.Fatalf("decode start: %v (%s)", err, body)
	}
	base := srv.URL + "/api/v1/sessions/" + started.Data.ID

	if code, body := call(t, c, http.MethodPost, base+"/events", `{"type":"select","question":0,"option":"a"}`); code != http.StatusOK {
		t.Fatalf("select: got %d (%s)", code, body)
	}
	if code, _ := call(t, c, http.MethodPost, base+"/events", `{"type":"jump","question":9}`); code != http.StatusBadRequest {
		t.Fatalf("invalid jump: got %d", code)
	}

	other := newClient(t)
	if code, _ := call(t, other, http.MethodGet, base, ""); code != http.StatusForbidden {
		t.Fatalf("another visitor must not read the session, got %d", code)
	}

	if code, body := call(t, c, http.MethodPost, base+"/submit", ""); code != http.StatusOK {
		t.Fatalf("submit: got %d (%s)", code, body)
	}
	if code, _ := call(t, c, http.MethodPost, base+"/events", `{"type":"next"}`); code != http.StatusConflict {
		t.Fatalf("events after submit: got %d", code)
	}

	code, body = call(t, c, http.MethodGet, srv.URL+"/api/v1/results", "")
	if code != http.StatusOK {
		t.Fatalf("results: got %d (%s)", code, body)
	}
	var results struct {
		Data struct {
			Score  int  `json:"score"`
			Passed bool `json:"passed"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &results); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if results.Data.Score != 50 || !results.Data.Passed {
		t.Fatalf("unexpected results: %+v", results.Data)
	}

	if code, _ := call(t, other, http.MethodGet, srv.URL+"/api/v1/results", ""); code != http.StatusNotFound {
		t.Fatalf("results are per visitor, got %d", code)
	}

	_, metrics := call(t, c, http.MethodGet, srv.URL+"/metrics", "")
	for _, want := range []string{"cadetquiz_sessions_started_total 1", "cadetquiz_sessions_submitted_total 1"} {
		if !strings.Contains(string(metrics), want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}
