package exam

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"cadetquiz/internal/app/apiresp"
	"cadetquiz/internal/testdef"
	"cadetquiz/internal/visitor"

	"github.com/go-chi/chi/v5"
)

const (
	msgInvalidParameters = "Invalid test parameters. Please return to tests page."
	msgLoadFailed        = "Failed to load test. Please try again."
	msgInvalidTest       = "This test file is invalid. Please try again later."
	msgSubmitFailed      = "Failed to submit test. Please try again."
)

type Handler struct {
	svc examService
}

type examService interface {
	Start(ctx context.Context, in StartInput) (SessionView, error)
	View(ctx context.Context, visitorID, sessionID string) (SessionView, error)
	Dispatch(ctx context.Context, visitorID, sessionID string, ev Event) (SessionView, error)
	Submit(ctx context.Context, visitorID, sessionID string) (*ResultBundle, error)
	Restart(ctx context.Context, visitorID, sessionID string) (SessionView, error)
}

type response struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

type submitResponse struct {
	SessionID  string  `json:"session_id"`
	Results    Results `json:"results"`
	TimeSpent  int     `json:"time_spent"`
	ResultsURL string  `json:"results_url"`
}

func NewHandler(svc examService) *Handler {
	return &Handler{svc: svc}
}

// Start begins a session for ?category=&subcategory=&mode=.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.svc.Start(r.Context(), StartInput{
		VisitorID:   visitorID(r),
		Category:    strings.TrimSpace(q.Get("category")),
		Subcategory: strings.TrimSpace(q.Get("subcategory")),
		Mode:        strings.TrimSpace(q.Get("mode")),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, response{OK: true, Data: view})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), visitorID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	var ev Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "invalid request body"})
		return
	}
	if strings.TrimSpace(string(ev.Type)) == "" {
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: "type is required"})
		return
	}

	view, err := h.svc.Dispatch(r.Context(), visitorID(r), chi.URLParam(r, "id"), ev)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	bundle, err := h.svc.Submit(r.Context(), visitorID(r), sessionID)
	if err != nil {
		if bundle != nil {
			apiresp.WriteProblem(w, r, http.StatusInternalServerError, apiresp.ErrorPayload{
				Code:    "handoff_error",
				Message: msgSubmitFailed,
				Actions: []string{apiresp.ActionRetry},
			})
			return
		}
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: submitResponse{
		SessionID:  sessionID,
		Results:    bundle.Results,
		TimeSpent:  bundle.TimeSpent,
		ResultsURL: "/api/v1/results",
	}})
}

func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Restart(r.Context(), visitorID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, response{OK: true, Data: view})
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	back := []string{apiresp.ActionBack}
	retryBack := []string{apiresp.ActionRetry, apiresp.ActionBack}

	var fetchErr *testdef.FetchError
	switch {
	case errors.Is(err, testdef.ErrMissingParameters):
		apiresp.WriteProblem(w, r, http.StatusBadRequest, apiresp.ErrorPayload{Code: "missing_parameters", Message: msgInvalidParameters, Actions: back})
	case errors.Is(err, testdef.ErrInvalidParameters), errors.Is(err, ErrInvalidMode):
		apiresp.WriteProblem(w, r, http.StatusBadRequest, apiresp.ErrorPayload{Message: msgInvalidParameters, Detail: err.Error(), Actions: back})
	case errors.As(err, &fetchErr):
		status := http.StatusBadGateway
		if fetchErr.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		apiresp.WriteProblem(w, r, status, apiresp.ErrorPayload{Code: "fetch_error", Message: msgLoadFailed, Detail: fetchErr.Error(), Actions: retryBack})
	case errors.Is(err, testdef.ErrSchema):
		apiresp.WriteProblem(w, r, http.StatusUnprocessableEntity, apiresp.ErrorPayload{Code: "schema_error", Message: msgInvalidTest, Detail: err.Error(), Actions: retryBack})
	case errors.Is(err, ErrInvalidIndex), errors.Is(err, ErrUnknownOption), errors.Is(err, ErrInvalidEvent):
		log.Printf("ignored session event: %v", err)
		writeJSON(w, r, http.StatusBadRequest, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrSessionInactive):
		writeJSON(w, r, http.StatusConflict, response{OK: false, Error: err.Error()})
	case errors.Is(err, ErrSessionNotFound):
		apiresp.WriteProblem(w, r, http.StatusNotFound, apiresp.ErrorPayload{Message: err.Error(), Actions: back})
	case errors.Is(err, ErrSessionForbidden), errors.Is(err, ErrVisitorRequired):
		writeJSON(w, r, http.StatusForbidden, response{OK: false, Error: "forbidden"})
	default:
		log.Printf("session request failed: %v", err)
		apiresp.WriteProblem(w, r, http.StatusInternalServerError, apiresp.ErrorPayload{Message: "internal error", Actions: back})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, payload response) {
	if payload.OK {
		apiresp.WriteOK(w, r, code, payload.Data)
		return
	}
	apiresp.WriteError(w, r, code, payload.Error)
}

func visitorID(r *http.Request) string {
	id, _ := visitor.FromContext(r.Context())
	return id
}
