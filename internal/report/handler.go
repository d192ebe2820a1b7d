package report

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"cadetquiz/internal/app/apiresp"
	"cadetquiz/internal/handoff"
	"cadetquiz/internal/visitor"
)

const msgNoResults = "No test results found. Please take a test first."

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	rv, err := h.svc.Review(r.Context(), visitorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, rv)
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Export(r.Context(), visitorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.Share(r.Context(), visitorID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, link)
}

func (h *Handler) Shared(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Shared(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, out)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, handoff.ErrNoResults):
		apiresp.WriteProblem(w, r, http.StatusNotFound, apiresp.ErrorPayload{
			Code:    "no_results",
			Message: msgNoResults,
			Actions: []string{apiresp.ActionBack},
		})
	case errors.Is(err, ErrInvalidShare):
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
	default:
		log.Printf("results request failed: %v", err)
		apiresp.WriteProblem(w, r, http.StatusInternalServerError, apiresp.ErrorPayload{
			Message: "Failed to load test results.",
			Actions: []string{apiresp.ActionBack},
		})
	}
}

func visitorID(r *http.Request) string {
	id, _ := visitor.FromContext(r.Context())
	return id
}
