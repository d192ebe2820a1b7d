package apiresp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Recovery actions offered next to an error message.
const (
	ActionRetry = "retry"
	ActionBack  = "back"
)

type ErrorPayload struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Detail  string   `json:"detail,omitempty"`
	Actions []string `json:"actions,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
}

type Envelope struct {
	OK    bool          `json:"ok"`
	Data  interface{}   `json:"data,omitempty"`
	Error *ErrorPayload `json:"error,omitempty"`
	Meta  Meta          `json:"meta"`
}

func WriteOK(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	WriteLegacy(w, r, status, true, data, "")
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	WriteLegacy(w, r, status, false, nil, msg)
}

// WriteProblem writes an error envelope with an explicit code, detail and recovery actions.
// An empty code falls back to the status-derived one.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, p ErrorPayload) {
	if p.Code == "" {
		p.Code = codeFromStatus(status)
	}
	if p.Message == "" {
		p.Message = http.StatusText(status)
	}
	write(w, status, Envelope{
		OK:    false,
		Error: &p,
		Meta:  Meta{RequestID: middleware.GetReqID(r.Context())},
	})
}

func WriteLegacy(w http.ResponseWriter, r *http.Request, status int, ok bool, data interface{}, errMsg string) {
	res := Envelope{
		OK: ok,
		Meta: Meta{
			RequestID: middleware.GetReqID(r.Context()),
		},
	}
	if ok {
		res.Data = data
	} else {
		if errMsg == "" {
			errMsg = http.StatusText(status)
		}
		res.Error = &ErrorPayload{
			Code:    codeFromStatus(status),
			Message: errMsg,
		}
	}
	write(w, status, res)
}

func write(w http.ResponseWriter, status int, res Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

func codeFromStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "unprocessable_entity"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusInternalServerError:
		return "internal_error"
	case http.StatusBadGateway:
		return "bad_gateway"
	default:
		if status >= 200 && status < 300 {
			return ""
		}
		return "error"
	}
}
