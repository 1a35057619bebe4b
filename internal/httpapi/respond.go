package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"

	"todoManagement/internal/apperr"
	"todoManagement/internal/auth"
	"todoManagement/models"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// fail writes err as a JSON error body. Unclassified errors are logged and
// reported as internal errors.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}
	status := apperr.HTTPStatus(e.Kind)
	switch e.Kind {
	case apperr.KindInternal:
		h.Logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg := "An error occurred"
		if h.Config.App.Debug && e.Err != nil {
			msg = e.Err.Error()
		}
		writeJSON(w, status, map[string]string{"detail": e.Message, "message": msg})
	case apperr.KindValidation:
		fields := make([]fieldError, 0, len(e.Fields))
		for f, m := range e.Fields {
			fields = append(fields, fieldError{Field: f, Message: m})
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
		writeJSON(w, status, map[string]any{"detail": e.Message, "errors": fields})
	case apperr.KindUnauthenticated:
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeJSON(w, status, map[string]string{"detail": e.Message})
	default:
		writeJSON(w, status, map[string]string{"detail": e.Message})
	}
}

// currentUser returns the user put in context by requireUser.
func currentUser(r *http.Request) *models.User {
	u, _ := auth.UserFromContext(r.Context())
	return u
}
