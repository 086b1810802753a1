package transporthttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"example.com/campaignai/internal/domain"
)

type Problem struct {
	Type     string              `json:"type,omitempty"`
	Title    string              `json:"title,omitempty"`
	Status   int                 `json:"status,omitempty"`
	Detail   string              `json:"detail,omitempty"`
	Instance string              `json:"instance,omitempty"`
	Errors   map[string][]string `json:"errors,omitempty"`
	Meta     map[string]any      `json:"meta,omitempty"`
}

func WriteProblem(w http.ResponseWriter, status int, title, detail string, errs map[string][]string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Title:  title,
		Status: status,
		Detail: detail,
		Errors: errs,
	})
}

// WriteError renders err as a problem. Invalid requests become 400 with the
// error's detail; anything else is a 500.
func WriteError(w http.ResponseWriter, err error) {
	var ire *domain.InvalidRequestError
	if errors.As(err, &ire) {
		WriteProblem(w, http.StatusBadRequest, "invalid request", ire.Detail, ire.FieldMap())
		return
	}
	WriteProblem(w, http.StatusInternalServerError, "internal error", err.Error(), nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
