package server

import (
	"encoding/json"
	"errors"
	"net/http"

	executor "github.com/hanpama/usergraph/internal/executor"
	language "github.com/hanpama/usergraph/internal/language"
)

type response struct {
	Data   any             `json:"data"`
	Errors []responseError `json:"errors,omitempty"`
}

type responseError struct {
	Message    string         `json:"message"`
	Locations  []location     `json:"locations,omitempty"`
	Path       executor.Path  `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

type location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// errorResponse reports err with no data. Parse errors keep their source
// locations.
func errorResponse(err error) response {
	re := responseError{Message: err.Error()}
	var located *language.Error
	if errors.As(err, &located) {
		re.Message = located.Message
		for _, l := range located.Locations {
			re.Locations = append(re.Locations, location{Line: l.Line, Column: l.Column})
		}
	}
	return response{Errors: []responseError{re}}
}

func resultResponse(res *executor.ExecutionResult) response {
	out := response{Data: res.Data}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, responseError{Message: e.Message, Path: e.Path, Extensions: e.Extensions})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}
