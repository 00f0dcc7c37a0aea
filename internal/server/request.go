package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// Request is one GraphQL operation as sent over HTTP.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// httpError is a request the handler refuses before executing anything.
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string { return e.message }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, message: fmt.Sprintf(format, args...)}
}

func statusOf(err error) int {
	var he *httpError
	if errors.As(err, &he) {
		return he.status
	}
	return http.StatusBadRequest
}

// decodeRequest reads the operations of r. batch reports whether the body
// was a JSON array, in which case the response must be one too.
func decodeRequest(w http.ResponseWriter, r *http.Request, maxBody int64) (reqs []Request, batch bool, err error) {
	if r.Method == http.MethodGet {
		req, err := decodeQueryString(r)
		if err != nil {
			return nil, false, err
		}
		return []Request{req}, false, nil
	}

	mediaType := "application/json"
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err = mime.ParseMediaType(ct); err != nil {
			return nil, false, badRequest("invalid Content-Type")
		}
	}

	body := r.Body
	if maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBody)
	}
	defer body.Close()
	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, false, &httpError{status: http.StatusRequestEntityTooLarge, message: "body too large"}
		}
		return nil, false, badRequest("failed to read body")
	}

	switch mediaType {
	case "application/json":
		return decodeJSON(raw)
	case "application/graphql":
		return []Request{{Query: string(raw), Variables: map[string]any{}}}, false, nil
	}
	return nil, false, &httpError{status: http.StatusUnsupportedMediaType, message: "unsupported Content-Type " + mediaType}
}

func decodeQueryString(r *http.Request) (Request, error) {
	q := r.URL.Query()
	req := Request{
		Query:         q.Get("query"),
		OperationName: q.Get("operationName"),
		Variables:     map[string]any{},
	}
	if req.Query == "" {
		return Request{}, badRequest("missing 'query'")
	}
	if v := q.Get("variables"); v != "" {
		if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
			return Request{}, badRequest("invalid 'variables' JSON")
		}
	}
	return req, nil
}

func decodeJSON(raw []byte) ([]Request, bool, error) {
	var batch []Request
	if len(raw) > 0 && raw[0] == '[' {
		if err := json.Unmarshal(raw, &batch); err != nil {
			return nil, false, badRequest("invalid JSON")
		}
		if len(batch) == 0 {
			return nil, false, badRequest("empty batch")
		}
	} else {
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, false, badRequest("invalid JSON")
		}
		batch = []Request{req}
	}

	for i := range batch {
		if batch[i].Query == "" {
			return nil, false, badRequest("missing 'query'")
		}
		if batch[i].Variables == nil {
			batch[i].Variables = map[string]any{}
		}
	}
	return batch, raw[0] == '[', nil
}
