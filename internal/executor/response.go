package executor

import (
	"slices"
	"strconv"
	"strings"
)

// ExecutionResult is the outcome of one operation. Data is nil when the
// operation was rejected before any field ran.
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError is a field or request error. Field errors carry the path of
// the value they nulled.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return e.Path.String() + ": " + e.Message
}

// Path locates a value in the response: string elements are response
// names, int elements are list indexes.
type Path []PathElement

type PathElement any

// Append returns a copy of p with elem added.
func (p Path) Append(elem PathElement) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, elem)
}

// Root returns the path of the top-level field p lives under.
func (p Path) Root() Path {
	for _, elem := range p {
		if name, ok := elem.(string); ok {
			return Path{name}
		}
	}
	return Path{}
}

// String renders p as users[0].posts.
func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(v))
			b.WriteByte(']')
		}
	}
	return b.String()
}

func (s *executionState) addError(message string, path Path) {
	s.errors = append(s.errors, GraphQLError{Message: message, Path: path})
}

func (s *executionState) hasErrorAt(path Path) bool {
	return slices.ContainsFunc(s.errors, func(e GraphQLError) bool {
		return slices.Equal(e.Path, path)
	})
}

func (s *executionState) markNulled(p Path) {
	if len(p) > 0 {
		s.nulled[p.String()] = struct{}{}
	}
}

// isNulled reports whether p or one of its prefixes has been nulled.
func (s *executionState) isNulled(p Path) bool {
	if len(s.nulled) == 0 {
		return false
	}
	for i := 1; i <= len(p); i++ {
		if _, ok := s.nulled[p[:i].String()]; ok {
			return true
		}
	}
	return false
}

// setResponseValue stores value at path in data. Missing object keys on the
// way are created; a null or non-container position drops the write.
func setResponseValue(data map[string]any, path Path, value any) {
	if len(path) == 0 {
		return
	}
	var cur any = data
	for _, elem := range path[:len(path)-1] {
		var next any
		switch e := elem.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return
			}
			var found bool
			if next, found = m[e]; !found {
				next = map[string]any{}
				m[e] = next
			}
		case int:
			list, ok := cur.([]any)
			if !ok || e >= len(list) {
				return
			}
			next = list[e]
		}
		cur = next
	}
	switch e := path[len(path)-1].(type) {
	case string:
		if m, ok := cur.(map[string]any); ok {
			m[e] = value
		}
	case int:
		if list, ok := cur.([]any); ok && e < len(list) {
			list[e] = value
		}
	}
}
