package server

import (
	"io"
	"net/http"
)

// Mount is an extra route served next to the GraphQL endpoint.
type Mount struct {
	Path    string
	Handler http.Handler
}

// NewMux serves gql at /graphql, a liveness check at /healthz and any
// extra mounts.
func NewMux(gql http.Handler, mounts ...Mount) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/graphql", gql)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	for _, m := range mounts {
		mux.Handle(m.Path, m.Handler)
	}
	return mux
}
