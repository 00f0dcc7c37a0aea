// Package server exposes the executor over HTTP. Every operation of every
// request is executed on its own, so per-request state such as loader caches
// never outlives it.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	eventbus "github.com/hanpama/usergraph/internal/eventbus"
	events "github.com/hanpama/usergraph/internal/events"
	executor "github.com/hanpama/usergraph/internal/executor"
	language "github.com/hanpama/usergraph/internal/language"
	reqid "github.com/hanpama/usergraph/internal/reqid"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// Handler serves GraphQL over GET and POST.
type Handler struct {
	exec *executor.Executor
	opt  Options
}

type Options struct {
	// Timeout bounds requests whose context has no deadline. 0 disables it.
	Timeout time.Duration
	// Pretty indents JSON responses.
	Pretty bool
	// MaxBodyBytes limits POST bodies. 0 means unlimited.
	MaxBodyBytes int64
	// CORS is disabled while AllowedOrigins is empty.
	CORS CORSOptions
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

func New(runtime executor.Runtime, schema *schema.Schema, opts ...Option) (*Handler, error) {
	if runtime == nil || schema == nil {
		return nil, errors.New("server: runtime and schema are required")
	}
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	exec := executor.NewExecutor(runtime, schema)
	return &Handler{exec: exec, opt: op}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	ctx, rid := reqid.WithID(ctx, r.Header.Get(reqid.Header))
	w.Header().Set(reqid.Header, rid)

	status, ops := http.StatusOK, 0
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Operations: ops, Duration: time.Since(start)})
	}()

	h.opt.CORS.apply(w, r)
	switch r.Method {
	case http.MethodOptions:
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	case http.MethodGet, http.MethodPost:
	default:
		status = http.StatusMethodNotAllowed
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		writeJSON(w, status, errorResponse(errors.New("method not allowed")), h.opt.Pretty)
		return
	}

	reqs, batch, err := decodeRequest(w, r, h.opt.MaxBodyBytes)
	if err != nil {
		status = statusOf(err)
		writeJSON(w, status, errorResponse(err), h.opt.Pretty)
		return
	}
	ops = len(reqs)

	out := make([]response, len(reqs))
	for i, req := range reqs {
		out[i] = h.execute(ctx, req, r.Method)
	}
	if batch {
		writeJSON(w, status, out, h.opt.Pretty)
		return
	}
	writeJSON(w, status, out[0], h.opt.Pretty)
}

// execute parses and runs one operation.
func (h *Handler) execute(ctx context.Context, req Request, method string) response {
	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return errorResponse(err)
	}

	var opType string
	if op := doc.Operations.ForName(req.OperationName); op != nil {
		opType = string(op.Operation)
		if op.Operation == language.Mutation && method == http.MethodGet {
			return errorResponse(errors.New("mutations must be sent with POST"))
		}
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{Query: req.Query, OperationName: req.OperationName, OperationType: opType})
	res := h.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)
	errs := make([]error, len(res.Errors))
	for i, e := range res.Errors {
		errs[i] = e
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      time.Since(start),
	})
	return resultResponse(res)
}
