package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
	executor "github.com/hanpama/usergraph/internal/executor"
	"github.com/hanpama/usergraph/internal/graph"
	"github.com/hanpama/usergraph/internal/model"
	reqid "github.com/hanpama/usergraph/internal/reqid"
	schema "github.com/hanpama/usergraph/internal/schema"
	"github.com/hanpama/usergraph/internal/store/memory"
	"github.com/hanpama/usergraph/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T, rt executor.Runtime, opts ...Option) *Handler {
	t.Helper()
	sch, err := schema.BuildFromSDL(`type Query { hello: String }`)
	require.NoError(t, err)
	h, err := New(rt, sch, opts...)
	require.NoError(t, err)
	return h
}

func newGraphHandler(t *testing.T) (*Handler, *memory.Store, *storetest.Counting) {
	t.Helper()
	mem := memory.New()
	counting := storetest.NewCounting(mem)
	sch, err := graph.Schema()
	require.NoError(t, err)
	h, err := New(graph.NewRuntime(counting), sch)
	require.NoError(t, err)
	return h, mem, counting
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", "/graphql", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var out map[string]any
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestGraphQuery(t *testing.T) {
	h, mem, _ := newGraphHandler(t)
	ctx := context.Background()
	_, err := mem.CreateUser(ctx, "u1", model.CreateUserInput{Name: "Ada", Balance: 1.5})
	require.NoError(t, err)

	w, got := post(t, h, `{"query":"{ users { id name balance posts { id } } }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	want := map[string]any{"data": map[string]any{
		"users": []any{map[string]any{"id": "u1", "name": "Ada", "balance": 1.5, "posts": []any{}}},
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestsDoNotShareLoaderCache(t *testing.T) {
	h, mem, counting := newGraphHandler(t)
	const id = "00000000-0000-0000-0000-000000000001"
	_, err := mem.CreateUser(context.Background(), id, model.CreateUserInput{Name: "Ada"})
	require.NoError(t, err)

	body := `{"query":"query($id: UUID!) { user(id: $id) { name } }","variables":{"id":"` + id + `"}}`
	for range 2 {
		w, got := post(t, h, body)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, map[string]any{"data": map[string]any{"user": map[string]any{"name": "Ada"}}}, got)
	}
	require.Equal(t, 2, counting.Count("FindUsers"))
}

func TestBatchedOperationsGetFreshLoaders(t *testing.T) {
	h, mem, counting := newGraphHandler(t)
	_, err := mem.CreateUser(context.Background(), "u1", model.CreateUserInput{Name: "Ada"})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/graphql", bytes.NewBufferString(
		`[{"query":"{ posts { id } users { posts { id } } }"},{"query":"{ users { posts { id } } }"}]`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	require.Equal(t, 2, counting.Count("FindPostsByAuthors"))
}

func TestErrorsCarryPath(t *testing.T) {
	h, _, _ := newGraphHandler(t)
	_, got := post(t, h, `{"query":"{ user(id: \"nope\") { id } }"}`)
	require.Equal(t, map[string]any{"user": nil}, got["data"])
	errs := got["errors"].([]any)
	require.Len(t, errs, 1)
	require.Equal(t, []any{"user"}, errs[0].(map[string]any)["path"])
}

func TestMutationOverGETIsRejected(t *testing.T) {
	h, _, counting := newGraphHandler(t)
	q := url.Values{"query": {`mutation { createUser(dto: {name: "x", balance: 0}) { id } }`}}
	req := httptest.NewRequest("GET", "/graphql?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Contains(t, got["errors"].([]any)[0].(map[string]any)["message"], "POST")
	require.Empty(t, counting.Calls())
}

func TestCORSAndPreflight(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt, WithCORS("*"))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	pre := httptest.NewRequest("OPTIONS", "/", nil)
	pre.Header.Set("Origin", "http://example.com")
	pre.Header.Set("Access-Control-Request-Headers", "X-Test")
	pw := httptest.NewRecorder()
	h.ServeHTTP(pw, pre)
	require.Equal(t, http.StatusNoContent, pw.Code)
	require.Equal(t, "*", pw.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "X-Test", pw.Header().Get("Access-Control-Allow-Headers"))
}

func TestMaxBodyBytes(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt, WithMaxBodyBytes(10))

	w, _ := post(t, h, `{"query":"1234567890"}`)
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRequestID(t *testing.T) {
	rt := executor.NewMockRuntime(nil)
	var captured string
	rt.SetResolver("Query", "hello", func(ctx context.Context, src any, args map[string]any) (any, error) {
		captured, _ = reqid.FromContext(ctx)
		return "world", nil
	})
	h := newTestHandler(t, rt)

	w, _ := post(t, h, `{"query":"{ hello }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, captured)
	require.Equal(t, captured, w.Header().Get(reqid.Header))

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{"query":"{ hello }"}`))
	req.Header.Set(reqid.Header, "from-caller")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "from-caller", captured)
	require.Equal(t, "from-caller", w.Header().Get(reqid.Header))
}

func TestMux(t *testing.T) {
	h, _, _ := newGraphHandler(t)
	extra := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	mux := NewMux(h, Mount{Path: "/metrics", Handler: extra})

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusTeapot, w.Code)

	w, got := post(t, mux, `{"query":"{ memberTypes { id } }"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]any{"memberTypes": []any{
		map[string]any{"id": "BASIC"},
		map[string]any{"id": "BUSINESS"},
	}}, got["data"])
}

func TestParseErrorHasLocation(t *testing.T) {
	h := newTestHandler(t, executor.NewMockRuntime(nil))
	w, got := post(t, h, `{"query":"{\n  hello("}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, got["data"])
	e := got["errors"].([]any)[0].(map[string]any)
	locs := e["locations"].([]any)
	require.Len(t, locs, 1)
	require.Equal(t, 2.0, locs[0].(map[string]any)["line"])
}

func TestGraphQLContentType(t *testing.T) {
	rt := executor.NewMockRuntime(map[string]executor.MockResolver{
		"Query.hello": executor.NewMockValueResolver("world"),
	})
	h := newTestHandler(t, rt)

	req := httptest.NewRequest("POST", "/", bytes.NewBufferString(`{ hello }`))
	req.Header.Set("Content-Type", "application/graphql")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data":{"hello":"world"}}`, w.Body.String())

	req = httptest.NewRequest("POST", "/", bytes.NewBufferString(`hello`))
	req.Header.Set("Content-Type", "text/plain")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestBadRequests(t *testing.T) {
	h := newTestHandler(t, executor.NewMockRuntime(nil))
	for body, want := range map[string]string{
		`{"query":`:        "invalid JSON",
		`{"variables":{}}`: "missing 'query'",
		`[]`:               "empty batch",
	} {
		t.Run(want, func(t *testing.T) {
			w, got := post(t, h, body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			require.Equal(t, want, got["errors"].([]any)[0].(map[string]any)["message"])
		})
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("DELETE", "/", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Allow"))
}

