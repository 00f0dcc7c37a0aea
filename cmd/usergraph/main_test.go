package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hanpama/usergraph/internal/config"
	"github.com/hanpama/usergraph/internal/graph"
	"github.com/hanpama/usergraph/internal/store/memory"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHelp(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"help"}, &out, new(bytes.Buffer)))
	require.Contains(t, out.String(), "COMMANDS:")

	out.Reset()
	require.NoError(t, run([]string{"help", "serve"}, &out, new(bytes.Buffer)))
	require.Contains(t, out.String(), "-storage.driver")

	require.ErrorContains(t, run([]string{"help", "nope"}, &out, new(bytes.Buffer)), "unknown help topic")
}

func TestUnknownAndMissingCommand(t *testing.T) {
	var stderr bytes.Buffer
	require.ErrorContains(t, run(nil, new(bytes.Buffer), &stderr), "missing command")
	require.Contains(t, stderr.String(), "USAGE:")

	require.ErrorContains(t, run([]string{"frobnicate"}, new(bytes.Buffer), new(bytes.Buffer)), `unknown command "frobnicate"`)
}

func TestSchemaCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"schema"}, &out, new(bytes.Buffer)))
	require.Equal(t, graph.SDL, out.String())

	path := filepath.Join(t.TempDir(), "schema.graphql")
	require.NoError(t, run([]string{"schema", "-out", path}, new(bytes.Buffer), new(bytes.Buffer)))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(b), "type User"))
}

func TestServeFlagsOverrideConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("USERGRAPH_LOG_LEVEL", "warn")

	cfg, err := serveFlags([]string{"-server.addr", ":9999", "-loader.max-batch", "7", "-metrics.enabled=false"})
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Server.Addr)
	require.Equal(t, 7, cfg.Loader.MaxBatch)
	require.False(t, cfg.Metrics.Enabled)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, 4, cfg.Loader.MaxConcurrentFetches)

	_, err = serveFlags([]string{"-storage.driver", "sqlite"})
	require.ErrorContains(t, err, "storage.driver")
}

func TestMigrateNeedsPostgres(t *testing.T) {
	t.Chdir(t.TempDir())
	err := run([]string{"migrate"}, new(bytes.Buffer), new(bytes.Buffer))
	require.ErrorContains(t, err, "postgres")
}

func TestNewHandler(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)

	h, err := newHandler(cfg, memory.New(), zaptest.NewLogger(t))
	require.NoError(t, err)

	body := `{"query":"mutation { createUser(dto: {name: \"Ada\", balance: 3}) { name balance posts { id } } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, map[string]any{
		"createUser": map[string]any{"name": "Ada", "balance": 3.0, "posts": []any{}},
	}, got["data"])
}

func TestNewHandlerIntrospection(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := config.Load("")
	require.NoError(t, err)

	query := func(h http.Handler) map[string]any {
		body := `{"query":"{ __type(name: \"MemberTypeId\") { kind enumValues { name } } }"}`
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest("POST", "/graphql", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, w.Code)
		var got map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		return got
	}

	h, err := newHandler(cfg, memory.New(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"__type": map[string]any{
			"kind":       "ENUM",
			"enumValues": []any{map[string]any{"name": "BASIC"}, map[string]any{"name": "BUSINESS"}},
		},
	}, query(h)["data"])

	cfg.GraphQL.Introspection = false
	h, err = newHandler(cfg, memory.New(), zaptest.NewLogger(t))
	require.NoError(t, err)
	got := query(h)
	require.Equal(t, map[string]any{}, got["data"])
	require.Contains(t, got["errors"].([]any)[0].(map[string]any)["message"], "__type")
}
