package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	want := &Config{
		Server:  ServerConfig{Addr: ":8080", Timeout: 10 * time.Second, MaxBodyBytes: 1 << 20, CORSOrigins: []string{}},
		GraphQL: GraphQLConfig{Introspection: true},
		Storage: StorageConfig{Driver: "memory", Postgres: PostgresConfig{
			Host: "localhost", Port: 5432, User: "postgres", Database: "usergraph", SSLMode: "disable",
			MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: 30 * time.Minute,
		}},
		Loader:  LoaderConfig{MaxConcurrentFetches: 4},
		Log:     LogConfig{Level: "info", Format: "json"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Otel:    OtelConfig{Service: "usergraph"},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "usergraph.yaml", `
server:
  addr: ":9000"
  timeout: 3s
  cors_origins: ["https://a.example"]
storage:
  driver: postgres
  postgres:
    host: db
loader:
  max_batch: 50
graphql:
  introspection: false
`)
	t.Setenv("USERGRAPH_LOADER_MAX_BATCH", "25")
	t.Setenv("USERGRAPH_LOG_LEVEL", "debug")

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, 3*time.Second, cfg.Server.Timeout)
	require.Equal(t, []string{"https://a.example"}, cfg.Server.CORSOrigins)
	require.Equal(t, "postgres", cfg.Storage.Driver)
	require.Equal(t, "db", cfg.Storage.Postgres.Host)
	require.Equal(t, 5432, cfg.Storage.Postgres.Port)
	require.Equal(t, 25, cfg.Loader.MaxBatch)
	require.Equal(t, "debug", cfg.Log.Level)
	require.False(t, cfg.GraphQL.Introspection)
}

func TestLoad_DotEnv(t *testing.T) {
	const key = "USERGRAPH_OTEL_ENDPOINT"
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))

	env := writeFile(t, ".env", key+"=collector:4317\n")
	t.Chdir(t.TempDir())
	cfg, err := Load("", env)
	require.NoError(t, err)
	require.Equal(t, "collector:4317", cfg.Otel.Endpoint)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "read config")

	bad := writeFile(t, "bad.yaml", "storage:\n  driver: sqlite\n")
	_, err = Load(bad)
	require.ErrorContains(t, err, "storage.driver")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:  ServerConfig{Addr: ":8080"},
			Storage: StorageConfig{Driver: "memory"},
			Log:     LogConfig{Level: "info"},
			Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		}
	}
	c := valid()
	require.NoError(t, c.Validate())

	for name, mutate := range map[string]func(*Config){
		"server.addr":        func(c *Config) { c.Server.Addr = "" },
		"server.timeout":     func(c *Config) { c.Server.Timeout = -time.Second },
		"storage.postgres":   func(c *Config) { c.Storage = StorageConfig{Driver: "postgres"} },
		"loader.max_batch":   func(c *Config) { c.Loader.MaxBatch = -1 },
		"metrics.path":       func(c *Config) { c.Metrics.Path = "metrics" },
		"log.level":          func(c *Config) { c.Log.Level = "chatty" },
		"loader.max_concurr": func(c *Config) { c.Loader.MaxConcurrentFetches = -2 },
	} {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			require.ErrorContains(t, c.Validate(), name)
		})
	}
}
