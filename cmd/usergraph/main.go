package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hanpama/usergraph/internal/config"
	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/executor"
	"github.com/hanpama/usergraph/internal/graph"
	"github.com/hanpama/usergraph/internal/introspection"
	"github.com/hanpama/usergraph/internal/loaders"
	"github.com/hanpama/usergraph/internal/logging"
	"github.com/hanpama/usergraph/internal/metrics"
	"github.com/hanpama/usergraph/internal/otel"
	"github.com/hanpama/usergraph/internal/server"
	"github.com/hanpama/usergraph/internal/store"
	"github.com/hanpama/usergraph/internal/store/memory"
	"github.com/hanpama/usergraph/internal/store/postgres"
	"go.uber.org/zap"
)

const rootUsage = `usergraph: GraphQL API over users, posts, profiles and subscriptions

USAGE:
  usergraph <command> [flags]

COMMANDS:
  serve            Run the HTTP GraphQL server
  migrate          Create the postgres tables and seed member types
  schema           Print the GraphQL SDL
  help             Show help for any command
`

const serveUsage = `serve FLAGS:
  -config <file>                      YAML config file (default: ./usergraph.yaml if present)
  -server.addr <addr>                 HTTP listen address (default: :8080)
  -server.pretty                      Pretty-print JSON responses
  -server.timeout <duration>          Per-request timeout, e.g. 10s (default: 10s)
  -graphql.introspection <bool>       Answer __schema and __type queries (default: true)
  -storage.driver <memory|postgres>   Storage backend (default: memory)
  -loader.max-batch N                 Max keys per batch fetch, 0 for unlimited
  -loader.max-concurrent-fetches N    Max fetches dispatched together (default: 4)
  -log.level <level>                  debug, info, warn or error (default: info)
  -log.format <json|console>          Log encoding (default: json)
  -metrics.enabled <bool>             Serve prometheus metrics (default: true)
  -otel.endpoint <addr>               OTLP collector endpoint
  -otel.service <name>                OpenTelemetry service name (default: usergraph)

Every setting can also be given as USERGRAPH_<SECTION>_<KEY>, e.g. USERGRAPH_SERVER_ADDR.
`

const migrateUsage = `migrate FLAGS:
  -config <file>           YAML config file (default: ./usergraph.yaml if present)
  (storage.driver must be postgres)
`

const schemaUsage = `schema FLAGS:
  -out <file>   Write the SDL to file (default: stdout)
`

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("usergraph", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer))
	if err := global.Parse(args); err != nil {
		fmt.Fprint(stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(stderr, rootUsage)
		return errors.New("missing command")
	}

	cmd, cmdArgs := remaining[0], remaining[1:]
	switch cmd {
	case "serve":
		return cmdServe(cmdArgs, stderr)
	case "migrate":
		return cmdMigrate(cmdArgs, stderr)
	case "schema":
		return cmdSchema(cmdArgs, stdout, stderr)
	case "help":
		return cmdHelp(cmdArgs, stdout)
	default:
		fmt.Fprint(stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, rootUsage)
		return nil
	}
	switch args[0] {
	case "serve":
		fmt.Fprint(stdout, serveUsage)
	case "migrate":
		fmt.Fprint(stdout, migrateUsage)
	case "schema":
		fmt.Fprint(stdout, schemaUsage)
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

// serveFlags parses the serve flags and returns the loaded config with
// every explicitly set flag applied on top.
func serveFlags(args []string) (*config.Config, error) {
	var (
		configPath string
		flags      config.Config
	)
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", "", "YAML config file")
	fs.StringVar(&flags.Server.Addr, "server.addr", "", "HTTP listen address")
	fs.BoolVar(&flags.Server.Pretty, "server.pretty", false, "Pretty-print JSON responses")
	fs.DurationVar(&flags.Server.Timeout, "server.timeout", 0, "Per-request timeout")
	fs.BoolVar(&flags.GraphQL.Introspection, "graphql.introspection", false, "Enable GraphQL introspection")
	fs.StringVar(&flags.Storage.Driver, "storage.driver", "", "Storage backend")
	fs.IntVar(&flags.Loader.MaxBatch, "loader.max-batch", 0, "Max keys per batch fetch")
	fs.IntVar(&flags.Loader.MaxConcurrentFetches, "loader.max-concurrent-fetches", 0, "Max concurrent fetches")
	fs.StringVar(&flags.Log.Level, "log.level", "", "Log level")
	fs.StringVar(&flags.Log.Format, "log.format", "", "Log format")
	fs.BoolVar(&flags.Metrics.Enabled, "metrics.enabled", false, "Serve prometheus metrics")
	fs.StringVar(&flags.Otel.Endpoint, "otel.endpoint", "", "OTLP collector endpoint")
	fs.StringVar(&flags.Otel.Service, "otel.service", "", "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "server.addr":
			cfg.Server.Addr = flags.Server.Addr
		case "server.pretty":
			cfg.Server.Pretty = flags.Server.Pretty
		case "server.timeout":
			cfg.Server.Timeout = flags.Server.Timeout
		case "graphql.introspection":
			cfg.GraphQL.Introspection = flags.GraphQL.Introspection
		case "storage.driver":
			cfg.Storage.Driver = flags.Storage.Driver
		case "loader.max-batch":
			cfg.Loader.MaxBatch = flags.Loader.MaxBatch
		case "loader.max-concurrent-fetches":
			cfg.Loader.MaxConcurrentFetches = flags.Loader.MaxConcurrentFetches
		case "log.level":
			cfg.Log.Level = flags.Log.Level
		case "log.format":
			cfg.Log.Format = flags.Log.Format
		case "metrics.enabled":
			cfg.Metrics.Enabled = flags.Metrics.Enabled
		case "otel.endpoint":
			cfg.Otel.Endpoint = flags.Otel.Endpoint
		case "otel.service":
			cfg.Otel.Service = flags.Otel.Service
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func cmdServe(args []string, stderr io.Writer) error {
	cfg, err := serveFlags(args)
	if err != nil {
		fmt.Fprint(stderr, serveUsage)
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	eventbus.Use(eventbus.New())
	defer logging.Subscribe(logger)()

	shutdownTracing, err := otel.Setup(cfg.Otel.Endpoint, cfg.Otel.Service)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer closeStore()

	var mounts []server.Mount
	if cfg.Metrics.Enabled {
		m := metrics.New(nil)
		defer m.Subscribe()()
		mounts = append(mounts, server.Mount{Path: cfg.Metrics.Path, Handler: m.Handler()})
	}

	h, err := newHandler(cfg, st, logger)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.NewMux(h, mounts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("graphql server listening",
		zap.String("addr", cfg.Server.Addr),
		zap.String("storage", cfg.Storage.Driver),
	)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(sctx)
}

// newHandler wires the graph runtime over st into the GraphQL handler.
func newHandler(cfg *config.Config, st store.Store, logger *zap.Logger) (*server.Handler, error) {
	sch, err := graph.Schema()
	if err != nil {
		return nil, err
	}
	var runtime executor.Runtime = graph.NewRuntime(st,
		graph.WithLogger(logger),
		graph.WithLoaderOptions(loaders.Options{
			MaxBatch:             cfg.Loader.MaxBatch,
			MaxConcurrentFetches: cfg.Loader.MaxConcurrentFetches,
		}),
	)
	if cfg.GraphQL.Introspection {
		runtime, sch = introspection.Wrap(runtime, sch)
	}

	var sopts []server.Option
	if cfg.Server.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	if cfg.Server.Timeout > 0 {
		sopts = append(sopts, server.WithTimeout(cfg.Server.Timeout))
	}
	if cfg.Server.MaxBodyBytes > 0 {
		sopts = append(sopts, server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes))
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		sopts = append(sopts, server.WithCORS(cfg.Server.CORSOrigins...))
	}
	h, err := server.New(runtime, sch, sopts...)
	if err != nil {
		return nil, fmt.Errorf("server init: %w", err)
	}
	return h, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (store.Store, func(), error) {
	switch cfg.Driver {
	case "memory":
		return memory.New(), func() {}, nil
	case "postgres":
		pg, err := openPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig) (*postgres.Store, error) {
	pg, err := postgres.Open(postgres.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pg.Ping(pctx); err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pg, nil
}

func cmdMigrate(args []string, stderr io.Writer) error {
	configPath := ""
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&configPath, "config", configPath, "YAML config file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, migrateUsage)
		return err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("migrate needs storage.driver postgres, got %q", cfg.Storage.Driver)
	}

	ctx := context.Background()
	pg, err := openPostgres(ctx, cfg.Storage.Postgres)
	if err != nil {
		return err
	}
	defer pg.Close()
	return pg.Migrate(ctx)
}

func cmdSchema(args []string, stdout, stderr io.Writer) error {
	outFile := ""
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&outFile, "out", outFile, "Write the SDL to file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(stderr, schemaUsage)
		return err
	}
	if _, err := graph.Schema(); err != nil {
		return err
	}
	if outFile == "" {
		_, err := io.WriteString(stdout, graph.SDL)
		return err
	}
	return os.WriteFile(outFile, []byte(graph.SDL), 0o644)
}
