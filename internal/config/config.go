// Package config loads the service configuration from a YAML file, a .env
// file and USERGRAPH_ environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes environment overrides, e.g. USERGRAPH_SERVER_ADDR.
const EnvPrefix = "USERGRAPH"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	GraphQL GraphQLConfig `mapstructure:"graphql"`
	Storage StorageConfig `mapstructure:"storage"`
	Loader  LoaderConfig  `mapstructure:"loader"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Otel    OtelConfig    `mapstructure:"otel"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Pretty       bool          `mapstructure:"pretty"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

type GraphQLConfig struct {
	// Introspection enables the __schema and __type root fields.
	Introspection bool `mapstructure:"introspection"`
}

type StorageConfig struct {
	// Driver is "memory" or "postgres".
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type LoaderConfig struct {
	MaxBatch             int `mapstructure:"max_batch"`
	MaxConcurrentFetches int `mapstructure:"max_concurrent_fetches"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type OtelConfig struct {
	// Endpoint of the OTLP gRPC collector. Empty disables tracing.
	Endpoint string `mapstructure:"endpoint"`
	Service  string `mapstructure:"service"`
}

// Load reads configPath, or ./usergraph.yaml when configPath is empty, then
// applies environment overrides. envFiles are loaded into the process
// environment first; it defaults to ".env". Missing files are skipped,
// except an explicit configPath.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("usergraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.timeout", "10s")
	v.SetDefault("server.pretty", false)
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("graphql.introspection", true)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.postgres.host", "localhost")
	v.SetDefault("storage.postgres.port", 5432)
	v.SetDefault("storage.postgres.user", "postgres")
	v.SetDefault("storage.postgres.password", "")
	v.SetDefault("storage.postgres.database", "usergraph")
	v.SetDefault("storage.postgres.sslmode", "disable")
	v.SetDefault("storage.postgres.max_open_conns", 10)
	v.SetDefault("storage.postgres.max_idle_conns", 5)
	v.SetDefault("storage.postgres.conn_max_lifetime", "30m")

	v.SetDefault("loader.max_batch", 0)
	v.SetDefault("loader.max_concurrent_fetches", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service", "usergraph")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.New("server.addr is required")
	case c.Server.Timeout < 0:
		return fmt.Errorf("server.timeout must not be negative, got %s", c.Server.Timeout)
	case c.Server.MaxBodyBytes < 0:
		return fmt.Errorf("server.max_body_bytes must not be negative, got %d", c.Server.MaxBodyBytes)
	case c.Storage.Driver != "memory" && c.Storage.Driver != "postgres":
		return fmt.Errorf("storage.driver must be memory or postgres, got %q", c.Storage.Driver)
	case c.Storage.Driver == "postgres" && c.Storage.Postgres.Host == "":
		return errors.New("storage.postgres.host is required for the postgres driver")
	case c.Loader.MaxBatch < 0:
		return fmt.Errorf("loader.max_batch must not be negative, got %d", c.Loader.MaxBatch)
	case c.Loader.MaxConcurrentFetches < 0:
		return fmt.Errorf("loader.max_concurrent_fetches must not be negative, got %d", c.Loader.MaxConcurrentFetches)
	case c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/"):
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}
