// Package postgres implements store.Store on PostgreSQL through database/sql
// and lib/pq. Batch reads bind their key set as one array parameter.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/hanpama/usergraph/internal/eventbus"
	"github.com/hanpama/usergraph/internal/events"
	"github.com/hanpama/usergraph/internal/model"
	"github.com/hanpama/usergraph/internal/store"
	"github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// Config holds connection settings.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the keyword/value connection string understood by lib/pq.
func (c Config) DSN() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslmode)
}

// Store is a store.Store backed by a *sql.DB.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// Open connects with the postgres driver and applies the pool settings.
func Open(cfg Config) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return New(db), nil
}

// New wraps an existing connection pool.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the tables if needed and seeds the member types.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	for _, mt := range model.DefaultMemberTypes() {
		if _, err := s.db.ExecContext(ctx, seedMemberType, string(mt.ID), mt.Discount, mt.PostsLimitPerMonth); err != nil {
			return fmt.Errorf("seed member type %s: %w", mt.ID, err)
		}
	}
	return nil
}

func observe(ctx context.Context, op string, start time.Time, err error) {
	eventbus.Publish(ctx, events.StoreQuery{
		Backend:   "postgres",
		Operation: op,
		Err:       err,
		Duration:  time.Since(start),
	})
}

// translate maps "no rows" and foreign key violations to store.ErrNotFound.
func translate(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %q: %w", kind, id, store.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return fmt.Errorf("%s %q: %s: %w", kind, id, pqErr.Detail, store.ErrNotFound)
	}
	return err
}

func expectAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, id, store.ErrNotFound)
	}
	return nil
}
