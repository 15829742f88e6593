// Package pg runs a local PostgreSQL server for the postgres store driver.
package pg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5"

	"github.com/markb/bcon/internal/log"
)

type Config struct {
	Port     uint16
	Username string
	Password string
	Database string
	DataDir  string
	Version  string
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 5433
	}
	if c.Username == "" {
		c.Username = "postgres"
	}
	if c.Password == "" {
		c.Password = "postgres"
	}
	if c.Database == "" {
		c.Database = "bcon"
	}
	if c.Version == "" {
		c.Version = "16.9.0"
	}
}

// Embedded manages one embedded PostgreSQL process.
type Embedded struct {
	cfg Config

	mu       sync.Mutex
	postgres *embeddedpostgres.EmbeddedPostgres
	started  bool
}

func New(cfg Config) *Embedded {
	cfg.applyDefaults()
	return &Embedded{cfg: cfg}
}

// URL is the connection string for the embedded database.
func (e *Embedded) URL() string {
	return fmt.Sprintf("postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		e.cfg.Username, e.cfg.Password, e.cfg.Port, e.cfg.Database)
}

// Start launches PostgreSQL and blocks until it accepts connections or ctx
// ends. Calling Start on a running instance is a no-op.
func (e *Embedded) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.started {
		return nil
	}

	pgCfg := embeddedpostgres.DefaultConfig().
		Port(uint32(e.cfg.Port)).
		Username(e.cfg.Username).
		Password(e.cfg.Password).
		Database(e.cfg.Database).
		Version(embeddedpostgres.PostgresVersion(e.cfg.Version))

	if e.cfg.DataDir != "" {
		if err := os.MkdirAll(e.cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		pgCfg = pgCfg.
			DataPath(filepath.Join(e.cfg.DataDir, "pgdata")).
			RuntimePath(filepath.Join(e.cfg.DataDir, "runtime"))
	}

	log.Info("starting embedded PostgreSQL", "port", e.cfg.Port, "version", e.cfg.Version)
	e.postgres = embeddedpostgres.NewDatabase(pgCfg)

	done := make(chan error, 1)
	go func() { done <- e.postgres.Start() }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to start postgres: %w", err)
		}
	case <-ctx.Done():
		return fmt.Errorf("postgres start interrupted: %w", ctx.Err())
	}

	if err := e.waitReady(ctx); err != nil {
		_ = e.postgres.Stop()
		return fmt.Errorf("postgres not ready: %w", err)
	}

	e.started = true
	log.Info("embedded PostgreSQL ready", "port", e.cfg.Port)
	return nil
}

// Stop shuts PostgreSQL down. It is safe to call on a stopped instance.
func (e *Embedded) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return nil
	}
	e.started = false
	if err := e.postgres.Stop(); err != nil {
		return fmt.Errorf("failed to stop postgres: %w", err)
	}
	log.Info("embedded PostgreSQL stopped")
	return nil
}

func (e *Embedded) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.started
}

func (e *Embedded) waitReady(ctx context.Context) error {
	const (
		attempts = 60
		delay    = 500 * time.Millisecond
	)

	var lastErr error
	for range attempts {
		conn, err := pgx.Connect(ctx, e.URL())
		if err == nil {
			err = conn.Ping(ctx)
			_ = conn.Close(ctx)
			if err == nil {
				return nil
			}
		}
		lastErr = err

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return errors.Join(errors.New("postgres did not become ready"), lastErr)
}
