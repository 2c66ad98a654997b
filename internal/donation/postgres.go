package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ubuntu/decorate"
)

// PostgresConfig holds the configuration for connecting to the PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required|min:1|max:65535"`
	User     string `mapstructure:"user" validate:"required"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname" validate:"required"`
	SSLMode  string `mapstructure:"sslmode" validate:"in:disable,allow,prefer,require,verify-ca,verify-full"`
}

// URL returns the connection URL of cfg using scheme.
func (cfg PostgresConfig) URL(scheme string) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	return u.String()
}

type dbPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Close()
}

func newPgxPool(ctx context.Context, dsn string) (dbPool, error) {
	return pgxpool.New(ctx, dsn)
}

// PostgresSink inserts each donation as a row of the donations table.
// The schema is created by Migrate.
type PostgresSink struct {
	mu     sync.RWMutex
	dbpool dbPool

	log *slog.Logger
}

// NewPostgresSink connects to the database described by cfg.
func NewPostgresSink(ctx context.Context, cfg PostgresConfig, args ...Options) (*PostgresSink, error) {
	if err := check(KindPostgres, &cfg); err != nil {
		return nil, err
	}
	opts := newOptions(args)

	dbpool, err := opts.newPool(ctx, cfg.URL("postgres"))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	opts.log.Info("Connected to PostgreSQL database", "host", cfg.Host, "port", cfg.Port)
	return &PostgresSink{dbpool: dbpool, log: opts.log}, nil
}

// Donate inserts data under key.
func (s *PostgresSink) Donate(ctx context.Context, key string, data []byte) (err error) {
	defer decorate.OnError(&err, "could not store donation %q", key)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dbpool == nil {
		return fmt.Errorf("database not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	_, err = s.dbpool.Exec(ctx,
		`INSERT INTO donations (entry_time, donation_key, payload) VALUES ($1, $2, $3)`,
		time.Now(),   // entry_time
		key,          // donation_key
		string(data), // payload
	)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("insert canceled: %v", err)
		}
		return fmt.Errorf("failed to insert donation: %v", err)
	}
	s.log.Debug("Donation stored", "key", key)
	return nil
}

// Close closes the database connection.
//
// If the connection is already closed, it does nothing.
// If the connection does not close within the operation timeout, it returns an error.
func (s *PostgresSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dbpool == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.dbpool.Close()
	}()

	select {
	case <-done:
		s.dbpool = nil
		return nil
	case <-time.After(operationTimeout):
		return fmt.Errorf("timeout while closing database, connection may still be open")
	}
}
