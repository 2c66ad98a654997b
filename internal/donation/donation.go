// Package donation stores the payloads donated at the end of a session.
//
// A Sink receives one payload per key. Keys are the session id, optionally followed by a suffix
// naming a status record, and are unique per session.
package donation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/ubuntu/decorate"
)

var (
	// ErrSendFailure is returned when a payload could not reach a remote sink, either due to a network error or a rejected request.
	ErrSendFailure = errors.New("donation send failed")
	// ErrUnknownKind is returned when the configuration names a sink kind which does not exist.
	ErrUnknownKind = errors.New("unknown sink kind")
	// ErrInvalidKey is returned when a donation key can not be used as a storage name.
	ErrInvalidKey = errors.New("invalid donation key")
)

// Sink kinds.
const (
	KindFile     = "file"
	KindHTTP     = "http"
	KindPostgres = "postgres"
	KindMySQL    = "mysql"
	KindS3       = "s3"
	KindStdout   = "stdout"
)

// operationTimeout bounds every network operation of a sink.
const operationTimeout = 10 * time.Second

// Sink receives donations.
type Sink interface {
	Donate(ctx context.Context, key string, data []byte) error
	Close() error
}

// Config selects and configures the sinks donations are sent to.
type Config struct {
	Sinks    []string       `mapstructure:"sinks"`
	File     FileConfig     `mapstructure:"file"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	S3       S3Config       `mapstructure:"s3"`
}

type options struct {
	log *slog.Logger

	// Private members exported for tests.
	newPool  func(ctx context.Context, dsn string) (dbPool, error)
	newSQLDB func(dsn string) (sqlDB, error)
	newStore func(cfg S3Config) (objectStore, error)
}

// Options represents an optional function to override sink default values.
type Options func(*options)

// WithLogger sets the logger used by the sinks.
func WithLogger(l *slog.Logger) Options {
	return func(o *options) {
		o.log = l
	}
}

func newOptions(args []Options) options {
	opts := options{
		log:      slog.Default(),
		newPool:  newPgxPool,
		newSQLDB: openMySQL,
		newStore: newMinioStore,
	}
	for _, opt := range args {
		opt(&opts)
	}
	return opts
}

// New returns the sink described by cfg. Several configured kinds are combined with Multi.
func New(ctx context.Context, cfg Config, args ...Options) (s Sink, err error) {
	defer decorate.OnError(&err, "could not create donation sink")

	if len(cfg.Sinks) == 0 {
		return nil, fmt.Errorf("%w: no sink configured", ErrUnknownKind)
	}

	sinks := make([]Sink, 0, len(cfg.Sinks))
	for _, kind := range cfg.Sinks {
		s, err := newSink(ctx, strings.TrimSpace(kind), cfg, args...)
		if err != nil {
			return nil, errors.Join(err, Multi(sinks...).Close())
		}
		sinks = append(sinks, s)
	}

	if len(sinks) == 1 {
		return sinks[0], nil
	}
	return Multi(sinks...), nil
}

func newSink(ctx context.Context, kind string, cfg Config, args ...Options) (Sink, error) {
	switch kind {
	case KindFile:
		return NewFileSink(cfg.File, args...)
	case KindHTTP:
		return NewHTTPSink(cfg.HTTP, args...)
	case KindPostgres:
		return NewPostgresSink(ctx, cfg.Postgres, args...)
	case KindMySQL:
		return NewMySQLSink(ctx, cfg.MySQL, args...)
	case KindS3:
		return NewS3Sink(ctx, cfg.S3, args...)
	case KindStdout:
		return NewWriterSink(nil), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// check validates the struct tags of the configuration of one sink kind.
func check(kind string, cfg any) error {
	v := validate.Struct(cfg)
	if !v.Validate() {
		return fmt.Errorf("invalid %s sink configuration: %v", kind, v.Errors)
	}
	return nil
}

// checkKey rejects keys which would escape the storage namespace of a sink.
func checkKey(key string) error {
	if key == "" || key == "." || key == ".." || filepath.Base(key) != key || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

type multi []Sink

// Multi returns a Sink donating to every sink in order.
// Every sink is tried even when one fails.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Donate(ctx context.Context, key string, data []byte) error {
	var err error
	for _, s := range m {
		err = errors.Join(err, s.Donate(ctx, key, data))
	}
	return err
}

func (m multi) Close() error {
	var err error
	for _, s := range m {
		err = errors.Join(err, s.Close())
	}
	return err
}
