// Package server drives donation sessions over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ubuntu/ddp-insights/internal/extract"
	"github.com/ubuntu/ddp-insights/internal/flow"
	"github.com/ubuntu/ddp-insights/internal/server/metrics"
)

// Server is the session server.
type Server struct {
	httpServer *http.Server
	cm         dConfigManager
	platforms  *extract.Registry
	sink       flow.Sink
	sessions   *store
	metrics    *metrics.Sessions

	uploadDir      string
	maxUploadBytes int64
	questionnaire  *flow.Questionnaire

	log *slog.Logger

	// ctx interrupts any action. It must be the parent of gracefulCtx.
	ctx    context.Context
	cancel context.CancelFunc

	// gracefulCtx stops accepting new requests.
	gracefulCtx    context.Context
	gracefulCancel context.CancelFunc
}

// StaticConfig holds the configuration fixed for the lifetime of the server.
type StaticConfig struct {
	ListenHost string
	ListenPort int

	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	MaxHeaderBytes int
	MaxUploadBytes int64

	// MaxSessions is the number of sessions kept before the least recently used one is evicted.
	MaxSessions int
	// UploadDir receives the uploaded archives.
	UploadDir string
}

type dConfigManager interface {
	Load() error
	Watch(context.Context) (<-chan struct{}, <-chan error, error)
	Allowed(string) bool
}

type options struct {
	log           *slog.Logger
	registry      *prometheus.Registry
	questionnaire *flow.Questionnaire
}

// Options represents an optional function to override Server default values.
type Options func(*options)

// WithLogger sets the logger of the server and of its sessions.
func WithLogger(l *slog.Logger) Options {
	return func(o *options) {
		o.log = l
	}
}

// WithRegistry sets the Prometheus registry the server registers and exposes its metrics with.
func WithRegistry(r *prometheus.Registry) Options {
	return func(o *options) {
		o.registry = r
	}
}

// WithQuestionnaire asks q after the consent step of every session.
func WithQuestionnaire(q flow.Questionnaire) Options {
	return func(o *options) {
		o.questionnaire = &q
	}
}

// New returns a Server running sessions of the allowed platforms and donating to sink.
func New(ctx context.Context, cm dConfigManager, platforms *extract.Registry, sink flow.Sink, sc StaticConfig, args ...Options) (*Server, error) {
	opts := options{
		log:      slog.Default(),
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range args {
		opt(&opts)
	}

	if sc.MaxSessions <= 0 {
		return nil, fmt.Errorf("max sessions must be positive, got %d", sc.MaxSessions)
	}
	if sc.UploadDir == "" {
		return nil, errors.New("upload directory is required")
	}
	if err := cm.Load(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	gCtx, gCancel := context.WithCancel(ctx)

	s := &Server{
		cm:             cm,
		platforms:      platforms,
		sink:           sink,
		metrics:        metrics.NewSessions(opts.registry),
		uploadDir:      sc.UploadDir,
		maxUploadBytes: sc.MaxUploadBytes,
		questionnaire:  opts.questionnaire,
		log:            opts.log,

		ctx:    ctx,
		cancel: cancel,

		gracefulCtx:    gCtx,
		gracefulCancel: gCancel,
	}

	sessions, err := newStore(sc.MaxSessions, opts.log, func(*entry) { s.metrics.Evicted() })
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create session store: %v", err)
	}
	s.sessions = sessions

	s.httpServer = &http.Server{
		Addr:           net.JoinHostPort(sc.ListenHost, strconv.Itoa(sc.ListenPort)),
		ReadTimeout:    sc.ReadTimeout,
		WriteTimeout:   sc.WriteTimeout,
		Handler:        s.routes(opts.registry, sc.RequestTimeout),
		MaxHeaderBytes: sc.MaxHeaderBytes,
	}

	return s, nil
}

func (s *Server) routes(registry *prometheus.Registry, timeout time.Duration) http.Handler {
	m := metrics.New(registry)
	withTimeout := func(h http.Handler) http.Handler {
		if timeout <= 0 {
			return h
		}
		return http.TimeoutHandler(h, timeout, "")
	}

	mux := http.NewServeMux()
	mux.Handle("GET /v1/platforms", m.Monitor("platforms", withTimeout(http.HandlerFunc(s.listPlatforms))))
	mux.Handle("POST /v1/platforms/{platform}/sessions", m.Monitor("create", withTimeout(http.HandlerFunc(s.createSession))))
	mux.Handle("GET /v1/sessions/{id}", m.Monitor("get", withTimeout(http.HandlerFunc(s.getSession))))
	mux.Handle("DELETE /v1/sessions/{id}", m.Monitor("delete", withTimeout(http.HandlerFunc(s.deleteSession))))
	mux.Handle("POST /v1/sessions/{id}/file", m.Monitor("file", withTimeout(http.HandlerFunc(s.uploadFile))))
	mux.Handle("POST /v1/sessions/{id}/reply", m.Monitor("reply", withTimeout(http.HandlerFunc(s.reply))))
	// Websockets hijack the connection, which the timeout handler does not support.
	mux.Handle("GET /v1/sessions/{id}/ws", m.Monitor("ws", http.HandlerFunc(s.serveWS)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return mux
}

// Handler returns the root handler of the server.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until Quit is called, the listener fails, or the configuration watcher fails.
func (s *Server) Run() error {
	s.log.Info("Starting server", "addr", s.httpServer.Addr)

	select {
	case <-s.gracefulCtx.Done():
		return errors.New("server is already shutting down")
	default:
	}

	_, watchErr, err := s.cm.Watch(s.gracefulCtx)
	if err != nil {
		return fmt.Errorf("failed to start watching configuration: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	defer s.sessions.purge()

	for {
		select {
		case <-s.gracefulCtx.Done():
			s.log.Info("Graceful shutdown initiated")
			if err := s.httpServer.Shutdown(s.ctx); err != nil {
				s.log.Error("Graceful shutdown failed", "err", err)
				return err
			}
			s.log.Info("Server shut down gracefully")
			s.cancel()
			return nil

		case err := <-serverErr:
			s.cancel()
			if err != nil {
				s.log.Error("Server encountered error", "err", err)
			}
			return err

		case err, ok := <-watchErr:
			if !ok {
				// The watcher stopped along with gracefulCtx.
				watchErr = nil
				continue
			}
			s.log.Error("Config watcher encountered unrecoverable error", "err", err)
			errC := s.httpServer.Close()
			s.cancel()
			return errors.Join(err, errC)
		}
	}
}

// Quit stops the server. Pending requests are completed unless force is set.
// Run cancels the remaining contexts once the graceful shutdown completes.
func (s *Server) Quit(force bool) {
	if force {
		s.httpServer.Close()
		s.cancel()
	} else {
		s.gracefulCancel()
	}
	s.log.Info("Server quit")
}

// AllowAll is a configuration allowing every platform. It never changes.
type AllowAll struct{}

// Load does nothing.
func (AllowAll) Load() error { return nil }

// Watch returns channels which never fire.
func (AllowAll) Watch(context.Context) (<-chan struct{}, <-chan error, error) { return nil, nil, nil }

// Allowed always returns true.
func (AllowAll) Allowed(string) bool { return true }
