package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ubuntu/ddp-insights/internal/constants"
	"github.com/ubuntu/ddp-insights/internal/extract"
)

// ErrSessionDone is returned when replying to a session which reached Done.
var ErrSessionDone = errors.New("session is done")

// Sink receives the donations of a session.
type Sink interface {
	Donate(ctx context.Context, key string, data []byte) error
}

// Session executes the transitions of a Machine against a Sink.
// A Session is not safe for concurrent use.
type Session struct {
	machine *Machine
	sink    Sink
	tracker *SessionLog
	log     *slog.Logger

	state   State
	request *Request
	exit    *Exit
}

type sessionOptions struct {
	id      string
	parent  slog.Handler
	level   slog.Leveler
	machine []Options
}

// SessionOptions represents an optional function to override Session default values.
type SessionOptions func(*sessionOptions)

// WithSessionID sets the session id instead of a random one.
func WithSessionID(id string) SessionOptions {
	return func(o *sessionOptions) {
		o.id = id
	}
}

// WithLogHandler forwards the session log to h.
func WithLogHandler(h slog.Handler) SessionOptions {
	return func(o *sessionOptions) {
		o.parent = h
	}
}

// WithTrackingLevel sets the minimum level of the donated session log.
func WithTrackingLevel(l slog.Leveler) SessionOptions {
	return func(o *sessionOptions) {
		o.level = l
	}
}

// WithMachineOptions passes args to the underlying Machine.
func WithMachineOptions(args ...Options) SessionOptions {
	return func(o *sessionOptions) {
		o.machine = append(o.machine, args...)
	}
}

// NewSession returns a Session for platform p donating to sink.
func NewSession(p extract.Platform, sink Sink, args ...SessionOptions) *Session {
	opts := sessionOptions{
		id:     uuid.NewString(),
		parent: slog.Default().Handler(),
		level:  slog.LevelInfo,
	}
	for _, opt := range args {
		opt(&opts)
	}

	tracker := NewSessionLog(opts.parent, opts.level)
	log := slog.New(tracker).With("session", opts.id)
	machineOpts := append([]Options{WithLogger(log)}, opts.machine...)

	return &Session{
		machine: NewMachine(p, opts.id, machineOpts...),
		sink:    sink,
		tracker: tracker,
		log:     log,
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.machine.Session()
}

// State returns the current state of the session.
func (s *Session) State() State {
	return s.state
}

// Request returns the pending request, or nil once done.
func (s *Session) Request() *Request {
	return s.request
}

// Exit returns the exit of the session, or nil while it is running.
func (s *Session) Exit() *Exit {
	return s.exit
}

// Log returns the session log handler.
func (s *Session) Log() *SessionLog {
	return s.tracker
}

// Start begins the session and returns its first request.
func (s *Session) Start(ctx context.Context) (Transition, error) {
	return s.apply(ctx, s.machine.Start())
}

// Reply answers the pending request with p.
// The session moves on even if a donation fails: the returned error reports the lost donations.
func (s *Session) Reply(ctx context.Context, p Payload) (Transition, error) {
	if s.exit != nil {
		return Transition{}, ErrSessionDone
	}
	return s.apply(ctx, s.machine.Step(s.state, p))
}

func (s *Session) apply(ctx context.Context, t Transition) (Transition, error) {
	s.log.Debug("Session step", "stage", t.State.Stage.String(), "donations", len(t.Donations))
	s.state = t.State
	s.request = t.Request
	s.exit = t.Exit

	var err error
	for _, d := range t.Donations {
		err = errors.Join(err, s.donate(ctx, d.Key, d.Data))
	}
	if t.FlushTracking {
		err = errors.Join(err, s.flushTracking(ctx))
	}
	return t, err
}

func (s *Session) donate(ctx context.Context, key string, data []byte) error {
	if err := s.sink.Donate(ctx, key, data); err != nil {
		s.log.Warn("Donation failed", "key", key, "error", err)
		return fmt.Errorf("could not donate %q: %w", key, err)
	}
	return nil
}

func (s *Session) flushTracking(ctx context.Context) error {
	data, err := s.tracker.Tracking()
	if err != nil {
		return fmt.Errorf("could not encode session log: %v", err)
	}
	return s.donate(ctx, s.ID()+constants.TrackingKeySuffix, data)
}

// UI renders requests to the participant and returns the response.
type UI interface {
	Render(ctx context.Context, r Request) (Payload, error)
}

// Runner drives a Session to the end through a UI.
type Runner struct {
	session *Session
	ui      UI
}

// NewRunner returns a Runner for session s rendered by ui.
func NewRunner(s *Session, ui UI) Runner {
	return Runner{session: s, ui: ui}
}

// Run drives the session until it is done.
// It stops on the first UI or donation error.
func (r Runner) Run(ctx context.Context) (Exit, error) {
	t, err := r.session.Start(ctx)
	if err != nil {
		return Exit{}, err
	}

	for t.Exit == nil {
		if t.Request == nil {
			return Exit{}, fmt.Errorf("session %s has no pending request in stage %s", r.session.ID(), t.State.Stage)
		}
		p, err := r.ui.Render(ctx, *t.Request)
		if err != nil {
			return Exit{}, fmt.Errorf("could not render request: %v", err)
		}
		if t, err = r.session.Reply(ctx, p); err != nil {
			return Exit{}, err
		}
	}
	return *t.Exit, nil
}
