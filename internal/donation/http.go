package donation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ubuntu/decorate"
)

// HTTPConfig configures the HTTP sink.
type HTTPConfig struct {
	URL string `mapstructure:"url" validate:"required|fullUrl"`
	// Retries is the number of extra attempts made after a send failure.
	Retries int `mapstructure:"retries" validate:"min:0"`
	// Backoff is the wait before the first retry. It doubles after each retry.
	Backoff time.Duration `mapstructure:"backoff"`
}

// HTTPSink posts each donation to <URL>/<key>.
type HTTPSink struct {
	base    *url.URL
	client  *http.Client
	retries int
	backoff time.Duration

	log *slog.Logger
}

// NewHTTPSink returns an HTTPSink posting to cfg.URL.
func NewHTTPSink(cfg HTTPConfig, args ...Options) (*HTTPSink, error) {
	if err := check(KindHTTP, &cfg); err != nil {
		return nil, err
	}
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse donation URL %s: %v", cfg.URL, err)
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 30 * time.Second
	}

	opts := newOptions(args)
	return &HTTPSink{
		base:    u,
		client:  &http.Client{Timeout: operationTimeout},
		retries: cfg.Retries,
		backoff: cfg.Backoff,
		log:     opts.log,
	}, nil
}

// Donate posts data, retrying with an exponential backoff on send failures.
func (s *HTTPSink) Donate(ctx context.Context, key string, data []byte) (err error) {
	defer decorate.OnError(&err, "could not send donation %q", key)

	if err := checkKey(key); err != nil {
		return err
	}
	target := s.base.JoinPath(key).String()

	wait := s.backoff
	for attempt := 0; ; attempt++ {
		err = s.send(ctx, target, data)
		if !errors.Is(err, ErrSendFailure) || attempt >= s.retries {
			return err
		}

		s.log.Warn("Retrying donation after backoff period", "key", key, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
}

func (s *HTTPSink) send(ctx context.Context, target string, data []byte) error {
	s.log.Debug("Sending donation to server", "url", target, "size", len(data))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Join(ErrSendFailure, fmt.Errorf("failed to send HTTP request: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Join(ErrSendFailure, fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}
	return nil
}

// Close releases idle connections.
func (s *HTTPSink) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
