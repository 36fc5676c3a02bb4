// Package transport delivers event records to the configured collector.
//
// Each event is one POST with an application/x-www-form-urlencoded body and
// no other request headers set by this package, so a browser would send it
// as a CORS simple request without a preflight. Adding a custom header or a
// JSON content type changes that wire behaviour.
//
// Delivery is best effort: no retry, no queue, no ordering. A failed send is
// reported to the caller and logged, then forgotten.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/celerix-dev/celerix-abtest/internal/engine"
	"github.com/celerix-dev/celerix-abtest/pkg/schema"
)

// FormContentType is the only header the sender sets.
const FormContentType = "application/x-www-form-urlencoded"

// ErrNoEndpoint is returned when no collector URL has been saved.
var ErrNoEndpoint = errors.New("missing web app url")

// StatusError reports a non-2xx collector response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Sender posts events to the endpoint stored in a profile.
type Sender struct {
	store  engine.Scope
	client *http.Client
	logger *slog.Logger
}

// Option configures a Sender.
type Option func(*Sender)

// WithHTTPClient sets the client used for delivery. Default: http.DefaultClient.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Sender) { s.client = c }
}

// WithLogger sets the logger failed deliveries are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) { s.logger = l }
}

// NewSender creates a Sender reading its endpoint from store.
func NewSender(store engine.Scope, opts ...Option) *Sender {
	s := &Sender{
		store:  store,
		client: http.DefaultClient,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Encode flattens an event into the five form fields sent on the wire.
func Encode(ev schema.Event) (url.Values, error) {
	meta, err := encodeMeta(ev.Meta)
	if err != nil {
		return nil, fmt.Errorf("encode meta: %w", err)
	}
	return url.Values{
		"event":   {ev.Event},
		"variant": {ev.Variant},
		"userId":  {ev.UserID},
		"ts":      {strconv.FormatInt(ev.TS, 10)},
		"meta":    {meta},
	}, nil
}

// encodeMeta renders meta as compact JSON without HTML escaping.
func encodeMeta(meta map[string]any) (string, error) {
	if meta == nil {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(meta); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Send delivers ev with a single POST. It returns ErrNoEndpoint without
// touching the network when no endpoint is stored, a *StatusError for
// non-2xx replies and a wrapped error for network failures.
func (s *Sender) Send(ctx context.Context, ev schema.Event) error {
	err := s.send(ctx, ev)
	switch {
	case err == nil:
		s.logger.Debug("event logged", "event", ev.Event, "variant", ev.Variant)
	case errors.Is(err, ErrNoEndpoint):
		s.logger.Info("no collector configured, skipping event", "event", ev.Event)
	default:
		s.logger.Warn("failed to log event", "event", ev.Event, "error", err)
	}
	return err
}

func (s *Sender) send(ctx context.Context, ev schema.Event) error {
	endpoint, err := LoadEndpoint(s.store)
	if err != nil {
		return err
	}

	form, err := Encode(ev)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", FormContentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send event: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// Go sends ev in the background. The channel receives the result of Send and
// is then closed; callers that do not care may drop it.
func (s *Sender) Go(ctx context.Context, ev schema.Event) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.Send(ctx, ev)
	}()
	return done
}

// Delivered reports whether a Send result counts as success.
func Delivered(err error) bool {
	return err == nil
}
