// Package landing drives the tracking flows of the A/B landing pages: the
// redirect page that assigns a bucket, the variant pages that report views,
// clicks and conversions, and the console page used to test a collector.
package landing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/celerix-dev/celerix-abtest/internal/engine"
	"github.com/celerix-dev/celerix-abtest/internal/identity"
	"github.com/celerix-dev/celerix-abtest/internal/notify"
	"github.com/celerix-dev/celerix-abtest/internal/transport"
	"github.com/celerix-dev/celerix-abtest/internal/variant"
	"github.com/celerix-dev/celerix-abtest/pkg/schema"
)

const (
	// DefaultRedirectDelay is the loading pause before the redirect flow assigns a bucket.
	DefaultRedirectDelay = 1500 * time.Millisecond
	// DefaultPurchaseDelay is the simulated payment processing time.
	DefaultPurchaseDelay = 2 * time.Second
	// PricingVisibleRatio is the share of the pricing section that must be on
	// screen before it counts as viewed.
	PricingVisibleRatio = 0.5
)

// Page describes the page a visitor is on.
type Page struct {
	Path      string
	UserAgent string
	Referrer  string
}

// Visitor is one browser profile looking at one page.
type Visitor struct {
	page     Page
	store    engine.Scope
	ids      *identity.Provider
	assigner *variant.Assigner
	sender   *transport.Sender
	notifier *notify.Notifier
	logger   *slog.Logger
	now      func() time.Time

	presetEndpoint string
	redirectDelay  time.Duration
	purchaseDelay  time.Duration

	pricingTracked atomic.Bool
}

// Option configures a Visitor.
type Option func(*Visitor)

// WithSender sets the event transport.
func WithSender(s *transport.Sender) Option {
	return func(v *Visitor) { v.sender = s }
}

// WithIdentity sets the identity provider.
func WithIdentity(p *identity.Provider) Option {
	return func(v *Visitor) { v.ids = p }
}

// WithAssigner sets the variant assigner used by the redirect flow.
func WithAssigner(a *variant.Assigner) Option {
	return func(v *Visitor) { v.assigner = a }
}

// WithNotifier sets where status messages go.
func WithNotifier(n *notify.Notifier) Option {
	return func(v *Visitor) { v.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *Visitor) { v.logger = l }
}

// WithClock sets the time source for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(v *Visitor) { v.now = now }
}

// WithDelays sets the redirect loading pause and the purchase processing time.
func WithDelays(redirect, purchase time.Duration) Option {
	return func(v *Visitor) {
		v.redirectDelay = redirect
		v.purchaseDelay = purchase
	}
}

// WithPresetEndpoint makes the redirect flow store url as the collector
// before it logs the assignment.
func WithPresetEndpoint(url string) Option {
	return func(v *Visitor) { v.presetEndpoint = url }
}

// NewVisitor wires a visitor over a profile scope. Components not supplied
// through options are built over the same scope.
func NewVisitor(store engine.Scope, page Page, opts ...Option) *Visitor {
	v := &Visitor{
		page:          page,
		store:         store,
		logger:        slog.Default(),
		now:           time.Now,
		redirectDelay: DefaultRedirectDelay,
		purchaseDelay: DefaultPurchaseDelay,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.ids == nil {
		v.ids = identity.New(store)
	}
	if v.assigner == nil {
		v.assigner = variant.NewAssigner(store)
	}
	if v.sender == nil {
		v.sender = transport.NewSender(store, transport.WithLogger(v.logger))
	}
	if v.notifier == nil {
		v.notifier = notify.New(nil)
	}
	return v
}

// UserID resolves the visitor's identifier.
func (v *Visitor) UserID() (string, error) {
	return v.ids.UserID()
}

// CurrentVariant is the bucket implied by the page path.
func (v *Visitor) CurrentVariant() variant.Tag {
	return variant.CurrentVariant(v.page.Path)
}

// Pricing is the price snapshot of the page's bucket.
func (v *Visitor) Pricing() schema.Pricing {
	return variant.PricingFor(v.CurrentVariant())
}

// Track builds an event for the visitor and sends it.
func (v *Visitor) Track(ctx context.Context, name string, tag variant.Tag, meta map[string]any) error {
	uid, err := v.ids.UserID()
	if err != nil {
		return err
	}
	return v.sender.Send(ctx, schema.Event{
		Event:   name,
		Variant: string(tag),
		UserID:  uid,
		TS:      v.now().UnixMilli(),
		Meta:    meta,
	})
}

// SaveEndpoint validates and stores the collector URL, reporting the outcome
// through the notifier.
func (v *Visitor) SaveEndpoint(raw string) error {
	err := transport.SaveEndpoint(v.store, raw)
	switch {
	case err == nil:
		v.notifier.Success("URL saved successfully")
	case errors.Is(err, transport.ErrEmptyEndpoint):
		v.notifier.Error("Please enter a URL")
	case errors.Is(err, transport.ErrEndpointSuffix):
		v.notifier.Error(fmt.Sprintf("URL must end with %s", transport.EndpointSuffix))
	case errors.Is(err, transport.ErrInvalidEndpoint):
		v.notifier.Error("Invalid URL format")
	default:
		v.notifier.Error(err.Error())
	}
	return err
}

// ScrollDepth converts a scroll offset into a percentage of the scrollable
// height. Pages that cannot scroll report 0.
func ScrollDepth(scrollY, scrollHeight, viewportHeight float64) int {
	scrollable := scrollHeight - viewportHeight
	if scrollable <= 0 {
		return 0
	}
	return int(math.Round(scrollY / scrollable * 100))
}

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
