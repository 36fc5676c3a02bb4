// Package variant resolves which A/B bucket a visitor belongs to.
//
// Two independent sources exist and are never reconciled: the Assigner's
// persisted coin flip, used by the redirect flow, and CurrentVariant, which
// reads the bucket off the page path once a visitor is on a variant page. A
// visitor who opens a variant page directly can disagree with their stored
// assignment.
package variant

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/celerix-dev/celerix-abtest/internal/engine"
	"github.com/celerix-dev/celerix-abtest/pkg/schema"
)

// Tag names a bucket.
type Tag string

// Tags stored by the redirect flow.
const (
	AssignedA Tag = "a"
	AssignedB Tag = "b"
)

// Tags derived from the page path.
const (
	A Tag = "A"
	B Tag = "B"
)

// None marks events that do not belong to any bucket.
const None Tag = "none"

// Upper returns the tag in the upper-case form used in event records.
func (t Tag) Upper() Tag {
	return Tag(strings.ToUpper(string(t)))
}

// Page returns the variant page the redirect flow sends a visitor to.
func (t Tag) Page() string {
	return "test-" + strings.ToLower(string(t)) + ".html"
}

// Assigner hands out a persisted bucket per profile.
type Assigner struct {
	store engine.Scope
	coin  func() bool
}

// Option configures an Assigner.
type Option func(*Assigner)

// WithCoin replaces the coin flip. It must return true half of the time.
func WithCoin(f func() bool) Option {
	return func(a *Assigner) { a.coin = f }
}

// NewAssigner creates an Assigner over a profile scope.
func NewAssigner(store engine.Scope, opts ...Option) *Assigner {
	a := &Assigner{
		store: store,
		coin:  func() bool { return rand.IntN(2) == 0 },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AssignedVariant returns the stored bucket as it was stored. On first use it
// flips a fair coin, persists the result and returns it.
func (a *Assigner) AssignedVariant() (Tag, error) {
	v, err := a.store.Get(schema.KeyVariant)
	if err != nil && !errors.Is(err, engine.ErrNotFound) {
		return "", fmt.Errorf("read variant: %w", err)
	}
	if v != "" {
		return Tag(v), nil
	}

	tag := AssignedB
	if a.coin() {
		tag = AssignedA
	}
	if err := a.store.Set(schema.KeyVariant, string(tag)); err != nil {
		return "", fmt.Errorf("store variant: %w", err)
	}
	return tag, nil
}

// CurrentVariant infers the bucket from a page path: A on test-a pages, B
// everywhere else.
func CurrentVariant(path string) Tag {
	if strings.Contains(path, "test-a") {
		return A
	}
	return B
}

// PricingFor returns the price snapshot shown to a bucket. Anything other
// than A sees the discounted B pricing.
func PricingFor(t Tag) schema.Pricing {
	if t.Upper() == A {
		return schema.Pricing{
			Regular:  14.99,
			Current:  14.99,
			Currency: "USD",
		}
	}
	return schema.Pricing{
		Regular:         14.99,
		Current:         12.74,
		Currency:        "USD",
		HasDiscount:     true,
		DiscountPercent: 15,
	}
}
