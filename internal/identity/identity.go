// Package identity resolves the stable pseudo-identifier of a visitor
// profile.
package identity

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/celerix-dev/celerix-abtest/internal/engine"
	"github.com/celerix-dev/celerix-abtest/pkg/schema"
)

// Provider hands out the profile's user ID, minting one on first use.
type Provider struct {
	store engine.Scope
	rand  io.Reader
}

// Option configures a Provider.
type Option func(*Provider)

// WithRand sets the byte source used to mint new IDs.
func WithRand(r io.Reader) Option {
	return func(p *Provider) { p.rand = r }
}

// New creates a Provider over a profile scope. IDs are drawn from a fast
// non-cryptographic generator unless WithRand says otherwise.
func New(store engine.Scope, opts ...Option) *Provider {
	p := &Provider{
		store: store,
		rand:  newSource(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// newSource seeds a ChaCha8 stream from the runtime's global generator.
func newSource() io.Reader {
	var seed [32]byte
	for i := 0; i < len(seed); i += 8 {
		binary.LittleEndian.PutUint64(seed[i:], rand.Uint64())
	}
	return rand.NewChaCha8(seed)
}

// UserID returns the stored ID, or mints, stores and returns a new one.
// Repeated calls against the same profile return the same string.
func (p *Provider) UserID() (string, error) {
	uid, err := p.store.Get(schema.KeyUserID)
	if err != nil && !errors.Is(err, engine.ErrNotFound) {
		return "", fmt.Errorf("read user id: %w", err)
	}
	if uid != "" {
		return uid, nil
	}

	id, err := uuid.NewRandomFromReader(p.rand)
	if err != nil {
		return "", fmt.Errorf("generate user id: %w", err)
	}
	uid = id.String()

	if err := p.store.Set(schema.KeyUserID, uid); err != nil {
		return "", fmt.Errorf("store user id: %w", err)
	}
	return uid, nil
}
