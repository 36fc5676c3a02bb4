package transport

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/celerix-dev/celerix-abtest/internal/engine"
	"github.com/celerix-dev/celerix-abtest/pkg/schema"
)

// EndpointSuffix is the path every collector URL must end with.
const EndpointSuffix = "/exec"

var (
	// ErrEmptyEndpoint is returned when saving a blank URL.
	ErrEmptyEndpoint = errors.New("endpoint url is empty")
	// ErrInvalidEndpoint is returned when the URL is not a well-formed absolute URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint url format")
	// ErrEndpointSuffix is returned when the URL does not end with EndpointSuffix.
	ErrEndpointSuffix = fmt.Errorf("endpoint url must end with %s", EndpointSuffix)
)

var validate = validator.New()

// ValidateEndpoint checks a collector URL without storing it and returns the
// trimmed form.
func ValidateEndpoint(raw string) (string, error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return "", ErrEmptyEndpoint
	}
	if err := validate.Var(u, "url"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidEndpoint, u)
	}
	if !strings.HasSuffix(u, EndpointSuffix) {
		return "", ErrEndpointSuffix
	}
	return u, nil
}

// SaveEndpoint validates raw and persists it. A rejected URL leaves the
// previously stored endpoint untouched.
func SaveEndpoint(store engine.Scope, raw string) error {
	u, err := ValidateEndpoint(raw)
	if err != nil {
		return err
	}
	if err := store.Set(schema.KeyEndpoint, u); err != nil {
		return fmt.Errorf("store endpoint: %w", err)
	}
	return nil
}

// LoadEndpoint returns the stored collector URL or ErrNoEndpoint.
func LoadEndpoint(store engine.Scope) (string, error) {
	u, err := store.Get(schema.KeyEndpoint)
	if err != nil && !errors.Is(err, engine.ErrNotFound) {
		return "", fmt.Errorf("read endpoint: %w", err)
	}
	if u == "" {
		return "", ErrNoEndpoint
	}
	return u, nil
}
