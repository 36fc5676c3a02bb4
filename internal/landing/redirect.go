package landing

import (
	"context"
	"fmt"

	"github.com/celerix-dev/celerix-abtest/internal/transport"
	"github.com/celerix-dev/celerix-abtest/internal/variant"
)

// TestType labels the experiment in assignment events.
const TestType = "pricing_discount"

// Redirect runs the split page: it stores the preset collector (if any),
// waits the loading pause, resolves the persisted bucket, logs the
// assignment and returns the page to send the visitor to. A failed
// assignment log does not stop the redirect.
func (v *Visitor) Redirect(ctx context.Context) (string, error) {
	if v.presetEndpoint != "" {
		if err := transport.SaveEndpoint(v.store, v.presetEndpoint); err != nil {
			v.logger.Warn("preset endpoint rejected", "url", v.presetEndpoint, "error", err)
		} else {
			v.logger.Debug("collector configured", "url", v.presetEndpoint)
		}
	}

	if err := sleep(ctx, v.redirectDelay); err != nil {
		return "", err
	}

	tag, err := v.assigner.AssignedVariant()
	if err != nil {
		return "", fmt.Errorf("assign variant: %w", err)
	}

	// Delivery problems are already logged by the sender.
	_ = v.Track(ctx, "ab_assignment", tag.Upper(), map[string]any{
		"page":      v.page.Path,
		"ua":        v.page.UserAgent,
		"test_type": TestType,
	})

	return tag.Page(), nil
}

// AssignedVariant exposes the redirect flow's persisted bucket.
func (v *Visitor) AssignedVariant() (variant.Tag, error) {
	return v.assigner.AssignedVariant()
}
