package landing

import (
	"context"

	"github.com/celerix-dev/celerix-abtest/internal/variant"
)

// ConsoleClick sends a cta_click for an explicitly chosen bucket, as the
// collector test console does.
func (v *Visitor) ConsoleClick(ctx context.Context, tag variant.Tag) error {
	return v.consoleSend(ctx, "cta_click", tag)
}

// Heartbeat sends a bucket-less liveness event.
func (v *Visitor) Heartbeat(ctx context.Context) error {
	return v.consoleSend(ctx, "heartbeat", variant.None)
}

func (v *Visitor) consoleSend(ctx context.Context, name string, tag variant.Tag) error {
	err := v.Track(ctx, name, tag, map[string]any{
		"page": v.page.Path,
		"ua":   v.page.UserAgent,
	})
	if err != nil {
		v.notifier.Error(err.Error())
		return err
	}
	v.notifier.Success("Logged")
	return nil
}
