package landing

import (
	"context"
)

// TrackPageView reports the initial view of a variant page.
func (v *Visitor) TrackPageView(ctx context.Context) error {
	referrer := v.page.Referrer
	if referrer == "" {
		referrer = "direct"
	}
	return v.Track(ctx, "page_view", v.CurrentVariant(), map[string]any{
		"page":     v.page.Path,
		"ua":       v.page.UserAgent,
		"referrer": referrer,
		"pricing":  v.Pricing(),
	})
}

// ObservePricing is fed visibility updates of the pricing section. The first
// update with at least half the section visible sends view_pricing; every
// later update is ignored. It reports whether this call sent the event.
func (v *Visitor) ObservePricing(ctx context.Context, visibleRatio float64, scrollDepth int) (bool, error) {
	if visibleRatio < PricingVisibleRatio {
		return false, nil
	}
	if !v.pricingTracked.CompareAndSwap(false, true) {
		return false, nil
	}
	return true, v.Track(ctx, "view_pricing", v.CurrentVariant(), map[string]any{
		"pricing":      v.Pricing(),
		"scroll_depth": scrollDepth,
	})
}

// TrackCTAClick reports a purchase button click. When the click is logged the
// visitor moves on to the simulated purchase; otherwise an error is shown.
func (v *Visitor) TrackCTAClick(ctx context.Context, buttonText string) error {
	err := v.Track(ctx, "cta_click", v.CurrentVariant(), map[string]any{
		"pricing":     v.Pricing(),
		"button_text": buttonText,
	})
	if err != nil {
		v.notifier.Error("Unable to process request. Please try again.")
		return err
	}

	v.notifier.Success("Processing your order...")
	return v.SimulatePurchase(ctx)
}

// SimulatePurchase stands in for a payment processor: it waits the
// processing time, reports the conversion and shows a confirmation. The
// conversion is best effort; only cancellation is returned.
func (v *Visitor) SimulatePurchase(ctx context.Context) error {
	if err := sleep(ctx, v.purchaseDelay); err != nil {
		return err
	}

	pricing := v.Pricing()
	_ = v.Track(ctx, "conversion", v.CurrentVariant(), map[string]any{
		"pricing":        pricing,
		"revenue":        pricing.Current,
		"payment_method": "simulated",
	})

	v.notifier.Success("🎉 Order successful! Check your Telegram for delivery details.")
	return nil
}

// TrackEmoji reports a click on one of the showcased emoji.
func (v *Visitor) TrackEmoji(ctx context.Context, emoji, label string) error {
	return v.Track(ctx, "emoji_interaction", v.CurrentVariant(), map[string]any{
		"emoji":    emoji,
		"category": label,
		"action":   "click",
	})
}
