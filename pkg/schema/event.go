// Package schema defines the data structures shared by the tracking
// components, the collector and the CLI.
package schema

// Event is a single tracked action. It is built per action, serialized for
// delivery and discarded; nothing persists it on the client side.
type Event struct {
	Event   string         `json:"event"`
	Variant string         `json:"variant"`
	UserID  string         `json:"userId"`
	TS      int64          `json:"ts"` // milliseconds since epoch
	Meta    map[string]any `json:"meta"`
}

// Pricing is the price snapshot shown to a variant.
type Pricing struct {
	Regular         float64 `json:"regular"`
	Current         float64 `json:"current"`
	Currency        string  `json:"currency"`
	HasDiscount     bool    `json:"hasDiscount"`
	DiscountPercent int     `json:"discountPercent"`
}
