package schema

// Keys persisted in a visitor profile.
const (
	// KeyUserID holds the visitor's UUID-v4 shaped identifier.
	KeyUserID = "uid"
	// KeyEndpoint holds the collector URL events are posted to.
	KeyEndpoint = "gas_url"
	// KeyVariant holds the bucket chosen by the redirect flow.
	KeyVariant = "ab_test_variant"
)
