package sdk

import (
	"log/slog"

	"github.com/celerix-dev/celerix-abtest/internal/engine"
)

// Waiter is implemented by stores that persist in the background.
type Waiter interface {
	Wait()
}

// New returns a remote store when addr is set and reachable, otherwise the
// embedded engine over dataDir. The caller does not need to know which one
// it got.
func New(addr, dataDir string) (Store, error) {
	if addr != "" {
		client, err := Connect(addr)
		if err == nil {
			return client, nil
		}
		slog.Warn("remote store unreachable, falling back to embedded", "addr", addr, "error", err)
	}

	p, err := engine.NewPersistence(dataDir)
	if err != nil {
		return nil, err
	}

	allData, err := p.LoadAll()
	if err != nil {
		return nil, err
	}

	return engine.NewMemStore(allData, p), nil
}
