package fixtures

import (
	"context"
	"fmt"

	"github.com/launchdarkly/app-test-harness/framework"
)

// Store is an external data store that can be emptied before each test.
type Store interface {
	// Name identifies the store in log output.
	Name() string

	// Reset deletes everything that tests may have written to the store.
	Reset(ctx context.Context) error
}

// ResetAll resets each store in order, stopping at the first failure.
func ResetAll(ctx context.Context, stores []Store, logger framework.Logger) error {
	if logger == nil {
		logger = framework.NullLogger()
	}
	for _, s := range stores {
		if err := s.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset %s: %w", s.Name(), err)
		}
		logger.Printf("Reset %s", s.Name())
	}
	return nil
}
