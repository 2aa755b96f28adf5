package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/kopesha/loan-core/internal/domain"
	"github.com/kopesha/loan-core/internal/logging"
)

// withRetry re-runs fn on concurrency conflicts up to the configured number
// of attempts, then surfaces the conflict as a transient failure.
func (s *Service) withRetry(ctx context.Context, fn func() error) error {
	attempts := s.config.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrConcurrencyConflict) {
			return err
		}
		if attempt < attempts {
			logging.FromContext(ctx).Debug("retrying after concurrency conflict",
				"attempt", attempt,
			)
		}
	}
	return fmt.Errorf("withRetry: gave up after %d attempts: %w", attempts, err)
}
