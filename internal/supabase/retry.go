package supabase

import (
	"fmt"
	"time"
)

// Retry runs an operation again after each failure, waiting Backoffs[i]
// before attempt i+2. Attempts beyond the list retry immediately.
type Retry struct {
	Backoffs []time.Duration
}

var DefaultRetry = Retry{Backoffs: []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}}

func (r Retry) Do(fn func() error, maxRetries int) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err
		if i < len(r.Backoffs) && i < maxRetries-1 {
			time.Sleep(r.Backoffs[i])
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}
