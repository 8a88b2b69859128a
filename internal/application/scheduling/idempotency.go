package scheduling

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed request keys so a retried
// reservation call does not double-reserve. Implementations live in
// infrastructure (Redis for deployments, in-memory for tests).
type IdempotencyStore interface {
	// Claim records the key if unseen. Returns false when the key was
	// already claimed, along with the value stored by the first claim.
	Claim(ctx context.Context, key, value string, ttl time.Duration) (bool, string, error)
	// Release forgets a claimed key, allowing a retry after a failed run
	Release(ctx context.Context, key string) error
}
