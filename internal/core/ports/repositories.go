package ports

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

import (
	"context"
	"time"

	"payment-broker/internal/core/domain"
)

// ConfigStore reads provider configuration records. A missing record is
// reported as (nil, nil).
type ConfigStore interface {
	GetConfig(ctx context.Context, id string) (*domain.ProviderConfig, error)
}

// IndexedAuditStore keeps the compact audit form, keyed by transaction id.
type IndexedAuditStore interface {
	PutAudit(ctx context.Context, entry *domain.IndexedAuditEntry) error
}

// ArchiveAuditStore keeps full audit blobs under a date-partitioned path.
type ArchiveAuditStore interface {
	PutArchive(ctx context.Context, path string, blob []byte) error
	// URL returns a human-facing location for the object at path.
	URL(path string) string
}

// ProcessedEventStore remembers webhook event ids that were already acted on.
type ProcessedEventStore interface {
	// MarkProcessed returns true the first time an event id is seen.
	MarkProcessed(ctx context.Context, provider, eventID string, ttl time.Duration) (bool, error)
}

// RateLimiter counts requests in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

// RateLimitResult holds the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   int64 // Unix timestamp
}
