package postgres

import (
	"context"
	"fmt"

	"payment-broker/internal/core/domain"
)

// AuditRepo implements ports.IndexedAuditStore. A second write for the same
// transaction id replaces the first.
type AuditRepo struct {
	pool Pool
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(pool Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// PutAudit upserts the entry keyed by its transaction id.
func (r *AuditRepo) PutAudit(ctx context.Context, e *domain.IndexedAuditEntry) error {
	query := `INSERT INTO payment_audit_logs
		(transaction_id, "timestamp", order_id, provider, endpoint, method, status_code, status, duration_ms, ip_address, log_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (transaction_id) DO UPDATE SET
			"timestamp" = EXCLUDED."timestamp",
			order_id = EXCLUDED.order_id,
			provider = EXCLUDED.provider,
			endpoint = EXCLUDED.endpoint,
			method = EXCLUDED.method,
			status_code = EXCLUDED.status_code,
			status = EXCLUDED.status,
			duration_ms = EXCLUDED.duration_ms,
			ip_address = EXCLUDED.ip_address,
			log_url = EXCLUDED.log_url,
			updated_at = EXCLUDED.updated_at`

	_, err := r.pool.Exec(ctx, query,
		e.TransactionID, e.Timestamp, e.OrderID, e.Provider, e.Endpoint, e.Method,
		e.StatusCode, string(e.Status), e.DurationMs, e.IPAddress, e.LogURL,
		e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}
