package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"payment-broker/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// ConfigRepo implements ports.ConfigStore.
type ConfigRepo struct {
	pool Pool
}

// NewConfigRepo creates a new ConfigRepo.
func NewConfigRepo(pool Pool) *ConfigRepo {
	return &ConfigRepo{pool: pool}
}

// GetConfig fetches the record stored under (id, CONFIG). A missing record
// returns (nil, nil).
func (r *ConfigRepo) GetConfig(ctx context.Context, id string) (*domain.ProviderConfig, error) {
	query := `SELECT id, sk, merchant_id, payment_method_id, provider_key, configs, credentials, currency, enabled, created_at, updated_at
		FROM payment_configs WHERE id = $1 AND sk = $2`

	var (
		c                    domain.ProviderConfig
		configs, credentials []byte
	)
	err := r.pool.QueryRow(ctx, query, id, domain.ConfigSortKey).Scan(
		&c.ID, &c.SortKey, &c.MerchantID, &c.PaymentMethodID, &c.ProviderKey,
		&configs, &credentials, &c.Currency, &c.Enabled,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment config: %w", err)
	}

	if c.Configs, err = decodeTree(configs); err != nil {
		return nil, fmt.Errorf("decode configs of %s: %w", id, err)
	}
	if c.Credentials, err = decodeTree(credentials); err != nil {
		return nil, fmt.Errorf("decode credentials of %s: %w", id, err)
	}
	return &c, nil
}

func decodeTree(raw []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
