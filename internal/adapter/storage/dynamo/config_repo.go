package dynamo

import (
	"context"
	"fmt"
	"time"

	"payment-broker/internal/core/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// configItem is the stored shape of a payment method configuration.
type configItem struct {
	PK              string         `dynamodbav:"PK"`
	SK              string         `dynamodbav:"SK"`
	RestaurantID    string         `dynamodbav:"restaurantId"`
	PaymentMethodID string         `dynamodbav:"paymentMethodId"`
	ProviderKey     string         `dynamodbav:"providerKey"`
	Configs         map[string]any `dynamodbav:"configs"`
	Credentials     map[string]any `dynamodbav:"credentials"`
	Currency        string         `dynamodbav:"currency"`
	Enabled         bool           `dynamodbav:"enabled"`
	CreatedAt       string         `dynamodbav:"createdAt"`
	UpdatedAt       string         `dynamodbav:"updatedAt"`
}

// ConfigRepo implements ports.ConfigStore on a DynamoDB table keyed by
// (PK = merchantId#paymentMethodId, SK = "CONFIG").
type ConfigRepo struct {
	api   API
	table string
}

// NewConfigRepo creates a new ConfigRepo.
func NewConfigRepo(api API, table string) *ConfigRepo {
	return &ConfigRepo{api: api, table: table}
}

// GetConfig returns (nil, nil) when no item exists.
func (r *ConfigRepo) GetConfig(ctx context.Context, id string) (*domain.ProviderConfig, error) {
	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: id},
			"SK": &types.AttributeValueMemberS{Value: domain.ConfigSortKey},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get config %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var item configItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", id, err)
	}

	return &domain.ProviderConfig{
		ID:              item.PK,
		SortKey:         item.SK,
		MerchantID:      item.RestaurantID,
		PaymentMethodID: item.PaymentMethodID,
		ProviderKey:     item.ProviderKey,
		Configs:         nonNil(item.Configs),
		Credentials:     nonNil(item.Credentials),
		Currency:        item.Currency,
		Enabled:         item.Enabled,
		CreatedAt:       parseTime(item.CreatedAt),
		UpdatedAt:       parseTime(item.UpdatedAt),
	}, nil
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// parseTime accepts RFC 3339 timestamps; anything else yields the zero time.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
