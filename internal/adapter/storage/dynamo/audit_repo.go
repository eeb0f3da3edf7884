package dynamo

import (
	"context"
	"fmt"

	"payment-broker/internal/core/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

type auditItem struct {
	TransactionID string `dynamodbav:"transactionId"`
	Timestamp     string `dynamodbav:"timestamp"`
	OrderID       string `dynamodbav:"orderId"`
	Provider      string `dynamodbav:"provider"`
	Endpoint      string `dynamodbav:"endpoint"`
	Method        string `dynamodbav:"method"`
	StatusCode    int    `dynamodbav:"statusCode"`
	Status        string `dynamodbav:"status"`
	DurationMs    int64  `dynamodbav:"durationMs"`
	IPAddress     string `dynamodbav:"ipAddress,omitempty"`
	LogURL        string `dynamodbav:"logUrl"`
	CreatedAt     string `dynamodbav:"createdAt"`
	UpdatedAt     string `dynamodbav:"updatedAt"`
}

// AuditRepo implements ports.IndexedAuditStore. The table's partition key is
// transactionId; a repeated put replaces the item.
type AuditRepo struct {
	api   API
	table string
}

// NewAuditRepo creates a new AuditRepo.
func NewAuditRepo(api API, table string) *AuditRepo {
	return &AuditRepo{api: api, table: table}
}

func (r *AuditRepo) PutAudit(ctx context.Context, e *domain.IndexedAuditEntry) error {
	item, err := attributevalue.MarshalMap(auditItem{
		TransactionID: e.TransactionID,
		Timestamp:     e.Timestamp,
		OrderID:       e.OrderID,
		Provider:      e.Provider,
		Endpoint:      e.Endpoint,
		Method:        e.Method,
		StatusCode:    e.StatusCode,
		Status:        string(e.Status),
		DurationMs:    e.DurationMs,
		IPAddress:     e.IPAddress,
		LogURL:        e.LogURL,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}

	if _, err := r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("dynamodb put audit %s: %w", e.TransactionID, err)
	}
	return nil
}
