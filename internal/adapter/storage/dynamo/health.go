package dynamo

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// HealthCheck implements ports.HealthChecker by describing the config table.
type HealthCheck struct {
	api   API
	table string
}

// NewHealthCheck creates a DynamoDB health checker.
func NewHealthCheck(api API, table string) *HealthCheck {
	return &HealthCheck{api: api, table: table}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	_, err := h.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(h.table)})
	return err
}

func (h *HealthCheck) Name() string {
	return "dynamodb"
}
