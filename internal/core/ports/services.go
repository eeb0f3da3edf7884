package ports

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

import (
	"context"

	"payment-broker/internal/core/domain"
)

// Codec encrypts and decrypts single string values.
type Codec interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// ConfigProvider resolves a payment method id to a decrypted configuration.
// The result may be a cached value shared across requests and must not be
// modified.
type ConfigProvider interface {
	GetConfig(ctx context.Context, id string) (*domain.ProviderConfig, error)
}

// Auditor accepts audit records. LogTransaction never blocks on storage and
// never reports failure.
type Auditor interface {
	LogTransaction(rec domain.AuditRecord)
}

// Provider is one payment processor integration bound to a single resolved
// configuration.
type Provider interface {
	Name() string
	CreateSession(ctx context.Context, req *domain.PaymentSessionRequest) (*domain.SessionResult, error)
	HandleWebhook(ctx context.Context, evt *domain.WebhookEvent) (*domain.WebhookResult, error)
}

// Dispatcher maps a configuration to a provider.
type Dispatcher interface {
	Resolve(cfg *domain.ProviderConfig) (Provider, error)
}

// EventPublisher emits events to downstream services.
type EventPublisher interface {
	Emit(ctx context.Context, pattern string, data any) error
}

// PaymentService is the inbound surface shared by HTTP and the message bus.
type PaymentService interface {
	CreatePaymentSession(ctx context.Context, req *domain.PaymentSessionRequest) (*domain.SessionResult, error)
	HandleWebhook(ctx context.Context, evt *domain.WebhookEvent) (*domain.WebhookResult, error)
}
