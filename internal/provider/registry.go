package provider

import (
	"sort"
	"sync"

	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports"
	"payment-broker/pkg/apperror"

	"github.com/rs/zerolog"
)

// Factory builds a provider bound to one resolved configuration. It is called
// once per request, so the returned value may hold credentials as plain fields.
type Factory func(cfg *domain.ProviderConfig) ports.Provider

// Registry maps payment method ids to provider factories.
type Registry struct {
	factories map[string]registration
	log       zerolog.Logger
	mu        sync.RWMutex
}

type registration struct {
	name    string
	factory Factory
}

// NewRegistry creates an empty registry.
func NewRegistry(log zerolog.Logger) *Registry {
	return &Registry{
		factories: make(map[string]registration),
		log:       log,
	}
}

// Register binds a payment method id to a factory, replacing any previous one.
func (r *Registry) Register(paymentMethodID, name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[paymentMethodID] = registration{name: name, factory: f}
	r.log.Info().
		Str("payment_method_id", paymentMethodID).
		Str("provider", name).
		Msg("registered payment provider")
}

// Resolve constructs a fresh provider for cfg.PaymentMethodID.
func (r *Registry) Resolve(cfg *domain.ProviderConfig) (ports.Provider, error) {
	r.mu.RLock()
	reg, ok := r.factories[cfg.PaymentMethodID]
	r.mu.RUnlock()

	if !ok {
		return nil, apperror.ErrUnsupportedProvider(cfg.PaymentMethodID)
	}

	r.log.Debug().
		Str("payment_method_id", cfg.PaymentMethodID).
		Str("provider", reg.name).
		Str("config_id", cfg.ID).
		Msg("resolving payment provider")

	return reg.factory(cfg), nil
}

// PaymentMethods lists registered ids in ascending order.
func (r *Registry) PaymentMethods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
