package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports"
	"payment-broker/pkg/apperror"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	configs    ports.ConfigProvider
	dispatcher ports.Dispatcher
	validate   *validator.Validate
	log        zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(configs ports.ConfigProvider, dispatcher ports.Dispatcher, log zerolog.Logger) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		configs:    configs,
		dispatcher: dispatcher,
		validate:   newValidator(),
		log:        log,
	}
}

// CreatePaymentSession resolves the payment method configuration and asks
// the matching provider to open a session.
func (s *PaymentServiceImpl) CreatePaymentSession(ctx context.Context, req *domain.PaymentSessionRequest) (*domain.SessionResult, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	cfg, err := s.configs.GetConfig(ctx, req.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		return nil, apperror.ErrPaymentMethodDisabled(req.PaymentMethodID)
	}

	provider, err := s.dispatcher.Resolve(cfg)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("order_id", req.OrderID).
		Str("payment_method_id", req.PaymentMethodID).
		Str("provider", provider.Name()).
		Int("items", len(req.Items)).
		Msg("creating payment session")

	return provider.CreateSession(ctx, req)
}

// HandleWebhook routes a provider notification to the provider configured
// for evt.PaymentMethodID. Disabled methods still receive webhooks so that
// in-flight payments settle.
func (s *PaymentServiceImpl) HandleWebhook(ctx context.Context, evt *domain.WebhookEvent) (*domain.WebhookResult, error) {
	if err := s.check(evt); err != nil {
		return nil, err
	}

	cfg, err := s.configs.GetConfig(ctx, evt.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	provider, err := s.dispatcher.Resolve(cfg)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("payment_method_id", evt.PaymentMethodID).
		Str("provider", provider.Name()).
		Msg("dispatching webhook")

	return provider.HandleWebhook(ctx, evt)
}

func (s *PaymentServiceImpl) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return apperror.Validation(validationMessage(err))
	}
	return nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.SplitN(fe.Namespace(), ".", 2)
		name := fe.Field()
		if len(field) == 2 {
			name = field[1]
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", name))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must contain at least %s element(s)", name, fe.Param()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", name, fe.Param()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email", name))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", name, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
