package stripe

import (
	"context"
	"errors"
	"strings"
	"time"

	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports"
	"payment-broker/pkg/apperror"

	"github.com/rs/zerolog"
	gostripe "github.com/stripe/stripe-go/v76"
)

// Name is the provider name recorded in audit entries.
const Name = "stripe"

const checkoutEndpoint = "/checkout/sessions"

// Deps are the long-lived collaborators shared by every request.
type Deps struct {
	Auditor   ports.Auditor
	Publisher ports.EventPublisher
	// Events deduplicates redelivered webhooks. Optional.
	Events    ports.ProcessedEventStore
	EventTTL  time.Duration
	NewClient ClientFactory
	// SuccessURL and CancelURL apply when the configuration has no override.
	SuccessURL string
	CancelURL  string
	Log        zerolog.Logger
}

// Provider is a redirect-checkout integration bound to one configuration.
type Provider struct {
	cfg  *domain.ProviderConfig
	deps Deps
	api  CheckoutAPI
	log  zerolog.Logger
	now  func() time.Time
}

// New binds deps to cfg. Intended for use as a provider.Factory.
func New(cfg *domain.ProviderConfig, deps Deps) *Provider {
	if deps.NewClient == nil {
		deps.NewClient = NewClient
	}
	return &Provider{
		cfg:  cfg,
		deps: deps,
		api:  deps.NewClient(cfg.Credential("secretKey")),
		log:  deps.Log.With().Str("provider", Name).Str("config_id", cfg.ID).Logger(),
		now:  time.Now,
	}
}

func (p *Provider) Name() string { return Name }

// CreateSession opens a hosted checkout session for the flattened order.
func (p *Provider) CreateSession(ctx context.Context, req *domain.PaymentSessionRequest) (*domain.SessionResult, error) {
	start := p.now()
	params, snapshot := p.buildParams(ctx, req)

	session, err := p.api.NewCheckoutSession(params)
	duration := p.now().Sub(start).Milliseconds()

	if err != nil {
		p.deps.Auditor.LogTransaction(domain.AuditRecord{
			TransactionID: domain.SynthesizedTransactionID(req.OrderID, p.now()),
			OrderID:       req.OrderID,
			Provider:      Name,
			Endpoint:      checkoutEndpoint,
			Method:        "POST",
			StatusCode:    500,
			Status:        domain.AuditStatusError,
			DurationMs:    duration,
			IPAddress:     req.ClientIP,
			RequestBody:   snapshot,
			ResponseBody:  map[string]any{"error": err.Error()},
		})

		p.log.Error().Err(err).Str("order_id", req.OrderID).Msg("checkout session creation failed")
		return nil, upstreamError(err)
	}

	p.deps.Auditor.LogTransaction(domain.AuditRecord{
		TransactionID: session.ID,
		OrderID:       req.OrderID,
		Provider:      Name,
		Endpoint:      checkoutEndpoint,
		Method:        "POST",
		StatusCode:    200,
		Status:        domain.AuditStatusSuccess,
		DurationMs:    duration,
		IPAddress:     req.ClientIP,
		RequestBody:   snapshot,
		ResponseBody:  session,
	})

	p.log.Info().
		Str("order_id", req.OrderID).
		Str("session_id", session.ID).
		Int64("duration_ms", duration).
		Msg("checkout session created")

	return &domain.SessionResult{
		Provider:      Name,
		OrderID:       req.OrderID,
		TransactionID: session.ID,
		URL:           session.URL,
		SuccessURL:    session.SuccessURL,
		CancelURL:     session.CancelURL,
	}, nil
}

type lineItemSnapshot struct {
	Name       string `json:"name"`
	Currency   string `json:"currency"`
	UnitAmount int64  `json:"unit_amount"`
	Quantity   int64  `json:"quantity"`
}

type checkoutSnapshot struct {
	Mode       string             `json:"mode"`
	Metadata   map[string]string  `json:"payment_intent_metadata"`
	LineItems  []lineItemSnapshot `json:"line_items"`
	SuccessURL string             `json:"success_url"`
	CancelURL  string             `json:"cancel_url"`
}

// buildParams returns the API parameters plus a JSON-friendly copy for the
// audit trail.
func (p *Provider) buildParams(ctx context.Context, req *domain.PaymentSessionRequest) (*gostripe.CheckoutSessionParams, checkoutSnapshot) {
	currency := req.Currency
	if currency == "" {
		currency = p.cfg.Currency
	}
	currency = strings.ToUpper(currency)

	successURL := firstNonEmpty(p.cfg.Setting("successUrl"), p.deps.SuccessURL)
	cancelURL := firstNonEmpty(p.cfg.Setting("cancelUrl"), p.deps.CancelURL)

	metadata := map[string]string{
		"orderId":         req.OrderID,
		"paymentMethodId": req.PaymentMethodID,
	}

	snap := checkoutSnapshot{
		Mode:       string(gostripe.CheckoutSessionModePayment),
		Metadata:   metadata,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	}

	params := &gostripe.CheckoutSessionParams{
		Mode:       gostripe.String(string(gostripe.CheckoutSessionModePayment)),
		SuccessURL: gostripe.String(successURL),
		CancelURL:  gostripe.String(cancelURL),
		PaymentIntentData: &gostripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx

	for _, item := range domain.FlattenLineItems(req.Items) {
		amount := domain.ToMinorUnits(item.Price)
		params.LineItems = append(params.LineItems, &gostripe.CheckoutSessionLineItemParams{
			PriceData: &gostripe.CheckoutSessionLineItemPriceDataParams{
				Currency: gostripe.String(currency),
				ProductData: &gostripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: gostripe.String(item.Name),
				},
				UnitAmount: gostripe.Int64(amount),
			},
			Quantity: gostripe.Int64(item.Quantity),
		})
		snap.LineItems = append(snap.LineItems, lineItemSnapshot{
			Name:       item.Name,
			Currency:   currency,
			UnitAmount: amount,
			Quantity:   item.Quantity,
		})
	}

	return params, snap
}

func upstreamError(err error) error {
	var se *gostripe.Error
	if errors.As(err, &se) {
		return apperror.ErrUpstream(Name, se.HTTPStatusCode, se.Msg, err)
	}
	return apperror.ErrUpstream(Name, 0, "", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
