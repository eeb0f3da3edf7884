package culqi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports"
	"payment-broker/pkg/apperror"

	"github.com/rs/zerolog"
)

// Name is the provider name recorded in audit entries.
const Name = "culqi"

const (
	DefaultBaseURL = "https://api.culqi.com/v2"
	DefaultTimeout = 8 * time.Second
	DefaultEmail   = "guest@qehay.app"

	chargesEndpoint = "/charges"
	failedMessage   = "Payment failed via Culqi"
	successMessage  = "Payment successful via Culqi"
)

// Deps are the long-lived collaborators shared by every request.
type Deps struct {
	Auditor      ports.Auditor
	HTTPClient   *http.Client
	BaseURL      string
	Timeout      time.Duration
	DefaultEmail string
	Log          zerolog.Logger
}

// Provider is a direct-charge integration bound to one configuration.
type Provider struct {
	cfg  *domain.ProviderConfig
	deps Deps
	log  zerolog.Logger
	now  func() time.Time
}

// New binds deps to cfg. Intended for use as a provider.Factory.
func New(cfg *domain.ProviderConfig, deps Deps) *Provider {
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{}
	}
	if deps.BaseURL == "" {
		deps.BaseURL = DefaultBaseURL
	}
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultTimeout
	}
	if deps.DefaultEmail == "" {
		deps.DefaultEmail = DefaultEmail
	}
	return &Provider{
		cfg:  cfg,
		deps: deps,
		log:  deps.Log.With().Str("provider", Name).Str("config_id", cfg.ID).Logger(),
		now:  time.Now,
	}
}

func (p *Provider) Name() string { return Name }

type chargeRequest struct {
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currency_code"`
	Description  string `json:"description"`
	Email        string `json:"email"`
	SourceID     string `json:"source_id"`
}

type chargeResponse struct {
	ID      string `json:"id"`
	Outcome struct {
		MerchantMessage string `json:"merchant_message"`
	} `json:"outcome"`
	UserMessage string `json:"user_message"`
}

// CreateSession charges the card token in req directly. The amount covers
// top-level items only.
func (p *Provider) CreateSession(ctx context.Context, req *domain.PaymentSessionRequest) (*domain.SessionResult, error) {
	start := p.now()

	currency := req.Currency
	if currency == "" {
		currency = p.cfg.Currency
	}
	email := req.CustomerEmail
	if email == "" {
		email = p.deps.DefaultEmail
	}

	payload := chargeRequest{
		Amount:       domain.TopLevelTotal(req.Items),
		CurrencyCode: strings.ToUpper(currency),
		Description:  fmt.Sprintf("Pago de orden %s", req.OrderID),
		Email:        email,
		SourceID:     req.TokenID,
	}

	status, raw, parsed, err := p.postCharge(ctx, payload)
	duration := p.now().Sub(start).Milliseconds()

	if err != nil || status < 200 || status >= 300 {
		auditStatus := status
		if auditStatus == 0 {
			auditStatus = http.StatusInternalServerError
		}
		var responseBody any = raw
		if raw == nil {
			msg := "unexpected response"
			if err != nil {
				msg = err.Error()
			}
			responseBody = map[string]any{"error": msg}
		}

		p.deps.Auditor.LogTransaction(domain.AuditRecord{
			TransactionID: domain.SynthesizedTransactionID(req.OrderID, p.now()),
			OrderID:       req.OrderID,
			Provider:      Name,
			Endpoint:      chargesEndpoint,
			Method:        "POST",
			StatusCode:    auditStatus,
			Status:        domain.AuditStatusError,
			DurationMs:    duration,
			IPAddress:     req.ClientIP,
			RequestBody:   payload,
			ResponseBody:  responseBody,
		})

		message := failedMessage
		if parsed.UserMessage != "" {
			message = parsed.UserMessage
		}
		if err == nil {
			err = fmt.Errorf("culqi responded with status %d", status)
		}

		p.log.Error().Err(err).
			Str("order_id", req.OrderID).
			Int("status", status).
			Msg("culqi charge failed")
		return nil, apperror.ErrUpstream(Name, status, message, err)
	}

	p.deps.Auditor.LogTransaction(domain.AuditRecord{
		TransactionID: parsed.ID,
		OrderID:       req.OrderID,
		Provider:      Name,
		Endpoint:      chargesEndpoint,
		Method:        "POST",
		StatusCode:    http.StatusOK,
		Status:        domain.AuditStatusSuccess,
		DurationMs:    duration,
		IPAddress:     req.ClientIP,
		RequestBody:   payload,
		ResponseBody:  raw,
	})

	p.log.Info().
		Str("order_id", req.OrderID).
		Str("charge_id", parsed.ID).
		Int64("duration_ms", duration).
		Msg("culqi charge created")

	return &domain.SessionResult{
		Provider:      Name,
		OrderID:       req.OrderID,
		TransactionID: parsed.ID,
		ReceiptURL:    parsed.Outcome.MerchantMessage,
		Message:       successMessage,
	}, nil
}

// postCharge returns the HTTP status (0 when no response arrived), the body
// as a generic JSON value when it decodes, and its typed view.
func (p *Provider) postCharge(ctx context.Context, payload chargeRequest) (int, any, chargeResponse, error) {
	var parsed chargeResponse

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, parsed, fmt.Errorf("encode charge: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.deps.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.deps.BaseURL+chargesEndpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, parsed, fmt.Errorf("build charge request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.cfg.Credential("privateKey"))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.deps.HTTPClient.Do(httpReq)
	if err != nil {
		return 0, nil, parsed, fmt.Errorf("post charge: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, parsed, fmt.Errorf("read charge response: %w", err)
	}

	var raw any
	if json.Unmarshal(data, &raw) != nil {
		raw = nil
	}
	_ = json.Unmarshal(data, &parsed)

	return resp.StatusCode, raw, parsed, nil
}
