package culqi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"payment-broker/internal/core/domain"
)

const webhookEndpoint = "/webhook"

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// HandleWebhook classifies a Culqi notification. Culqi does not sign its
// webhooks; callers rely on network controls. The result is always 200.
func (p *Provider) HandleWebhook(ctx context.Context, evt *domain.WebhookEvent) (*domain.WebhookResult, error) {
	start := p.now()
	rec := domain.AuditRecord{
		OrderID:    domain.UnknownOrderID,
		Provider:   Name,
		Endpoint:   webhookEndpoint,
		Method:     "POST",
		StatusCode: http.StatusOK,
		Status:     domain.AuditStatusUnhandled,
		IPAddress:  evt.ClientIP,
	}

	var payload webhookPayload
	body, err := base64.StdEncoding.DecodeString(evt.RawBody)
	if err == nil {
		err = json.Unmarshal(body, &payload)
	}

	switch {
	case err != nil:
		p.log.Warn().Err(err).Msg("cannot decode culqi webhook")
		rec.Status = domain.AuditStatusError
		rec.RequestBody = map[string]any{"rawBody": evt.RawBody}
		rec.ResponseBody = map[string]any{"error": err.Error()}

	case payload.Type == "charge.succeeded" || payload.Type == "charge.failed":
		orderID := payload.Data.Object.Metadata["orderId"]
		if orderID != "" {
			rec.OrderID = orderID
		}
		rec.TransactionID = payload.Data.Object.ID
		rec.Status = domain.AuditStatusProcessed

		ev := p.log.Info()
		if payload.Type == "charge.failed" {
			ev = p.log.Warn()
		}
		ev.Str("event_type", payload.Type).Str("order_id", orderID).Msg("culqi webhook received")

	default:
		p.log.Warn().Str("event_type", payload.Type).Msg("unhandled culqi event type")
	}

	if rec.RequestBody == nil {
		rec.RequestBody = map[string]any{"eventType": payload.Type, "chargeId": payload.Data.Object.ID}
		rec.ResponseBody = map[string]any{"processed": true}
	}
	if rec.TransactionID == "" {
		rec.TransactionID = domain.SynthesizedTransactionID(rec.OrderID, p.now())
	}
	rec.DurationMs = p.now().Sub(start).Milliseconds()
	p.deps.Auditor.LogTransaction(rec)

	return &domain.WebhookResult{StatusCode: http.StatusOK, Message: "Webhook processed successfully"}, nil
}
