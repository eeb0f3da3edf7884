package stripe

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"payment-broker/internal/core/domain"
	"payment-broker/pkg/apperror"

	gostripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	webhookEndpoint      = "/webhook"
	eventChargeSucceeded = "charge.succeeded"
	webhookProcessedMsg  = "Webhook processed successfully"
)

// HandleWebhook verifies the Stripe-Signature of evt and reacts to settled
// charges. Verification failures are audited and returned as WHK_001.
func (p *Provider) HandleWebhook(ctx context.Context, evt *domain.WebhookEvent) (*domain.WebhookResult, error) {
	start := p.now()

	event, err := p.verify(evt)
	if err != nil {
		p.deps.Auditor.LogTransaction(domain.AuditRecord{
			TransactionID: domain.SynthesizedTransactionID(domain.UnknownOrderID, p.now()),
			OrderID:       domain.UnknownOrderID,
			Provider:      Name,
			Endpoint:      webhookEndpoint,
			Method:        "POST",
			StatusCode:    http.StatusBadRequest,
			Status:        domain.AuditStatusError,
			DurationMs:    p.now().Sub(start).Milliseconds(),
			IPAddress:     evt.ClientIP,
			RequestBody:   map[string]any{"rawBody": evt.RawBody},
			ResponseBody:  map[string]any{"error": err.Error()},
		})

		p.log.Warn().Err(err).Msg("webhook signature verification failed")
		return nil, apperror.ErrWebhookVerification(err)
	}

	eventType := string(event.Type)
	rec := domain.AuditRecord{
		TransactionID: event.ID,
		OrderID:       domain.UnknownOrderID,
		Provider:      Name,
		Endpoint:      webhookEndpoint,
		Method:        "POST",
		StatusCode:    http.StatusOK,
		Status:        domain.AuditStatusUnhandled,
		IPAddress:     evt.ClientIP,
		RequestBody:   map[string]any{"eventType": eventType, "eventId": event.ID},
		ResponseBody:  map[string]any{"processed": true},
	}

	switch eventType {
	case eventChargeSucceeded:
		var charge gostripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			// Signed but undecodable: acknowledged and audited as an error.
			p.log.Error().Err(err).Str("event_id", event.ID).Msg("cannot decode charge object")
			rec.Status = domain.AuditStatusError
			rec.ResponseBody = map[string]any{"error": err.Error()}
			break
		}

		rec.TransactionID = charge.ID
		rec.OrderID = charge.Metadata["orderId"]
		rec.Status = domain.AuditStatusProcessed

		if p.firstDelivery(ctx, event.ID) {
			p.emitSucceeded(ctx, domain.PaymentSucceeded{
				OrderID:         rec.OrderID,
				ReceiptURL:      charge.ReceiptURL,
				PaymentChargeID: charge.ID,
			})
		} else {
			rec.ResponseBody = map[string]any{"processed": true, "duplicate": true}
		}

	default:
		p.log.Info().Str("event_type", eventType).Str("event_id", event.ID).Msg("webhook event not handled")
	}

	rec.DurationMs = p.now().Sub(start).Milliseconds()
	p.deps.Auditor.LogTransaction(rec)

	return &domain.WebhookResult{StatusCode: http.StatusOK, Message: webhookProcessedMsg}, nil
}

func (p *Provider) verify(evt *domain.WebhookEvent) (gostripe.Event, error) {
	payload, err := base64.StdEncoding.DecodeString(evt.RawBody)
	if err != nil {
		return gostripe.Event{}, fmt.Errorf("raw body is not base64: %w", err)
	}

	return webhook.ConstructEventWithOptions(
		payload,
		evt.Signature,
		p.cfg.Credential("endpointSecret"),
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
}

// firstDelivery reports whether eventID has not been acted on yet. Store
// failures fall back to processing the event again.
func (p *Provider) firstDelivery(ctx context.Context, eventID string) bool {
	if p.deps.Events == nil {
		return true
	}
	first, err := p.deps.Events.MarkProcessed(ctx, Name, eventID, p.deps.EventTTL)
	if err != nil {
		p.log.Warn().Err(err).Str("event_id", eventID).Msg("processed-event store unavailable")
		return true
	}
	if !first {
		p.log.Info().Str("event_id", eventID).Msg("duplicate webhook delivery, notification skipped")
	}
	return first
}

func (p *Provider) emitSucceeded(ctx context.Context, payload domain.PaymentSucceeded) {
	p.log.Info().
		Str("order_id", payload.OrderID).
		Str("charge_id", payload.PaymentChargeID).
		Msg("payment succeeded")

	if err := p.deps.Publisher.Emit(ctx, domain.PaymentSucceededSubject, payload); err != nil {
		p.log.Error().Err(err).Str("order_id", payload.OrderID).Msg("failed to emit payment.succeeded")
	}
}
