package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports/mocks"
	"payment-broker/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gostripe "github.com/stripe/stripe-go/v76"
	"go.uber.org/mock/gomock"
)

const testEndpointSecret = "whsec_test_secret"

type fakeCheckout struct {
	key     string
	params  *gostripe.CheckoutSessionParams
	session *gostripe.CheckoutSession
	err     error
}

func (f *fakeCheckout) NewCheckoutSession(params *gostripe.CheckoutSessionParams) (*gostripe.CheckoutSession, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fixture struct {
	auditor   *mocks.MockAuditor
	publisher *mocks.MockEventPublisher
	events    *mocks.MockProcessedEventStore
	api       *fakeCheckout
	provider  *Provider
}

func newFixture(t *testing.T, cfg *domain.ProviderConfig) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		auditor:   mocks.NewMockAuditor(ctrl),
		publisher: mocks.NewMockEventPublisher(ctrl),
		events:    mocks.NewMockProcessedEventStore(ctrl),
		api: &fakeCheckout{session: &gostripe.CheckoutSession{
			ID:         "cs_test_1",
			URL:        "https://checkout.stripe.com/c/pay/cs_test_1",
			SuccessURL: "https://shop.example.com/success",
			CancelURL:  "https://shop.example.com/cancel",
		}},
	}
	f.provider = New(cfg, Deps{
		Auditor:   f.auditor,
		Publisher: f.publisher,
		Events:    f.events,
		EventTTL:  time.Hour,
		NewClient: func(key string) CheckoutAPI {
			f.api.key = key
			return f.api
		},
		SuccessURL: "https://default.example.com/success",
		CancelURL:  "https://default.example.com/cancel",
		Log:        zerolog.New(io.Discard),
	})
	return f
}

func testConfig() *domain.ProviderConfig {
	return &domain.ProviderConfig{
		ID:              "rest-1#1",
		PaymentMethodID: domain.PaymentMethodStripe,
		Currency:        "usd",
		Enabled:         true,
		Credentials: map[string]any{
			"secretKey":      "sk_test_123",
			"endpointSecret": testEndpointSecret,
		},
	}
}

func twoLevelRequest() *domain.PaymentSessionRequest {
	return &domain.PaymentSessionRequest{
		OrderID:         "ord-42",
		PaymentMethodID: "rest-1#1",
		Items: []domain.LineItem{{
			ProductID: "p1",
			Name:      "Combo",
			Price:     10.00,
			Quantity:  2,
			ChildItems: []domain.LineItem{{
				ProductID: "p2",
				Name:      "Fries",
				SizeName:  "L",
				Price:     10.00,
				Quantity:  3,
			}},
		}},
	}
}

func TestProvider_CreateSession_TwoLevelTree(t *testing.T) {
	f := newFixture(t, testConfig())

	var audited []domain.AuditRecord
	f.auditor.EXPECT().LogTransaction(gomock.Any()).Do(func(rec domain.AuditRecord) {
		audited = append(audited, rec)
	}).Times(1)

	res, err := f.provider.CreateSession(context.Background(), twoLevelRequest())
	require.NoError(t, err)

	assert.Equal(t, "sk_test_123", f.api.key)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", res.URL)
	assert.Equal(t, "https://shop.example.com/success", res.SuccessURL)
	assert.Equal(t, "https://shop.example.com/cancel", res.CancelURL)
	assert.Equal(t, "cs_test_1", res.TransactionID)

	items := f.api.params.LineItems
	require.Len(t, items, 2)
	child := items[1]
	assert.Equal(t, int64(6), *child.Quantity)
	assert.Equal(t, int64(1000), *child.PriceData.UnitAmount)
	assert.Equal(t, "USD", *child.PriceData.Currency)
	assert.Equal(t, "Fries - [L]", *child.PriceData.ProductData.Name)
	assert.Equal(t, int64(2), *items[0].Quantity)

	assert.Equal(t, "payment", *f.api.params.Mode)
	assert.Equal(t, map[string]string{"orderId": "ord-42", "paymentMethodId": "rest-1#1"},
		f.api.params.PaymentIntentData.Metadata)
	assert.Equal(t, "https://default.example.com/success", *f.api.params.SuccessURL)

	require.Len(t, audited, 1)
	assert.Equal(t, domain.AuditStatusSuccess, audited[0].Status)
	assert.Equal(t, 200, audited[0].StatusCode)
	assert.Equal(t, "cs_test_1", audited[0].TransactionID)
	assert.Equal(t, "/checkout/sessions", audited[0].Endpoint)
	assert.NotNil(t, audited[0].RequestBody)
	assert.NotNil(t, audited[0].ResponseBody)
}

func TestProvider_CreateSession_RequestCurrencyAndURLOverrides(t *testing.T) {
	cfg := testConfig()
	cfg.Configs = map[string]any{
		"successUrl": "https://merchant.example.com/ok",
		"cancelUrl":  "https://merchant.example.com/ko",
	}
	f := newFixture(t, cfg)
	f.auditor.EXPECT().LogTransaction(gomock.Any())

	req := twoLevelRequest()
	req.Currency = "pen"
	_, err := f.provider.CreateSession(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "PEN", *f.api.params.LineItems[0].PriceData.Currency)
	assert.Equal(t, "https://merchant.example.com/ok", *f.api.params.SuccessURL)
	assert.Equal(t, "https://merchant.example.com/ko", *f.api.params.CancelURL)
}

func TestProvider_CreateSession_LeavesSharedConfigUntouched(t *testing.T) {
	cfg := testConfig()
	cfg.Configs = map[string]any{"successUrl": "https://merchant.example.com/ok"}
	want := testConfig()
	want.Configs = map[string]any{"successUrl": "https://merchant.example.com/ok"}

	f := newFixture(t, cfg)
	f.auditor.EXPECT().LogTransaction(gomock.Any()).Times(2)

	req := twoLevelRequest()
	req.Currency = "pen"
	_, err := f.provider.CreateSession(context.Background(), req)
	require.NoError(t, err)
	_, err = f.provider.CreateSession(context.Background(), twoLevelRequest())
	require.NoError(t, err)

	// The cached config is shared by every request for the merchant.
	assert.Equal(t, want, cfg)
	assert.Equal(t, "USD", *f.api.params.LineItems[0].PriceData.Currency)
}

func TestProvider_CreateSession_UpstreamFailure(t *testing.T) {
	f := newFixture(t, testConfig())
	f.api.err = &gostripe.Error{HTTPStatusCode: http.StatusPaymentRequired, Msg: "Your card was declined."}

	var rec domain.AuditRecord
	f.auditor.EXPECT().LogTransaction(gomock.Any()).Do(func(r domain.AuditRecord) { rec = r })

	res, err := f.provider.CreateSession(context.Background(), twoLevelRequest())
	assert.Nil(t, res)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "UPS_001", appErr.Code)
	assert.Equal(t, http.StatusPaymentRequired, appErr.HTTPStatus)
	assert.Equal(t, "Your card was declined.", appErr.Message)

	assert.Equal(t, domain.AuditStatusError, rec.Status)
	assert.Equal(t, 500, rec.StatusCode)
	assert.True(t, strings.HasPrefix(rec.TransactionID, "ERROR#ord-42-"), rec.TransactionID)
	assert.NotNil(t, rec.ResponseBody)
}

func TestProvider_CreateSession_NetworkFailure(t *testing.T) {
	f := newFixture(t, testConfig())
	f.api.err = errors.New("dial tcp: i/o timeout")
	f.auditor.EXPECT().LogTransaction(gomock.Any())

	_, err := f.provider.CreateSession(context.Background(), twoLevelRequest())

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
	assert.Equal(t, "Payment failed via stripe", appErr.Message)
}

// signedEvent returns a webhook event whose signature header is computed the
// way Stripe computes it: HMAC-SHA256 over "<timestamp>.<payload>".
func signedEvent(payload, secret string) *domain.WebhookEvent {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.%s", ts, payload)))
	return &domain.WebhookEvent{
		PaymentMethodID: "rest-1#1",
		RawBody:         base64.StdEncoding.EncodeToString([]byte(payload)),
		Signature:       fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil))),
	}
}

const chargeSucceededPayload = `{
  "id": "evt_1",
  "object": "event",
  "type": "charge.succeeded",
  "data": {
    "object": {
      "id": "ch_1",
      "object": "charge",
      "receipt_url": "https://pay.stripe.com/receipts/ch_1",
      "metadata": {"orderId": "ord-42", "paymentMethodId": "rest-1#1"}
    }
  }
}`

func TestProvider_HandleWebhook_ChargeSucceeded(t *testing.T) {
	f := newFixture(t, testConfig())

	f.events.EXPECT().MarkProcessed(gomock.Any(), "stripe", "evt_1", time.Hour).Return(true, nil)
	f.publisher.EXPECT().Emit(gomock.Any(), "payment.succeeded", domain.PaymentSucceeded{
		OrderID:         "ord-42",
		ReceiptURL:      "https://pay.stripe.com/receipts/ch_1",
		PaymentChargeID: "ch_1",
	}).Return(nil)

	var rec domain.AuditRecord
	f.auditor.EXPECT().LogTransaction(gomock.Any()).Do(func(r domain.AuditRecord) { rec = r })

	res, err := f.provider.HandleWebhook(context.Background(), signedEvent(chargeSucceededPayload, testEndpointSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "Webhook processed successfully", res.Message)

	assert.Equal(t, domain.AuditStatusProcessed, rec.Status)
	assert.Equal(t, "ch_1", rec.TransactionID)
	assert.Equal(t, "ord-42", rec.OrderID)
	assert.Equal(t, "/webhook", rec.Endpoint)
	assert.Equal(t, map[string]any{"eventType": "charge.succeeded", "eventId": "evt_1"}, rec.RequestBody)
}

func TestProvider_HandleWebhook_DuplicateDeliveryDoesNotEmit(t *testing.T) {
	f := newFixture(t, testConfig())

	f.events.EXPECT().MarkProcessed(gomock.Any(), "stripe", "evt_1", time.Hour).Return(false, nil)
	f.publisher.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	f.auditor.EXPECT().LogTransaction(gomock.Any())

	res, err := f.provider.HandleWebhook(context.Background(), signedEvent(chargeSucceededPayload, testEndpointSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestProvider_HandleWebhook_EventStoreDownStillEmits(t *testing.T) {
	f := newFixture(t, testConfig())

	f.events.EXPECT().MarkProcessed(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(false, errors.New("redis down"))
	f.publisher.EXPECT().Emit(gomock.Any(), "payment.succeeded", gomock.Any()).Return(errors.New("nats down"))
	f.auditor.EXPECT().LogTransaction(gomock.Any())

	res, err := f.provider.HandleWebhook(context.Background(), signedEvent(chargeSucceededPayload, testEndpointSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestProvider_HandleWebhook_UnhandledEvent(t *testing.T) {
	f := newFixture(t, testConfig())
	f.publisher.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	var rec domain.AuditRecord
	f.auditor.EXPECT().LogTransaction(gomock.Any()).Do(func(r domain.AuditRecord) { rec = r })

	payload := `{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1"}}}`
	res, err := f.provider.HandleWebhook(context.Background(), signedEvent(payload, testEndpointSecret))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	assert.Equal(t, domain.AuditStatusUnhandled, rec.Status)
	assert.Equal(t, "evt_2", rec.TransactionID)
}

func TestProvider_HandleWebhook_CorruptedSignature(t *testing.T) {
	f := newFixture(t, testConfig())
	f.publisher.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	var audited []domain.AuditRecord
	f.auditor.EXPECT().LogTransaction(gomock.Any()).Do(func(r domain.AuditRecord) {
		audited = append(audited, r)
	}).Times(1)

	evt := signedEvent(chargeSucceededPayload, "whsec_someone_else")
	res, err := f.provider.HandleWebhook(context.Background(), evt)
	assert.Nil(t, res)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "WHK_001", appErr.Code)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.True(t, strings.HasPrefix(appErr.Message, "Webhook Error: "))

	require.Len(t, audited, 1)
	assert.Equal(t, domain.AuditStatusError, audited[0].Status)
	assert.Equal(t, "unknown", audited[0].OrderID)
	assert.Equal(t, 400, audited[0].StatusCode)
	assert.True(t, strings.HasPrefix(audited[0].TransactionID, "ERROR#unknown-"))
	assert.Equal(t, map[string]any{"rawBody": evt.RawBody}, audited[0].RequestBody)
}

func TestProvider_HandleWebhook_BodyNotBase64(t *testing.T) {
	f := newFixture(t, testConfig())
	f.auditor.EXPECT().LogTransaction(gomock.Any())

	_, err := f.provider.HandleWebhook(context.Background(), &domain.WebhookEvent{
		PaymentMethodID: "rest-1#1",
		RawBody:         "%%%not-base64",
		Signature:       "t=1,v1=00",
	})

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "WHK_001", appErr.Code)
}
