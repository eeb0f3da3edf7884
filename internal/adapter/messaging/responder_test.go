package messaging

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports/mocks"
	"payment-broker/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type decodedReply struct {
	Response json.RawMessage `json:"response"`
	Err      *struct {
		StatusCode int    `json:"statusCode"`
		Code       string `json:"code"`
		Message    string `json:"message"`
	} `json:"err"`
	IsDisposed bool   `json:"isDisposed"`
	ID         string `json:"id"`
}

func newTestResponder(t *testing.T) (*Responder, *mocks.MockPaymentService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockPaymentService(ctrl)
	return NewResponder(nil, "payments-ms", svc, zerolog.New(io.Discard)), svc
}

func handle(t *testing.T, r *Responder, subject, payload string) decodedReply {
	t.Helper()
	var out decodedReply
	require.NoError(t, json.Unmarshal(r.Handle(context.Background(), subject, []byte(payload)), &out))
	assert.True(t, out.IsDisposed)
	return out
}

func TestResponder_Subjects(t *testing.T) {
	r, _ := newTestResponder(t)
	assert.Equal(t, []string{
		"create.payment.session",
		"payments.cancel",
		"payments.stripe.webhook",
		"payments.success",
	}, r.Subjects())
}

func TestResponder_CreateSession(t *testing.T) {
	r, svc := newTestResponder(t)

	svc.EXPECT().CreatePaymentSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *domain.PaymentSessionRequest) (*domain.SessionResult, error) {
			assert.Equal(t, "ord-1", req.OrderID)
			assert.Equal(t, "rest-1#1", req.PaymentMethodID)
			require.Len(t, req.Items, 1)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return &domain.SessionResult{Provider: "stripe", OrderID: "ord-1", URL: "https://checkout/cs_1"}, nil
		})

	out := handle(t, r, SubjectCreateSession, `{
		"pattern": "create.payment.session",
		"data": {"orderId": "ord-1", "paymentMethodId": "rest-1#1", "items": [{"productId": "p", "name": "Burger", "price": 10, "quantity": 1}]},
		"id": "abc-123"
	}`)

	assert.Equal(t, "abc-123", out.ID)
	assert.Nil(t, out.Err)

	var res domain.SessionResult
	require.NoError(t, json.Unmarshal(out.Response, &res))
	assert.Equal(t, "https://checkout/cs_1", res.URL)
}

func TestResponder_CreateSession_ServiceError(t *testing.T) {
	r, svc := newTestResponder(t)
	svc.EXPECT().CreatePaymentSession(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrUnsupportedProvider("rest-1#9"))

	out := handle(t, r, SubjectCreateSession, `{"pattern":"create.payment.session","data":{"orderId":"o","paymentMethodId":"rest-1#9"},"id":"x"}`)

	require.NotNil(t, out.Err)
	assert.Equal(t, 400, out.Err.StatusCode)
	assert.Equal(t, "PRV_001", out.Err.Code)
	assert.Equal(t, "x", out.ID)
	assert.Empty(t, out.Response)
}

func TestResponder_Webhook(t *testing.T) {
	r, svc := newTestResponder(t)
	svc.EXPECT().HandleWebhook(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, evt *domain.WebhookEvent) (*domain.WebhookResult, error) {
			assert.Equal(t, "rest-1#1", evt.PaymentMethodID)
			assert.Equal(t, "eyJ9", evt.RawBody)
			assert.Equal(t, "t=1,v1=abc", evt.Signature)
			return &domain.WebhookResult{StatusCode: 200, Message: "Webhook processed successfully"}, nil
		})

	out := handle(t, r, SubjectStripeWebhook, `{"pattern":"payments.stripe.webhook","data":{"paymentMethodId":"rest-1#1","rawBody":"eyJ9","stripeSignature":"t=1,v1=abc"},"id":"w1"}`)

	var res domain.WebhookResult
	require.NoError(t, json.Unmarshal(out.Response, &res))
	assert.Equal(t, 200, res.StatusCode)
}

func TestResponder_Acks(t *testing.T) {
	r, _ := newTestResponder(t)

	out := handle(t, r, SubjectSuccess, `{"pattern":"payments.success","data":{},"id":"s"}`)
	assert.JSONEq(t, `{"ok":true,"message":"Payment successful"}`, string(out.Response))

	out = handle(t, r, SubjectCancel, `{"pattern":"payments.cancel","data":{},"id":"c"}`)
	assert.JSONEq(t, `{"ok":false,"message":"Payment cancelled"}`, string(out.Response))
}

func TestResponder_BareDataWithoutEnvelope(t *testing.T) {
	r, svc := newTestResponder(t)
	svc.EXPECT().CreatePaymentSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *domain.PaymentSessionRequest) (*domain.SessionResult, error) {
			assert.Equal(t, "ord-2", req.OrderID)
			return &domain.SessionResult{OrderID: "ord-2"}, nil
		})

	out := handle(t, r, SubjectCreateSession, `{"orderId":"ord-2","paymentMethodId":"rest-1#2"}`)
	assert.NotEmpty(t, out.ID, "a message id is generated when the caller sends none")
	assert.Nil(t, out.Err)
}

func TestResponder_BadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantMsg string
	}{
		{"not json", `not json`, "malformed JSON payload"},
		{"null data", `{"pattern":"create.payment.session","data":null,"id":"n"}`, "request body is required"},
		{"wrong type", `{"pattern":"create.payment.session","data":{"orderId":5},"id":"t"}`, "orderId must be of type string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestResponder(t)
			out := handle(t, r, SubjectCreateSession, tt.payload)
			require.NotNil(t, out.Err)
			assert.Equal(t, "REQ_001", out.Err.Code)
			assert.Equal(t, tt.wantMsg, out.Err.Message)
		})
	}
}

func TestResponder_UnknownSubject(t *testing.T) {
	r, _ := newTestResponder(t)
	out := handle(t, r, "payments.refund", `{"pattern":"payments.refund","data":{},"id":"u"}`)
	require.NotNil(t, out.Err)
	assert.Equal(t, 404, out.Err.StatusCode)
	assert.Equal(t, "REQ_002", out.Err.Code)
}

func TestResponder_HandlerPanicBecomesError(t *testing.T) {
	r, svc := newTestResponder(t)
	svc.EXPECT().HandleWebhook(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, evt *domain.WebhookEvent) (*domain.WebhookResult, error) {
			panic("boom")
		})

	out := handle(t, r, SubjectStripeWebhook, `{"pattern":"payments.stripe.webhook","data":{"paymentMethodId":"a","rawBody":"b"},"id":"p"}`)
	require.NotNil(t, out.Err)
	assert.Equal(t, 500, out.Err.StatusCode)
}

func TestResponder_RequestTimeout(t *testing.T) {
	r, svc := newTestResponder(t)
	r.timeout = 20 * time.Millisecond

	svc.EXPECT().CreatePaymentSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, req *domain.PaymentSessionRequest) (*domain.SessionResult, error) {
			<-ctx.Done()
			return nil, apperror.ErrUpstream("stripe", 0, "", ctx.Err())
		})

	out := handle(t, r, SubjectCreateSession, `{"data":{"orderId":"o","paymentMethodId":"m"},"id":"t"}`)
	require.NotNil(t, out.Err)
	assert.Equal(t, "UPS_001", out.Err.Code)
	assert.Equal(t, 502, out.Err.StatusCode)
}
