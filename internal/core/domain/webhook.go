package domain

// WebhookEvent is one inbound provider notification. RawBody is the base64
// encoding of the exact bytes the provider sent, so signatures can still be
// checked after the body has crossed the message bus.
type WebhookEvent struct {
	PaymentMethodID string            `json:"paymentMethodId" validate:"required"`
	RawBody         string            `json:"rawBody" validate:"required"`
	Signature       string            `json:"stripeSignature,omitempty"`
	Headers         map[string]string `json:"headers,omitempty"`
	ClientIP        string            `json:"-"`
}

// WebhookResult is returned for every webhook that passed verification.
type WebhookResult struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// PaymentSucceededSubject is the pattern downstream services subscribe to.
const PaymentSucceededSubject = "payment.succeeded"

// PaymentSucceeded is published once a checkout charge settles.
type PaymentSucceeded struct {
	OrderID         string `json:"orderId"`
	ReceiptURL      string `json:"receiptUrl"`
	PaymentChargeID string `json:"paymentChargeId"`
}

// Acknowledgement is the static reply for redirect landing pages.
type Acknowledgement struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

var (
	PaymentSuccessAck = Acknowledgement{OK: true, Message: "Payment successful"}
	PaymentCancelAck  = Acknowledgement{OK: false, Message: "Payment cancelled"}
)
