package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to transport responses.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"statusCode"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Configuration (CFG) ----

func ErrNotFound(entity string) *AppError {
	return New("CFG_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrPaymentMethodDisabled(id string) *AppError {
	return New("CFG_002", fmt.Sprintf("Payment method %s is disabled", id), http.StatusConflict)
}

// ---- Providers (PRV) ----

func ErrUnsupportedProvider(paymentMethodID string) *AppError {
	return New("PRV_001", fmt.Sprintf("Unsupported payment method: %s", paymentMethodID), http.StatusBadRequest)
}

// ---- Security (SEC) ----

// ErrIntegrity marks a value that could not be authenticated as ciphertext.
func ErrIntegrity(err error) *AppError {
	return Wrap("SEC_001", "Ciphertext integrity check failed", http.StatusUnprocessableEntity, err)
}

// ---- Webhooks (WHK) ----

func ErrWebhookVerification(err error) *AppError {
	msg := "Webhook Error"
	if err != nil {
		msg = "Webhook Error: " + err.Error()
	}
	return Wrap("WHK_001", msg, http.StatusBadRequest, err)
}

// ---- Upstream providers (UPS) ----

// ErrUpstream reports a failed call to an external payment API. status is the
// upstream HTTP status when one was received, otherwise 0 (mapped to 502).
func ErrUpstream(provider string, status int, message string, err error) *AppError {
	if status == 0 {
		status = http.StatusBadGateway
	}
	if message == "" {
		message = fmt.Sprintf("Payment failed via %s", provider)
	}
	return Wrap("UPS_001", message, status, err)
}

// ---- Requests (REQ) ----

func Validation(message string) *AppError {
	return New("REQ_001", message, http.StatusBadRequest)
}

// ErrNoHandler is returned for a message pattern nothing is subscribed to.
func ErrNoHandler(pattern string) *AppError {
	return New("REQ_002", fmt.Sprintf("There is no matching message handler defined for %s", pattern), http.StatusNotFound)
}

func ErrBodyTooLarge() *AppError {
	return New("REQ_003", "Request body too large", http.StatusRequestEntityTooLarge)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

func ErrStoreError(err error) *AppError {
	return Wrap("SYS_001", "Internal storage error", http.StatusInternalServerError, err)
}

func ErrEncryptionFailure(err error) *AppError {
	return Wrap("SYS_003", "Encryption service failure", http.StatusInternalServerError, err)
}

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}
