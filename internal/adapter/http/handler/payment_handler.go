package handler

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"

	"payment-broker/internal/adapter/http/dto"
	"payment-broker/internal/core/domain"
	"payment-broker/internal/core/ports"
	"payment-broker/pkg/apperror"
	"payment-broker/pkg/response"

	"github.com/gin-gonic/gin"
)

// HeaderStripeSignature carries the signature Stripe computes over the raw body.
const HeaderStripeSignature = "Stripe-Signature"

// PaymentHandler handles payment-related endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// CreatePaymentSession handles POST /payments/create-payment-session.
func (h *PaymentHandler) CreatePaymentSession(c *gin.Context) {
	var req domain.PaymentSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err))
		return
	}
	dto.TrimStrings(&req)
	req.ClientIP = c.ClientIP()

	result, err := h.paymentSvc.CreatePaymentSession(c.Request.Context(), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}

// Webhook handles POST /payments/webhook/:paymentMethodId. The body is kept
// byte for byte so the provider signature can be checked.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	var path dto.WebhookPath
	if err := c.ShouldBindUri(&path); err != nil {
		response.Error(c, apperror.Validation("invalid payment method id"))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, bindError(err))
		return
	}

	result, err := h.paymentSvc.HandleWebhook(c.Request.Context(), &domain.WebhookEvent{
		PaymentMethodID: path.PaymentMethodID,
		RawBody:         base64.StdEncoding.EncodeToString(body),
		Signature:       c.GetHeader(HeaderStripeSignature),
		Headers:         map[string]string{"content-type": c.ContentType()},
		ClientIP:        c.ClientIP(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(result.StatusCode, result)
}

// Success handles GET /payments/success, the checkout return page.
func (h *PaymentHandler) Success(c *gin.Context) {
	response.OK(c, domain.PaymentSuccessAck)
}

// Cancel handles GET /payments/cancel.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	response.OK(c, domain.PaymentCancelAck)
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperror.ErrBodyTooLarge()
	}
	if errors.Is(err, io.EOF) {
		return apperror.Validation("request body is required")
	}
	return apperror.Validation(err.Error())
}
