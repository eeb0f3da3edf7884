package dto

// WebhookPath binds the payment method segment of the webhook route.
type WebhookPath struct {
	PaymentMethodID string `uri:"paymentMethodId" binding:"required,config_id"`
}

// DependencyStatus is the health of one backing service.
type DependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]DependencyStatus `json:"dependencies"`
}
