package stripe

import (
	gostripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// CheckoutAPI is the subset of the Stripe API used by the provider.
type CheckoutAPI interface {
	NewCheckoutSession(params *gostripe.CheckoutSessionParams) (*gostripe.CheckoutSession, error)
}

// ClientFactory returns an API client authenticated with secretKey.
type ClientFactory func(secretKey string) CheckoutAPI

type apiClient struct {
	sc *client.API
}

// NewClient is the production ClientFactory. Each call gets its own client,
// so keys of different merchants are never shared.
func NewClient(secretKey string) CheckoutAPI {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &apiClient{sc: sc}
}

func (c *apiClient) NewCheckoutSession(params *gostripe.CheckoutSessionParams) (*gostripe.CheckoutSession, error) {
	return c.sc.CheckoutSessions.New(params)
}
