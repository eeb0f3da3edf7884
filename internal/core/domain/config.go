package domain

import (
	"fmt"
	"time"
)

// Payment method identifiers stored in ProviderConfig.PaymentMethodID.
const (
	PaymentMethodStripe = "1"
	PaymentMethodCulqi  = "2"
)

// ConfigSortKey is the sort key every configuration record is stored under.
const ConfigSortKey = "CONFIG"

// ProviderConfig is one payment method configured for one merchant.
// Configs and Credentials hold arbitrary JSON-like trees (maps, slices,
// strings); every string leaf may be ciphertext until decrypted.
type ProviderConfig struct {
	ID              string         `json:"id"` // merchantId#paymentMethodId
	SortKey         string         `json:"sk"`
	MerchantID      string         `json:"merchantId"`
	PaymentMethodID string         `json:"paymentMethodId"`
	ProviderKey     string         `json:"providerKey"`
	Configs         map[string]any `json:"configs"`
	Credentials     map[string]any `json:"-"`
	Currency        string         `json:"currency"`
	Enabled         bool           `json:"enabled"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// Credential returns the named credential as a string, or "" when it is
// absent or not a string.
func (c *ProviderConfig) Credential(name string) string {
	return stringLeaf(c.Credentials, name)
}

// Setting returns the named entry of Configs as a string.
func (c *ProviderConfig) Setting(name string) string {
	return stringLeaf(c.Configs, name)
}

// ConfigID builds the composite lookup key for a merchant's payment method.
func ConfigID(merchantID, paymentMethodID string) string {
	return fmt.Sprintf("%s#%s", merchantID, paymentMethodID)
}

func stringLeaf(m map[string]any, name string) string {
	if m == nil {
		return ""
	}
	s, _ := m[name].(string)
	return s
}
