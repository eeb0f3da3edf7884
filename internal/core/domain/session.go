package domain

import (
	"fmt"
	"math"
)

// LineItem is one orderable unit. ChildItems model add-ons and variants and
// may nest to any depth.
type LineItem struct {
	ProductID  string     `json:"productId" validate:"required"`
	Name       string     `json:"name" validate:"required"`
	SizeName   string     `json:"sizeName,omitempty"`
	SizePrice  float64    `json:"sizePrice,omitempty"`
	Price      float64    `json:"price" validate:"gt=0"`
	Quantity   int64      `json:"quantity" validate:"gt=0"`
	Notes      string     `json:"notes,omitempty"`
	ItemStatus string     `json:"itemStatus,omitempty"`
	ChildItems []LineItem `json:"childItems,omitempty" validate:"omitempty,dive"`
}

// DisplayName is "<name> - [<size>]" when a size is present, otherwise the name.
func (i LineItem) DisplayName() string {
	if i.SizeName != "" {
		return fmt.Sprintf("%s - [%s]", i.Name, i.SizeName)
	}
	return i.Name
}

// PaymentSessionRequest is the inbound session-creation payload.
type PaymentSessionRequest struct {
	OrderID         string     `json:"orderId" validate:"required"`
	Currency        string     `json:"currency,omitempty"`
	PaymentMethodID string     `json:"paymentMethodId" validate:"required"`
	CustomerEmail   string     `json:"customerEmail,omitempty" validate:"omitempty,email"`
	TokenID         string     `json:"tokenId,omitempty"`
	TotalAmount     float64    `json:"totalAmount,omitempty" validate:"omitempty,gt=0"`
	ClientIP        string     `json:"-"`
	Items           []LineItem `json:"items" validate:"required,min=1,dive"`
}

// FlattenedLineItem is a line item ready to be sent to a checkout provider.
type FlattenedLineItem struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
}

// FlattenLineItems walks the item tree depth-first. Each node's effective
// quantity is its own quantity multiplied by the quantities of all ancestors.
func FlattenLineItems(items []LineItem) []FlattenedLineItem {
	var out []FlattenedLineItem
	var walk func(items []LineItem, parentQty int64)
	walk = func(items []LineItem, parentQty int64) {
		for _, it := range items {
			qty := it.Quantity * parentQty
			out = append(out, FlattenedLineItem{
				Name:     it.DisplayName(),
				Price:    it.Price,
				Quantity: qty,
			})
			if len(it.ChildItems) > 0 {
				walk(it.ChildItems, qty)
			}
		}
	}
	walk(items, 1)
	return out
}

// ToMinorUnits converts a decimal amount into integer minor currency units,
// rounding half away from zero.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// TopLevelTotal sums price*quantity over the first level of items only, in
// minor units. Child items are not included.
func TopLevelTotal(items []LineItem) int64 {
	var sum float64
	for _, it := range items {
		sum += it.Price * float64(it.Quantity)
	}
	return ToMinorUnits(sum)
}

// SessionResult is the uniform result of a successful session creation.
// Redirect-checkout providers fill the URL fields; direct-charge providers
// fill TransactionID and ReceiptURL.
type SessionResult struct {
	Provider      string `json:"provider"`
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId,omitempty"`
	URL           string `json:"url,omitempty"`
	SuccessURL    string `json:"successUrl,omitempty"`
	CancelURL     string `json:"cancelUrl,omitempty"`
	ReceiptURL    string `json:"receiptUrl,omitempty"`
	Message       string `json:"message,omitempty"`
}
