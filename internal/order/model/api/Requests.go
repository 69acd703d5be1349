package api

import (
	"bytes"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

type PlaceOrderRequest struct {
	UserID  string          `json:"userId"`
	Items   types.JSONText  `json:"items"`
	Amount  decimal.Decimal `json:"amount"`
	Address types.JSONText  `json:"address"`
}

type VerifyOrderRequest struct {
	OrderID string `json:"orderId"`
	Success Flag   `json:"success"`
}

type UserOrdersRequest struct {
	UserID string `json:"userId"`
}

type UpdateStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type CreatePaymentIntentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type CapturePaymentIntentRequest struct {
	IntentID string `json:"intentId"`
	// OrderID is the field name older clients send the intent id under.
	OrderID string          `json:"orderId"`
	UserID  string          `json:"userId"`
	Items   types.JSONText  `json:"items"`
	Amount  decimal.Decimal `json:"amount"`
	Address types.JSONText  `json:"address"`
}

func (r *CapturePaymentIntentRequest) Intent() string {
	if r.IntentID != "" {
		return r.IntentID
	}
	return r.OrderID
}

// Flag is true only for the JSON boolean true or the string "true".
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = Flag(bytes.Equal(b, []byte(`true`)) || bytes.Equal(b, []byte(`"true"`)))
	return nil
}
