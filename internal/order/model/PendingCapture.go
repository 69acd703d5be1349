package model

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// PendingCapture is written before a gateway capture is attempted and removed once the
// outcome is known, so a capture whose order was never stored can be found again.
type PendingCapture struct {
	IntentID  string          `db:"intent_id"`
	UserID    string          `db:"user_id"`
	Items     types.JSONText  `db:"items"`
	Amount    decimal.Decimal `db:"amount"`
	Address   types.JSONText  `db:"address"`
	CreatedAt time.Time       `db:"created_at"`
}

func NewPendingCapture(intentID string, o *Order) *PendingCapture {
	return &PendingCapture{IntentID: intentID, UserID: o.UserID, Items: o.Items, Amount: o.Amount, Address: o.Address}
}

// PaidOrder is the order a completed capture turns into.
func (p *PendingCapture) PaidOrder() *Order {
	o := NewOrder(p.UserID, p.Items, p.Address, p.Amount, true)
	o.IntentID = sql.NullString{String: p.IntentID, Valid: true}
	return o
}
