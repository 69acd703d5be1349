package model

import (
	"database/sql"
	"orderservice/internal/order/model/api"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
)

// StatusPending is the status every new order starts with.
const StatusPending = "Pending"

var (
	emptyItems   = types.JSONText("[]")
	emptyAddress = types.JSONText("{}")
)

type Order struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Items     types.JSONText  `db:"items"`
	Amount    decimal.Decimal `db:"amount"`
	Address   types.JSONText  `db:"address"`
	Payment   bool            `db:"payment"`
	Status    string          `db:"status"`
	IntentID  sql.NullString  `db:"intent_id"`
	CreatedAt time.Time       `db:"created_at"`
}

func NewOrder(userID string, items, address types.JSONText, amount decimal.Decimal, payment bool) *Order {
	if len(items) == 0 {
		items = emptyItems
	}
	if len(address) == 0 {
		address = emptyAddress
	}
	return &Order{UserID: userID, Items: items, Amount: amount, Address: address, Payment: payment, Status: StatusPending}
}

func (o *Order) ToAPI() api.Order {
	return api.Order{
		ID:        o.ID,
		UserID:    o.UserID,
		Items:     o.Items,
		Amount:    o.Amount.InexactFloat64(),
		Address:   o.Address,
		Payment:   o.Payment,
		Status:    o.Status,
		CreatedAt: o.CreatedAt,
	}
}

func ToAPI(orders []Order) []api.Order {
	apiOrders := make([]api.Order, len(orders))
	for i := 0; i < len(orders); i++ {
		apiOrders[i] = orders[i].ToAPI()
	}
	return apiOrders
}
