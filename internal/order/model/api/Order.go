package api

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

type Order struct {
	ID        string         `json:"_id"`
	UserID    string         `json:"userId"`
	Items     types.JSONText `json:"items"`
	Amount    float64        `json:"amount"`
	Address   types.JSONText `json:"address"`
	Payment   bool           `json:"payment"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"date"`
}
