// Package transaction holds the ledger of charges made against customer
// balances. Rows are append-only.
package transaction

import (
	"time"

	"github.com/google/uuid"
)

type Transaction struct {
	ID    uuid.UUID `db:"id" json:"transactionID"`
	Email string    `db:"email" json:"email"`
	// Amount is the charge in dollars; ride charges are positive,
	// top-ups negative.
	Amount     float64   `db:"amount" json:"transactionAmount"`
	OccurredAt time.Time `db:"occurred_at" json:"transactionDateTime"`
}
