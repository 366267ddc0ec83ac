package transaction

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("transaction not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	var t Transaction
	err := r.db.GetContext(ctx, &t, getQuery, id)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

const getQuery = `SELECT * FROM transactions WHERE id = $1`

func (r *Repository) Add(ctx context.Context, t *Transaction) error {
	return r.db.GetContext(ctx, t, addQuery, t.ID, t.Email, t.Amount, t.OccurredAt)
}

const addQuery = `
INSERT INTO transactions (id, email, amount, occurred_at)
VALUES ($1, $2, $3, $4)
RETURNING *
`

func (r *Repository) GetForCustomer(ctx context.Context, email string) ([]Transaction, error) {
	var txns []Transaction
	err := r.db.SelectContext(ctx, &txns, getForCustomerQuery, email)
	return txns, err
}

const getForCustomerQuery = `SELECT * FROM transactions WHERE email = $1 ORDER BY occurred_at DESC`
