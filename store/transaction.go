package store

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/semanticallynull/scootershare/transaction"
)

func (c *Client) GetTransaction(ctx context.Context, id uuid.UUID) (transaction.Transaction, error) {
	var t transaction.Transaction
	err := c.get(ctx, "/transaction/"+id.String(), &t)
	return t, err
}

func (c *Client) AddTransaction(ctx context.Context, email string, amount float64, occurredAt time.Time) (transaction.Transaction, error) {
	body := map[string]any{
		"email":               email,
		"transactionAmount":   amount,
		"transactionDateTime": occurredAt.Format(time.RFC3339),
	}
	var t transaction.Transaction
	err := c.do(ctx, "POST", "/transaction", body, &t)
	return t, err
}

func (c *Client) GetCustomerTransactions(ctx context.Context, email string) ([]transaction.Transaction, error) {
	var txns []transaction.Transaction
	err := c.get(ctx, "/transaction/customer/"+url.PathEscape(email), &txns)
	return txns, err
}
