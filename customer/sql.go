package customer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound = errors.New("customer not found")
	ErrExists   = errors.New("customer already registered")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Get(ctx context.Context, email string) (Customer, error) {
	var c Customer
	err := r.db.GetContext(ctx, &c, getCustomerQuery, email)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

const getCustomerQuery = `SELECT * FROM customers WHERE email = $1`

func (r *Repository) Register(ctx context.Context, c *Customer) error {
	if c.Role == "" {
		c.Role = RoleCustomer
	}
	err := r.db.GetContext(ctx, c, registerQuery,
		c.Email, c.PasswordHash, c.FirstName, c.LastName, c.PhoneNo, c.Funds, c.Role)
	if isUniqueViolation(err) {
		return ErrExists
	}
	return err
}

const registerQuery = `
INSERT INTO customers (email, password_hash, first_name, last_name, phone_no, funds, role)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING *
`

func (r *Repository) Delete(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, deleteQuery, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const deleteQuery = `DELETE FROM customers WHERE email = $1`

// UpdateFunds overwrites the prepaid balance. Callers compute the new
// balance; the write itself is a single atomic statement.
func (r *Repository) UpdateFunds(ctx context.Context, email string, funds float64) (Customer, error) {
	var c Customer
	err := r.db.GetContext(ctx, &c, updateFundsQuery, funds, email)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

const updateFundsQuery = `UPDATE customers SET funds = $1 WHERE email = $2 RETURNING *`

func (r *Repository) GetAll(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	err := r.db.SelectContext(ctx, &customers, getAllQuery)
	return customers, err
}

const getAllQuery = `SELECT * FROM customers WHERE role = 'Customer' ORDER BY email`

func (r *Repository) UpdateDetails(ctx context.Context, email, firstName, lastName, phoneNo string) (Customer, error) {
	var c Customer
	err := r.db.GetContext(ctx, &c, updateDetailsQuery, firstName, lastName, phoneNo, email)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

const updateDetailsQuery = `
UPDATE customers SET first_name = $1, last_name = $2, phone_no = $3
WHERE email = $4
RETURNING *
`

// EngineerEmails returns the notification list for fault reports.
func (r *Repository) EngineerEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.SelectContext(ctx, &emails, engineerEmailsQuery)
	return emails, err
}

const engineerEmailsQuery = `SELECT email FROM customers WHERE role = 'Engineer' ORDER BY email`

func isUniqueViolation(err error) bool {
	// pgx surfaces unique violations as *pgconn.PgError with code 23505;
	// matching on SQLSTATE keeps the driver import out of this package.
	type sqlState interface{ SQLState() string }
	var st sqlState
	return errors.As(err, &st) && st.SQLState() == "23505"
}
