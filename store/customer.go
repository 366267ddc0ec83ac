package store

import (
	"context"
	"net/url"

	"github.com/semanticallynull/scootershare/customer"
)

// RegisterCustomerRequest carries the hash already computed by the front
// end; the store never sees a plaintext password.
type RegisterCustomerRequest struct {
	Email        string  `json:"email"`
	PasswordHash string  `json:"passwordHash"`
	FirstName    string  `json:"firstName"`
	LastName     string  `json:"lastName"`
	PhoneNo      string  `json:"phoneNo"`
	Funds        float64 `json:"funds"`
}

func (c *Client) GetCustomer(ctx context.Context, email string) (customer.Customer, error) {
	var cust customer.Customer
	err := c.get(ctx, "/customer/"+url.PathEscape(email), &cust)
	return cust, err
}

func (c *Client) GetLoginDetails(ctx context.Context, email string) (customer.LoginDetails, error) {
	var ld customer.LoginDetails
	err := c.get(ctx, "/customer/"+url.PathEscape(email)+"/login", &ld)
	return ld, err
}

func (c *Client) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (customer.Customer, error) {
	var cust customer.Customer
	err := c.do(ctx, "POST", "/customer", req, &cust)
	return cust, err
}

func (c *Client) DeleteCustomer(ctx context.Context, email string) error {
	return c.do(ctx, "DELETE", "/customer/"+url.PathEscape(email), nil, nil)
}

func (c *Client) UpdateCustomerFunds(ctx context.Context, email string, funds float64) (customer.Customer, error) {
	body := map[string]float64{"funds": funds}
	var cust customer.Customer
	err := c.do(ctx, "PUT", "/customer/"+url.PathEscape(email)+"/funds", body, &cust)
	return cust, err
}

func (c *Client) GetAllCustomers(ctx context.Context) ([]customer.Customer, error) {
	var customers []customer.Customer
	err := c.get(ctx, "/customer", &customers)
	return customers, err
}

func (c *Client) UpdateCustomerDetails(ctx context.Context, email, firstName, lastName, phoneNo string) (customer.Customer, error) {
	body := map[string]string{
		"firstName": firstName,
		"lastName":  lastName,
		"phoneNo":   phoneNo,
	}
	var cust customer.Customer
	err := c.do(ctx, "PUT", "/customer/"+url.PathEscape(email), body, &cust)
	return cust, err
}

// EngineerEmails is the notification list for fault reports.
func (c *Client) EngineerEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := c.get(ctx, "/customer/engineers/emails", &emails)
	return emails, err
}
