// Package customer holds the user account model. Accounts are keyed by
// email; the role field distinguishes customers from engineers and
// admins.
package customer

type Role string

const (
	RoleCustomer Role = "Customer"
	RoleEngineer Role = "Engineer"
	RoleAdmin    Role = "Admin"
)

type Customer struct {
	Email string `db:"email" json:"email"`
	// PasswordHash is the stored credential hash. It only leaves the
	// store through the login-details lookup.
	PasswordHash string `db:"password_hash" json:"-"`

	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	PhoneNo   string `db:"phone_no" json:"phoneNo"`

	// Funds is the prepaid balance rides are charged against.
	Funds float64 `db:"funds" json:"funds"`

	Role Role `db:"role" json:"role"`
}

// LoginDetails is the credential view returned by the login lookup.
type LoginDetails struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}
