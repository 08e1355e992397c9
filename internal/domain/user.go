package domain

// Role distinguishes storefront customers from back-office staff.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is the authenticated account as returned by the API.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the user can access the back office.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
