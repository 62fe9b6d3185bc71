package domain

import "time"

// Role distinguishes buyers from shop owners.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
)

// Account is a registered customer or seller.
type Account struct {
	ID           int64     `json:"id"`
	Role         Role      `json:"role"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Address      string    `json:"address,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"date_joined"`
}

// Principal is the authenticated caller of a request.
type Principal struct {
	AccountID int64
	Role      Role
}

func (p Principal) IsSeller() bool {
	return p.Role == RoleSeller
}

func (p Principal) IsCustomer() bool {
	return p.Role == RoleCustomer
}
