// Package user holds the User aggregate. A user is keyed by the federated
// identity id issued by the identity exchange service and is created on
// first successful authorization when auto-provisioning is enabled.
package user

import (
	"fmt"
	"time"
)

// User represents the user aggregate root
type User struct {
	id        string // federated identity id
	email     string
	role      string
	createdAt time.Time
	updatedAt time.Time
}

// NewUser creates a new user from a federated identity
func NewUser(id, email string) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	now := time.Now()
	return &User{
		id:        id,
		email:     email,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructUser reconstructs a user from persistence
func ReconstructUser(id, email, role string, createdAt, updatedAt time.Time) (*User, error) {
	if id == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	return &User{
		id:        id,
		email:     email,
		role:      role,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

// ID returns the federated identity id
func (u *User) ID() string {
	return u.id
}

// Email returns the user email
func (u *User) Email() string {
	return u.email
}

// Role returns the administrative role, empty for regular users
func (u *User) Role() string {
	return u.role
}

// CreatedAt returns when the user was first provisioned
func (u *User) CreatedAt() time.Time {
	return u.createdAt
}

// UpdatedAt returns when the user was last updated
func (u *User) UpdatedAt() time.Time {
	return u.updatedAt
}

// SetRole assigns an administrative role
func (u *User) SetRole(role string) {
	u.role = role
	u.updatedAt = time.Now()
}
