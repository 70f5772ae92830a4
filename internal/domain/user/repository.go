package user

import "context"

// Repository defines the interface for user data operations
type Repository interface {
	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by federated identity id
	GetByID(ctx context.Context, id string) (*User, error)

	// Update updates an existing user
	Update(ctx context.Context, user *User) error

	// Exists checks if a user exists
	Exists(ctx context.Context, id string) (bool, error)
}
