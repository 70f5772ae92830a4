package application

import (
	"context"
	"errors"
)

var ErrApplicationNotFound = errors.New("application not found")

// Repository defines the interface for application registry operations
type Repository interface {
	// Create registers a new application
	Create(ctx context.Context, app *Application) error

	// GetByID retrieves an application by its local id
	GetByID(ctx context.Context, id string) (*Application, error)

	// List retrieves all registered applications
	List(ctx context.Context) ([]*Application, error)
}
