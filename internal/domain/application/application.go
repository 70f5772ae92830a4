// Package application holds the local registry of remote stream
// applications. A record maps the application id referenced by
// subscriptions to the identifier the provisioning service knows it by.
package application

import (
	"fmt"
	"time"
)

// Application represents a provisionable remote application
type Application struct {
	id        string
	remoteRef string
	name      string
	createdAt time.Time
}

// NewApplication registers a remote application
func NewApplication(id, remoteRef, name string) (*Application, error) {
	if id == "" {
		return nil, fmt.Errorf("application ID is required")
	}
	if remoteRef == "" {
		return nil, fmt.Errorf("remote reference is required")
	}
	return &Application{
		id:        id,
		remoteRef: remoteRef,
		name:      name,
		createdAt: time.Now(),
	}, nil
}

// ReconstructApplication reconstructs an application from persistence
func ReconstructApplication(id, remoteRef, name string, createdAt time.Time) (*Application, error) {
	if id == "" {
		return nil, fmt.Errorf("application ID is required")
	}
	return &Application{
		id:        id,
		remoteRef: remoteRef,
		name:      name,
		createdAt: createdAt,
	}, nil
}

// ID returns the local application id
func (a *Application) ID() string {
	return a.id
}

// RemoteRef returns the identifier the provisioning service uses
func (a *Application) RemoteRef() string {
	return a.remoteRef
}

// Name returns the display name
func (a *Application) Name() string {
	return a.name
}

// CreatedAt returns when the application was registered
func (a *Application) CreatedAt() time.Time {
	return a.createdAt
}
