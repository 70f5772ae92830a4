package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"streamgate/internal/domain/application"
	"streamgate/internal/infrastructure/persistence/models"
	"streamgate/internal/shared/errors"
	"streamgate/internal/shared/logger"
)

// ApplicationRepositoryImpl implements the application.Repository interface
type ApplicationRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewApplicationRepository creates a new application repository instance
func NewApplicationRepository(db *gorm.DB, logger logger.Interface) application.Repository {
	return &ApplicationRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create registers a new application
func (r *ApplicationRepositoryImpl) Create(ctx context.Context, app *application.Application) error {
	model := &models.ApplicationModel{
		ID:        app.ID(),
		RemoteRef: app.RemoteRef(),
		Name:      app.Name(),
		CreatedAt: app.CreatedAt(),
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("application already registered")
		}
		r.logger.Errorw("failed to create application", "application_id", app.ID(), "error", err)
		return fmt.Errorf("failed to create application: %w", err)
	}

	r.logger.Infow("application registered", "application_id", model.ID, "remote_ref", model.RemoteRef)
	return nil
}

// GetByID retrieves an application by its local id
func (r *ApplicationRepositoryImpl) GetByID(ctx context.Context, id string) (*application.Application, error) {
	var model models.ApplicationModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, application.ErrApplicationNotFound
		}
		r.logger.Errorw("failed to get application", "application_id", id, "error", err)
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return application.ReconstructApplication(model.ID, model.RemoteRef, model.Name, model.CreatedAt)
}

// List retrieves all registered applications
func (r *ApplicationRepositoryImpl) List(ctx context.Context) ([]*application.Application, error) {
	var rows []models.ApplicationModel
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		r.logger.Errorw("failed to list applications", "error", err)
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	apps := make([]*application.Application, 0, len(rows))
	for i := range rows {
		app, err := application.ReconstructApplication(rows[i].ID, rows[i].RemoteRef, rows[i].Name, rows[i].CreatedAt)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, nil
}
