package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"streamgate/internal/domain/user"
	"streamgate/internal/infrastructure/persistence/models"
	"streamgate/internal/shared/errors"
	"streamgate/internal/shared/logger"
)

// UserRepositoryImpl implements the user.Repository interface
type UserRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB, logger logger.Interface) user.Repository {
	return &UserRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create creates a new user
func (r *UserRepositoryImpl) Create(ctx context.Context, u *user.User) error {
	model := &models.UserModel{
		ID:        u.ID(),
		Email:     u.Email(),
		Role:      u.Role(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("user already exists")
		}
		r.logger.Errorw("failed to create user", "id", u.ID(), "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Infow("user created", "id", model.ID, "email", model.Email)
	return nil
}

// GetByID retrieves a user by federated identity id
func (r *UserRepositoryImpl) GetByID(ctx context.Context, id string) (*user.User, error) {
	var model models.UserModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		r.logger.Errorw("failed to get user", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user.ReconstructUser(model.ID, model.Email, model.Role, model.CreatedAt, model.UpdatedAt)
}

// Update updates an existing user
func (r *UserRepositoryImpl) Update(ctx context.Context, u *user.User) error {
	result := r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", u.ID()).
		Updates(map[string]interface{}{
			"email":      u.Email(),
			"role":       u.Role(),
			"updated_at": u.UpdatedAt(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update user", "id", u.ID(), "error", result.Error)
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

// Exists checks if a user exists
func (r *UserRepositoryImpl) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}
