package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"gorm.io/gorm"

	"streamgate/internal/domain/session"
	"streamgate/internal/infrastructure/persistence/models"
	"streamgate/internal/shared/errors"
	"streamgate/internal/shared/logger"
)

// SessionRepositoryImpl implements the session.Repository interface
type SessionRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewSessionRepository creates a new session repository instance
func NewSessionRepository(db *gorm.DB, logger logger.Interface) session.Repository {
	return &SessionRepositoryImpl{
		db:     db,
		logger: logger,
	}
}

// Create persists a new session record
func (r *SessionRepositoryImpl) Create(ctx context.Context, sess *session.Session) error {
	model := toSessionModel(sess)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.IsDuplicateError(err) {
			return errors.NewConflictError("session already exists")
		}
		r.logger.Errorw("failed to create session",
			"user_id", sess.UserID(),
			"remote_session_id", sess.RemoteSessionID(),
			"error", err)
		return fmt.Errorf("failed to create session: %w", err)
	}

	r.logger.Infow("session created",
		"user_id", model.UserID,
		"created_at_milli", model.CreatedAtMilli,
		"remote_session_id", model.RemoteSessionID,
		"state", model.State)
	return nil
}

// Get retrieves a session by its composite key
func (r *SessionRepositoryImpl) Get(ctx context.Context, userID string, createdAtMilli int64) (*session.Session, error) {
	var model models.SessionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at_milli = ?", userID, createdAtMilli).
		First(&model).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, session.ErrSessionNotFound
		}
		r.logger.Errorw("failed to get session",
			"user_id", userID,
			"created_at_milli", createdAtMilli,
			"error", err)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return fromSessionModel(&model)
}

// ListByUser retrieves all sessions for a user, newest first
func (r *SessionRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]*session.Session, error) {
	var rows []models.SessionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at_milli DESC").
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to list sessions", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return fromSessionModels(rows)
}

// ListOpen retrieves every session without a recorded end time that has
// not been expired. This is the reconciler's working set.
func (r *SessionRepositoryImpl) ListOpen(ctx context.Context) ([]*session.Session, error) {
	var rows []models.SessionModel
	err := r.db.WithContext(ctx).
		Where("ended_at_milli IS NULL AND expired = ?", false).
		Order("created_at_milli ASC").
		Find(&rows).Error
	if err != nil {
		r.logger.Errorw("failed to list open sessions", "error", err)
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}

	return fromSessionModels(rows)
}

// Update persists the current state of a session
func (r *SessionRepositoryImpl) Update(ctx context.Context, sess *session.Session) error {
	result := r.db.WithContext(ctx).Model(&models.SessionModel{}).
		Where("user_id = ? AND created_at_milli = ?", sess.UserID(), sess.CreatedAtMilli()).
		Updates(map[string]interface{}{
			"state":            string(sess.State()),
			"started_at_milli": sess.StartedAtMilli(),
			"ended_at_milli":   sess.EndedAtMilli(),
			"expired":          sess.Expired(),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update session",
			"user_id", sess.UserID(),
			"created_at_milli", sess.CreatedAtMilli(),
			"error", result.Error)
		return fmt.Errorf("failed to update session: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func toSessionModel(sess *session.Session) *models.SessionModel {
	return &models.SessionModel{
		UserID:                     sess.UserID(),
		CreatedAtMilli:             sess.CreatedAtMilli(),
		SubscriptionCreatedAtMilli: sess.SubscriptionCreatedAtMilli(),
		Email:                      sess.Email(),
		ApplicationID:              sess.ApplicationID(),
		ApplicationName:            sess.ApplicationName(),
		RemoteSessionID:            sess.RemoteSessionID(),
		State:                      string(sess.State()),
		PerSessionLimitMs:          sess.PerSessionLimitMs(),
		StartedAtMilli:             sess.StartedAtMilli(),
		EndedAtMilli:               sess.EndedAtMilli(),
		EntitlementURL:             sess.EntitlementURL(),
		EntitlementValidMs:         sess.EntitlementValidMs(),
		Expired:                    sess.Expired(),
	}
}

func fromSessionModel(m *models.SessionModel) (*session.Session, error) {
	return session.ReconstructSession(session.SessionParams{
		UserID:                     m.UserID,
		CreatedAtMilli:             m.CreatedAtMilli,
		SubscriptionCreatedAtMilli: m.SubscriptionCreatedAtMilli,
		Email:                      m.Email,
		ApplicationID:              m.ApplicationID,
		ApplicationName:            m.ApplicationName,
		RemoteSessionID:            m.RemoteSessionID,
		State:                      session.State(m.State),
		PerSessionLimitMs:          m.PerSessionLimitMs,
		StartedAtMilli:             m.StartedAtMilli,
		EndedAtMilli:               m.EndedAtMilli,
		EntitlementURL:             m.EntitlementURL,
		EntitlementValidMs:         m.EntitlementValidMs,
		Expired:                    m.Expired,
	})
}

func fromSessionModels(rows []models.SessionModel) ([]*session.Session, error) {
	sessions := make([]*session.Session, 0, len(rows))
	for i := range rows {
		sess, err := fromSessionModel(&rows[i])
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, nil
}
