package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

type LearningSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sessions []*types.LearningSession) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.LearningSession, error)
	GetActiveByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LearningSession, error)
	GetActiveByUserAndPlan(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (*types.LearningSession, error)
	Complete(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, endTime time.Time, durationMinutes, pomodoroCount int) error
}

type learningSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningSessionRepo(db *gorm.DB, log *logger.Logger) LearningSessionRepo {
	return &learningSessionRepo{db: db, log: log.With("repo", "LearningSessionRepo")}
}

func (r *learningSessionRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *learningSessionRepo) Create(ctx context.Context, tx *gorm.DB, sessions []*types.LearningSession) error {
	if len(sessions) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&sessions).Error
}

func (r *learningSessionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.LearningSession, error) {
	var sessions []*types.LearningSession
	if len(ids) == 0 {
		return sessions, nil
	}
	err := r.conn(tx).WithContext(ctx).Where("id IN ?", ids).Find(&sessions).Error
	return sessions, err
}

func (r *learningSessionRepo) GetActiveByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LearningSession, error) {
	var session types.LearningSession
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND completed = ? AND end_time IS NULL", userID, false).
		Order("start_time DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *learningSessionRepo) GetActiveByUserAndPlan(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (*types.LearningSession, error) {
	var session types.LearningSession
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND plan_id = ? AND completed = ? AND end_time IS NULL", userID, planID, false).
		Order("start_time DESC").
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *learningSessionRepo) Complete(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, endTime time.Time, durationMinutes, pomodoroCount int) error {
	return r.conn(tx).WithContext(ctx).Model(&types.LearningSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"end_time":         endTime,
			"duration_minutes": durationMinutes,
			"pomodoro_count":   pomodoroCount,
			"completed":        true,
		}).Error
}
