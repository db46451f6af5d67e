package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

type StudyPlanRepo interface {
	Create(ctx context.Context, tx *gorm.DB, plans []*types.StudyPlan) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.StudyPlan, error)
	GetActiveByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.StudyPlan, error)
	UpdateTargetDate(ctx context.Context, tx *gorm.DB, planID uuid.UUID, targetDate time.Time) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, planID uuid.UUID, status string) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type studyPlanRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStudyPlanRepo(db *gorm.DB, log *logger.Logger) StudyPlanRepo {
	return &studyPlanRepo{db: db, log: log.With("repo", "StudyPlanRepo")}
}

func (r *studyPlanRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *studyPlanRepo) Create(ctx context.Context, tx *gorm.DB, plans []*types.StudyPlan) error {
	if len(plans) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&plans).Error
}

func (r *studyPlanRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.StudyPlan, error) {
	var plans []*types.StudyPlan
	if len(ids) == 0 {
		return plans, nil
	}
	err := r.conn(tx).WithContext(ctx).Where("id IN ?", ids).Find(&plans).Error
	return plans, err
}

func (r *studyPlanRepo) GetActiveByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.StudyPlan, error) {
	var plans []*types.StudyPlan
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, "active").
		Order("created_at DESC").
		Find(&plans).Error
	return plans, err
}

func (r *studyPlanRepo) UpdateTargetDate(ctx context.Context, tx *gorm.DB, planID uuid.UUID, targetDate time.Time) error {
	return r.conn(tx).WithContext(ctx).Model(&types.StudyPlan{}).
		Where("id = ?", planID).
		Update("target_date", targetDate).Error
}

func (r *studyPlanRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, planID uuid.UUID, status string) error {
	return r.conn(tx).WithContext(ctx).Model(&types.StudyPlan{}).
		Where("id = ?", planID).
		Update("status", status).Error
}

func (r *studyPlanRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Where("id IN ?", ids).Delete(&types.StudyPlan{}).Error
}
