package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

type OnboardingResponseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, responses []*types.OnboardingResponse) error
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.OnboardingResponse, error)
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type onboardingResponseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOnboardingResponseRepo(db *gorm.DB, log *logger.Logger) OnboardingResponseRepo {
	return &onboardingResponseRepo{db: db, log: log.With("repo", "OnboardingResponseRepo")}
}

func (r *onboardingResponseRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *onboardingResponseRepo) Create(ctx context.Context, tx *gorm.DB, responses []*types.OnboardingResponse) error {
	if len(responses) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&responses).Error
}

func (r *onboardingResponseRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.OnboardingResponse, error) {
	var responses []*types.OnboardingResponse
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&responses).Error
	return responses, err
}

func (r *onboardingResponseRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).Where("user_id = ?", userID).Delete(&types.OnboardingResponse{}).Error
}
