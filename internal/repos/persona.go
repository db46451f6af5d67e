package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

type LearningPersonaRepo interface {
	Create(ctx context.Context, tx *gorm.DB, personas []*types.LearningPersona) error
	GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LearningPersona, error)
	FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type learningPersonaRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningPersonaRepo(db *gorm.DB, log *logger.Logger) LearningPersonaRepo {
	return &learningPersonaRepo{db: db, log: log.With("repo", "LearningPersonaRepo")}
}

func (r *learningPersonaRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *learningPersonaRepo) Create(ctx context.Context, tx *gorm.DB, personas []*types.LearningPersona) error {
	if len(personas) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&personas).Error
}

// GetLatestByUserID returns the newest persona; regenerating onboarding
// creates a new row rather than rewriting history.
func (r *learningPersonaRepo) GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.LearningPersona, error) {
	var persona types.LearningPersona
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&persona).Error
	if err != nil {
		return nil, err
	}
	return &persona, nil
}

func (r *learningPersonaRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).Where("user_id = ?", userID).Delete(&types.LearningPersona{}).Error
}
