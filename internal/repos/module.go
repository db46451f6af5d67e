package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

type LearningModuleRepo interface {
	Create(ctx context.Context, tx *gorm.DB, modules []*types.LearningModule) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.LearningModule, error)
	GetByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.LearningModule, error)
	GetByPlanAndPosition(ctx context.Context, tx *gorm.DB, planID uuid.UUID, position int) (*types.LearningModule, error)
	SetGeneratedContent(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, content string, quizData datatypes.JSON) error
	UpdateDifficultyAfterPosition(ctx context.Context, tx *gorm.DB, planID uuid.UUID, position int, difficulty string) error
	CountByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (int64, error)
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	FullDeleteByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) error
}

type learningModuleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningModuleRepo(db *gorm.DB, log *logger.Logger) LearningModuleRepo {
	return &learningModuleRepo{db: db, log: log.With("repo", "LearningModuleRepo")}
}

func (r *learningModuleRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *learningModuleRepo) Create(ctx context.Context, tx *gorm.DB, modules []*types.LearningModule) error {
	if len(modules) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&modules).Error
}

func (r *learningModuleRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.LearningModule, error) {
	var modules []*types.LearningModule
	if len(ids) == 0 {
		return modules, nil
	}
	err := r.conn(tx).WithContext(ctx).Where("id IN ?", ids).Find(&modules).Error
	return modules, err
}

func (r *learningModuleRepo) GetByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) ([]*types.LearningModule, error) {
	var modules []*types.LearningModule
	err := r.conn(tx).WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("position ASC").
		Find(&modules).Error
	return modules, err
}

func (r *learningModuleRepo) GetByPlanAndPosition(ctx context.Context, tx *gorm.DB, planID uuid.UUID, position int) (*types.LearningModule, error) {
	var module types.LearningModule
	err := r.conn(tx).WithContext(ctx).
		Where("plan_id = ? AND position = ?", planID, position).
		First(&module).Error
	if err != nil {
		return nil, err
	}
	return &module, nil
}

func (r *learningModuleRepo) SetGeneratedContent(ctx context.Context, tx *gorm.DB, moduleID uuid.UUID, content string, quizData datatypes.JSON) error {
	return r.conn(tx).WithContext(ctx).Model(&types.LearningModule{}).
		Where("id = ?", moduleID).
		Updates(map[string]interface{}{
			"content":   content,
			"quiz_data": quizData,
		}).Error
}

// UpdateDifficultyAfterPosition retargets every module the learner has not
// reached yet. Modules at or before the given position keep the difficulty
// they were taken at.
func (r *learningModuleRepo) UpdateDifficultyAfterPosition(ctx context.Context, tx *gorm.DB, planID uuid.UUID, position int, difficulty string) error {
	return r.conn(tx).WithContext(ctx).Model(&types.LearningModule{}).
		Where("plan_id = ? AND position > ?", planID, position).
		Update("difficulty", difficulty).Error
}

func (r *learningModuleRepo) CountByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).Model(&types.LearningModule{}).
		Where("plan_id = ?", planID).
		Count(&count).Error
	return count, err
}

func (r *learningModuleRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Where("id IN ?", ids).Delete(&types.LearningModule{}).Error
}

func (r *learningModuleRepo) FullDeleteByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).Where("plan_id = ?", planID).Delete(&types.LearningModule{}).Error
}
