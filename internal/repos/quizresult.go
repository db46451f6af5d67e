package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

type QuizResultRepo interface {
	Create(ctx context.Context, tx *gorm.DB, results []*types.QuizResult) error
	GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.QuizResult, error)
	CountDistinctModulesByPlanID(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (int64, error)
	FullDeleteByModuleIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) error
	FullDeleteByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) error
}

type quizResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizResultRepo(db *gorm.DB, log *logger.Logger) QuizResultRepo {
	return &quizResultRepo{db: db, log: log.With("repo", "QuizResultRepo")}
}

func (r *quizResultRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *quizResultRepo) Create(ctx context.Context, tx *gorm.DB, results []*types.QuizResult) error {
	if len(results) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&results).Error
}

func (r *quizResultRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.QuizResult, error) {
	var results []*types.QuizResult
	q := r.conn(tx).WithContext(ctx).
		Preload("Module").
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&results).Error
	return results, err
}

// CountDistinctModulesByPlanID counts modules of a plan with at least one
// submitted result. Any submission marks the module completed, whatever
// the score.
func (r *quizResultRepo) CountDistinctModulesByPlanID(ctx context.Context, tx *gorm.DB, userID, planID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).Model(&types.QuizResult{}).
		Distinct("quiz_result.module_id").
		Joins("JOIN learning_module ON learning_module.id = quiz_result.module_id").
		Where("quiz_result.user_id = ? AND learning_module.plan_id = ?", userID, planID).
		Count(&count).Error
	return count, err
}

func (r *quizResultRepo) FullDeleteByModuleIDs(ctx context.Context, tx *gorm.DB, moduleIDs []uuid.UUID) error {
	if len(moduleIDs) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Where("module_id IN ?", moduleIDs).Delete(&types.QuizResult{}).Error
}

func (r *quizResultRepo) FullDeleteByPlanID(ctx context.Context, tx *gorm.DB, planID uuid.UUID) error {
	conn := r.conn(tx).WithContext(ctx)
	sub := conn.Session(&gorm.Session{NewDB: true}).Model(&types.LearningModule{}).
		Select("id").
		Where("plan_id = ?", planID)
	return conn.Where("module_id IN (?)", sub).Delete(&types.QuizResult{}).Error
}
