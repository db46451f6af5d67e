package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

type InsightRepo interface {
	Create(ctx context.Context, tx *gorm.DB, insights []*types.Insight) error
	GetUnreadByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Insight, error)
	MarkRead(ctx context.Context, tx *gorm.DB, userID, insightID uuid.UUID) (int64, error)
}

type insightRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInsightRepo(db *gorm.DB, log *logger.Logger) InsightRepo {
	return &insightRepo{db: db, log: log.With("repo", "InsightRepo")}
}

func (r *insightRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *insightRepo) Create(ctx context.Context, tx *gorm.DB, insights []*types.Insight) error {
	if len(insights) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&insights).Error
}

func (r *insightRepo) GetUnreadByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Insight, error) {
	var insights []*types.Insight
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND is_read = ?", userID, false).
		Order("created_at DESC").
		Find(&insights).Error
	return insights, err
}

// MarkRead reports the affected row count so callers can distinguish a
// missing insight from a repeated read.
func (r *insightRepo) MarkRead(ctx context.Context, tx *gorm.DB, userID, insightID uuid.UUID) (int64, error) {
	res := r.conn(tx).WithContext(ctx).Model(&types.Insight{}).
		Where("id = ? AND user_id = ?", insightID, userID).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
