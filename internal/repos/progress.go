package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

// ProgressStats aggregates study activity over a window.
type ProgressStats struct {
	TotalSessions int64   `json:"total_sessions"`
	TotalMinutes  int64   `json:"total_minutes"`
	AvgFocus      float64 `json:"avg_focus"`
}

type ProgressRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, records []*types.ProgressRecord) error
	GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ProgressRecord, error)
	CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
	GetStatsSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (*ProgressStats, error)
}

type progressRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRecordRepo(db *gorm.DB, log *logger.Logger) ProgressRecordRepo {
	return &progressRecordRepo{db: db, log: log.With("repo", "ProgressRecordRepo")}
}

func (r *progressRecordRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *progressRecordRepo) Create(ctx context.Context, tx *gorm.DB, records []*types.ProgressRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&records).Error
}

func (r *progressRecordRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.ProgressRecord, error) {
	var records []*types.ProgressRecord
	q := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC, created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}

func (r *progressRecordRepo) CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).Model(&types.ProgressRecord{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *progressRecordRepo) GetStatsSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) (*ProgressStats, error) {
	var stats ProgressStats
	err := r.conn(tx).WithContext(ctx).Model(&types.ProgressRecord{}).
		Select("COUNT(*) AS total_sessions, COALESCE(SUM(duration_minutes), 0) AS total_minutes, COALESCE(AVG(focus_score), 0) AS avg_focus").
		Where("user_id = ? AND date >= ?", userID, since).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
