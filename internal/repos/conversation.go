package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

type ConversationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) error
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error)
	GetBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID, limit int) ([]*types.Conversation, error)
	GetLastBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID, limit int) ([]*types.Conversation, error)
	MaxSessionID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
	FullDeleteBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID int) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: log.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *conversationRepo) Create(ctx context.Context, tx *gorm.DB, conversations []*types.Conversation) error {
	if len(conversations) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&conversations).Error
}

func (r *conversationRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Conversation, error) {
	var conversations []*types.Conversation
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("session_id ASC").
		Find(&conversations).Error
	return conversations, err
}

func (r *conversationRepo) GetBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID, limit int) ([]*types.Conversation, error) {
	var conversations []*types.Conversation
	q := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&conversations).Error
	return conversations, err
}

// GetLastBySession returns the newest turns in chronological order, for
// building a bounded prompt history.
func (r *conversationRepo) GetLastBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID, limit int) ([]*types.Conversation, error) {
	var conversations []*types.Conversation
	q := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&conversations).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(conversations)-1; i < j; i, j = i+1, j-1 {
		conversations[i], conversations[j] = conversations[j], conversations[i]
	}
	return conversations, nil
}

func (r *conversationRepo) MaxSessionID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	var maxID int
	err := r.conn(tx).WithContext(ctx).Model(&types.Conversation{}).
		Select("COALESCE(MAX(session_id), 0)").
		Where("user_id = ?", userID).
		Scan(&maxID).Error
	return maxID, err
}

func (r *conversationRepo) FullDeleteBySession(ctx context.Context, tx *gorm.DB, userID uuid.UUID, sessionID int) error {
	return r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Delete(&types.Conversation{}).Error
}
