package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

type UserTokenRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tokens []*types.UserToken) error
	GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.UserToken, error)
	GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*types.UserToken, error)
	FullDeleteByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) error
	FullDeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error
}

type userTokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return &userTokenRepo{db: db, log: log.With("repo", "UserTokenRepo")}
}

func (r *userTokenRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *userTokenRepo) Create(ctx context.Context, tx *gorm.DB, tokens []*types.UserToken) error {
	if len(tokens) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&tokens).Error
}

func (r *userTokenRepo) GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.UserToken, error) {
	var tokens []*types.UserToken
	if len(accessTokens) == 0 {
		return tokens, nil
	}
	err := r.conn(tx).WithContext(ctx).Where("access_token IN ?", accessTokens).Find(&tokens).Error
	return tokens, err
}

func (r *userTokenRepo) GetByRefreshTokens(ctx context.Context, tx *gorm.DB, refreshTokens []string) ([]*types.UserToken, error) {
	var tokens []*types.UserToken
	if len(refreshTokens) == 0 {
		return tokens, nil
	}
	err := r.conn(tx).WithContext(ctx).Where("refresh_token IN ?", refreshTokens).Find(&tokens).Error
	return tokens, err
}

func (r *userTokenRepo) FullDeleteByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) error {
	if len(accessTokens) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Where("access_token IN ?", accessTokens).Delete(&types.UserToken{}).Error
}

func (r *userTokenRepo) FullDeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Where("user_id IN ?", userIDs).Delete(&types.UserToken{}).Error
}
