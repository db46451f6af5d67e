package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) error
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error)
	GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error)
	EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error)
	UpdatePassword(ctx context.Context, tx *gorm.DB, userID uuid.UUID, passwordHash string) error
	UpdatePhone(ctx context.Context, tx *gorm.DB, userID uuid.UUID, phone string) error
	SetEmailVerification(ctx context.Context, tx *gorm.DB, userID uuid.UUID, token string, expires time.Time) error
	GetByEmailVerificationToken(ctx context.Context, tx *gorm.DB, token string) (*types.User, error)
	MarkEmailVerified(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	SetPhoneVerification(ctx context.Context, tx *gorm.DB, userID uuid.UUID, code string, expires time.Time) error
	MarkPhoneVerified(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	SetOnboardingCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID, completed bool) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo {
	return &userRepo{db: db, log: log.With("repo", "UserRepo")}
}

func (r *userRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) error {
	if len(users) == 0 {
		return nil
	}
	return r.conn(tx).WithContext(ctx).Create(&users).Error
}

func (r *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
	var users []*types.User
	if len(ids) == 0 {
		return users, nil
	}
	err := r.conn(tx).WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, err
}

func (r *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error) {
	var users []*types.User
	if len(emails) == 0 {
		return users, nil
	}
	err := r.conn(tx).WithContext(ctx).Where("email IN ?", emails).Find(&users).Error
	return users, err
}

func (r *userRepo) EmailExists(ctx context.Context, tx *gorm.DB, email string) (bool, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).Model(&types.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func (r *userRepo) UpdatePassword(ctx context.Context, tx *gorm.DB, userID uuid.UUID, passwordHash string) error {
	return r.conn(tx).WithContext(ctx).Model(&types.User{}).
		Where("id = ?", userID).
		Update("password", passwordHash).Error
}

func (r *userRepo) UpdatePhone(ctx context.Context, tx *gorm.DB, userID uuid.UUID, phone string) error {
	return r.conn(tx).WithContext(ctx).Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"phone":          phone,
			"phone_verified": false,
		}).Error
}

func (r *userRepo) SetEmailVerification(ctx context.Context, tx *gorm.DB, userID uuid.UUID, token string, expires time.Time) error {
	return r.conn(tx).WithContext(ctx).Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"email_verification_token":   token,
			"email_verification_expires": expires,
		}).Error
}

func (r *userRepo) GetByEmailVerificationToken(ctx context.Context, tx *gorm.DB, token string) (*types.User, error) {
	var user types.User
	err := r.conn(tx).WithContext(ctx).Where("email_verification_token = ?", token).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) MarkEmailVerified(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"email_verified":             true,
			"email_verification_token":   nil,
			"email_verification_expires": nil,
		}).Error
}

func (r *userRepo) SetPhoneVerification(ctx context.Context, tx *gorm.DB, userID uuid.UUID, code string, expires time.Time) error {
	return r.conn(tx).WithContext(ctx).Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"phone_verification_code":    code,
			"phone_verification_expires": expires,
		}).Error
}

func (r *userRepo) MarkPhoneVerified(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).Model(&types.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"phone_verified":             true,
			"phone_verification_code":    nil,
			"phone_verification_expires": nil,
		}).Error
}

func (r *userRepo) SetOnboardingCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID, completed bool) error {
	return r.conn(tx).WithContext(ctx).Model(&types.User{}).
		Where("id = ?", userID).
		Update("onboarding_completed", completed).Error
}
