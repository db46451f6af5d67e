package types

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name                     string     `gorm:"not null" json:"name"`
	Email                    string     `gorm:"uniqueIndex;not null" json:"email"`
	Password                 string     `gorm:"not null" json:"-"`
	Phone                    *string    `json:"phone,omitempty"`
	EmailVerified            bool       `gorm:"not null;default:false" json:"email_verified"`
	EmailVerificationToken   *string    `gorm:"index" json:"-"`
	EmailVerificationExpires *time.Time `json:"-"`
	PhoneVerified            bool       `gorm:"not null;default:false" json:"phone_verified"`
	PhoneVerificationCode    *string    `json:"-"`
	PhoneVerificationExpires *time.Time `json:"-"`
	OnboardingCompleted      bool       `gorm:"not null;default:false" json:"onboarding_completed"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

type UserToken struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User         *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	AccessToken  string    `gorm:"uniqueIndex;not null" json:"-"`
	RefreshToken string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (UserToken) TableName() string {
	return "user_token"
}
