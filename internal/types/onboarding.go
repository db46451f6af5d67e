package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OnboardingResponse struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	QuestionID string    `gorm:"not null" json:"question_id"`
	Answer     string    `gorm:"type:text;not null" json:"answer"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (OnboardingResponse) TableName() string {
	return "onboarding_response"
}

// LearningPersona is the model-produced learner profile. The structured
// columns drive prompt construction; RawAnalysis keeps the full model
// output for the frontend.
type LearningPersona struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	User            *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	LearningStyle   string         `json:"learning_style"`
	FocusLevel      string         `json:"focus_level"`
	TimePreference  string         `json:"time_preference"`
	SessionDuration int            `json:"session_duration"`
	DetailLevel     string         `json:"detail_level"`
	MotivationType  string         `json:"motivation_type"`
	LearningPace    string         `json:"learning_pace"`
	RawAnalysis     datatypes.JSON `gorm:"type:jsonb" json:"raw_analysis,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (LearningPersona) TableName() string {
	return "learning_persona"
}
