package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type QuizResult struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	User             *User           `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	ModuleID         uuid.UUID       `gorm:"type:uuid;index;not null" json:"module_id"`
	Module           *LearningModule `gorm:"constraint:OnDelete:CASCADE;foreignKey:ModuleID;references:ID" json:"-"`
	Score            int             `gorm:"not null" json:"score"`
	TotalQuestions   int             `gorm:"not null" json:"total_questions"`
	Answers          datatypes.JSON  `gorm:"type:jsonb" json:"answers,omitempty"`
	TimeTakenSeconds int             `json:"time_taken_seconds"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (QuizResult) TableName() string {
	return "quiz_result"
}
