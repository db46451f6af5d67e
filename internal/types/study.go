package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type StudyPlan struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	User            *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Subject         string         `gorm:"not null" json:"subject"`
	Topic           string         `gorm:"not null" json:"topic"`
	Schedule        datatypes.JSON `gorm:"type:jsonb" json:"schedule"`
	DurationMinutes int            `json:"duration_minutes"`
	Difficulty      string         `json:"difficulty"`
	TargetDate      *time.Time     `json:"target_date,omitempty"`
	Status          string         `gorm:"index;not null;default:active" json:"status"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (StudyPlan) TableName() string {
	return "study_plan"
}

// LearningModule rows are created as empty placeholders with the plan and
// filled with content and a quiz on first open.
type LearningModule struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PlanID          uuid.UUID      `gorm:"type:uuid;index;not null" json:"plan_id"`
	Plan            *StudyPlan     `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"-"`
	Title           string         `gorm:"not null" json:"title"`
	Content         string         `gorm:"type:text" json:"content"`
	Position        int            `gorm:"column:position;index;not null" json:"position"`
	DurationMinutes int            `json:"duration_minutes"`
	Difficulty      string         `json:"difficulty"`
	ModuleType      string         `gorm:"column:module_type" json:"module_type"`
	QuizData        datatypes.JSON `gorm:"type:jsonb" json:"quiz_data,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (LearningModule) TableName() string {
	return "learning_module"
}
