package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type LearningSession struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	User            *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	PlanID          uuid.UUID  `gorm:"type:uuid;index;not null" json:"plan_id"`
	Plan            *StudyPlan `gorm:"constraint:OnDelete:CASCADE;foreignKey:PlanID;references:ID" json:"-"`
	StartTime       time.Time  `gorm:"not null" json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	PomodoroCount   int        `json:"pomodoro_count"`
	Completed       bool       `gorm:"not null;default:false" json:"completed"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (LearningSession) TableName() string {
	return "learning_session"
}

// ProgressRecord keeps PlanID nullable so history survives plan deletion.
type ProgressRecord struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	User            *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	PlanID          *uuid.UUID     `gorm:"type:uuid;index" json:"plan_id,omitempty"`
	Plan            *StudyPlan     `gorm:"constraint:OnDelete:SET NULL;foreignKey:PlanID;references:ID" json:"-"`
	Date            time.Time      `gorm:"not null" json:"date"`
	DurationMinutes int            `json:"duration_minutes"`
	Topic           string         `json:"topic"`
	Evaluation      datatypes.JSON `gorm:"type:jsonb" json:"evaluation,omitempty"`
	FocusScore      int            `json:"focus_score"`
	Mood            string         `json:"mood"`
	Notes           string         `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (ProgressRecord) TableName() string {
	return "progress_record"
}
