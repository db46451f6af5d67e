package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/ai"
	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/repos"
	"github.com/studyflow/backend/internal/requestdata"
	"github.com/studyflow/backend/internal/types"
)

const (
	defaultPlanMinutes   = 60
	defaultTargetDays    = 7
	defaultModuleMinutes = 25
	minMaterialQuestions = 5
	maxMaterialQuizSize  = 35
)

type CreatePlanRequest struct {
	Subject    string `json:"subject"`
	Topic      string `json:"topic"`
	DailyTime  string `json:"daily_time"`
	TargetDays int    `json:"target_days"`
}

type CreatePlanFromMaterialRequest struct {
	Subject       string `json:"subject"`
	Topic         string `json:"topic"`
	Material      string `json:"material"`
	QuestionCount int    `json:"question_count"`
}

// PlanWithProgress decorates a plan with module completion numbers.
type PlanWithProgress struct {
	*types.StudyPlan
	TotalModules     int64   `json:"total_modules"`
	CompletedModules int64   `json:"completed_modules"`
	Progress         float64 `json:"progress"`
}

type PlanDetail struct {
	*types.StudyPlan
	Modules          []*types.LearningModule `json:"modules"`
	TotalModules     int64                   `json:"total_modules"`
	CompletedModules int64                   `json:"completed_modules"`
	Progress         float64                 `json:"progress"`
}

// planScheduleBlob is the shape persisted in study_plan.schedule.
type planScheduleBlob struct {
	Schedule []ScheduleItem `json:"schedule"`
	Tips     []string       `json:"tips,omitempty"`
}

type PlanService interface {
	CreatePlan(ctx context.Context, req CreatePlanRequest) (*PlanDetail, error)
	CreatePlanFromMaterial(ctx context.Context, req CreatePlanFromMaterialRequest) (*PlanDetail, error)
	ListPlans(ctx context.Context) ([]*PlanWithProgress, error)
	GetPlan(ctx context.Context, planID uuid.UUID) (*PlanDetail, error)
	UpdateTargetDate(ctx context.Context, planID uuid.UUID, targetDate time.Time) error
	FixTargetDates(ctx context.Context) (int, error)
	DeletePlan(ctx context.Context, planID uuid.UUID) error
}

type planService struct {
	db          *gorm.DB
	log         *logger.Logger
	agent       StudyAgent
	planRepo    repos.StudyPlanRepo
	moduleRepo  repos.LearningModuleRepo
	personaRepo repos.LearningPersonaRepo
	quizRepo    repos.QuizResultRepo
}

func NewPlanService(
	db *gorm.DB,
	log *logger.Logger,
	agent StudyAgent,
	planRepo repos.StudyPlanRepo,
	moduleRepo repos.LearningModuleRepo,
	personaRepo repos.LearningPersonaRepo,
	quizRepo repos.QuizResultRepo,
) PlanService {
	return &planService{
		db:          db,
		log:         log.With("service", "PlanService"),
		agent:       agent,
		planRepo:    planRepo,
		moduleRepo:  moduleRepo,
		personaRepo: personaRepo,
		quizRepo:    quizRepo,
	}
}

func (s *planService) CreatePlan(ctx context.Context, req CreatePlanRequest) (*PlanDetail, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	if req.Subject == "" || req.Topic == "" {
		return nil, fmt.Errorf("%w: subject and topic are required", ErrInvalidInput)
	}
	persona, err := s.requirePersona(ctx, rd.UserID)
	if err != nil {
		return nil, err
	}
	generated, err := s.agent.GenerateStudyPlan(ctx, persona, req.Subject, req.Topic, req.DailyTime, req.TargetDays)
	if err != nil {
		return nil, err
	}
	return s.persistGeneratedPlan(ctx, rd.UserID, req.Subject, req.Topic, req.TargetDays, generated, nil)
}

func (s *planService) CreatePlanFromMaterial(ctx context.Context, req CreatePlanFromMaterialRequest) (*PlanDetail, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	if req.Subject == "" || req.Topic == "" {
		return nil, fmt.Errorf("%w: subject and topic are required", ErrInvalidInput)
	}
	questionCount := req.QuestionCount
	if questionCount < minMaterialQuestions {
		questionCount = minMaterialQuestions
	}
	if questionCount > maxMaterialQuizSize {
		questionCount = maxMaterialQuizSize
	}
	persona, err := s.requirePersona(ctx, rd.UserID)
	if err != nil {
		return nil, err
	}
	generated, quiz, err := s.agent.GenerateStudyPlanFromMaterial(ctx, persona, req.Subject, req.Topic, req.Material, questionCount)
	if err != nil {
		return nil, err
	}
	return s.persistGeneratedPlan(ctx, rd.UserID, req.Subject, req.Topic, 0, generated, quiz)
}

// persistGeneratedPlan writes the plan and its placeholder modules in one
// transaction. A material quiz, when present, is attached to the closing
// module so the learner finishes on an assessment.
func (s *planService) persistGeneratedPlan(ctx context.Context, userID uuid.UUID, subject, topic string, requestedDays int, generated *GeneratedPlan, materialQuiz *ai.QuizPayload) (*PlanDetail, error) {
	targetDays := ai.ParseTargetDays(generated.TargetDays, defaultTargetDays)
	if requestedDays > 0 {
		targetDays = requestedDays
	}
	targetDate := time.Now().AddDate(0, 0, targetDays)

	blob, err := json.Marshal(planScheduleBlob{Schedule: generated.Schedule, Tips: generated.Tips})
	if err != nil {
		return nil, fmt.Errorf("failed to encode schedule: %w", err)
	}

	difficulty := ai.NormalizeDifficulty(generated.Difficulty)
	plan := &types.StudyPlan{
		ID:              uuid.New(),
		UserID:          userID,
		Subject:         subject,
		Topic:           topic,
		Schedule:        datatypes.JSON(blob),
		DurationMinutes: ai.ParseDurationMinutes(generated.TotalDuration, defaultPlanMinutes),
		Difficulty:      difficulty,
		TargetDate:      &targetDate,
		Status:          "active",
	}

	modules := make([]*types.LearningModule, 0, len(generated.Schedule))
	for i, item := range generated.Schedule {
		title := item.Topic
		if title == "" {
			title = fmt.Sprintf("Day %d", i+1)
		}
		moduleType := "core"
		if i == 0 {
			moduleType = "intro"
		} else if i == len(generated.Schedule)-1 {
			moduleType = "summary"
		}
		modules = append(modules, &types.LearningModule{
			ID:              uuid.New(),
			PlanID:          plan.ID,
			Title:           title,
			Content:         "",
			Position:        i + 1,
			DurationMinutes: ai.ParseDurationMinutes(item.Duration, defaultModuleMinutes),
			Difficulty:      difficulty,
			ModuleType:      moduleType,
		})
	}
	if materialQuiz != nil && len(modules) > 0 {
		quizJSON, err := json.Marshal(materialQuiz)
		if err != nil {
			return nil, fmt.Errorf("failed to encode material quiz: %w", err)
		}
		modules[len(modules)-1].QuizData = datatypes.JSON(quizJSON)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.planRepo.Create(ctx, tx, []*types.StudyPlan{plan}); err != nil {
			return fmt.Errorf("failed to create plan: %w", err)
		}
		if err := s.moduleRepo.Create(ctx, tx, modules); err != nil {
			return fmt.Errorf("failed to create modules: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Study plan created", "userID", userID, "planID", plan.ID, "modules", len(modules))
	return &PlanDetail{StudyPlan: plan, Modules: modules, TotalModules: int64(len(modules))}, nil
}

func (s *planService) ListPlans(ctx context.Context) ([]*PlanWithProgress, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	plans, err := s.planRepo.GetActiveByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	out := make([]*PlanWithProgress, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	for i, plan := range plans {
		g.Go(func() error {
			total, completed, err := s.planProgress(gctx, rd.UserID, plan.ID)
			if err != nil {
				return err
			}
			entry := &PlanWithProgress{StudyPlan: plan, TotalModules: total, CompletedModules: completed}
			if total > 0 {
				entry.Progress = float64(completed) / float64(total) * 100
			}
			out[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *planService) planProgress(ctx context.Context, userID, planID uuid.UUID) (total, completed int64, err error) {
	total, err = s.moduleRepo.CountByPlanID(ctx, nil, planID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count modules: %w", err)
	}
	completed, err = s.quizRepo.CountDistinctModulesByPlanID(ctx, nil, userID, planID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count completed modules: %w", err)
	}
	return total, completed, nil
}

func (s *planService) GetPlan(ctx context.Context, planID uuid.UUID) (*PlanDetail, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	plan, err := s.ownedPlan(ctx, rd.UserID, planID)
	if err != nil {
		return nil, err
	}
	modules, err := s.moduleRepo.GetByPlanID(ctx, nil, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load modules: %w", err)
	}
	total, completed, err := s.planProgress(ctx, rd.UserID, planID)
	if err != nil {
		return nil, err
	}
	detail := &PlanDetail{StudyPlan: plan, Modules: modules, TotalModules: total, CompletedModules: completed}
	if total > 0 {
		detail.Progress = float64(completed) / float64(total) * 100
	}
	return detail, nil
}

func (s *planService) UpdateTargetDate(ctx context.Context, planID uuid.UUID, targetDate time.Time) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return ErrUnauthorized
	}
	if _, err := s.ownedPlan(ctx, rd.UserID, planID); err != nil {
		return err
	}
	return s.planRepo.UpdateTargetDate(ctx, nil, planID, targetDate)
}

// FixTargetDates backfills target dates for plans created before the field
// existed, deriving the span from the stored schedule.
func (s *planService) FixTargetDates(ctx context.Context) (int, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return 0, ErrUnauthorized
	}
	plans, err := s.planRepo.GetActiveByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to list plans: %w", err)
	}
	fixed := 0
	for _, plan := range plans {
		if plan.TargetDate != nil {
			continue
		}
		days := scheduleDays(plan.Schedule)
		if days <= 0 {
			days = defaultTargetDays
		}
		target := plan.CreatedAt.AddDate(0, 0, days)
		if err := s.planRepo.UpdateTargetDate(ctx, nil, plan.ID, target); err != nil {
			return fixed, fmt.Errorf("failed to update target date: %w", err)
		}
		fixed++
	}
	return fixed, nil
}

func scheduleDays(blob datatypes.JSON) int {
	if len(blob) == 0 {
		return 0
	}
	var parsed planScheduleBlob
	if err := json.Unmarshal(blob, &parsed); err != nil {
		return 0
	}
	days := len(parsed.Schedule)
	for _, item := range parsed.Schedule {
		if item.Day > days {
			days = item.Day
		}
	}
	return days
}

// DeletePlan removes the plan and everything hanging off it in one
// transaction. Progress records keep their history with plan_id nulled by
// the FK.
func (s *planService) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return ErrUnauthorized
	}
	if _, err := s.ownedPlan(ctx, rd.UserID, planID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.quizRepo.FullDeleteByPlanID(ctx, tx, planID); err != nil {
			return fmt.Errorf("failed to delete quiz results: %w", err)
		}
		if err := s.moduleRepo.FullDeleteByPlanID(ctx, tx, planID); err != nil {
			return fmt.Errorf("failed to delete modules: %w", err)
		}
		if err := s.planRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{planID}); err != nil {
			return fmt.Errorf("failed to delete plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("Study plan deleted", "userID", rd.UserID, "planID", planID)
	return nil
}

func (s *planService) ownedPlan(ctx context.Context, userID, planID uuid.UUID) (*types.StudyPlan, error) {
	plans, err := s.planRepo.GetByIDs(ctx, nil, []uuid.UUID{planID})
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: plan", ErrNotFound)
	}
	if plans[0].UserID != userID {
		return nil, fmt.Errorf("%w: plan belongs to another user", ErrForbidden)
	}
	return plans[0], nil
}

func (s *planService) requirePersona(ctx context.Context, userID uuid.UUID) (*types.LearningPersona, error) {
	persona, err := s.personaRepo.GetLatestByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonaMissing
		}
		return nil, fmt.Errorf("failed to load persona: %w", err)
	}
	return persona, nil
}
