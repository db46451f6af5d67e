package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/repos"
	"github.com/studyflow/backend/internal/requestdata"
	"github.com/studyflow/backend/internal/types"
)

const (
	progressWindowDays  = 30
	progressRecordLimit = 30
	minRecordsForInsight = 3
)

type ProgressOverview struct {
	Records []*types.ProgressRecord `json:"records"`
	Stats   *repos.ProgressStats    `json:"stats"`
}

type SaveProgressRequest struct {
	PlanID          *uuid.UUID      `json:"plan_id,omitempty"`
	Date            *time.Time      `json:"date,omitempty"`
	DurationMinutes int             `json:"duration_minutes"`
	Topic           string          `json:"topic"`
	Evaluation      json.RawMessage `json:"evaluation,omitempty"`
	FocusScore      int             `json:"focus_score"`
	Mood            string          `json:"mood"`
	Notes           string          `json:"notes"`
}

type AnalyticsService interface {
	GetProgress(ctx context.Context) (*ProgressOverview, error)
	SaveProgress(ctx context.Context, req SaveProgressRequest) (*types.ProgressRecord, error)
	GenerateInsights(ctx context.Context) ([]*types.Insight, error)
	GetUnreadInsights(ctx context.Context) ([]*types.Insight, error)
	MarkInsightRead(ctx context.Context, insightID uuid.UUID) error
	Motivation(ctx context.Context) (string, error)
}

type analyticsService struct {
	db          *gorm.DB
	log         *logger.Logger
	agent       StudyAgent
	progRepo    repos.ProgressRecordRepo
	insightRepo repos.InsightRepo
	personaRepo repos.LearningPersonaRepo
	userRepo    repos.UserRepo
}

func NewAnalyticsService(
	db *gorm.DB,
	log *logger.Logger,
	agent StudyAgent,
	progRepo repos.ProgressRecordRepo,
	insightRepo repos.InsightRepo,
	personaRepo repos.LearningPersonaRepo,
	userRepo repos.UserRepo,
) AnalyticsService {
	return &analyticsService{
		db:          db,
		log:         log.With("service", "AnalyticsService"),
		agent:       agent,
		progRepo:    progRepo,
		insightRepo: insightRepo,
		personaRepo: personaRepo,
		userRepo:    userRepo,
	}
}

func (s *analyticsService) GetProgress(ctx context.Context) (*ProgressOverview, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	records, err := s.progRepo.GetRecentByUserID(ctx, nil, rd.UserID, progressRecordLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress records: %w", err)
	}
	since := time.Now().AddDate(0, 0, -progressWindowDays)
	stats, err := s.progRepo.GetStatsSince(ctx, nil, rd.UserID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return &ProgressOverview{Records: records, Stats: stats}, nil
}

func (s *analyticsService) SaveProgress(ctx context.Context, req SaveProgressRequest) (*types.ProgressRecord, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidInput)
	}
	date := time.Now()
	if req.Date != nil {
		date = *req.Date
	}
	record := &types.ProgressRecord{
		ID:              uuid.New(),
		UserID:          rd.UserID,
		PlanID:          req.PlanID,
		Date:            date,
		DurationMinutes: req.DurationMinutes,
		Topic:           req.Topic,
		FocusScore:      req.FocusScore,
		Mood:            req.Mood,
		Notes:           req.Notes,
	}
	if len(req.Evaluation) > 0 {
		record.Evaluation = datatypes.JSON(req.Evaluation)
	}
	if err := s.progRepo.Create(ctx, nil, []*types.ProgressRecord{record}); err != nil {
		return nil, fmt.Errorf("failed to save progress record: %w", err)
	}
	return record, nil
}

// GenerateInsights needs a few records to say anything useful; below the
// floor it fails fast instead of asking the model to speculate.
func (s *analyticsService) GenerateInsights(ctx context.Context) ([]*types.Insight, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	persona, err := s.personaRepo.GetLatestByUserID(ctx, nil, rd.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonaMissing
		}
		return nil, fmt.Errorf("failed to load persona: %w", err)
	}
	count, err := s.progRepo.CountByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to count progress records: %w", err)
	}
	if count < minRecordsForInsight {
		return nil, fmt.Errorf("%w: need at least %d study records", ErrInsufficientData, minRecordsForInsight)
	}
	records, err := s.progRepo.GetRecentByUserID(ctx, nil, rd.UserID, progressRecordLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress records: %w", err)
	}
	drafts, err := s.agent.AnalyzeProgress(ctx, persona, records)
	if err != nil {
		return nil, err
	}
	insights := make([]*types.Insight, 0, len(drafts))
	for _, d := range drafts {
		data, err := json.Marshal(map[string]string{"action": d.Action})
		if err != nil {
			return nil, fmt.Errorf("failed to encode insight data: %w", err)
		}
		insights = append(insights, &types.Insight{
			ID:          uuid.New(),
			UserID:      rd.UserID,
			InsightType: d.Type,
			Title:       d.Title,
			Description: d.Description,
			Data:        datatypes.JSON(data),
			Priority:    d.Priority,
		})
	}
	if err := s.insightRepo.Create(ctx, nil, insights); err != nil {
		return nil, fmt.Errorf("failed to save insights: %w", err)
	}
	s.log.Info("Insights generated", "userID", rd.UserID, "count", len(insights))
	return insights, nil
}

// Motivation produces a short personalized encouragement. It works without
// a persona; the agent falls back to a generic profile line.
func (s *analyticsService) Motivation(ctx context.Context) (string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return "", ErrUnauthorized
	}
	users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) == 0 {
		return "", fmt.Errorf("%w: user", ErrNotFound)
	}
	persona, err := s.personaRepo.GetLatestByUserID(ctx, nil, rd.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("failed to load persona: %w", err)
		}
		persona = nil
	}
	return s.agent.GenerateMotivation(ctx, persona, users[0].Name)
}

func (s *analyticsService) GetUnreadInsights(ctx context.Context) ([]*types.Insight, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	return s.insightRepo.GetUnreadByUserID(ctx, nil, rd.UserID)
}

func (s *analyticsService) MarkInsightRead(ctx context.Context, insightID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return ErrUnauthorized
	}
	affected, err := s.insightRepo.MarkRead(ctx, nil, rd.UserID, insightID)
	if err != nil {
		return fmt.Errorf("failed to mark insight read: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: insight", ErrNotFound)
	}
	return nil
}
