package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/repos"
	"github.com/studyflow/backend/internal/requestdata"
	"github.com/studyflow/backend/internal/types"
)

// SessionResult reports a started or resumed session. Resumed is true
// when an unfinished session for the plan was picked up instead of
// creating a second one.
type SessionResult struct {
	Session *types.LearningSession `json:"session"`
	Resumed bool                   `json:"resumed"`
}

type SessionSummary struct {
	Session         *types.LearningSession `json:"session"`
	DurationMinutes int                    `json:"duration_minutes"`
	Summary         string                 `json:"summary"`
}

type SessionService interface {
	StartSession(ctx context.Context, planID uuid.UUID) (*SessionResult, error)
	EndSession(ctx context.Context, sessionID uuid.UUID, pomodoroCount int) (*SessionSummary, error)
	ActiveSession(ctx context.Context) (*types.LearningSession, error)
}

type sessionService struct {
	db          *gorm.DB
	log         *logger.Logger
	sessionRepo repos.LearningSessionRepo
	planRepo    repos.StudyPlanRepo
	moduleRepo  repos.LearningModuleRepo
}

func NewSessionService(
	db *gorm.DB,
	log *logger.Logger,
	sessionRepo repos.LearningSessionRepo,
	planRepo repos.StudyPlanRepo,
	moduleRepo repos.LearningModuleRepo,
) SessionService {
	return &sessionService{
		db:          db,
		log:         log.With("service", "SessionService"),
		sessionRepo: sessionRepo,
		planRepo:    planRepo,
		moduleRepo:  moduleRepo,
	}
}

func (s *sessionService) StartSession(ctx context.Context, planID uuid.UUID) (*SessionResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	plans, err := s.planRepo.GetByIDs(ctx, nil, []uuid.UUID{planID})
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: plan", ErrNotFound)
	}
	if plans[0].UserID != rd.UserID {
		return nil, fmt.Errorf("%w: plan belongs to another user", ErrForbidden)
	}

	existing, err := s.sessionRepo.GetActiveByUserAndPlan(ctx, nil, rd.UserID, planID)
	if err == nil {
		return &SessionResult{Session: existing, Resumed: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check active session: %w", err)
	}

	session := &types.LearningSession{
		ID:        uuid.New(),
		UserID:    rd.UserID,
		PlanID:    planID,
		StartTime: time.Now(),
	}
	if err := s.sessionRepo.Create(ctx, nil, []*types.LearningSession{session}); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.log.Info("Study session started", "userID", rd.UserID, "planID", planID, "sessionID", session.ID)
	return &SessionResult{Session: session}, nil
}

func (s *sessionService) EndSession(ctx context.Context, sessionID uuid.UUID, pomodoroCount int) (*SessionSummary, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	sessions, err := s.sessionRepo.GetByIDs(ctx, nil, []uuid.UUID{sessionID})
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if len(sessions) == 0 {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	session := sessions[0]
	if session.UserID != rd.UserID {
		return nil, fmt.Errorf("%w: session belongs to another user", ErrForbidden)
	}
	if session.Completed {
		return nil, fmt.Errorf("%w: session is already completed", ErrInvalidInput)
	}

	endTime := time.Now()
	duration := int(endTime.Sub(session.StartTime).Minutes())
	if duration < 1 {
		duration = 1
	}
	if err := s.sessionRepo.Complete(ctx, nil, session.ID, endTime, duration, pomodoroCount); err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}
	session.EndTime = &endTime
	session.DurationMinutes = duration
	session.PomodoroCount = pomodoroCount
	session.Completed = true

	summary := fmt.Sprintf("You studied for %d minutes", duration)
	if pomodoroCount > 0 {
		summary += fmt.Sprintf(" across %d pomodoros", pomodoroCount)
	}
	summary += "."
	if next := s.nextUnopenedModule(ctx, session.PlanID); next != "" {
		summary += fmt.Sprintf(" Next up: %s.", next)
	}
	return &SessionSummary{Session: session, DurationMinutes: duration, Summary: summary}, nil
}

func (s *sessionService) nextUnopenedModule(ctx context.Context, planID uuid.UUID) string {
	modules, err := s.moduleRepo.GetByPlanID(ctx, nil, planID)
	if err != nil {
		return ""
	}
	for _, m := range modules {
		if m.Content == "" {
			return m.Title
		}
	}
	return ""
}

// ActiveSession returns nil without error when no session is open.
func (s *sessionService) ActiveSession(ctx context.Context) (*types.LearningSession, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	session, err := s.sessionRepo.GetActiveByUserID(ctx, nil, rd.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}
	return session, nil
}
