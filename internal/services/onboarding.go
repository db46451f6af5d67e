package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/studyflow/backend/internal/ai"
	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/repos"
	"github.com/studyflow/backend/internal/requestdata"
	"github.com/studyflow/backend/internal/types"
)

const defaultSessionMinutes = 25

// OnboardingAnswer accepts both plain string answers and structured ones;
// structured answers are stored as their JSON text.
type OnboardingAnswer struct {
	QuestionID string          `json:"question_id"`
	Answer     json.RawMessage `json:"answer"`
}

type OnboardingStatus struct {
	Completed     bool `json:"completed"`
	ResponseCount int  `json:"response_count"`
	HasPersona    bool `json:"has_persona"`
}

type OnboardingService interface {
	SaveResponses(ctx context.Context, answers []OnboardingAnswer) error
	GeneratePersona(ctx context.Context) (*types.LearningPersona, error)
	RefreshPersona(ctx context.Context) (*types.LearningPersona, error)
	GetPersona(ctx context.Context) (*types.LearningPersona, error)
	Status(ctx context.Context) (*OnboardingStatus, error)
}

type onboardingService struct {
	db           *gorm.DB
	log          *logger.Logger
	agent        StudyAgent
	responseRepo repos.OnboardingResponseRepo
	personaRepo  repos.LearningPersonaRepo
	userRepo     repos.UserRepo
	progRepo     repos.ProgressRecordRepo
}

func NewOnboardingService(
	db *gorm.DB,
	log *logger.Logger,
	agent StudyAgent,
	responseRepo repos.OnboardingResponseRepo,
	personaRepo repos.LearningPersonaRepo,
	userRepo repos.UserRepo,
	progRepo repos.ProgressRecordRepo,
) OnboardingService {
	return &onboardingService{
		db:           db,
		log:          log.With("service", "OnboardingService"),
		agent:        agent,
		responseRepo: responseRepo,
		personaRepo:  personaRepo,
		userRepo:     userRepo,
		progRepo:     progRepo,
	}
}

// SaveResponses replaces the user's answers wholesale. Re-running
// onboarding starts from a clean slate rather than merging.
func (s *onboardingService) SaveResponses(ctx context.Context, answers []OnboardingAnswer) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return ErrUnauthorized
	}
	if len(answers) == 0 {
		return fmt.Errorf("%w: responses are required", ErrInvalidInput)
	}
	rows := make([]*types.OnboardingResponse, 0, len(answers))
	for _, a := range answers {
		if a.QuestionID == "" {
			return fmt.Errorf("%w: question_id is required on every response", ErrInvalidInput)
		}
		rows = append(rows, &types.OnboardingResponse{
			ID:         uuid.New(),
			UserID:     rd.UserID,
			QuestionID: a.QuestionID,
			Answer:     answerText(a.Answer),
		})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.responseRepo.FullDeleteByUserID(ctx, tx, rd.UserID); err != nil {
			return fmt.Errorf("failed to clear previous responses: %w", err)
		}
		if err := s.responseRepo.Create(ctx, tx, rows); err != nil {
			return fmt.Errorf("failed to save responses: %w", err)
		}
		return nil
	})
}

func answerText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (s *onboardingService) GeneratePersona(ctx context.Context) (*types.LearningPersona, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	responses, err := s.responseRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: complete the onboarding questions first", ErrInvalidInput)
	}
	analysis, err := s.agent.AnalyzeLearningStyle(ctx, responses)
	if err != nil {
		return nil, err
	}
	persona := &types.LearningPersona{
		ID:              uuid.New(),
		UserID:          rd.UserID,
		LearningStyle:   analysis.LearningStyle,
		FocusLevel:      analysis.FocusLevel,
		TimePreference:  analysis.TimePreference,
		SessionDuration: ai.ParseDurationMinutes(analysis.SessionDuration, defaultSessionMinutes),
		DetailLevel:     analysis.DetailLevel,
		MotivationType:  analysis.MotivationType,
		LearningPace:    analysis.LearningPace,
		RawAnalysis:     datatypes.JSON(analysis.Raw),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.personaRepo.Create(ctx, tx, []*types.LearningPersona{persona}); err != nil {
			return fmt.Errorf("failed to save persona: %w", err)
		}
		if err := s.userRepo.SetOnboardingCompleted(ctx, tx, rd.UserID, true); err != nil {
			return fmt.Errorf("failed to mark onboarding complete: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Persona generated", "userID", rd.UserID, "style", persona.LearningStyle)
	return persona, nil
}

// RefreshPersona re-runs the profile analysis against recent study records.
// The new persona is appended; GetLatestByUserID makes it the active one.
func (s *onboardingService) RefreshPersona(ctx context.Context) (*types.LearningPersona, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	current, err := s.personaRepo.GetLatestByUserID(ctx, nil, rd.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonaMissing
		}
		return nil, fmt.Errorf("failed to load persona: %w", err)
	}
	records, err := s.progRepo.GetRecentByUserID(ctx, nil, rd.UserID, 30)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress records: %w", err)
	}
	if len(records) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 study records to refresh the profile", ErrInsufficientData)
	}
	analysis, err := s.agent.SuggestPersonaUpdate(ctx, current, records)
	if err != nil {
		return nil, err
	}
	persona := &types.LearningPersona{
		ID:              uuid.New(),
		UserID:          rd.UserID,
		LearningStyle:   analysis.LearningStyle,
		FocusLevel:      analysis.FocusLevel,
		TimePreference:  analysis.TimePreference,
		SessionDuration: ai.ParseDurationMinutes(analysis.SessionDuration, current.SessionDuration),
		DetailLevel:     analysis.DetailLevel,
		MotivationType:  analysis.MotivationType,
		LearningPace:    analysis.LearningPace,
		RawAnalysis:     datatypes.JSON(analysis.Raw),
	}
	if err := s.personaRepo.Create(ctx, nil, []*types.LearningPersona{persona}); err != nil {
		return nil, fmt.Errorf("failed to save refreshed persona: %w", err)
	}
	s.log.Info("Persona refreshed", "userID", rd.UserID, "style", persona.LearningStyle)
	return persona, nil
}

func (s *onboardingService) GetPersona(ctx context.Context) (*types.LearningPersona, error) {
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
	return persona, nil
}

func (s *onboardingService) Status(ctx context.Context) (*OnboardingStatus, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	responses, err := s.responseRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}
	status := &OnboardingStatus{ResponseCount: len(responses)}
	if _, err := s.personaRepo.GetLatestByUserID(ctx, nil, rd.UserID); err == nil {
		status.HasPersona = true
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check persona: %w", err)
	}
	users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if len(users) > 0 {
		status.Completed = users[0].OnboardingCompleted
	}
	return status, nil
}
