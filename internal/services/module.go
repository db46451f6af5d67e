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

const defaultModuleQuizSize = 5

// GeneratedModule is a module with its decoded quiz. Cached reports
// whether the content came from storage instead of a fresh generation.
type GeneratedModule struct {
	Module *types.LearningModule `json:"module"`
	Quiz   *ai.QuizPayload       `json:"quiz,omitempty"`
	Cached bool                  `json:"cached"`
}

type ModuleService interface {
	GenerateContent(ctx context.Context, planID uuid.UUID, position int) (*GeneratedModule, error)
	GetModule(ctx context.Context, moduleID uuid.UUID) (*GeneratedModule, error)
	DeleteModule(ctx context.Context, moduleID uuid.UUID) error
}

type moduleService struct {
	db          *gorm.DB
	log         *logger.Logger
	agent       StudyAgent
	planRepo    repos.StudyPlanRepo
	moduleRepo  repos.LearningModuleRepo
	personaRepo repos.LearningPersonaRepo
	quizRepo    repos.QuizResultRepo
}

func NewModuleService(
	db *gorm.DB,
	log *logger.Logger,
	agent StudyAgent,
	planRepo repos.StudyPlanRepo,
	moduleRepo repos.LearningModuleRepo,
	personaRepo repos.LearningPersonaRepo,
	quizRepo repos.QuizResultRepo,
) ModuleService {
	return &moduleService{
		db:          db,
		log:         log.With("service", "ModuleService"),
		agent:       agent,
		planRepo:    planRepo,
		moduleRepo:  moduleRepo,
		personaRepo: personaRepo,
		quizRepo:    quizRepo,
	}
}

// GenerateContent fills a placeholder module on first open. A module that
// already has content is returned as-is without touching the model, so
// repeat opens cost nothing.
func (s *moduleService) GenerateContent(ctx context.Context, planID uuid.UUID, position int) (*GeneratedModule, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	plan, err := s.ownedPlan(ctx, rd.UserID, planID)
	if err != nil {
		return nil, err
	}
	module, err := s.moduleRepo.GetByPlanAndPosition(ctx, nil, planID, position)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: module", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load module: %w", err)
	}

	if module.Content != "" {
		return &GeneratedModule{Module: module, Quiz: decodeStoredQuiz(module.QuizData), Cached: true}, nil
	}

	persona, err := s.personaRepo.GetLatestByUserID(ctx, nil, rd.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonaMissing
		}
		return nil, fmt.Errorf("failed to load persona: %w", err)
	}
	total, err := s.moduleRepo.CountByPlanID(ctx, nil, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to count modules: %w", err)
	}

	content, err := s.agent.GenerateModuleContent(ctx, persona, plan, module, int(total))
	if err != nil {
		return nil, err
	}
	quiz, err := s.agent.GenerateQuiz(ctx, module.Title, content, module.Difficulty, defaultModuleQuizSize)
	if err != nil {
		return nil, err
	}
	quizJSON, err := json.Marshal(quiz)
	if err != nil {
		return nil, fmt.Errorf("failed to encode quiz: %w", err)
	}
	if err := s.moduleRepo.SetGeneratedContent(ctx, nil, module.ID, content, datatypes.JSON(quizJSON)); err != nil {
		return nil, fmt.Errorf("failed to store generated content: %w", err)
	}
	module.Content = content
	module.QuizData = datatypes.JSON(quizJSON)
	s.log.Info("Module content generated", "planID", planID, "moduleID", module.ID, "position", position)
	return &GeneratedModule{Module: module, Quiz: quiz, Cached: false}, nil
}

func decodeStoredQuiz(blob datatypes.JSON) *ai.QuizPayload {
	if len(blob) == 0 {
		return nil
	}
	var quiz ai.QuizPayload
	if err := json.Unmarshal(blob, &quiz); err != nil {
		return nil
	}
	return &quiz
}

func (s *moduleService) GetModule(ctx context.Context, moduleID uuid.UUID) (*GeneratedModule, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	module, err := s.ownedModule(ctx, rd.UserID, moduleID)
	if err != nil {
		return nil, err
	}
	return &GeneratedModule{Module: module, Quiz: decodeStoredQuiz(module.QuizData), Cached: module.Content != ""}, nil
}

func (s *moduleService) DeleteModule(ctx context.Context, moduleID uuid.UUID) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return ErrUnauthorized
	}
	module, err := s.ownedModule(ctx, rd.UserID, moduleID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.quizRepo.FullDeleteByModuleIDs(ctx, tx, []uuid.UUID{module.ID}); err != nil {
			return fmt.Errorf("failed to delete quiz results: %w", err)
		}
		if err := s.moduleRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{module.ID}); err != nil {
			return fmt.Errorf("failed to delete module: %w", err)
		}
		return nil
	})
}

func (s *moduleService) ownedModule(ctx context.Context, userID, moduleID uuid.UUID) (*types.LearningModule, error) {
	modules, err := s.moduleRepo.GetByIDs(ctx, nil, []uuid.UUID{moduleID})
	if err != nil {
		return nil, fmt.Errorf("failed to load module: %w", err)
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("%w: module", ErrNotFound)
	}
	module := modules[0]
	if _, err := s.ownedPlan(ctx, userID, module.PlanID); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *moduleService) ownedPlan(ctx context.Context, userID, planID uuid.UUID) (*types.StudyPlan, error) {
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
