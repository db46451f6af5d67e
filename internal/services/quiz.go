package services

import (
	"context"
	"encoding/json"
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
	passThresholdPct   = 70
	hardThresholdPct   = 85
	mediumThresholdPct = 60
	reviewQueueResults = 50
	maxExplainedWrong  = 3

	fallbackExplanation = "Take another look at this part of the lesson and try the question again."
)

type QuizAnswer struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
	Explanation   string `json:"explanation,omitempty"`
}

type SubmitQuizRequest struct {
	ModuleID         uuid.UUID    `json:"module_id"`
	Score            int          `json:"score"`
	TotalQuestions   int          `json:"total_questions"`
	TimeTakenSeconds int          `json:"time_taken_seconds"`
	Answers          []QuizAnswer `json:"answers"`
}

type QuizSubmission struct {
	Result        *types.QuizResult `json:"result"`
	Percentage    int               `json:"percentage"`
	Passed        bool              `json:"passed"`
	NewDifficulty string            `json:"new_difficulty"`
	Answers       []QuizAnswer      `json:"answers"`
}

type ReviewItem struct {
	ModuleID      uuid.UUID `json:"module_id"`
	ModuleTitle   string    `json:"module_title"`
	Question      string    `json:"question"`
	UserAnswer    string    `json:"user_answer"`
	CorrectAnswer string    `json:"correct_answer"`
	Explanation   string    `json:"explanation,omitempty"`
	AnsweredAt    time.Time `json:"answered_at"`
}

type QuizService interface {
	SubmitResult(ctx context.Context, req SubmitQuizRequest) (*QuizSubmission, error)
	ReviewQueue(ctx context.Context) ([]ReviewItem, error)
	GetResults(ctx context.Context, limit int) ([]*types.QuizResult, error)
}

type quizService struct {
	db         *gorm.DB
	log        *logger.Logger
	agent      StudyAgent
	quizRepo   repos.QuizResultRepo
	moduleRepo repos.LearningModuleRepo
	planRepo   repos.StudyPlanRepo
	progRepo   repos.ProgressRecordRepo
}

func NewQuizService(
	db *gorm.DB,
	log *logger.Logger,
	agent StudyAgent,
	quizRepo repos.QuizResultRepo,
	moduleRepo repos.LearningModuleRepo,
	planRepo repos.StudyPlanRepo,
	progRepo repos.ProgressRecordRepo,
) QuizService {
	return &quizService{
		db:         db,
		log:        log.With("service", "QuizService"),
		agent:      agent,
		quizRepo:   quizRepo,
		moduleRepo: moduleRepo,
		planRepo:   planRepo,
		progRepo:   progRepo,
	}
}

// SubmitResult stores the result, logs a progress record, and retargets
// the remaining modules' difficulty, all in one transaction so a failure
// cannot leave the plan half-adapted.
func (s *quizService) SubmitResult(ctx context.Context, req SubmitQuizRequest) (*QuizSubmission, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	if req.TotalQuestions <= 0 {
		return nil, fmt.Errorf("%w: total_questions must be positive", ErrInvalidInput)
	}
	if req.Score < 0 || req.Score > req.TotalQuestions {
		return nil, fmt.Errorf("%w: score must be between 0 and total_questions", ErrInvalidInput)
	}

	modules, err := s.moduleRepo.GetByIDs(ctx, nil, []uuid.UUID{req.ModuleID})
	if err != nil {
		return nil, fmt.Errorf("failed to load module: %w", err)
	}
	if len(modules) == 0 {
		return nil, fmt.Errorf("%w: module", ErrNotFound)
	}
	module := modules[0]
	plans, err := s.planRepo.GetByIDs(ctx, nil, []uuid.UUID{module.PlanID})
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: plan", ErrNotFound)
	}
	if plans[0].UserID != rd.UserID {
		return nil, fmt.Errorf("%w: module belongs to another user", ErrForbidden)
	}

	percentage := req.Score * 100 / req.TotalQuestions
	answers := s.explainMistakes(ctx, req.Answers)

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}
	result := &types.QuizResult{
		ID:               uuid.New(),
		UserID:           rd.UserID,
		ModuleID:         module.ID,
		Score:            req.Score,
		TotalQuestions:   req.TotalQuestions,
		Answers:          datatypes.JSON(answersJSON),
		TimeTakenSeconds: req.TimeTakenSeconds,
	}

	passed := percentage >= passThresholdPct
	focus, mood := 5, "neutral"
	if passed {
		focus, mood = 8, "happy"
	}
	record := &types.ProgressRecord{
		ID:              uuid.New(),
		UserID:          rd.UserID,
		PlanID:          &module.PlanID,
		Date:            time.Now(),
		DurationMinutes: req.TimeTakenSeconds / 60,
		Topic:           module.Title,
		FocusScore:      focus,
		Mood:            mood,
		Notes:           fmt.Sprintf("Quiz: %d/%d (%d%%)", req.Score, req.TotalQuestions, percentage),
	}

	newDifficulty := difficultyForScore(percentage)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.quizRepo.Create(ctx, tx, []*types.QuizResult{result}); err != nil {
			return fmt.Errorf("failed to store quiz result: %w", err)
		}
		if err := s.progRepo.Create(ctx, tx, []*types.ProgressRecord{record}); err != nil {
			return fmt.Errorf("failed to store progress record: %w", err)
		}
		if err := s.moduleRepo.UpdateDifficultyAfterPosition(ctx, tx, module.PlanID, module.Position, newDifficulty); err != nil {
			return fmt.Errorf("failed to adapt difficulty: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Quiz result submitted",
		"userID", rd.UserID, "moduleID", module.ID, "percentage", percentage, "newDifficulty", newDifficulty)
	return &QuizSubmission{
		Result:        result,
		Percentage:    percentage,
		Passed:        passed,
		NewDifficulty: newDifficulty,
		Answers:       answers,
	}, nil
}

func difficultyForScore(percentage int) string {
	switch {
	case percentage >= hardThresholdPct:
		return "hard"
	case percentage >= mediumThresholdPct:
		return "medium"
	default:
		return "easy"
	}
}

// explainMistakes fills explanations for wrong answers. Generation
// failures fall back to a stock message; a submission never fails because
// the tutor was unavailable.
func (s *quizService) explainMistakes(ctx context.Context, answers []QuizAnswer) []QuizAnswer {
	explained := 0
	out := make([]QuizAnswer, len(answers))
	for i, a := range answers {
		out[i] = a
		if a.IsCorrect || a.Explanation != "" {
			continue
		}
		if explained >= maxExplainedWrong {
			out[i].Explanation = fallbackExplanation
			continue
		}
		explanation, err := s.agent.ExplainMistake(ctx, a.Question, a.UserAnswer, a.CorrectAnswer)
		if err != nil {
			s.log.Warn("Mistake explanation failed, using fallback", "error", err)
			out[i].Explanation = fallbackExplanation
			continue
		}
		out[i].Explanation = explanation
		explained++
	}
	return out
}

// ReviewQueue flattens wrong answers from the latest results so the
// learner can re-drill them.
func (s *quizService) ReviewQueue(ctx context.Context) ([]ReviewItem, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	results, err := s.quizRepo.GetRecentByUserID(ctx, nil, rd.UserID, reviewQueueResults)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz results: %w", err)
	}
	items := make([]ReviewItem, 0)
	for _, result := range results {
		if len(result.Answers) == 0 {
			continue
		}
		var answers []QuizAnswer
		if err := json.Unmarshal(result.Answers, &answers); err != nil {
			continue
		}
		title := ""
		if result.Module != nil {
			title = result.Module.Title
		}
		for _, a := range answers {
			if a.IsCorrect {
				continue
			}
			items = append(items, ReviewItem{
				ModuleID:      result.ModuleID,
				ModuleTitle:   title,
				Question:      a.Question,
				UserAnswer:    a.UserAnswer,
				CorrectAnswer: a.CorrectAnswer,
				Explanation:   a.Explanation,
				AnsweredAt:    result.CreatedAt,
			})
		}
	}
	return items, nil
}

func (s *quizService) GetResults(ctx context.Context, limit int) ([]*types.QuizResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	results, err := s.quizRepo.GetRecentByUserID(ctx, nil, rd.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load quiz results: %w", err)
	}
	return results, nil
}
