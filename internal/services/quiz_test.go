package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/studyflow/backend/internal/repos"
	"github.com/studyflow/backend/internal/types"
)

func newQuizServiceForTest(t *testing.T) (QuizService, *fakeAgent, *testFixture) {
	t.Helper()
	fx := newFixture(t)
	agent := newFakeAgent()
	svc := NewQuizService(fx.db, fx.log, agent,
		repos.NewQuizResultRepo(fx.db, fx.log),
		repos.NewLearningModuleRepo(fx.db, fx.log),
		repos.NewStudyPlanRepo(fx.db, fx.log),
		repos.NewProgressRecordRepo(fx.db, fx.log),
	)
	return svc, agent, fx
}

func TestSubmitResultAdaptsLaterModules(t *testing.T) {
	tests := []struct {
		name           string
		score          int
		total          int
		wantDifficulty string
		wantPassed     bool
		wantMood       string
	}{
		{name: "high score raises difficulty", score: 9, total: 10, wantDifficulty: "hard", wantPassed: true, wantMood: "happy"},
		{name: "mid score keeps medium", score: 7, total: 10, wantDifficulty: "medium", wantPassed: true, wantMood: "happy"},
		{name: "low score lowers difficulty", score: 3, total: 10, wantDifficulty: "easy", wantPassed: false, wantMood: "neutral"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, fx := newQuizServiceForTest(t)
			user := seedUser(t, fx.db)
			plan, modules := seedPlan(t, fx.db, user.ID, "Intro", "Bubble sort", "Merge sort", "Quick sort")

			sub, err := svc.SubmitResult(ctxForUser(user.ID), SubmitQuizRequest{
				ModuleID:         modules[1].ID,
				Score:            tt.score,
				TotalQuestions:   tt.total,
				TimeTakenSeconds: 300,
			})
			if err != nil {
				t.Fatalf("submit: %v", err)
			}
			if sub.NewDifficulty != tt.wantDifficulty {
				t.Fatalf("new difficulty: want=%s got=%s", tt.wantDifficulty, sub.NewDifficulty)
			}
			if sub.Passed != tt.wantPassed {
				t.Fatalf("passed: want=%v got=%v", tt.wantPassed, sub.Passed)
			}

			var got []*types.LearningModule
			if err := fx.db.Where("plan_id = ?", plan.ID).Order("position ASC").Find(&got).Error; err != nil {
				t.Fatalf("failed to load modules: %v", err)
			}
			for _, m := range got {
				want := "medium"
				if m.Position > modules[1].Position {
					want = tt.wantDifficulty
				}
				if m.Difficulty != want {
					t.Fatalf("module at position %d: want=%s got=%s", m.Position, want, m.Difficulty)
				}
			}

			var record types.ProgressRecord
			if err := fx.db.Where("user_id = ?", user.ID).First(&record).Error; err != nil {
				t.Fatalf("progress record not created: %v", err)
			}
			if record.Mood != tt.wantMood {
				t.Fatalf("mood: want=%s got=%s", tt.wantMood, record.Mood)
			}
			if record.PlanID == nil || *record.PlanID != plan.ID {
				t.Fatalf("progress record must reference the plan")
			}
			var resultCount int64
			fx.db.Model(&types.QuizResult{}).Where("module_id = ?", modules[1].ID).Count(&resultCount)
			if resultCount != 1 {
				t.Fatalf("quiz result rows: want=1 got=%d", resultCount)
			}
		})
	}
}

func TestSubmitResultValidation(t *testing.T) {
	svc, _, fx := newQuizServiceForTest(t)
	user := seedUser(t, fx.db)
	_, modules := seedPlan(t, fx.db, user.ID, "Intro")
	ctx := ctxForUser(user.ID)

	if _, err := svc.SubmitResult(ctx, SubmitQuizRequest{ModuleID: modules[0].ID, Score: 1, TotalQuestions: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero total: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.SubmitResult(ctx, SubmitQuizRequest{ModuleID: modules[0].ID, Score: 6, TotalQuestions: 5}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("score above total: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.SubmitResult(ctx, SubmitQuizRequest{ModuleID: uuid.New(), Score: 1, TotalQuestions: 5}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown module: expected ErrNotFound, got %v", err)
	}

	intruder := seedUser(t, fx.db)
	if _, err := svc.SubmitResult(ctxForUser(intruder.ID), SubmitQuizRequest{ModuleID: modules[0].ID, Score: 1, TotalQuestions: 5}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign module: expected ErrForbidden, got %v", err)
	}
}

func TestSubmitResultExplainsMistakes(t *testing.T) {
	svc, agent, fx := newQuizServiceForTest(t)
	user := seedUser(t, fx.db)
	_, modules := seedPlan(t, fx.db, user.ID, "Intro")

	answers := []QuizAnswer{
		{Question: "Q1", UserAnswer: "a", CorrectAnswer: "a", IsCorrect: true},
		{Question: "Q2", UserAnswer: "b", CorrectAnswer: "c"},
		{Question: "Q3", UserAnswer: "d", CorrectAnswer: "e"},
		{Question: "Q4", UserAnswer: "f", CorrectAnswer: "g"},
		{Question: "Q5", UserAnswer: "h", CorrectAnswer: "i"},
	}
	sub, err := svc.SubmitResult(ctxForUser(user.ID), SubmitQuizRequest{
		ModuleID:       modules[0].ID,
		Score:          1,
		TotalQuestions: 5,
		Answers:        answers,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if agent.explainCalls != 3 {
		t.Fatalf("explain calls capped at 3, got %d", agent.explainCalls)
	}
	if sub.Answers[0].Explanation != "" {
		t.Fatalf("correct answer must not gain an explanation")
	}
	for i := 1; i <= 3; i++ {
		if sub.Answers[i].Explanation == "" || sub.Answers[i].Explanation == fallbackExplanation {
			t.Fatalf("answer %d should have a generated explanation, got %q", i, sub.Answers[i].Explanation)
		}
	}
	if sub.Answers[4].Explanation != fallbackExplanation {
		t.Fatalf("answers past the cap get the fallback, got %q", sub.Answers[4].Explanation)
	}
}

func TestSubmitResultExplainFailureUsesFallback(t *testing.T) {
	svc, agent, fx := newQuizServiceForTest(t)
	agent.explainErr = errors.New("model unavailable")
	user := seedUser(t, fx.db)
	_, modules := seedPlan(t, fx.db, user.ID, "Intro")

	sub, err := svc.SubmitResult(ctxForUser(user.ID), SubmitQuizRequest{
		ModuleID:       modules[0].ID,
		Score:          0,
		TotalQuestions: 1,
		Answers:        []QuizAnswer{{Question: "Q1", UserAnswer: "a", CorrectAnswer: "b"}},
	})
	if err != nil {
		t.Fatalf("submission must survive explanation failures: %v", err)
	}
	if sub.Answers[0].Explanation != fallbackExplanation {
		t.Fatalf("expected fallback explanation, got %q", sub.Answers[0].Explanation)
	}
}

func TestReviewQueueFlattensWrongAnswers(t *testing.T) {
	svc, _, fx := newQuizServiceForTest(t)
	user := seedUser(t, fx.db)
	_, modules := seedPlan(t, fx.db, user.ID, "Intro", "Bubble sort")

	if _, err := svc.SubmitResult(ctxForUser(user.ID), SubmitQuizRequest{
		ModuleID:       modules[0].ID,
		Score:          1,
		TotalQuestions: 3,
		Answers: []QuizAnswer{
			{Question: "Q1", UserAnswer: "a", CorrectAnswer: "a", IsCorrect: true},
			{Question: "Q2", UserAnswer: "b", CorrectAnswer: "c"},
			{Question: "Q3", UserAnswer: "d", CorrectAnswer: "e"},
		},
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	items, err := svc.ReviewQueue(ctxForUser(user.ID))
	if err != nil {
		t.Fatalf("review queue: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("review items: want=2 got=%d", len(items))
	}
	for _, item := range items {
		if item.ModuleID != modules[0].ID {
			t.Fatalf("unexpected module id %s", item.ModuleID)
		}
		if item.ModuleTitle != "Intro" {
			t.Fatalf("module title: got=%q", item.ModuleTitle)
		}
		if item.Explanation == "" {
			t.Fatalf("review items should carry the stored explanation")
		}
	}
}
