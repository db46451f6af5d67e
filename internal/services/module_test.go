package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/studyflow/backend/internal/repos"
	"github.com/studyflow/backend/internal/types"
)

func newModuleServiceForTest(t *testing.T) (ModuleService, *fakeAgent, *testFixture) {
	t.Helper()
	fx := newFixture(t)
	agent := newFakeAgent()
	svc := NewModuleService(fx.db, fx.log, agent,
		repos.NewStudyPlanRepo(fx.db, fx.log),
		repos.NewLearningModuleRepo(fx.db, fx.log),
		repos.NewLearningPersonaRepo(fx.db, fx.log),
		repos.NewQuizResultRepo(fx.db, fx.log),
	)
	return svc, agent, fx
}

func TestGenerateContentCachesAfterFirstCall(t *testing.T) {
	svc, agent, fx := newModuleServiceForTest(t)
	user := seedUser(t, fx.db)
	seedPersona(t, fx.db, user.ID)
	plan, _ := seedPlan(t, fx.db, user.ID, "Bubble sort", "Merge sort")
	ctx := ctxForUser(user.ID)

	first, err := svc.GenerateContent(ctx, plan.ID, 1)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if first.Cached {
		t.Fatalf("first call should not be cached")
	}
	if first.Module.Content == "" {
		t.Fatalf("first call should produce content")
	}
	if first.Quiz == nil || len(first.Quiz.Questions) == 0 {
		t.Fatalf("first call should produce a quiz")
	}
	if agent.contentCalls != 1 || agent.quizCalls != 1 {
		t.Fatalf("agent calls: content=%d quiz=%d", agent.contentCalls, agent.quizCalls)
	}

	second, err := svc.GenerateContent(ctx, plan.ID, 1)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !second.Cached {
		t.Fatalf("second call should be cached")
	}
	if second.Module.Content != first.Module.Content {
		t.Fatalf("cached content should match stored content")
	}
	if second.Quiz == nil || len(second.Quiz.Questions) == 0 {
		t.Fatalf("cached call should return the stored quiz")
	}
	if agent.contentCalls != 1 || agent.quizCalls != 1 {
		t.Fatalf("cached call must not hit the agent: content=%d quiz=%d", agent.contentCalls, agent.quizCalls)
	}

	var stored types.LearningModule
	if err := fx.db.Where("plan_id = ? AND position = ?", plan.ID, 1).First(&stored).Error; err != nil {
		t.Fatalf("failed to load stored module: %v", err)
	}
	if stored.Content == "" || len(stored.QuizData) == 0 {
		t.Fatalf("generated content and quiz must be persisted")
	}
}

func TestGenerateContentRequiresPersona(t *testing.T) {
	svc, _, fx := newModuleServiceForTest(t)
	user := seedUser(t, fx.db)
	plan, _ := seedPlan(t, fx.db, user.ID, "Bubble sort")

	_, err := svc.GenerateContent(ctxForUser(user.ID), plan.ID, 1)
	if !errors.Is(err, ErrPersonaMissing) {
		t.Fatalf("expected ErrPersonaMissing, got %v", err)
	}
}

func TestGenerateContentRejectsForeignPlan(t *testing.T) {
	svc, _, fx := newModuleServiceForTest(t)
	owner := seedUser(t, fx.db)
	intruder := seedUser(t, fx.db)
	plan, _ := seedPlan(t, fx.db, owner.ID, "Bubble sort")

	_, err := svc.GenerateContent(ctxForUser(intruder.ID), plan.ID, 1)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestGenerateContentUnknownPosition(t *testing.T) {
	svc, _, fx := newModuleServiceForTest(t)
	user := seedUser(t, fx.db)
	seedPersona(t, fx.db, user.ID)
	plan, _ := seedPlan(t, fx.db, user.ID, "Bubble sort")

	_, err := svc.GenerateContent(ctxForUser(user.ID), plan.ID, 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteModuleRemovesResults(t *testing.T) {
	svc, _, fx := newModuleServiceForTest(t)
	user := seedUser(t, fx.db)
	_, modules := seedPlan(t, fx.db, user.ID, "Bubble sort")
	module := modules[0]
	result := &types.QuizResult{
		ID:             uuid.New(),
		UserID:         user.ID,
		ModuleID:       module.ID,
		Score:          3,
		TotalQuestions: 5,
	}
	if err := fx.db.Create(result).Error; err != nil {
		t.Fatalf("failed to seed result: %v", err)
	}

	if err := svc.DeleteModule(ctxForUser(user.ID), module.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var moduleCount, resultCount int64
	fx.db.Model(&types.LearningModule{}).Where("id = ?", module.ID).Count(&moduleCount)
	fx.db.Model(&types.QuizResult{}).Where("module_id = ?", module.ID).Count(&resultCount)
	if moduleCount != 0 || resultCount != 0 {
		t.Fatalf("delete left rows behind: modules=%d results=%d", moduleCount, resultCount)
	}
}
