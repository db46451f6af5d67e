package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/studyflow/backend/internal/ai"
	"github.com/studyflow/backend/internal/db"
	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/requestdata"
	"github.com/studyflow/backend/internal/types"
)

type testFixture struct {
	db  *gorm.DB
	log *logger.Logger
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	return &testFixture{db: newTestDB(t), log: newTestLogger(t)}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return gdb
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to build logger: %v", err)
	}
	return log
}

func ctxForUser(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

func seedUser(t *testing.T, gdb *gorm.DB) *types.User {
	t.Helper()
	user := &types.User{
		ID:       uuid.New(),
		Name:     "Test Learner",
		Email:    uuid.NewString() + "@example.com",
		Password: "not-a-real-hash",
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedPersona(t *testing.T, gdb *gorm.DB, userID uuid.UUID) *types.LearningPersona {
	t.Helper()
	persona := &types.LearningPersona{
		ID:              uuid.New(),
		UserID:          userID,
		LearningStyle:   "visual",
		FocusLevel:      "medium",
		TimePreference:  "evening",
		SessionDuration: 25,
		DetailLevel:     "balanced",
		MotivationType:  "achievement",
		LearningPace:    "moderate",
	}
	if err := gdb.Create(persona).Error; err != nil {
		t.Fatalf("failed to seed persona: %v", err)
	}
	return persona
}

func seedPlan(t *testing.T, gdb *gorm.DB, userID uuid.UUID, moduleTitles ...string) (*types.StudyPlan, []*types.LearningModule) {
	t.Helper()
	plan := &types.StudyPlan{
		ID:         uuid.New(),
		UserID:     userID,
		Subject:    "Computer Science",
		Topic:      "Sorting Algorithms",
		Difficulty: "medium",
		Status:     "active",
	}
	if err := gdb.Create(plan).Error; err != nil {
		t.Fatalf("failed to seed plan: %v", err)
	}
	modules := make([]*types.LearningModule, 0, len(moduleTitles))
	for i, title := range moduleTitles {
		m := &types.LearningModule{
			ID:              uuid.New(),
			PlanID:          plan.ID,
			Title:           title,
			Position:        i + 1,
			DurationMinutes: 25,
			Difficulty:      "medium",
			ModuleType:      "core",
		}
		if err := gdb.Create(m).Error; err != nil {
			t.Fatalf("failed to seed module: %v", err)
		}
		modules = append(modules, m)
	}
	return plan, modules
}

// fakeAgent is a canned StudyAgent; counters let tests assert on call
// volume (module content caching in particular).
type fakeAgent struct {
	contentCalls int
	quizCalls    int
	chatCalls    int
	explainCalls int

	persona  *PersonaAnalysis
	plan     *GeneratedPlan
	quiz     *ai.QuizPayload
	reply    string
	insights []InsightDraft

	explainErr error
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{
		persona: &PersonaAnalysis{
			LearningStyle:   "visual",
			FocusLevel:      "high",
			TimePreference:  "morning",
			SessionDuration: float64(30),
			DetailLevel:     "deep",
			MotivationType:  "curiosity",
			LearningPace:    "fast",
			Analysis:        "Learns best with diagrams.",
			Recommendations: []string{"Use mind maps"},
			Raw:             []byte(`{"learning_style":"visual"}`),
		},
		plan: &GeneratedPlan{
			Subject:       "Computer Science",
			Topic:         "Sorting Algorithms",
			Difficulty:    "sedang",
			TotalDuration: "3 jam 45 menit",
			TargetDays:    "7 hari",
			Schedule: []ScheduleItem{
				{Day: 1, Topic: "Bubble sort", Duration: "45 menit", Activity: "Read and trace", OptimalTime: "morning"},
				{Day: 2, Topic: "Merge sort", Duration: float64(60), Activity: "Implement", OptimalTime: "morning"},
				{Day: 3, Topic: "Quick sort", Duration: "2 jam", Activity: "Practice", OptimalTime: "morning"},
			},
			Tips: []string{"Trace on paper first"},
		},
		quiz: &ai.QuizPayload{
			Questions: []ai.QuizQuestion{
				{
					Question:      "Worst case of quicksort?",
					Type:          "multiple_choice",
					Options:       []string{"O(n)", "O(n log n)", "O(n^2)", "O(log n)"},
					CorrectAnswer: "O(n^2)",
					Explanation:   "Degenerate pivots produce quadratic behavior.",
				},
			},
		},
		reply: "Great question, let's break it down.",
		insights: []InsightDraft{
			{Type: "pattern", Title: "Evening focus", Description: "Focus peaks after 7pm.", Action: "Schedule the hardest topic after 7pm.", Priority: "medium"},
		},
	}
}

func (f *fakeAgent) AnalyzeLearningStyle(ctx context.Context, responses []*types.OnboardingResponse) (*PersonaAnalysis, error) {
	return f.persona, nil
}

func (f *fakeAgent) GenerateStudyPlan(ctx context.Context, persona *types.LearningPersona, subject, topic, dailyTime string, targetDays int) (*GeneratedPlan, error) {
	return f.plan, nil
}

func (f *fakeAgent) GenerateStudyPlanFromMaterial(ctx context.Context, persona *types.LearningPersona, subject, topic, material string, questionCount int) (*GeneratedPlan, *ai.QuizPayload, error) {
	if material == "" {
		return nil, nil, ErrEmptyMaterial
	}
	return f.plan, f.quiz, nil
}

func (f *fakeAgent) GenerateModuleContent(ctx context.Context, persona *types.LearningPersona, plan *types.StudyPlan, module *types.LearningModule, totalModules int) (string, error) {
	f.contentCalls++
	return "# Lesson\n\nGenerated lesson body.", nil
}

func (f *fakeAgent) GenerateQuiz(ctx context.Context, moduleTitle, moduleContent, difficulty string, questionCount int) (*ai.QuizPayload, error) {
	f.quizCalls++
	return f.quiz, nil
}

func (f *fakeAgent) ChatWithTutor(ctx context.Context, persona *types.LearningPersona, history []*types.Conversation, message, contextNote string) (string, error) {
	f.chatCalls++
	return f.reply, nil
}

func (f *fakeAgent) AnalyzeProgress(ctx context.Context, persona *types.LearningPersona, records []*types.ProgressRecord) ([]InsightDraft, error) {
	return f.insights, nil
}

func (f *fakeAgent) ExplainMistake(ctx context.Context, question, userAnswer, correctAnswer string) (string, error) {
	f.explainCalls++
	if f.explainErr != nil {
		return "", f.explainErr
	}
	return "Because the pivot can always be the smallest element.", nil
}

func (f *fakeAgent) GenerateMotivation(ctx context.Context, persona *types.LearningPersona, name string) (string, error) {
	return "Keep at it.", nil
}

func (f *fakeAgent) SuggestPersonaUpdate(ctx context.Context, persona *types.LearningPersona, records []*types.ProgressRecord) (*PersonaAnalysis, error) {
	return f.persona, nil
}
