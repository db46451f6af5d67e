package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/studyflow/backend/internal/repos"
	"github.com/studyflow/backend/internal/types"
)

func newAnalyticsServiceForTest(t *testing.T) (AnalyticsService, *fakeAgent, *testFixture) {
	t.Helper()
	fx := newFixture(t)
	agent := newFakeAgent()
	svc := NewAnalyticsService(fx.db, fx.log, agent,
		repos.NewProgressRecordRepo(fx.db, fx.log),
		repos.NewInsightRepo(fx.db, fx.log),
		repos.NewLearningPersonaRepo(fx.db, fx.log),
		repos.NewUserRepo(fx.db, fx.log),
	)
	return svc, agent, fx
}

func seedProgressRecords(t *testing.T, fx *testFixture, userID uuid.UUID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		record := &types.ProgressRecord{
			ID:              uuid.New(),
			UserID:          userID,
			Date:            time.Now().AddDate(0, 0, -i),
			DurationMinutes: 30,
			Topic:           "Sorting",
			FocusScore:      7,
			Mood:            "neutral",
		}
		if err := fx.db.Create(record).Error; err != nil {
			t.Fatalf("failed to seed progress record: %v", err)
		}
	}
}

func TestSaveProgressValidatesAndStores(t *testing.T) {
	svc, _, fx := newAnalyticsServiceForTest(t)
	user := seedUser(t, fx.db)
	ctx := ctxForUser(user.ID)

	if _, err := svc.SaveProgress(ctx, SaveProgressRequest{DurationMinutes: 0}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	record, err := svc.SaveProgress(ctx, SaveProgressRequest{
		DurationMinutes: 45,
		Topic:           "Graphs",
		FocusScore:      8,
		Mood:            "happy",
		Evaluation:      []byte(`{"understood":true}`),
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if record.ID == uuid.Nil {
		t.Fatalf("record id must be set")
	}

	var stored types.ProgressRecord
	if err := fx.db.First(&stored, "id = ?", record.ID).Error; err != nil {
		t.Fatalf("failed to reload record: %v", err)
	}
	if stored.Topic != "Graphs" || stored.DurationMinutes != 45 {
		t.Fatalf("stored record mismatch: %+v", stored)
	}
	if len(stored.Evaluation) == 0 {
		t.Fatalf("evaluation blob should be persisted")
	}
}

func TestGetProgressAggregates(t *testing.T) {
	svc, _, fx := newAnalyticsServiceForTest(t)
	user := seedUser(t, fx.db)
	seedProgressRecords(t, fx, user.ID, 4)

	overview, err := svc.GetProgress(ctxForUser(user.ID))
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if len(overview.Records) != 4 {
		t.Fatalf("records: want=4 got=%d", len(overview.Records))
	}
	if overview.Stats == nil {
		t.Fatalf("stats must be computed")
	}
	if overview.Stats.TotalSessions != 4 || overview.Stats.TotalMinutes != 120 {
		t.Fatalf("stats: sessions=%d minutes=%d", overview.Stats.TotalSessions, overview.Stats.TotalMinutes)
	}
}

func TestGenerateInsightsNeedsEnoughRecords(t *testing.T) {
	svc, _, fx := newAnalyticsServiceForTest(t)
	user := seedUser(t, fx.db)
	seedPersona(t, fx.db, user.ID)
	seedProgressRecords(t, fx, user.ID, 2)

	_, err := svc.GenerateInsights(ctxForUser(user.ID))
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestGenerateInsightsPersistsDrafts(t *testing.T) {
	svc, _, fx := newAnalyticsServiceForTest(t)
	user := seedUser(t, fx.db)
	seedPersona(t, fx.db, user.ID)
	seedProgressRecords(t, fx, user.ID, 3)
	ctx := ctxForUser(user.ID)

	insights, err := svc.GenerateInsights(ctx)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(insights) != 1 {
		t.Fatalf("insights: want=1 got=%d", len(insights))
	}
	if insights[0].InsightType != "pattern" || insights[0].Title == "" {
		t.Fatalf("insight fields: %+v", insights[0])
	}
	var data map[string]string
	if err := json.Unmarshal(insights[0].Data, &data); err != nil {
		t.Fatalf("insight data: %v", err)
	}
	if data["action"] != "Schedule the hardest topic after 7pm." {
		t.Fatalf("insight action: %q", data["action"])
	}

	unread, err := svc.GetUnreadInsights(ctx)
	if err != nil {
		t.Fatalf("unread: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("unread: want=1 got=%d", len(unread))
	}

	if err := svc.MarkInsightRead(ctx, unread[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err = svc.GetUnreadInsights(ctx)
	if err != nil {
		t.Fatalf("unread after read: %v", err)
	}
	if len(unread) != 0 {
		t.Fatalf("unread after read: want=0 got=%d", len(unread))
	}
}

func TestGenerateInsightsRequiresPersona(t *testing.T) {
	svc, _, fx := newAnalyticsServiceForTest(t)
	user := seedUser(t, fx.db)
	seedProgressRecords(t, fx, user.ID, 3)

	_, err := svc.GenerateInsights(ctxForUser(user.ID))
	if !errors.Is(err, ErrPersonaMissing) {
		t.Fatalf("expected ErrPersonaMissing, got %v", err)
	}
}

func TestMotivationWorksWithoutPersona(t *testing.T) {
	svc, _, fx := newAnalyticsServiceForTest(t)
	user := seedUser(t, fx.db)

	message, err := svc.Motivation(ctxForUser(user.ID))
	if err != nil {
		t.Fatalf("motivation: %v", err)
	}
	if message == "" {
		t.Fatalf("message must not be empty")
	}
}

func TestMarkInsightReadUnknownID(t *testing.T) {
	svc, _, fx := newAnalyticsServiceForTest(t)
	user := seedUser(t, fx.db)

	if err := svc.MarkInsightRead(ctxForUser(user.ID), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
