package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/studyflow/backend/internal/types"
)

// scriptedClient returns canned replies in order and records the prompts
// it was asked with.
type scriptedClient struct {
	replies []string
	calls   int
	prompts []string
}

func (c *scriptedClient) Chat(ctx context.Context, systemPrompt, userPrompt string, opts *AIOptions) (string, error) {
	c.prompts = append(c.prompts, userPrompt)
	reply := c.replies[c.calls%len(c.replies)]
	c.calls++
	return reply, nil
}

func newAgentWithReplies(t *testing.T, replies ...string) (*studyAgent, *scriptedClient) {
	t.Helper()
	client := &scriptedClient{replies: replies}
	return &studyAgent{ai: client, log: newTestLogger(t)}, client
}

func TestAnalyzeLearningStyleDecodesFencedReply(t *testing.T) {
	reply := "Here is the analysis:\n```json\n{\"learning_style\":\"kinesthetic\",\"focus_level\":\"high\",\"time_preference\":\"morning\",\"session_duration\":\"45 menit\",\"detail_level\":\"deep\",\"motivation_type\":\"mastery\",\"learning_pace\":\"fast\",\"analysis\":\"Learns by doing.\"}\n```"
	agent, client := newAgentWithReplies(t, reply)

	responses := []*types.OnboardingResponse{
		{QuestionID: "q1", Answer: "I take things apart"},
	}
	analysis, err := agent.AnalyzeLearningStyle(context.Background(), responses)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.LearningStyle != "kinesthetic" {
		t.Fatalf("learning style: got=%q", analysis.LearningStyle)
	}
	if len(analysis.Raw) == 0 {
		t.Fatalf("raw JSON should be preserved")
	}
	if !strings.Contains(client.prompts[0], "q1: I take things apart") {
		t.Fatalf("answers should reach the prompt, got %q", client.prompts[0])
	}
}

func TestAnalyzeLearningStyleRejectsEmptyInput(t *testing.T) {
	agent, _ := newAgentWithReplies(t, "{}")
	if _, err := agent.AnalyzeLearningStyle(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty responses")
	}
}

func TestGenerateStudyPlanRequiresSchedule(t *testing.T) {
	agent, _ := newAgentWithReplies(t, `{"subject":"Math","schedule":[]}`)
	persona := &types.LearningPersona{LearningStyle: "visual", SessionDuration: 25}

	_, err := agent.GenerateStudyPlan(context.Background(), persona, "Math", "Calculus", "", 0)
	if err == nil {
		t.Fatalf("expected error for empty schedule")
	}
}

func TestGenerateStudyPlanDecodesMixedDurations(t *testing.T) {
	reply := `{"subject":"Math","topic":"Calculus","difficulty":"sedang","total_duration":"2 jam","target_days":5,"schedule":[{"day":1,"topic":"Limits","duration":"30 menit"},{"day":2,"topic":"Derivatives","duration":45}]}`
	agent, _ := newAgentWithReplies(t, reply)
	persona := &types.LearningPersona{LearningStyle: "visual", SessionDuration: 25}

	plan, err := agent.GenerateStudyPlan(context.Background(), persona, "Math", "Calculus", "evenings", 5)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(plan.Schedule) != 2 {
		t.Fatalf("schedule entries: want=2 got=%d", len(plan.Schedule))
	}
	if plan.Difficulty != "sedang" {
		t.Fatalf("difficulty should pass through raw, got %q", plan.Difficulty)
	}
}

func TestGenerateStudyPlanFromMaterialRejectsBlankMaterial(t *testing.T) {
	agent, client := newAgentWithReplies(t, "{}")
	persona := &types.LearningPersona{}

	_, _, err := agent.GenerateStudyPlanFromMaterial(context.Background(), persona, "Bio", "Cells", "   \n\t ", 5)
	if err != ErrEmptyMaterial {
		t.Fatalf("expected ErrEmptyMaterial, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("blank material must not reach the model")
	}
}

func TestGenerateQuizClampsQuestionCount(t *testing.T) {
	quizJSON := `{"questions":[{"question":"Q?","type":"multiple_choice","options":["a","b"],"correct_answer":"a"}]}`
	agent, client := newAgentWithReplies(t, quizJSON)

	if _, err := agent.GenerateQuiz(context.Background(), "Lesson", "body", "medium", 50); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(client.prompts[0], "Write 10 questions") {
		t.Fatalf("question count should clamp to 10, prompt: %q", client.prompts[0])
	}

	if _, err := agent.GenerateQuiz(context.Background(), "Lesson", "body", "medium", 0); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(client.prompts[1], "Write 5 questions") {
		t.Fatalf("question count should default to 5, prompt: %q", client.prompts[1])
	}
}

func TestGenerateQuizRejectsEmptyQuestionList(t *testing.T) {
	agent, _ := newAgentWithReplies(t, `{"questions":[]}`)
	if _, err := agent.GenerateQuiz(context.Background(), "Lesson", "body", "medium", 5); err == nil {
		t.Fatalf("expected error for empty quiz")
	}
}

func TestChatWithTutorIncludesHistory(t *testing.T) {
	agent, client := newAgentWithReplies(t, "  The pivot splits the array.  ")
	persona := &types.LearningPersona{LearningStyle: "visual", SessionDuration: 25}
	history := []*types.Conversation{
		{Role: "user", Message: "What is quicksort?"},
		{Role: "assistant", Message: "A divide and conquer sort."},
	}

	reply, err := agent.ChatWithTutor(context.Background(), persona, history, "And the pivot?", "Sorting module")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if reply != "The pivot splits the array." {
		t.Fatalf("reply should be trimmed, got %q", reply)
	}
	prompt := client.prompts[0]
	for _, want := range []string{"What is quicksort?", "A divide and conquer sort.", "And the pivot?", "Sorting module"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestAnalyzeProgressDecodesInsights(t *testing.T) {
	reply := `{"insights":[{"type":"habit","title":"Morning streak","description":"Most sessions start before 9am.","priority":"low"}]}`
	agent, _ := newAgentWithReplies(t, reply)
	persona := &types.LearningPersona{}
	records := []*types.ProgressRecord{{Date: time.Now(), DurationMinutes: 30, FocusScore: 7, Mood: "happy", Topic: "Limits"}}

	drafts, err := agent.AnalyzeProgress(context.Background(), persona, records)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Type != "habit" {
		t.Fatalf("drafts: %+v", drafts)
	}
}

func TestDaypart(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{hour: 6, want: "morning"},
		{hour: 13, want: "afternoon"},
		{hour: 18, want: "evening"},
		{hour: 23, want: "night"},
		{hour: 2, want: "night"},
	}
	for _, tt := range tests {
		at := time.Date(2025, 1, 1, tt.hour, 0, 0, 0, time.Local)
		if got := daypart(at); got != tt.want {
			t.Errorf("daypart(%02d:00): want=%s got=%s", tt.hour, tt.want, got)
		}
	}
}
