package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/studyflow/backend/internal/ai"
	"github.com/studyflow/backend/internal/logger"
	"github.com/studyflow/backend/internal/types"
)

const (
	maxPlanMaterialChars = 12000
	maxQuizMaterialChars = 8000
	maxQuizQuestions     = 10
	maxMaterialQuestions = 8
)

// PersonaAnalysis is the decoded learner profile. SessionDuration stays
// untyped because models answer with either a number or a phrase.
type PersonaAnalysis struct {
	LearningStyle   string      `json:"learning_style"`
	FocusLevel      string      `json:"focus_level"`
	TimePreference  string      `json:"time_preference"`
	SessionDuration interface{} `json:"session_duration"`
	DetailLevel     string      `json:"detail_level"`
	MotivationType  string      `json:"motivation_type"`
	LearningPace    string      `json:"learning_pace"`
	Analysis        string      `json:"analysis"`
	Recommendations []string    `json:"recommendations"`

	Raw json.RawMessage `json:"-"`
}

type ScheduleItem struct {
	Day         int         `json:"day"`
	Topic       string      `json:"topic"`
	Duration    interface{} `json:"duration"`
	Activity    string      `json:"activity"`
	OptimalTime string      `json:"optimal_time"`
}

type GeneratedPlan struct {
	Subject       string         `json:"subject"`
	Topic         string         `json:"topic"`
	Difficulty    string         `json:"difficulty"`
	TotalDuration interface{}    `json:"total_duration"`
	TargetDays    interface{}    `json:"target_days"`
	Schedule      []ScheduleItem `json:"schedule"`
	Tips          []string       `json:"tips"`
}

type InsightDraft struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action"`
	Priority    string `json:"priority"`
}

type insightList struct {
	Insights []InsightDraft `json:"insights"`
}

// StudyAgent wraps the AI client with task-specific prompts and decoding.
type StudyAgent interface {
	AnalyzeLearningStyle(ctx context.Context, responses []*types.OnboardingResponse) (*PersonaAnalysis, error)
	GenerateStudyPlan(ctx context.Context, persona *types.LearningPersona, subject, topic, dailyTime string, targetDays int) (*GeneratedPlan, error)
	GenerateStudyPlanFromMaterial(ctx context.Context, persona *types.LearningPersona, subject, topic, material string, questionCount int) (*GeneratedPlan, *ai.QuizPayload, error)
	GenerateModuleContent(ctx context.Context, persona *types.LearningPersona, plan *types.StudyPlan, module *types.LearningModule, totalModules int) (string, error)
	GenerateQuiz(ctx context.Context, moduleTitle, moduleContent, difficulty string, questionCount int) (*ai.QuizPayload, error)
	ChatWithTutor(ctx context.Context, persona *types.LearningPersona, history []*types.Conversation, message, contextNote string) (string, error)
	AnalyzeProgress(ctx context.Context, persona *types.LearningPersona, records []*types.ProgressRecord) ([]InsightDraft, error)
	ExplainMistake(ctx context.Context, question, userAnswer, correctAnswer string) (string, error)
	GenerateMotivation(ctx context.Context, persona *types.LearningPersona, name string) (string, error)
	SuggestPersonaUpdate(ctx context.Context, persona *types.LearningPersona, records []*types.ProgressRecord) (*PersonaAnalysis, error)
}

type studyAgent struct {
	log *logger.Logger
	ai  AIClient
}

func NewStudyAgent(aiClient AIClient, log *logger.Logger) StudyAgent {
	return &studyAgent{ai: aiClient, log: log.With("service", "StudyAgent")}
}

func (a *studyAgent) AnalyzeLearningStyle(ctx context.Context, responses []*types.OnboardingResponse) (*PersonaAnalysis, error) {
	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: no onboarding responses to analyze", ErrInvalidInput)
	}
	var b strings.Builder
	b.WriteString("Onboarding answers:\n")
	for _, r := range responses {
		fmt.Fprintf(&b, "- %s: %s\n", r.QuestionID, r.Answer)
	}
	reply, err := a.ai.Chat(ctx, learningStyleAnalystPrompt, b.String(), &AIOptions{Temperature: 0.4})
	if err != nil {
		return nil, err
	}
	return decodePersona(reply)
}

func decodePersona(reply string) (*PersonaAnalysis, error) {
	data, err := ai.ExtractJSONObject(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse persona analysis: %w", err)
	}
	var analysis PersonaAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode persona analysis: %w", err)
	}
	analysis.Raw = data
	return &analysis, nil
}

func (a *studyAgent) GenerateStudyPlan(ctx context.Context, persona *types.LearningPersona, subject, topic, dailyTime string, targetDays int) (*GeneratedPlan, error) {
	var b strings.Builder
	b.WriteString(personaSummary(persona))
	fmt.Fprintf(&b, "\nSubject: %s\nTopic: %s\n", subject, topic)
	if dailyTime != "" {
		fmt.Fprintf(&b, "Available study time per day: %s\n", dailyTime)
	}
	if targetDays > 0 {
		fmt.Fprintf(&b, "The learner wants to finish in %d days.\n", targetDays)
	}
	reply, err := a.ai.Chat(ctx, studyPlanArchitectPrompt, b.String(), &AIOptions{Temperature: 0.7})
	if err != nil {
		return nil, err
	}
	return decodePlan(reply)
}

func (a *studyAgent) GenerateStudyPlanFromMaterial(ctx context.Context, persona *types.LearningPersona, subject, topic, material string, questionCount int) (*GeneratedPlan, *ai.QuizPayload, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, nil, ErrEmptyMaterial
	}
	planMaterial := truncate(material, maxPlanMaterialChars)

	var b strings.Builder
	b.WriteString(personaSummary(persona))
	fmt.Fprintf(&b, "\nSubject: %s\nTopic: %s\n\nSource material:\n%s\n", subject, topic, planMaterial)
	reply, err := a.ai.Chat(ctx, materialPlanArchitectPrompt, b.String(), &AIOptions{Temperature: 0.7})
	if err != nil {
		return nil, nil, err
	}
	plan, err := decodePlan(reply)
	if err != nil {
		return nil, nil, err
	}

	quiz, err := a.generateQuizFromMaterial(ctx, material, topic, questionCount)
	if err != nil {
		return nil, nil, err
	}
	return plan, quiz, nil
}

func decodePlan(reply string) (*GeneratedPlan, error) {
	var plan GeneratedPlan
	if err := ai.DecodeJSONObject(reply, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse generated plan: %w", err)
	}
	if len(plan.Schedule) == 0 {
		return nil, fmt.Errorf("generated plan has no schedule entries")
	}
	return &plan, nil
}

func (a *studyAgent) GenerateModuleContent(ctx context.Context, persona *types.LearningPersona, plan *types.StudyPlan, module *types.LearningModule, totalModules int) (string, error) {
	var b strings.Builder
	b.WriteString(personaSummary(persona))
	fmt.Fprintf(&b, "\nSubject: %s\nPlan topic: %s\n", plan.Subject, plan.Topic)
	fmt.Fprintf(&b, "Lesson %d of %d: %s\n", module.Position, totalModules, module.Title)
	fmt.Fprintf(&b, "Difficulty: %s\n", module.Difficulty)
	switch module.ModuleType {
	case "intro":
		b.WriteString("This is the opening lesson; motivate the topic and build foundations.\n")
	case "summary":
		b.WriteString("This is the closing lesson; consolidate and connect everything covered so far.\n")
	}
	reply, err := a.ai.Chat(ctx, moduleContentWriterPrompt, b.String(), &AIOptions{Temperature: 0.7})
	if err != nil {
		return "", err
	}
	content := ai.CleanContent(reply)
	if content == "" {
		return "", fmt.Errorf("generated lesson content is empty")
	}
	return content, nil
}

func (a *studyAgent) GenerateQuiz(ctx context.Context, moduleTitle, moduleContent, difficulty string, questionCount int) (*ai.QuizPayload, error) {
	if questionCount < 1 {
		questionCount = 5
	}
	if questionCount > maxQuizQuestions {
		questionCount = maxQuizQuestions
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d questions at %s difficulty for the lesson %q.\n\nLesson content:\n%s\n",
		questionCount, difficulty, moduleTitle, truncate(moduleContent, maxQuizMaterialChars))
	reply, err := a.ai.Chat(ctx, quizWriterPrompt, b.String(), &AIOptions{Temperature: 0.5})
	if err != nil {
		return nil, err
	}
	quiz, err := ai.DecodeQuizPayload(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated quiz: %w", err)
	}
	return quiz, nil
}

func (a *studyAgent) generateQuizFromMaterial(ctx context.Context, material, topic string, questionCount int) (*ai.QuizPayload, error) {
	if questionCount < 1 {
		questionCount = 5
	}
	if questionCount > maxMaterialQuestions {
		questionCount = maxMaterialQuestions
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Write %d questions about %q.\n\nSource material:\n%s\n",
		questionCount, topic, truncate(material, maxQuizMaterialChars))
	reply, err := a.ai.Chat(ctx, materialQuizWriterPrompt, b.String(), &AIOptions{Temperature: 0.5})
	if err != nil {
		return nil, err
	}
	quiz, err := ai.DecodeQuizPayload(reply)
	if err != nil {
		return nil, fmt.Errorf("failed to parse material quiz: %w", err)
	}
	return quiz, nil
}

func (a *studyAgent) ChatWithTutor(ctx context.Context, persona *types.LearningPersona, history []*types.Conversation, message, contextNote string) (string, error) {
	var b strings.Builder
	b.WriteString(personaSummary(persona))
	fmt.Fprintf(&b, "Local time of day: %s\n", daypart(time.Now()))
	if contextNote != "" {
		fmt.Fprintf(&b, "The learner is currently studying: %s\n", contextNote)
	}
	if len(history) > 0 {
		b.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Message)
		}
	}
	fmt.Fprintf(&b, "\nLearner: %s\n", message)
	reply, err := a.ai.Chat(ctx, tutorPrompt, b.String(), &AIOptions{Temperature: 0.8})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (a *studyAgent) AnalyzeProgress(ctx context.Context, persona *types.LearningPersona, records []*types.ProgressRecord) ([]InsightDraft, error) {
	var b strings.Builder
	b.WriteString(personaSummary(persona))
	b.WriteString("\nRecent study records (newest first):\n")
	for _, r := range records {
		fmt.Fprintf(&b, "- %s | %d min | focus %d/10 | mood %s | %s\n",
			r.Date.Format("2006-01-02"), r.DurationMinutes, r.FocusScore, r.Mood, r.Topic)
	}
	reply, err := a.ai.Chat(ctx, progressAnalystPrompt, b.String(), &AIOptions{Temperature: 0.5})
	if err != nil {
		return nil, err
	}
	var list insightList
	if err := ai.DecodeJSONObject(reply, &list); err != nil {
		return nil, fmt.Errorf("failed to parse insights: %w", err)
	}
	if len(list.Insights) == 0 {
		return nil, fmt.Errorf("progress analysis produced no insights")
	}
	return list.Insights, nil
}

func (a *studyAgent) ExplainMistake(ctx context.Context, question, userAnswer, correctAnswer string) (string, error) {
	prompt := fmt.Sprintf("Question: %s\nLearner answered: %s\nCorrect answer: %s\n", question, userAnswer, correctAnswer)
	reply, err := a.ai.Chat(ctx, mistakeExplainerPrompt, prompt, &AIOptions{Temperature: 0.4})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (a *studyAgent) GenerateMotivation(ctx context.Context, persona *types.LearningPersona, name string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Learner name: %s\n", name)
	b.WriteString(personaSummary(persona))
	reply, err := a.ai.Chat(ctx, motivationCoachPrompt, b.String(), &AIOptions{Temperature: 0.9})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

func (a *studyAgent) SuggestPersonaUpdate(ctx context.Context, persona *types.LearningPersona, records []*types.ProgressRecord) (*PersonaAnalysis, error) {
	var b strings.Builder
	b.WriteString("Current profile:\n")
	b.WriteString(personaSummary(persona))
	b.WriteString("\nNew study records:\n")
	for _, r := range records {
		fmt.Fprintf(&b, "- %s | %d min | focus %d/10 | mood %s | %s\n",
			r.Date.Format("2006-01-02"), r.DurationMinutes, r.FocusScore, r.Mood, r.Topic)
	}
	reply, err := a.ai.Chat(ctx, personaReviewerPrompt, b.String(), &AIOptions{Temperature: 0.4})
	if err != nil {
		return nil, err
	}
	return decodePersona(reply)
}

func personaSummary(p *types.LearningPersona) string {
	if p == nil {
		return "Learner profile: unknown (onboarding not completed).\n"
	}
	return fmt.Sprintf(
		"Learner profile: %s learner, focus %s, prefers %s sessions of ~%d minutes, %s detail, motivated by %s, pace %s.\n",
		p.LearningStyle, p.FocusLevel, p.TimePreference, p.SessionDuration, p.DetailLevel, p.MotivationType, p.LearningPace,
	)
}

func daypart(t time.Time) string {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return "morning"
	case h >= 12 && h < 17:
		return "afternoon"
	case h >= 17 && h < 21:
		return "evening"
	default:
		return "night"
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
