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

const chatHistoryTurns = 10

type ChatReply struct {
	SessionID int    `json:"session_id"`
	Reply     string `json:"reply"`
}

type ChatSessionSummary struct {
	SessionID     int       `json:"session_id"`
	Title         string    `json:"title"`
	MessageCount  int       `json:"message_count"`
	StartedAt     time.Time `json:"started_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

type ChatService interface {
	SendMessage(ctx context.Context, sessionID int, message, contextNote string) (*ChatReply, error)
	GetHistory(ctx context.Context, sessionID, limit int) ([]*types.Conversation, error)
	ListSessions(ctx context.Context) ([]ChatSessionSummary, error)
	DeleteSession(ctx context.Context, sessionID int) error
}

type chatService struct {
	db               *gorm.DB
	log              *logger.Logger
	agent            StudyAgent
	conversationRepo repos.ConversationRepo
	personaRepo      repos.LearningPersonaRepo
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	agent StudyAgent,
	conversationRepo repos.ConversationRepo,
	personaRepo repos.LearningPersonaRepo,
) ChatService {
	return &chatService{
		db:               db,
		log:              log.With("service", "ChatService"),
		agent:            agent,
		conversationRepo: conversationRepo,
		personaRepo:      personaRepo,
	}
}

// SendMessage handles one tutor turn. A non-positive session id starts a
// new session numbered one past the user's current maximum.
func (s *chatService) SendMessage(ctx context.Context, sessionID int, message, contextNote string) (*ChatReply, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	persona, err := s.personaRepo.GetLatestByUserID(ctx, nil, rd.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonaMissing
		}
		return nil, fmt.Errorf("failed to load persona: %w", err)
	}

	if sessionID <= 0 {
		maxID, err := s.conversationRepo.MaxSessionID(ctx, nil, rd.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to allocate session id: %w", err)
		}
		sessionID = maxID + 1
	}

	history, err := s.conversationRepo.GetLastBySession(ctx, nil, rd.UserID, sessionID, chatHistoryTurns)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	reply, err := s.agent.ChatWithTutor(ctx, persona, history, message, contextNote)
	if err != nil {
		return nil, err
	}

	turns := []*types.Conversation{
		{
			ID:        uuid.New(),
			UserID:    rd.UserID,
			SessionID: sessionID,
			Role:      "user",
			Message:   message,
			Context:   contextNote,
		},
		{
			ID:        uuid.New(),
			UserID:    rd.UserID,
			SessionID: sessionID,
			Role:      "assistant",
			Message:   reply,
		},
	}
	if err := s.conversationRepo.Create(ctx, nil, turns); err != nil {
		return nil, fmt.Errorf("failed to store conversation: %w", err)
	}
	return &ChatReply{SessionID: sessionID, Reply: reply}, nil
}

func (s *chatService) GetHistory(ctx context.Context, sessionID, limit int) ([]*types.Conversation, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	if sessionID > 0 {
		return s.conversationRepo.GetBySession(ctx, nil, rd.UserID, sessionID, limit)
	}
	conversations, err := s.conversationRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if limit > 0 && len(conversations) > limit {
		conversations = conversations[len(conversations)-limit:]
	}
	return conversations, nil
}

func (s *chatService) ListSessions(ctx context.Context) ([]ChatSessionSummary, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return nil, ErrUnauthorized
	}
	conversations, err := s.conversationRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	bySession := make(map[int]*ChatSessionSummary)
	order := make([]int, 0)
	for _, c := range conversations {
		summary, ok := bySession[c.SessionID]
		if !ok {
			summary = &ChatSessionSummary{SessionID: c.SessionID, StartedAt: c.CreatedAt}
			bySession[c.SessionID] = summary
			order = append(order, c.SessionID)
		}
		summary.MessageCount++
		summary.LastMessageAt = c.CreatedAt
		if summary.Title == "" && c.Role == "user" {
			summary.Title = truncate(c.Message, 80)
		}
	}
	out := make([]ChatSessionSummary, 0, len(order))
	// Newest session first.
	for i := len(order) - 1; i >= 0; i-- {
		out = append(out, *bySession[order[i]])
	}
	return out, nil
}

func (s *chatService) DeleteSession(ctx context.Context, sessionID int) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return ErrUnauthorized
	}
	if sessionID <= 0 {
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	}
	return s.conversationRepo.FullDeleteBySession(ctx, nil, rd.UserID, sessionID)
}
