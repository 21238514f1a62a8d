package service

import (
	"context"

	"ai-agent-be/internal/constant"
	"ai-agent-be/internal/dto"
	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/internal/pkg/serverutils"
	"ai-agent-be/internal/repository/contract"
	"ai-agent-be/internal/repository/specification"
	"ai-agent-be/pkg/agent"
	"ai-agent-be/pkg/llm"

	"github.com/google/uuid"
)

type IChatService interface {
	CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error)
	GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]dto.ChatMessageDTO, error)
	SendChat(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	RenameSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.RenameSessionRequest) error
	DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error
}

// TurnRunner is the slice of the agent loop the chat service drives.
// Satisfied by *agent.Orchestrator.
type TurnRunner interface {
	RunTurn(ctx context.Context, userId, chatId uuid.UUID, userMessage string) ([]llm.Message, error)
}

var _ TurnRunner = (*agent.Orchestrator)(nil)

type chatService struct {
	sessionRepo  contract.ChatSessionRepository
	orchestrator TurnRunner
	logger       logger.ILogger
}

func NewChatService(
	sessionRepo contract.ChatSessionRepository,
	orchestrator TurnRunner,
	log logger.ILogger,
) IChatService {
	return &chatService{
		sessionRepo:  sessionRepo,
		orchestrator: orchestrator,
		logger:       log,
	}
}

func (s *chatService) CreateSession(ctx context.Context, userId uuid.UUID) (*dto.CreateSessionResponse, error) {
	session := &entity.ChatSession{
		UserId:   userId,
		Title:    constant.DefaultSessionTitle,
		Messages: []llm.Message{},
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.logger.Error("chat", "failed to create session", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return nil, serverutils.Internal("Failed to create chat session", err)
	}

	s.logger.Info("chat", "session created", map[string]interface{}{
		"user_id":    userId.String(),
		"session_id": session.Id.String(),
	})
	return &dto.CreateSessionResponse{Id: session.Id}, nil
}

func (s *chatService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error) {
	sessions, err := s.sessionRepo.FindAll(ctx,
		specification.OwnedByUser{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, serverutils.Internal("Failed to list chat sessions", err)
	}

	responses := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, &dto.SessionResponse{
			Id:        session.Id,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		})
	}
	return responses, nil
}

func (s *chatService) GetChatHistory(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) ([]dto.ChatMessageDTO, error) {
	session, err := s.ownedSession(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}
	return visibleMessages(session.Messages), nil
}

func (s *chatService) SendChat(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	session, err := s.ownedSession(ctx, userId, sessionId)
	if err != nil {
		return nil, err
	}

	added, err := s.orchestrator.RunTurn(ctx, userId, sessionId, request.Message)
	if err != nil {
		s.logger.Error("chat", "turn failed", map[string]interface{}{
			"user_id":    userId.String(),
			"session_id": sessionId.String(),
			"error":      err.Error(),
		})
		return nil, serverutils.Internal("Failed to process message", err)
	}

	reply := ""
	for i := len(added) - 1; i >= 0; i-- {
		if added[i].Role == llm.RoleAssistant && added[i].Content != "" {
			reply = added[i].Content
			break
		}
	}

	return &dto.SendChatResponse{
		ChatSessionId: sessionId,
		Title:         session.Title,
		Reply:         reply,
		Messages:      visibleMessages(added),
	}, nil
}

func (s *chatService) RenameSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID, request *dto.RenameSessionRequest) error {
	session, err := s.ownedSession(ctx, userId, sessionId)
	if err != nil {
		return err
	}

	session.Title = request.Title
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return serverutils.Internal("Failed to rename chat session", err)
	}
	return nil
}

func (s *chatService) DeleteSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) error {
	if _, err := s.ownedSession(ctx, userId, sessionId); err != nil {
		return err
	}
	if err := s.sessionRepo.Delete(ctx, sessionId); err != nil {
		return serverutils.Internal("Failed to delete chat session", err)
	}

	s.logger.Info("chat", "session deleted", map[string]interface{}{
		"user_id":    userId.String(),
		"session_id": sessionId.String(),
	})
	return nil
}

// ownedSession loads a session and enforces ownership. A session belonging
// to another user is indistinguishable from a missing one.
func (s *chatService) ownedSession(ctx context.Context, userId uuid.UUID, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := s.sessionRepo.FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, serverutils.Internal("Failed to load chat session", err)
	}
	if session == nil {
		return nil, serverutils.NotFound("Chat session not found")
	}
	return session, nil
}

// visibleMessages filters history to what the client renders: everything but
// the system slot and content-less tool-call stubs. Tool results stay in so
// the client can show what the agent looked up.
func visibleMessages(messages []llm.Message) []dto.ChatMessageDTO {
	visible := make([]dto.ChatMessageDTO, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem || msg.Content == "" {
			continue
		}
		visible = append(visible, dto.ChatMessageDTO{Role: msg.Role, Content: msg.Content})
	}
	return visible
}
