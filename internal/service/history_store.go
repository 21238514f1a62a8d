package service

import (
	"context"
	"fmt"

	"ai-agent-be/internal/repository/contract"
	"ai-agent-be/internal/repository/specification"
	"ai-agent-be/pkg/agent"
	"ai-agent-be/pkg/llm"

	"github.com/google/uuid"
)

// SessionHistoryStore adapts the chat session repository to the history
// contract the agent loop persists through.
type SessionHistoryStore struct {
	sessionRepo contract.ChatSessionRepository
}

func NewSessionHistoryStore(sessionRepo contract.ChatSessionRepository) *SessionHistoryStore {
	return &SessionHistoryStore{sessionRepo: sessionRepo}
}

var _ agent.HistoryStore = (*SessionHistoryStore)(nil)

func (s *SessionHistoryStore) Load(ctx context.Context, userId, chatId uuid.UUID) ([]llm.Message, error) {
	session, err := s.sessionRepo.FindOne(ctx,
		specification.ByID{ID: chatId},
		specification.OwnedByUser{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("chat session %s not found", chatId)
	}
	return session.Messages, nil
}

func (s *SessionHistoryStore) Save(ctx context.Context, _, chatId uuid.UUID, history []llm.Message) error {
	return s.sessionRepo.UpdateMessages(ctx, chatId, history)
}
