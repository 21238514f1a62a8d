// Package memory holds in-memory repository implementations used by tests
// and single-process setups that do not need Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/repository/contract"
	"ai-agent-be/internal/repository/specification"
	"ai-agent-be/pkg/llm"

	"github.com/google/uuid"
)

type ChatSessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entity.ChatSession
}

func NewChatSessionRepository() *ChatSessionRepository {
	return &ChatSessionRepository{
		sessions: make(map[uuid.UUID]*entity.ChatSession),
	}
}

var _ contract.ChatSessionRepository = (*ChatSessionRepository)(nil)

func (r *ChatSessionRepository) Create(_ context.Context, session *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	clone := *session
	r.sessions[session.Id] = &clone
	return nil
}

func (r *ChatSessionRepository) Update(_ context.Context, session *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	session.UpdatedAt = &now
	clone := *session
	r.sessions[session.Id] = &clone
	return nil
}

func (r *ChatSessionRepository) UpdateMessages(_ context.Context, id uuid.UUID, messages []llm.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil
	}
	session.Messages = append([]llm.Message(nil), messages...)
	now := time.Now()
	session.UpdatedAt = &now
	return nil
}

func (r *ChatSessionRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *ChatSessionRepository) FindOne(_ context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, session := range r.sessions {
		if matches(session, specs) {
			clone := *session
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *ChatSessionRepository) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*entity.ChatSession
	for _, session := range r.sessions {
		if matches(session, specs) {
			clone := *session
			results = append(results, &clone)
		}
	}
	// Newest activity first, matching the SQL ordering the service asks for.
	sort.Slice(results, func(i, j int) bool {
		return lastActivity(results[i]).After(lastActivity(results[j]))
	})
	return results, nil
}

func (r *ChatSessionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

// matches interprets the filter specifications the chat service uses.
// Ordering and pagination specs are handled by the callers above.
func matches(session *entity.ChatSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if session.Id != s.ID {
				return false
			}
		case specification.OwnedByUser:
			if session.UserId != s.UserID {
				return false
			}
		}
	}
	return true
}

func lastActivity(session *entity.ChatSession) time.Time {
	if session.UpdatedAt != nil {
		return *session.UpdatedAt
	}
	return session.CreatedAt
}
