package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionResponse struct {
	Id uuid.UUID `json:"id"`
}

type SessionResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// ChatMessageDTO is one visible history message: user, assistant and tool
// result messages. The system prompt never leaves the backend.
type ChatMessageDTO struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type SendChatRequest struct {
	Message string `json:"message" validate:"required"`
}

type SendChatResponse struct {
	ChatSessionId uuid.UUID        `json:"chat_session_id"`
	Title         string           `json:"title"`
	Reply         string           `json:"reply"`
	Messages      []ChatMessageDTO `json:"messages"`
}

type RenameSessionRequest struct {
	Title string `json:"title" validate:"required,max=120"`
}
