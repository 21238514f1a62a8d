package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-agent-be/internal/entity"
	"ai-agent-be/internal/repository/implementation"
	"ai-agent-be/internal/repository/specification"
	"ai-agent-be/pkg/database"
	"ai-agent-be/pkg/llm"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormConnection(t *testing.T) {
	// Load .env from root
	err := godotenv.Load("../../.env")
	if err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		t.Fatalf("Failed to connect to DB: %v", err)
	}

	// Basic Ping
	sqlDB, _ := gormDB.DB()
	err = sqlDB.Ping()
	assert.NoError(t, err)

	sessionRepo := implementation.NewChatSessionRepository(gormDB)

	t.Run("Check Chat Session Repository", func(t *testing.T) {
		count, err := sessionRepo.Count(context.Background())
		assert.NoError(t, err)
		t.Logf("Chat session count: %d", count)
	})

	t.Run("Session Lifecycle", func(t *testing.T) {
		userId := uuid.New()
		session := &entity.ChatSession{
			UserId:   userId,
			Title:    "integration test session",
			Messages: []llm.Message{{Role: llm.RoleSystem, Content: "prompt"}},
		}
		require.NoError(t, sessionRepo.Create(context.Background(), session))
		defer func() {
			_ = sessionRepo.Delete(context.Background(), session.Id)
		}()

		history := append(session.Messages, llm.Message{Role: llm.RoleUser, Content: "hi"})
		require.NoError(t, sessionRepo.UpdateMessages(context.Background(), session.Id, history))

		loaded, err := sessionRepo.FindOne(context.Background(),
			specification.ByID{ID: session.Id},
			specification.OwnedByUser{UserID: userId},
		)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Len(t, loaded.Messages, 2)
	})
}
