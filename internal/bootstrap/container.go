package bootstrap

import (
	"log"

	"ai-agent-be/internal/config"
	"ai-agent-be/internal/constant"
	"ai-agent-be/internal/controller"
	"ai-agent-be/internal/pkg/logger"
	"ai-agent-be/internal/repository/implementation"
	"ai-agent-be/internal/service"
	"ai-agent-be/pkg/agent"
	"ai-agent-be/pkg/agent/tools"
	"ai-agent-be/pkg/chunker"
	"ai-agent-be/pkg/embedding"
	"ai-agent-be/pkg/llm/openrouter"
	"ai-agent-be/pkg/vectorindex"
	"ai-agent-be/pkg/websearch"

	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController
	FileController controller.IFileController

	// Exposed for shutdown
	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Embedding Provider
	var embeddingProvider embedding.Provider
	if cfg.Ai.EmbeddingProvider == "openai" {
		embeddingProvider = embedding.NewOpenAIProvider("", cfg.Ai.OpenAIAPIKey, cfg.Ai.OpenAIModel)
		log.Printf("[INFO] Using Embedding Provider: OPENAI (%s)", cfg.Ai.OpenAIModel)
	} else {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	// 3. Vector Index Store
	var store vectorindex.Store
	if cfg.Index.Backend == "postgres" {
		store = implementation.NewPgVectorStore(db)
		log.Printf("[INFO] Using Index Backend: POSTGRES (pgvector)")
	} else {
		diskStore, err := vectorindex.NewDiskStore(cfg.Index.Dir)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize disk index at %s: %v", cfg.Index.Dir, err)
		}
		store = diskStore
		log.Printf("[INFO] Using Index Backend: DISK (%s)", cfg.Index.Dir)
	}
	indexManager := vectorindex.NewManager(embeddingProvider, store)

	// 4. LLM Provider
	llmProvider := openrouter.NewOpenRouterProvider(
		cfg.Ai.OpenRouterBaseURL,
		cfg.Ai.OpenRouterAPIKey,
		cfg.Ai.ChatModel,
		cfg.Ai.ChatTimeout,
	)
	log.Printf("[INFO] Using LLM Provider: OPENROUTER (%s)", cfg.Ai.ChatModel)

	// 5. Tooling
	webClient := websearch.NewClient(cfg.Web.SearchTimeout)
	toolExecutor := tools.NewExecutor(indexManager, webClient, sysLogger)

	// 6. Repositories
	sessionRepo := implementation.NewChatSessionRepository(db)

	// 7. Agent Loop
	orchestrator := agent.NewOrchestrator(agent.Config{
		Provider:      llmProvider,
		Store:         service.NewSessionHistoryStore(sessionRepo),
		Tools:         toolExecutor,
		ToolSchemas:   tools.Schemas(),
		Inventory:     indexManager,
		Logger:        sysLogger,
		SystemPrompt:  constant.AgentSystemPromptV1,
		MaxIterations: cfg.Ai.MaxIterations,
	})

	// 8. Services
	chk, err := chunker.New(chunker.DefaultChunkSize, chunker.DefaultOverlap)
	if err != nil {
		log.Fatalf("[FATAL] Invalid chunker configuration: %v", err)
	}
	chatService := service.NewChatService(sessionRepo, orchestrator, sysLogger)
	fileService := service.NewFileService(indexManager, chk, sysLogger)

	// 9. Controllers
	return &Container{
		ChatController: controller.NewChatController(chatService),
		FileController: controller.NewFileController(fileService),
		Logger:         sysLogger,
	}
}
