package main

import (
	"log"

	"ai-agent-be/internal/config"
	"ai-agent-be/internal/model"
	"ai-agent-be/pkg/database"
)

func main() {
	cfg := config.Load()

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatalf("Unable to connect to GORM DB: %v", err)
	}

	// pgvector must exist before the embeddings table can be created.
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		log.Fatalf("Failed to create vector extension: %v", err)
	}

	if err := db.AutoMigrate(
		&model.ChatSession{},
		&model.DocumentEmbedding{},
	); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("✅ Migration complete")
}
