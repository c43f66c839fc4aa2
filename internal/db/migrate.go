package db

import (
	"fmt"

	"github.com/kindredapp/kindred/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model the service persists, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Persona{},
		&models.Conversation{},
		&models.Message{},
	}
}

// AutoMigrate creates or updates all tables, including the unique index on
// conversations.persona_id that the ledger's upsert relies on.
func AutoMigrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return nil
}
