package models

import "time"

// Conversation binds a user and a persona 1:1, lazily created on first
// contact. The unique index on PersonaID is what makes
// ledger.GetOrCreateConversation safe when the reactive and scheduled paths
// race to create it.
type Conversation struct {
	ID            uint `gorm:"primaryKey;autoIncrement"`
	UserID        uint `gorm:"not null;index"`
	PersonaID     uint `gorm:"not null;uniqueIndex"`
	LastMessageAt time.Time
	CreatedAt     time.Time

	Messages []Message `gorm:"foreignKey:ConversationID"`
}
