package models

import "time"

// Message delivery status. Transitions are forward-only:
// sent -> delivered -> read.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// How a message reached the user.
const (
	ViaInApp     = "in-app"
	ViaOutOfBand = "out-of-band"
)

// Message is one append-only entry in a conversation's ledger. After
// creation only Status and the voice triple ever change.
type Message struct {
	ID             uint      `gorm:"primaryKey;autoIncrement"`
	ConversationID uint      `gorm:"not null;index"`
	Content        string    `gorm:"type:text;not null"`
	IsFromPersona  bool      `gorm:"not null;default:false"`
	SentAt         time.Time `gorm:"not null;index"`
	Status         string    `gorm:"size:16;not null;default:sent"`
	DeliveredVia   string    `gorm:"size:16;not null;default:in-app"`

	// Voice triple: jointly present or jointly absent.
	HasVoice          bool `gorm:"not null;default:false"`
	VoiceURL          *string
	VoiceDurationSecs *int

	CreatedAt time.Time
}
