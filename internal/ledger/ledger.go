// Package ledger maintains the append-only message history for each
// user/persona conversation.
package ledger

import (
	"fmt"
	"time"

	"github.com/kindredapp/kindred/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoiceMeta carries the optional voice rendering attached to a message. The
// three persisted voice fields are set together from this or not at all.
type VoiceMeta struct {
	URL          string
	DurationSecs int
}

// GetOrCreateConversation returns the conversation for personaID, creating
// it if absent. The insert is an ON CONFLICT DO NOTHING against the unique
// persona_id index followed by a re-read, so two callers racing on first
// contact converge on a single row: the first insert wins.
func GetOrCreateConversation(gdb *gorm.DB, userID, personaID uint) (*models.Conversation, error) {
	conv := models.Conversation{
		UserID:        userID,
		PersonaID:     personaID,
		LastMessageAt: time.Now(),
	}
	err := gdb.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "persona_id"}},
		DoNothing: true,
	}).Create(&conv).Error
	if err != nil {
		return nil, fmt.Errorf("ledger: create conversation for persona %d: %w", personaID, err)
	}

	var existing models.Conversation
	if err := gdb.Where("persona_id = ?", personaID).First(&existing).Error; err != nil {
		return nil, fmt.Errorf("ledger: load conversation for persona %d: %w", personaID, err)
	}
	return &existing, nil
}

// Append creates a new message with a server-assigned timestamp and bumps
// the conversation's last-message marker.
func Append(gdb *gorm.DB, conversationID uint, content string, fromPersona bool, voice *VoiceMeta) (*models.Message, error) {
	if content == "" {
		return nil, fmt.Errorf("ledger: content is required")
	}

	msg := models.Message{
		ConversationID: conversationID,
		Content:        content,
		IsFromPersona:  fromPersona,
		SentAt:         time.Now(),
		Status:         models.StatusSent,
		DeliveredVia:   models.ViaInApp,
	}
	if voice != nil {
		msg.HasVoice = true
		msg.VoiceURL = &voice.URL
		msg.VoiceDurationSecs = &voice.DurationSecs
	}

	if err := gdb.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("ledger: append to conversation %d: %w", conversationID, err)
	}
	if err := Touch(gdb, conversationID, msg.SentAt); err != nil {
		return nil, err
	}
	return &msg, nil
}

// List returns all messages for a conversation in send order. Recomputed
// fresh on every call; not a cursor.
func List(gdb *gorm.DB, conversationID uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := gdb.Where("conversation_id = ?", conversationID).
		Order("sent_at ASC, id ASC").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("ledger: list conversation %d: %w", conversationID, err)
	}
	return msgs, nil
}

// Touch sets the conversation's last-message timestamp.
func Touch(gdb *gorm.DB, conversationID uint, at time.Time) error {
	result := gdb.Model(&models.Conversation{}).Where("id = ?", conversationID).
		UpdateColumn("last_message_at", at)
	if result.Error != nil {
		return fmt.Errorf("ledger: touch conversation %d: %w", conversationID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("ledger: conversation not found: %d", conversationID)
	}
	return nil
}

// MarkDelivered escalates a message from sent to delivered and tags it as
// relayed out-of-band. The status guard in the WHERE clause makes the
// transition forward-only and at-most-once.
func MarkDelivered(gdb *gorm.DB, messageID uint) error {
	result := gdb.Model(&models.Message{}).
		Where("id = ? AND status = ?", messageID, models.StatusSent).
		Updates(map[string]interface{}{
			"status":        models.StatusDelivered,
			"delivered_via": models.ViaOutOfBand,
		})
	if result.Error != nil {
		return fmt.Errorf("ledger: mark delivered %d: %w", messageID, result.Error)
	}
	return nil
}

// MarkConversationRead escalates every persona-sent message in the
// conversation to read. Already-read messages are untouched.
func MarkConversationRead(gdb *gorm.DB, conversationID uint) (int64, error) {
	result := gdb.Model(&models.Message{}).
		Where("conversation_id = ? AND is_from_persona = ? AND status <> ?",
			conversationID, true, models.StatusRead).
		UpdateColumn("status", models.StatusRead)
	if result.Error != nil {
		return 0, fmt.Errorf("ledger: mark read conversation %d: %w", conversationID, result.Error)
	}
	return result.RowsAffected, nil
}

// ClearVoice removes a message's voice rendering. All three voice fields go
// together.
func ClearVoice(gdb *gorm.DB, messageID uint) error {
	result := gdb.Model(&models.Message{}).Where("id = ?", messageID).
		Updates(map[string]interface{}{
			"has_voice":           false,
			"voice_url":           nil,
			"voice_duration_secs": nil,
		})
	if result.Error != nil {
		return fmt.Errorf("ledger: clear voice %d: %w", messageID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("ledger: message not found: %d", messageID)
	}
	return nil
}
