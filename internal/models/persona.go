package models

import (
	"encoding/json"
	"time"
)

// Message frequency classes. The dispatch loop maps these onto its hourly
// tick; see dispatch.Eligible.
const (
	FrequencyOften  = "often"
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"
	FrequencyNever  = "never"
)

// Delivery channels a persona can opt into. Empty means in-app only.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelSlack    = "slack"
	ChannelDiscord  = "discord"
)

// Persona is a user-owned generation profile. Trait scores are bounded 0-10
// and validated at the editing boundary; the dispatcher and generator treat
// them as trusted.
type Persona struct {
	ID     uint   `gorm:"primaryKey;autoIncrement"`
	UserID uint   `gorm:"not null;index"`
	Name   string `gorm:"size:128;not null"`

	Warmth    int `gorm:"not null;default:5"`
	Humor     int `gorm:"not null;default:5"`
	Formality int `gorm:"not null;default:5"`
	Curiosity int `gorm:"not null;default:5"`
	Energy    int `gorm:"not null;default:5"`

	Interests        string `gorm:"type:text"` // JSON array of tags, ordered
	IsActive         bool   `gorm:"not null;default:true;index"`
	MessageFrequency string `gorm:"size:16;not null;default:daily"`

	DeliveryChannel string `gorm:"size:16"`
	DeliveryAddress string `gorm:"size:256"`

	CreatedAt time.Time
	UpdatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}

// InterestTags decodes the JSON-encoded interest list. A missing or
// malformed list decodes to nil rather than an error; interests are a hint,
// not load-bearing state.
func (p *Persona) InterestTags() []string {
	if p.Interests == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(p.Interests), &tags); err != nil {
		return nil
	}
	return tags
}

// SetInterestTags encodes tags into the Interests column, preserving order.
func (p *Persona) SetInterestTags(tags []string) error {
	data, err := json.Marshal(tags)
	if err != nil {
		return err
	}
	p.Interests = string(data)
	return nil
}

// DeliveryEnabled reports whether the persona has opted into out-of-band
// delivery. Both channel and address are required so a half-configured row
// stays in-app.
func (p *Persona) DeliveryEnabled() bool {
	return p.DeliveryChannel != "" && p.DeliveryAddress != ""
}
