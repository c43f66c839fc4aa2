// Package config provides YAML-based configuration loading for Kindred.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Kindred configuration, loaded from kindred.yaml.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Media    MediaConfig    `yaml:"media"`
	Relay    RelayConfig    `yaml:"relay"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds MySQL connection settings.
type DatabaseConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
}

// OpenAIConfig holds settings for the content generator.
type OpenAIConfig struct {
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	VoiceModel  string  `yaml:"voice_model"`
	Voice       string  `yaml:"voice"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// ScheduleConfig holds the dispatch-tick eligibility window and the cron
// expressions for the two external triggers. SendHour is a pointer so that
// an explicit midnight (0) is distinguishable from an absent key.
type ScheduleConfig struct {
	SendHour    *int   `yaml:"send_hour"`    // hour gate for daily/weekly sends
	SendWeekday string `yaml:"send_weekday"` // weekday gate for weekly sends
	TickCron    string `yaml:"tick_cron"`    // dispatch-tick cadence
	ResetCron   string `yaml:"reset_cron"`   // usage-reset cadence
}

// MediaConfig holds storage settings for synthesized voice audio.
type MediaConfig struct {
	Dir     string `yaml:"dir"`
	BaseURL string `yaml:"base_url"`
}

// RelayConfig groups delivery-channel credentials. A channel with empty
// credentials is simply not registered.
type RelayConfig struct {
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Slack    SlackConfig    `yaml:"slack"`
	Discord  DiscordConfig  `yaml:"discord"`
}

// WhatsAppConfig holds Twilio credentials for the WhatsApp channel.
type WhatsAppConfig struct {
	AccountSID string `yaml:"account_sid"`
	AuthToken  string `yaml:"auth_token"`
	From       string `yaml:"from"` // e.g. "whatsapp:+14155238886"
}

// SlackConfig holds the bot token for the Slack channel.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
}

// DiscordConfig holds the bot token for the Discord channel.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.User == "" {
		c.Database.User = "kindred"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "kindred"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.VoiceModel == "" {
		c.OpenAI.VoiceModel = "tts-1"
	}
	if c.OpenAI.Voice == "" {
		c.OpenAI.Voice = "alloy"
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 300
	}
	if c.OpenAI.Temperature == 0 {
		c.OpenAI.Temperature = 0.9
	}
	if c.Schedule.SendHour == nil {
		hour := 9
		c.Schedule.SendHour = &hour
	}
	if c.Schedule.SendWeekday == "" {
		c.Schedule.SendWeekday = "Monday"
	}
	if c.Schedule.TickCron == "" {
		c.Schedule.TickCron = "0 * * * *"
	}
	if c.Schedule.ResetCron == "" {
		c.Schedule.ResetCron = "0 0 * * *"
	}
	if c.Media.Dir == "" {
		c.Media.Dir = "media"
	}
	if c.Media.BaseURL == "" {
		c.Media.BaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.OpenAI.APIKey == "" {
		errs = append(errs, "openai.api_key is required")
	}
	if *c.Schedule.SendHour < 0 || *c.Schedule.SendHour > 23 {
		errs = append(errs, "schedule.send_hour must be 0-23")
	}
	if _, err := ParseWeekday(c.Schedule.SendWeekday); err != nil {
		errs = append(errs, fmt.Sprintf("schedule.send_weekday: %v", err))
	}
	if c.Relay.WhatsApp.AccountSID != "" && c.Relay.WhatsApp.From == "" {
		errs = append(errs, "relay.whatsapp.from is required when account_sid is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SendHourValue returns the configured send hour. Only valid after a
// successful Parse.
func (c *Config) SendHourValue() int {
	return *c.Schedule.SendHour
}

// SendWeekdayValue returns the configured weekly-send weekday. Only valid
// after a successful Parse.
func (c *Config) SendWeekdayValue() time.Weekday {
	wd, _ := ParseWeekday(c.Schedule.SendWeekday)
	return wd
}

// ParseWeekday converts an English weekday name into a time.Weekday.
func ParseWeekday(name string) (time.Weekday, error) {
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if strings.EqualFold(wd.String(), name) {
			return wd, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", name)
}
