package main

import (
	"fmt"

	"github.com/kindredapp/kindred/internal/config"
	"github.com/kindredapp/kindred/internal/db"
	"github.com/kindredapp/kindred/internal/generate"
	"github.com/kindredapp/kindred/internal/relay"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// openDB loads config and connects to the database, the common preamble of
// every command that touches storage.
func openDB(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg.Database.User, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
	}
	return cfg, gdb, nil
}

// newLogger builds the service logger.
func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// newGenerator builds the OpenAI-backed content generator from config.
func newGenerator(cfg *config.Config, logger *zap.Logger) *generate.OpenAIGenerator {
	return generate.NewOpenAIGenerator(generate.OpenAIOpts{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		VoiceModel:  cfg.OpenAI.VoiceModel,
		Voice:       cfg.OpenAI.Voice,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		MediaDir:    cfg.Media.Dir,
		BaseURL:     cfg.Media.BaseURL,
	}, logger)
}

// newRelays registers every delivery channel with credentials in config.
func newRelays(cfg *config.Config, logger *zap.Logger) (*relay.Registry, error) {
	var channels []relay.Channel
	if wa := cfg.Relay.WhatsApp; wa.AccountSID != "" {
		channels = append(channels,
			relay.NewWhatsAppChannel(wa.AccountSID, wa.AuthToken, wa.From, logger))
	}
	if cfg.Relay.Slack.BotToken != "" {
		channels = append(channels, relay.NewSlackChannel(cfg.Relay.Slack.BotToken, logger))
	}
	if cfg.Relay.Discord.BotToken != "" {
		ch, err := relay.NewDiscordChannel(cfg.Relay.Discord.BotToken, logger)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	return relay.NewRegistry(channels...), nil
}
