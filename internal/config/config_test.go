package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
server:
  port: 9090

database:
  user: kindred
  password: hunter2
  host: 10.0.0.5
  port: 3307
  name: kindred_prod

openai:
  api_key: sk-test
  model: gpt-4o
  max_tokens: 500
  temperature: 0.7

schedule:
  send_hour: 8
  send_weekday: Friday
  tick_cron: "30 * * * *"

media:
  dir: /var/lib/kindred/media
  base_url: https://kindred.example.com

relay:
  whatsapp:
    account_sid: ACxxxx
    auth_token: token
    from: "whatsapp:+14155238886"
  slack:
    bot_token: xoxb-test
`

const minimalYAML = `
openai:
  api_key: sk-test
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Name != "kindred_prod" {
		t.Errorf("Database.Name = %q", cfg.Database.Name)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("OpenAI.Model = %q", cfg.OpenAI.Model)
	}
	if cfg.SendHourValue() != 8 {
		t.Errorf("SendHourValue = %d, want 8", cfg.SendHourValue())
	}
	if cfg.SendWeekdayValue() != time.Friday {
		t.Errorf("SendWeekdayValue = %v, want Friday", cfg.SendWeekdayValue())
	}
	if cfg.Schedule.TickCron != "30 * * * *" {
		t.Errorf("Schedule.TickCron = %q", cfg.Schedule.TickCron)
	}
	if cfg.Relay.WhatsApp.From != "whatsapp:+14155238886" {
		t.Errorf("Relay.WhatsApp.From = %q", cfg.Relay.WhatsApp.From)
	}
}

func TestParse_MinimalConfigDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "127.0.0.1" || cfg.Database.Port != 3306 {
		t.Errorf("Database defaults = %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("OpenAI.Model default = %q", cfg.OpenAI.Model)
	}
	if cfg.SendHourValue() != 9 {
		t.Errorf("SendHourValue default = %d, want 9", cfg.SendHourValue())
	}
	if cfg.SendWeekdayValue() != time.Monday {
		t.Errorf("SendWeekdayValue default = %v, want Monday", cfg.SendWeekdayValue())
	}
	if cfg.Schedule.TickCron != "0 * * * *" {
		t.Errorf("Schedule.TickCron default = %q", cfg.Schedule.TickCron)
	}
	if cfg.Schedule.ResetCron != "0 0 * * *" {
		t.Errorf("Schedule.ResetCron default = %q", cfg.Schedule.ResetCron)
	}
	if cfg.Media.BaseURL != "http://localhost:8080" {
		t.Errorf("Media.BaseURL default = %q", cfg.Media.BaseURL)
	}
}

// An explicit midnight send hour must survive defaulting; 0 is a valid hour,
// not an absent key.
func TestParse_MidnightSendHour(t *testing.T) {
	cfg, err := Parse([]byte("openai:\n  api_key: sk-test\nschedule:\n  send_hour: 0\n  send_weekday: Sunday\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SendHourValue() != 0 {
		t.Errorf("SendHourValue = %d, want 0", cfg.SendHourValue())
	}
	if cfg.SendWeekdayValue() != time.Sunday {
		t.Errorf("SendWeekdayValue = %v, want Sunday", cfg.SendWeekdayValue())
	}
}

func TestParse_SendHourOutOfRange(t *testing.T) {
	_, err := Parse([]byte("openai:\n  api_key: sk-test\nschedule:\n  send_hour: 24\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "send_hour") {
		t.Errorf("error = %q", err)
	}
}

func TestParse_MissingAPIKey(t *testing.T) {
	_, err := Parse([]byte("server:\n  port: 8080\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "openai.api_key is required") {
		t.Errorf("error = %q", err)
	}
}

func TestParse_BadWeekday(t *testing.T) {
	_, err := Parse([]byte("openai:\n  api_key: sk-test\nschedule:\n  send_weekday: Someday\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "send_weekday") {
		t.Errorf("error = %q", err)
	}
}

func TestParse_WhatsAppMissingFrom(t *testing.T) {
	_, err := Parse([]byte("openai:\n  api_key: sk-test\nrelay:\n  whatsapp:\n    account_sid: ACxxxx\n"))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "relay.whatsapp.from") {
		t.Errorf("error = %q", err)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kindred.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-test" {
		t.Errorf("APIKey = %q", cfg.OpenAI.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParseWeekday(t *testing.T) {
	wd, err := ParseWeekday("monday")
	if err != nil || wd != time.Monday {
		t.Errorf("ParseWeekday(monday) = %v, %v", wd, err)
	}
	if _, err := ParseWeekday("blursday"); err == nil {
		t.Error("expected error for unknown weekday")
	}
}
