package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/kindredapp/kindred/internal/db"
	"github.com/kindredapp/kindred/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func TestGetOrCreateConversation(t *testing.T) {
	gdb := testDB(t)

	first, err := GetOrCreateConversation(gdb, 1, 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := GetOrCreateConversation(gdb, 1, 10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("conversation IDs differ: %d vs %d", first.ID, second.ID)
	}

	var count int64
	gdb.Model(&models.Conversation{}).Where("persona_id = ?", 10).Count(&count)
	if count != 1 {
		t.Errorf("conversation count = %d, want 1", count)
	}
}

func TestGetOrCreateConversation_ConcurrentFirstContact(t *testing.T) {
	gdb := testDB(t)

	const n = 8
	ids := make([]uint, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conv, err := GetOrCreateConversation(gdb, 1, 42)
			if err != nil {
				t.Errorf("get-or-create: %v", err)
				return
			}
			ids[i] = conv.ID
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if ids[i] != ids[0] {
			t.Fatalf("divergent conversations: %v", ids)
		}
	}
	var count int64
	gdb.Model(&models.Conversation{}).Where("persona_id = ?", 42).Count(&count)
	if count != 1 {
		t.Errorf("conversation count = %d, want 1", count)
	}
}

func TestAppend(t *testing.T) {
	gdb := testDB(t)
	conv, _ := GetOrCreateConversation(gdb, 1, 10)

	msg, err := Append(gdb, conv.ID, "hello there", true, nil)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if msg.Status != models.StatusSent || msg.DeliveredVia != models.ViaInApp {
		t.Errorf("new message status=%q via=%q", msg.Status, msg.DeliveredVia)
	}
	if msg.HasVoice || msg.VoiceURL != nil || msg.VoiceDurationSecs != nil {
		t.Error("voice fields set without voice meta")
	}

	var got models.Conversation
	gdb.First(&got, conv.ID)
	if !got.LastMessageAt.Equal(msg.SentAt) {
		t.Errorf("LastMessageAt = %v, want %v", got.LastMessageAt, msg.SentAt)
	}
}

func TestAppend_WithVoice(t *testing.T) {
	gdb := testDB(t)
	conv, _ := GetOrCreateConversation(gdb, 1, 10)

	msg, err := Append(gdb, conv.ID, "listen to this", true, &VoiceMeta{
		URL:          "http://localhost:8080/media/abc.mp3",
		DurationSecs: 12,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !msg.HasVoice || msg.VoiceURL == nil || msg.VoiceDurationSecs == nil {
		t.Fatal("voice triple not jointly set")
	}
	if *msg.VoiceDurationSecs != 12 {
		t.Errorf("VoiceDurationSecs = %d, want 12", *msg.VoiceDurationSecs)
	}
}

func TestAppend_EmptyContent(t *testing.T) {
	gdb := testDB(t)
	_, err := Append(gdb, 1, "", true, nil)
	if err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestList_Ordering(t *testing.T) {
	gdb := testDB(t)
	conv, _ := GetOrCreateConversation(gdb, 1, 10)

	for _, text := range []string{"first", "second", "third", "fourth"} {
		if _, err := Append(gdb, conv.ID, text, false, nil); err != nil {
			t.Fatalf("Append %q: %v", text, err)
		}
	}

	msgs, err := List(gdb, conv.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != 4 {
		t.Fatalf("len = %d, want 4", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].SentAt.Before(msgs[i-1].SentAt) {
			t.Errorf("messages out of order at %d: %v before %v", i, msgs[i].SentAt, msgs[i-1].SentAt)
		}
	}
	if msgs[0].Content != "first" || msgs[3].Content != "fourth" {
		t.Errorf("order = %q...%q", msgs[0].Content, msgs[3].Content)
	}
}

func TestList_OrderingConcurrentAppends(t *testing.T) {
	gdb := testDB(t)
	conv, _ := GetOrCreateConversation(gdb, 1, 10)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Append(gdb, conv.ID, "interleaved", true, nil); err != nil {
				t.Errorf("Append: %v", err)
			}
		}()
	}
	wg.Wait()

	msgs, err := List(gdb, conv.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(msgs) != n {
		t.Fatalf("len = %d, want %d", len(msgs), n)
	}
	for i := 1; i < len(msgs); i++ {
		prev, cur := msgs[i-1], msgs[i]
		if cur.SentAt.Before(prev.SentAt) {
			t.Errorf("messages out of order at %d: %v before %v", i, cur.SentAt, prev.SentAt)
		}
		if cur.SentAt.Equal(prev.SentAt) && cur.ID < prev.ID {
			t.Errorf("id tiebreak violated at %d: %d after %d", i, cur.ID, prev.ID)
		}
	}

	// The order is a total order, so a second read yields the same sequence.
	again, err := List(gdb, conv.ID)
	if err != nil {
		t.Fatalf("List (second): %v", err)
	}
	for i := range msgs {
		if again[i].ID != msgs[i].ID {
			t.Fatalf("unstable order at %d: %d vs %d", i, again[i].ID, msgs[i].ID)
		}
	}
}

func TestTouch_MissingConversation(t *testing.T) {
	gdb := testDB(t)
	if err := Touch(gdb, 999, time.Now()); err == nil {
		t.Fatal("expected error for missing conversation")
	}
}

func TestMarkDelivered_ForwardOnly(t *testing.T) {
	gdb := testDB(t)
	conv, _ := GetOrCreateConversation(gdb, 1, 10)
	msg, _ := Append(gdb, conv.ID, "outbound", true, nil)

	if err := MarkDelivered(gdb, msg.ID); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}
	var got models.Message
	gdb.First(&got, msg.ID)
	if got.Status != models.StatusDelivered || got.DeliveredVia != models.ViaOutOfBand {
		t.Errorf("status=%q via=%q after delivery", got.Status, got.DeliveredVia)
	}

	// Escalate to read, then confirm a late relay ack cannot move it back.
	gdb.Model(&models.Message{}).Where("id = ?", msg.ID).
		UpdateColumn("status", models.StatusRead)
	if err := MarkDelivered(gdb, msg.ID); err != nil {
		t.Fatalf("MarkDelivered (second): %v", err)
	}
	gdb.First(&got, msg.ID)
	if got.Status != models.StatusRead {
		t.Errorf("status regressed to %q", got.Status)
	}
}

func TestMarkConversationRead(t *testing.T) {
	gdb := testDB(t)
	conv, _ := GetOrCreateConversation(gdb, 1, 10)
	Append(gdb, conv.ID, "from persona", true, nil)
	Append(gdb, conv.ID, "from user", false, nil)
	Append(gdb, conv.ID, "from persona again", true, nil)

	n, err := MarkConversationRead(gdb, conv.ID)
	if err != nil {
		t.Fatalf("MarkConversationRead: %v", err)
	}
	if n != 2 {
		t.Errorf("rows affected = %d, want 2", n)
	}

	msgs, _ := List(gdb, conv.ID)
	for _, m := range msgs {
		if m.IsFromPersona && m.Status != models.StatusRead {
			t.Errorf("persona message %d status = %q", m.ID, m.Status)
		}
		if !m.IsFromPersona && m.Status != models.StatusSent {
			t.Errorf("user message %d status = %q", m.ID, m.Status)
		}
	}
}

func TestClearVoice(t *testing.T) {
	gdb := testDB(t)
	conv, _ := GetOrCreateConversation(gdb, 1, 10)
	msg, _ := Append(gdb, conv.ID, "with audio", true, &VoiceMeta{URL: "u", DurationSecs: 3})

	if err := ClearVoice(gdb, msg.ID); err != nil {
		t.Fatalf("ClearVoice: %v", err)
	}
	var got models.Message
	gdb.First(&got, msg.ID)
	if got.HasVoice || got.VoiceURL != nil || got.VoiceDurationSecs != nil {
		t.Error("voice triple not jointly cleared")
	}

	if err := ClearVoice(gdb, 999); err == nil {
		t.Error("expected error for missing message")
	}
}
