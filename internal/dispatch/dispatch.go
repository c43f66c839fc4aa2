// Package dispatch implements the scheduled proactive-message loop: once per
// tick it scans active personas, decides eligibility, generates content, and
// relays it out-of-band where personas have opted in.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/kindredapp/kindred/internal/generate"
	"github.com/kindredapp/kindred/internal/ledger"
	"github.com/kindredapp/kindred/internal/models"
	"github.com/kindredapp/kindred/internal/quota"
	"github.com/kindredapp/kindred/internal/relay"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Default eligibility window for daily and weekly sends.
const (
	DefaultSendHour    = 9
	DefaultSendWeekday = time.Monday
)

// Dispatcher drives one proactive-message cycle per eligible persona per
// tick. It owns no timer; the trigger boundary calls RunTick.
type Dispatcher struct {
	db          *gorm.DB
	gen         generate.Generator
	relays      *relay.Registry
	logger      *zap.Logger
	sendHour    int
	sendWeekday time.Weekday
}

// Opts holds construction parameters for Dispatcher. SendHour and
// SendWeekday are pointers because their zero values (midnight, Sunday) are
// legal windows; nil means "use the default".
type Opts struct {
	DB          *gorm.DB
	Generator   generate.Generator
	Relays      *relay.Registry // nil disables out-of-band delivery
	Logger      *zap.Logger
	SendHour    *int          // nil means DefaultSendHour
	SendWeekday *time.Weekday // nil means DefaultSendWeekday
}

// New creates a Dispatcher.
func New(opts Opts) (*Dispatcher, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("dispatch: db is required")
	}
	if opts.Generator == nil {
		return nil, fmt.Errorf("dispatch: generator is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	sendHour := DefaultSendHour
	if opts.SendHour != nil {
		if *opts.SendHour < 0 || *opts.SendHour > 23 {
			return nil, fmt.Errorf("dispatch: send hour %d out of range", *opts.SendHour)
		}
		sendHour = *opts.SendHour
	}
	sendWeekday := DefaultSendWeekday
	if opts.SendWeekday != nil {
		sendWeekday = *opts.SendWeekday
	}
	return &Dispatcher{
		db:          opts.DB,
		gen:         opts.Generator,
		relays:      opts.Relays,
		logger:      opts.Logger,
		sendHour:    sendHour,
		sendWeekday: sendWeekday,
	}, nil
}

// TickStats summarizes one dispatch tick.
type TickStats struct {
	Personas     int // active personas enumerated
	Eligible     int // passed the frequency gate
	Sent         int // message appended
	QuotaSkipped int // owner over quota
	Failed       int // pipeline failed, persona skipped
}

// RunTick runs one dispatch tick at the given time. now is explicit so
// eligibility is deterministic under test; RunTick never reads the wall
// clock for policy decisions. Per-persona failures are logged and skipped;
// only a failure to enumerate personas aborts the tick.
func (d *Dispatcher) RunTick(ctx context.Context, now time.Time) (TickStats, error) {
	var stats TickStats

	var personas []models.Persona
	if err := d.db.WithContext(ctx).Where("is_active = ?", true).Find(&personas).Error; err != nil {
		return stats, fmt.Errorf("dispatch: enumerate personas: %w", err)
	}
	stats.Personas = len(personas)

	for i := range personas {
		p := &personas[i]
		if !Eligible(p.MessageFrequency, now, d.sendHour, d.sendWeekday) {
			continue
		}
		stats.Eligible++

		sent, err := d.dispatchOne(ctx, now, p)
		switch {
		case err != nil:
			stats.Failed++
			d.logger.Error("persona dispatch failed",
				zap.Uint("persona", p.ID),
				zap.Uint("user", p.UserID),
				zap.Error(err))
		case sent:
			stats.Sent++
		default:
			stats.QuotaSkipped++
		}
	}

	d.logger.Info("dispatch tick complete",
		zap.Time("now", now),
		zap.Int("personas", stats.Personas),
		zap.Int("eligible", stats.Eligible),
		zap.Int("sent", stats.Sent),
		zap.Int("quota_skipped", stats.QuotaSkipped),
		zap.Int("failed", stats.Failed))
	return stats, nil
}

// dispatchOne runs the per-persona pipeline. Returns (false, nil) for a
// quota skip. A panic anywhere in the pipeline is recovered into an error
// so one misbehaving generator or store call cannot abort the whole tick.
func (d *Dispatcher) dispatchOne(ctx context.Context, now time.Time, p *models.Persona) (sent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			sent = false
			err = fmt.Errorf("dispatch: panic: %v", r)
		}
	}()

	gdb := d.db.WithContext(ctx)

	conv, err := ledger.GetOrCreateConversation(gdb, p.UserID, p.ID)
	if err != nil {
		return false, err
	}

	ok, err := quota.Check(gdb, p.UserID)
	if err != nil {
		return false, err
	}
	if !ok {
		d.logger.Debug("quota exhausted, skipping persona",
			zap.Uint("persona", p.ID),
			zap.Uint("user", p.UserID))
		return false, nil
	}

	history, err := ledger.List(gdb, conv.ID)
	if err != nil {
		return false, err
	}

	text, genErr := d.gen.ProactiveMessage(ctx, p, history)
	switch {
	case genErr == nil:
		if err := quota.Increment(gdb, p.UserID, 1); err != nil {
			return false, err
		}
	case generate.Retryable(genErr):
		// Transient backend outage degrades to the template fallback
		// rather than dropping this persona's message. No usage charge:
		// nothing was generated.
		d.logger.Warn("generation degraded to fallback",
			zap.Uint("persona", p.ID),
			zap.Error(genErr))
		text = generate.FallbackText(p)
	default:
		return false, genErr
	}

	// Voice is best-effort and independently fallible; the message goes out
	// without audio when synthesis is unavailable.
	var voice *ledger.VoiceMeta
	if vref, verr := d.gen.SynthesizeVoice(ctx, text, p); verr != nil {
		d.logger.Warn("voice synthesis failed",
			zap.Uint("persona", p.ID),
			zap.Error(verr))
	} else if vref != nil {
		voice = &ledger.VoiceMeta{URL: vref.URL, DurationSecs: vref.DurationSecs}
	}

	msg, err := ledger.Append(gdb, conv.ID, text, true, voice)
	if err != nil {
		return false, err
	}

	d.relayOutOfBand(ctx, p, msg)
	return true, nil
}

// relayOutOfBand mirrors the message to the persona's delivery channel if
// one is configured. Failure leaves the message at "sent"; there is no
// retry within the tick because the relay call is not idempotent.
func (d *Dispatcher) relayOutOfBand(ctx context.Context, p *models.Persona, msg *models.Message) {
	if !p.DeliveryEnabled() {
		return
	}
	ch := d.relays.Get(p.DeliveryChannel)
	if ch == nil {
		d.logger.Warn("delivery channel not configured",
			zap.Uint("persona", p.ID),
			zap.String("channel", p.DeliveryChannel))
		return
	}
	if !ch.Relay(ctx, p.DeliveryAddress, msg.Content) {
		d.logger.Warn("out-of-band relay failed",
			zap.Uint("persona", p.ID),
			zap.String("channel", p.DeliveryChannel))
		return
	}
	if err := ledger.MarkDelivered(d.db.WithContext(ctx), msg.ID); err != nil {
		d.logger.Error("mark delivered failed",
			zap.Uint("persona", p.ID),
			zap.Uint("message", msg.ID),
			zap.Error(err))
	}
}
