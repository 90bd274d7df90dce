package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Kauasx09-Henrique/Mava-connect/internal/config"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/notify"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/distlock"
	"github.com/Kauasx09-Henrique/Mava-connect/internal/pkg/logger"
)

// =============================================================================
// DAILY REMINDER SCHEDULER
// =============================================================================
// Publishes a fixed reminder through the notification bus once per day at a
// wall-clock time in a configured zone. It never reads or writes the
// database. A fire that falls while the process is down is skipped; there is
// no catch-up. With Redis configured, a lock keyed by the local date makes
// exactly one replica publish each day.

// reminderLockTTL keeps the daily lock until well after every replica's
// timer for that day has fired.
const reminderLockTTL = 23 * time.Hour

// ReminderConfig configures the daily reminder.
type ReminderConfig struct {
	Hour     int
	Minute   int
	Location *time.Location
	Message  string
}

// ReminderScheduler fires the daily reminder.
type ReminderScheduler struct {
	publisher   notify.Publisher
	redisClient *redis.Client // optional; nil means single replica
	cfg         ReminderConfig
	now         func() time.Time

	fired int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewReminderScheduler creates a reminder scheduler publishing to pub.
func NewReminderScheduler(pub notify.Publisher, cfg ReminderConfig) *ReminderScheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &ReminderScheduler{publisher: pub, cfg: cfg, now: time.Now}
}

// NewReminderFromConfig builds a scheduler from the notifications settings.
// client may be nil.
func NewReminderFromConfig(cfg config.NotificationsConfig, pub notify.Publisher, client *redis.Client) (*ReminderScheduler, error) {
	hour, minute, err := cfg.ReminderClock()
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("reminder timezone: %w", err)
	}
	rs := NewReminderScheduler(pub, ReminderConfig{
		Hour:     hour,
		Minute:   minute,
		Location: loc,
		Message:  cfg.ReminderMessage,
	})
	if client != nil {
		rs.SetRedisClient(client)
	}
	return rs, nil
}

// SetRedisClient enables the cross-replica once-per-day lock.
func (rs *ReminderScheduler) SetRedisClient(client *redis.Client) {
	rs.redisClient = client
}

// Fired returns how many reminders this process has published.
func (rs *ReminderScheduler) Fired() int64 { return atomic.LoadInt64(&rs.fired) }

// Start begins the scheduling loop.
func (rs *ReminderScheduler) Start() error {
	rs.mu.Lock()
	if rs.running {
		rs.mu.Unlock()
		return fmt.Errorf("reminder scheduler already running")
	}
	rs.running = true
	rs.ctx, rs.cancel = context.WithCancel(context.Background())
	rs.mu.Unlock()

	logger.Info("reminder scheduler starting",
		"at", fmt.Sprintf("%02d:%02d", rs.cfg.Hour, rs.cfg.Minute),
		"timezone", rs.cfg.Location.String(),
		"next", rs.NextFire().Format(time.RFC3339),
	)

	rs.wg.Add(1)
	go rs.loop()
	return nil
}

// Stop gracefully stops the scheduler
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	if !rs.running {
		rs.mu.Unlock()
		return
	}
	rs.running = false
	rs.mu.Unlock()

	rs.cancel()
	rs.wg.Wait()
	logger.Info("reminder scheduler stopped", "fired", rs.Fired())
}

// NextFire returns the next scheduled fire after the current time.
func (rs *ReminderScheduler) NextFire() time.Time {
	return NextDailyFire(rs.now(), rs.cfg.Hour, rs.cfg.Minute, rs.cfg.Location)
}

func (rs *ReminderScheduler) loop() {
	defer rs.wg.Done()

	for {
		next := rs.NextFire()
		timer := time.NewTimer(next.Sub(rs.now()))
		select {
		case <-rs.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			rs.fire(rs.ctx, next)
		}
	}
}

// fire publishes the reminder for the day of at, unless another replica
// already did.
func (rs *ReminderScheduler) fire(ctx context.Context, at time.Time) {
	day := at.In(rs.cfg.Location).Format("2006-01-02")
	lock := distlock.NewLock(rs.redisClient, "reminder:"+day, reminderLockTTL)

	ok, err := lock.Acquire(ctx)
	if err != nil {
		logger.Error("reminder lock failed, skipping", "day", day, "err", err)
		return
	}
	if !ok {
		logger.Debug("reminder already sent by another replica", "day", day)
		return
	}

	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := rs.publisher.Publish(pctx, notify.Notification(rs.cfg.Message)); err != nil {
		logger.Error("reminder publish failed", "day", day, "err", err)
		return
	}
	atomic.AddInt64(&rs.fired, 1)
	logger.Info("daily reminder published", "day", day)
}

// NextDailyFire returns the first hour:minute wall-clock instant in loc
// strictly after now.
func NextDailyFire(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return next
}
