package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/asmeev28-png/daysbot/internal/domain"
	"github.com/asmeev28-png/daysbot/internal/store"
)

// Dispatcher is the outbound send capability of the chat gateway.
// telegram.Sender implements it.
type Dispatcher interface {
	SendText(chatID int64, text string) error
	SendMedia(chatID int64, kind domain.MediaKind, mediaID, caption string) error
}

// Options configures the scheduler's civil calendar and trigger times.
// Trigger times are minutes since local midnight.
type Options struct {
	Location      *time.Location
	BirthdayAt    int
	EventAt       int
	CleanupAt     int
	SendPause     time.Duration
	RetentionDays int
}

// Scheduler runs four independent timed loops: birthday congratulations,
// event messages, the first-of-month digest and daily cleanup.
type Scheduler struct {
	repo store.Repo
	res  *Resolver
	disp Dispatcher
	log  *zap.Logger
	opt  Options

	// now is replaceable in tests.
	now func() time.Time
}

func New(repo store.Repo, disp Dispatcher, log *zap.Logger, opt Options) *Scheduler {
	if opt.Location == nil {
		opt.Location = time.FixedZone("UTC+3", 3*3600)
	}
	if opt.SendPause <= 0 {
		opt.SendPause = time.Second
	}
	if opt.RetentionDays <= 0 {
		opt.RetentionDays = 30
	}
	return &Scheduler{
		repo: repo,
		res:  NewResolver(repo),
		disp: disp,
		log:  log,
		opt:  opt,
		now:  time.Now,
	}
}

// Resolver exposes the due-item resolver for command handlers.
func (s *Scheduler) Resolver() *Resolver { return s.res }

// localNow returns the current time in the fixed civil calendar.
func (s *Scheduler) localNow() time.Time {
	return s.now().In(s.opt.Location)
}

// Run starts all loops and blocks until ctx is canceled and every loop has
// finished its in-flight batch.
func (s *Scheduler) Run(ctx context.Context) {
	loops := []struct {
		name     string
		next     func(time.Time) time.Time
		job      func(context.Context) error
		fallback time.Duration
	}{
		{"birthdays", nextDaily(s.opt.BirthdayAt), s.sendBirthdays, time.Minute},
		{"events", nextDaily(s.opt.EventAt), s.sendEvents, time.Minute},
		{"monthly-digest", nextMonthStart, s.sendMonthlyDigests, time.Hour},
		{"cleanup", nextDaily(s.opt.CleanupAt), s.cleanup, time.Hour},
	}

	var wg sync.WaitGroup
	for _, l := range loops {
		l := l
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.runLoop(ctx, l.name, l.next, l.job, l.fallback)
		}()
	}
	wg.Wait()
	s.log.Info("scheduler stopped")
}

// runLoop sleeps until the next trigger, runs the job, and repeats. A job
// fault is logged and followed by a bounded back-off sleep instead of
// terminating the loop.
func (s *Scheduler) runLoop(ctx context.Context, name string, next func(time.Time) time.Time, job func(context.Context) error, fallback time.Duration) {
	log := s.log.With(zap.String("loop", name))
	for {
		fireAt := next(s.localNow())
		log.Debug("waiting for next trigger", zap.Time("at", fireAt))
		if !s.sleepUntil(ctx, fireAt) {
			log.Info("loop stopping")
			return
		}
		if err := s.runJob(ctx, job); err != nil {
			log.Error("job failed", zap.Error(err))
			if !s.sleepFor(ctx, fallback) {
				log.Info("loop stopping")
				return
			}
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, job func(context.Context) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panic: %v", p)
		}
	}()
	return job(ctx)
}

// sleepUntil blocks until t or cancellation; reports false when canceled.
func (s *Scheduler) sleepUntil(ctx context.Context, t time.Time) bool {
	return s.sleepFor(ctx, t.Sub(s.now()))
}

func (s *Scheduler) sleepFor(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// nextDaily returns the next occurrence of the given minute-of-day, rolling
// to tomorrow when the time has already passed.
func nextDaily(minuteOfDay int) func(time.Time) time.Time {
	return func(now time.Time) time.Time {
		target := time.Date(now.Year(), now.Month(), now.Day(),
			minuteOfDay/60, minuteOfDay%60, 0, 0, now.Location())
		if !target.After(now) {
			target = target.AddDate(0, 0, 1)
		}
		return target
	}
}

// nextMonthStart returns midnight of the first day of the next month.
func nextMonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, now.Location())
}

// ---- jobs ----

func (s *Scheduler) sendBirthdays(ctx context.Context) error {
	today := s.localNow()
	due, err := s.res.DueBirthdays(ctx, today)
	if err != nil {
		return fmt.Errorf("resolve due birthdays: %w", err)
	}
	if len(due) == 0 {
		s.log.Info("no birthdays today")
		return nil
	}
	s.log.Info("sending birthday congratulations", zap.Int("count", len(due)))

	for i := range due {
		if ctx.Err() != nil {
			return nil
		}
		b := &due[i]
		log := s.log.With(zap.Int64("chatID", b.ChatID), zap.Int64("userID", b.UserID))

		sent, err := s.repo.WasBirthdaySent(ctx, b.ChatID, b.UserID, today)
		if err != nil {
			log.Error("sent-marker check failed", zap.Error(err))
			continue
		}
		if sent {
			continue
		}
		allowed, err := s.repo.IsChatAllowed(ctx, b.ChatID)
		if err != nil {
			log.Error("chat check failed", zap.Error(err))
			continue
		}
		if !allowed {
			log.Warn("chat no longer allowed, skipping")
			continue
		}
		c, err := s.repo.RandomCongratulation(ctx)
		if err != nil {
			log.Warn("no congratulation available", zap.Error(err))
			continue
		}
		if err := s.disp.SendText(b.ChatID, domain.BirthdayGreeting(b.Mention(), c.Text)); err != nil {
			log.Error("send failed", zap.Error(err))
			continue
		}
		if err := s.repo.MarkBirthdaySent(ctx, b.ChatID, b.UserID, c.ID, today); err != nil {
			// The message is out but the marker is not: a repeated run today
			// may congratulate twice. Recoverable, so only log it.
			log.Error("sent-marker write failed, duplicate send possible", zap.Error(err))
		}
		s.pause(ctx)
	}
	return nil
}

func (s *Scheduler) sendEvents(ctx context.Context) error {
	today := s.localNow()
	due, err := s.res.DueEvents(ctx, today)
	if err != nil {
		return fmt.Errorf("resolve due events: %w", err)
	}
	if len(due) == 0 {
		s.log.Info("no events today")
		return nil
	}
	s.log.Info("sending event messages", zap.Int("count", len(due)))

	for i := range due {
		if ctx.Err() != nil {
			return nil
		}
		e := &due[i]
		log := s.log.With(zap.Int64("eventID", e.ID), zap.Int64("chatID", e.ChatID))

		allowed, err := s.repo.IsChatAllowed(ctx, e.ChatID)
		if err != nil {
			log.Error("chat check failed", zap.Error(err))
			continue
		}
		if !allowed {
			log.Warn("chat no longer allowed, skipping")
			continue
		}
		text := domain.EventMessage(e)
		if e.MediaID != "" && e.MediaKind != "" {
			err = s.disp.SendMedia(e.ChatID, e.MediaKind, e.MediaID, text)
		} else {
			err = s.disp.SendText(e.ChatID, text)
		}
		if err != nil {
			log.Error("send failed", zap.Error(err))
			continue
		}
		if err := s.repo.MarkEventSent(ctx, e.ID, today); err != nil {
			log.Error("sent-marker write failed, duplicate send possible", zap.Error(err))
		}
		s.pause(ctx)
	}
	return nil
}

func (s *Scheduler) sendMonthlyDigests(ctx context.Context) error {
	today := s.localNow()
	chats, err := s.repo.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	for _, chat := range chats {
		if ctx.Err() != nil {
			return nil
		}
		birthdays, err := s.repo.ListBirthdaysByChat(ctx, chat.ChatID)
		if err != nil {
			s.log.Error("list birthdays failed", zap.Error(err), zap.Int64("chatID", chat.ChatID))
			continue
		}
		text := domain.FormatMonthlyDigest(int(today.Month()), birthdays)
		if text == "" {
			continue
		}
		if err := s.disp.SendText(chat.ChatID, text); err != nil {
			s.log.Error("digest send failed", zap.Error(err), zap.Int64("chatID", chat.ChatID))
			continue
		}
		s.pause(ctx)
	}
	return nil
}

func (s *Scheduler) cleanup(ctx context.Context) error {
	today := s.localNow()
	before := today.AddDate(0, 0, -s.opt.RetentionDays)
	if err := s.repo.PurgeSentMarkers(ctx, before); err != nil {
		return fmt.Errorf("purge sent-markers: %w", err)
	}
	n, err := s.repo.DeactivateElapsedEvents(ctx, today)
	if err != nil {
		return fmt.Errorf("deactivate elapsed events: %w", err)
	}
	if n > 0 {
		s.log.Info("deactivated elapsed one-time events", zap.Int64("count", n))
	}
	return nil
}

// pause is the courtesy delay between sends, interruptible by cancellation.
func (s *Scheduler) pause(ctx context.Context) {
	_ = s.sleepFor(ctx, s.opt.SendPause)
}
