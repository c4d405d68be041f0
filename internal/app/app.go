package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/asmeev28-png/daysbot/assets"
	"github.com/asmeev28-png/daysbot/internal/config"
	"github.com/asmeev28-png/daysbot/internal/domain"
	"github.com/asmeev28-png/daysbot/internal/scheduler"
	"github.com/asmeev28-png/daysbot/internal/store"
	"github.com/asmeev28-png/daysbot/internal/telegram"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	router  *telegram.Router
	sched   *scheduler.Scheduler
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting daysbot",
		zap.String("bot", a.bot.Self.UserName),
		zap.String("http", a.cfg.HTTPAddr),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	// An empty pool would silently skip every congratulation; seed defaults.
	if n, err := repo.SeedCongratulations(ctx, assets.DefaultCongratulations(), a.cfg.MaxCongratulations); err != nil {
		a.log.Warn("congratulation seed failed", zap.Error(err))
	} else if n > 0 {
		a.log.Info("seeded default congratulations", zap.Int("count", n))
	}

	birthdayAt, err := domain.ParseClock(a.cfg.BirthdayTime)
	if err != nil {
		return err
	}
	eventAt, err := domain.ParseClock(a.cfg.EventTime)
	if err != nil {
		return err
	}
	cleanupAt, err := domain.ParseClock(a.cfg.CleanupTime)
	if err != nil {
		return err
	}

	a.sched = scheduler.New(repo, telegram.NewSender(a.bot), a.log, scheduler.Options{
		Location:      a.cfg.Location(),
		BirthdayAt:    birthdayAt,
		EventAt:       eventAt,
		CleanupAt:     cleanupAt,
		SendPause:     a.cfg.SendPause,
		RetentionDays: a.cfg.SentRetentionDays,
	})
	a.router = telegram.NewRouter(a.bot, a.log, repo, a.sched.Resolver(), a.cfg)

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.sched.Run(ctx)
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.bot.StopReceivingUpdates()

			// Let the scheduler finish in-flight batch items.
			wg.Wait()

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
