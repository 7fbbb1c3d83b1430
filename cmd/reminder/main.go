package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // user timezones must resolve on minimal images

	"journal_reminder_service/internal/app"
	"journal_reminder_service/internal/domain/notification"
	"journal_reminder_service/internal/infra/config"
	idb "journal_reminder_service/internal/infra/database"
	"journal_reminder_service/internal/infra/httpapi"
	"journal_reminder_service/internal/infra/logger"
	"journal_reminder_service/internal/infra/redisledger"
	"journal_reminder_service/internal/infra/scheduler"
	"journal_reminder_service/internal/infra/telegram"
	"journal_reminder_service/internal/infra/webpush"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	base := logrus.NewEntry(logger.Log)
	log := logger.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	if err := idb.RunMigrations(ctx, db); err != nil {
		log.WithError(err).Fatal("Could not apply database migrations")
	}
	log.Info("Database connection established and schema up to date")

	settingsRepo := idb.NewPostgresSettingsRepository(db)
	logRepo := idb.NewPostgresLogRepository(db)
	entryRepo := idb.NewPostgresEntryRepository(db)
	subRepo := idb.NewPostgresSubscriptionRepository(db)

	var ledger notification.CancellationLedger = idb.NewPostgresCancellationLedger(db)
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = redisledger.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Fatal("Could not connect to Redis")
		}
		defer rdb.Close()
		ledger = redisledger.New(rdb, redisledger.DefaultTTL)
		log.WithField("addr", cfg.RedisAddr).Info("Follow-up cancellations stored in Redis")
	}

	pushClient := webpush.NewClient(webpush.VAPIDConfig{
		PublicKey:  cfg.VAPIDPublicKey,
		PrivateKey: cfg.VAPIDPrivateKey,
		Subject:    cfg.VAPIDSubject,
		TTL:        cfg.PushTTL(),
	}, nil)
	if err := pushClient.Validate(); err != nil {
		// Not fatal: every send reports VAPID_ERROR until keys are configured.
		log.WithError(err).Warn("Web Push is not configured")
	}

	followUps := app.NewFollowUpService(settingsRepo, logRepo, entryRepo, ledger, base)
	dispatcher := app.NewDispatcher(pushClient, subRepo, entryRepo, base)
	reminders := app.NewReminderService(dispatcher, followUps, settingsRepo, logRepo,
		app.PayloadBuilder{URL: cfg.AppBaseURL}, base)

	reminderScheduler := scheduler.NewReminderScheduler(reminders, base,
		cfg.CronSpecMainReminder, cfg.CronSpecFollowUp)
	if err := reminderScheduler.Start(); err != nil {
		log.WithError(err).Fatal("Could not start scheduler")
	}

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(httpapi.Deps{
			Hook:          reminders,
			FollowUps:     followUps,
			Subscriptions: subRepo,
			HookSecret:    cfg.HookSecret,
			Logger:        base,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP server stopped")
			stop()
		}
	}()

	var bot *telebot.Bot
	if cfg.BotEnabled() {
		bot, err = newBot(ctx, cfg, app.NewAdminService(followUps, cfg.AdminTelegramID))
		if err != nil {
			log.WithError(err).Fatal("Could not create Telegram bot")
		}
		go bot.Start()
		log.Info("Operator bot started")
	}

	log.Info("Application setup complete")
	<-ctx.Done()

	log.Info("Shutting down application...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server did not shut down cleanly")
	}
	if bot != nil {
		bot.Stop()
	}
	reminderScheduler.Stop()
	log.Info("Application shut down gracefully")
}

func newBot(ctx context.Context, cfg *config.AppConfig, adminService *app.AdminService) (*telebot.Bot, error) {
	botLogger := logger.Component("telegram")
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			entry := botLogger.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithFields(logrus.Fields{"sender_id": c.Sender().ID, "text": c.Text()})
			}
			entry.Error("Telegram handler failed")
		},
	})
	if err != nil {
		return nil, err
	}
	telegram.RegisterBotCommands(bot, cfg.AdminTelegramID, botLogger)
	telegram.RegisterAdminHandlers(ctx, bot, adminService, cfg.AdminTelegramID, botLogger)
	return bot, nil
}
