package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	telegoBot "scripters-bot/bot"
	"scripters-bot/config"
	"scripters-bot/internal/auth"
	"scripters-bot/internal/capture"
	"scripters-bot/internal/database"
	"scripters-bot/internal/handlers"
	"scripters-bot/internal/locales"
	"scripters-bot/internal/logging"
	"scripters-bot/internal/metrics"
	"scripters-bot/internal/publisher"
	"scripters-bot/internal/render"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	// Initialize Sentry (if DSN is provided)
	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		logger.Fatal("sentry.Init", zap.Error(err))
	}
	defer sentry.Flush(2 * time.Second)

	// Creating context for application lifecycle
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Bot Initialization ---
	var bot *telego.Bot
	if cfg.Debug {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultDebugLogger())
	} else {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		logger.Fatal("failed to create telego bot", zap.Error(err))
	}

	me, err := bot.GetMe(ctx)
	if err != nil {
		err = &publisher.TransportError{Op: "getMe", Err: err}
		sentry.CaptureException(err)
		logger.Fatal("failed to reach Telegram", zap.Error(err))
	}
	logger.Info("authorized", zap.String("username", me.Username), zap.String("version", cfg.Version))

	translator, err := locales.New(cfg.DefaultLanguage)
	if err != nil {
		logger.Fatal("failed to load translations", zap.Error(err))
	}
	logger.Debug("translations loaded", zap.String("default_language", translator.DefaultLanguage().String()))

	// --- Publishing pipeline ---
	records, err := capture.NewFileStore(cfg.DataDir)
	if err != nil {
		logger.Fatal("failed to open record store", zap.Error(err))
	}

	var mirror capture.Store
	if cfg.MongoDBURI != "" {
		client, db, err := database.ConnectDB(ctx, cfg.MongoDBURI, cfg.MongoDBDatabase, logger)
		if err != nil {
			sentry.CaptureException(err)
			logger.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.Warn("error disconnecting from MongoDB", zap.Error(err))
				sentry.CaptureException(err)
			} else {
				logger.Info("disconnected from MongoDB")
			}
		}()
		mirror = database.NewPostRepository(db)
	}

	renderer, err := render.New(render.Config{BotToken: cfg.BotToken, BaseURL: cfg.BaseURL})
	if err != nil {
		logger.Fatal("failed to create renderer", zap.Error(err))
	}
	pages, err := render.NewPageWriter(cfg.SiteDir)
	if err != nil {
		logger.Fatal("failed to open site directory", zap.Error(err))
	}

	// Create output directories before polling starts.
	if err := records.EnsureDir(); err != nil {
		logger.Fatal("failed to create record directory", zap.Error(err))
	}
	if err := pages.EnsureDir(); err != nil {
		logger.Fatal("failed to create site directory", zap.Error(err))
	}
	logger.Info("output directories ready",
		zap.String("records", records.Dir()),
		zap.String("site", pages.Dir()),
	)

	recorder := metrics.New()
	pub, err := publisher.New(publisher.Deps{
		Records:  records,
		Mirror:   mirror,
		Renderer: renderer,
		Pages:    pages,
		Metrics:  recorder,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("failed to create publisher", zap.Error(err))
	}

	// --- Commands ---
	var adminChecker handlers.AdminChecker
	if cfg.ChannelID != 0 {
		checker, err := auth.NewAdminChecker(bot, cfg.ChannelID)
		if err != nil {
			logger.Fatal("failed to create admin checker", zap.Error(err))
		}
		adminChecker = checker
		logger.Info("admin commands enabled", zap.Int64("channel_id", checker.ChannelID()))
	}
	commandHandler, err := handlers.NewCommandHandler(pub, adminChecker, translator, logger)
	if err != nil {
		logger.Fatal("failed to create command handler", zap.Error(err))
	}
	if err := commandHandler.SetupCommands(ctx, bot); err != nil {
		logger.Warn("failed to set bot commands", zap.Error(err))
	}

	// --- Update stream ---
	updates, err := bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		AllowedUpdates: []string{"message", "channel_post", "edited_channel_post"},
	})
	if err != nil {
		err = &publisher.TransportError{Op: "long polling", Err: err}
		sentry.CaptureException(err)
		logger.Fatal("failed to start long polling", zap.Error(err))
	}

	if cfg.MetricsAddr != "" {
		go func() {
			if err := recorder.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	appBot, err := telegoBot.New(telegoBot.BotDeps{
		Bot:         bot,
		UpdatesChan: updates,
		Debug:       cfg.Debug,
		ChannelID:   cfg.ChannelID,
		Publisher:   pub,
		Commands:    commandHandler,
		Logger:      logger,
		RateLimit:   cfg.RateLimit,
	})
	if err != nil {
		sentry.CaptureException(err)
		logger.Fatal("failed to create bot", zap.Error(err))
	}

	// Start blocks until the context is cancelled and in-flight updates finish.
	appBot.Start(ctx)

	logger.Info("shutting down bot")
	appBot.Stop()
	logger.Info("bot shutdown complete")
}
