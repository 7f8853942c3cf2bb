package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/redis/go-redis/v9"

	bertbot "github.com/haneul-dev/bertbot"
	"github.com/haneul-dev/bertbot/internal/catalog"
	"github.com/haneul-dev/bertbot/internal/config"
	"github.com/haneul-dev/bertbot/internal/handler"
	"github.com/haneul-dev/bertbot/internal/middleware"
	"github.com/haneul-dev/bertbot/internal/qa"
	"github.com/haneul-dev/bertbot/internal/sanitize"
	"github.com/haneul-dev/bertbot/internal/session"
	"github.com/haneul-dev/bertbot/internal/storage"
	"github.com/haneul-dev/bertbot/internal/survey"
)

func main() {
	// Load configuration first so the log level applies from the start
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Select the storage backend
	kv, cleanup, err := newStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer cleanup()
	logStore := storage.NewChatLogStore(kv)

	// Survey schema is a fatal misconfiguration when absent
	schema, err := survey.Load()
	if err != nil {
		slog.Error("failed to load survey schema", "error", err)
		os.Exit(1)
	}

	questionCatalog, err := catalog.Load()
	if err != nil {
		slog.Error("failed to load question catalog", "error", err)
		os.Exit(1)
	}

	// QA service client and session layer
	qaClient := qa.NewClient(cfg.QABaseURL)
	sessions := session.NewManager(session.Deps{
		Store:        logStore,
		Asker:        qaClient,
		Engine:       survey.NewEngine(schema, qaClient),
		Sanitizer:    sanitize.NewHTML(),
		PersistState: cfg.PersistSessionState,
	})

	// Handler pointer for use in the default handler closure
	var h *handler.Handler

	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.RateLimit(config.RateLimitPerMinute),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil || update.Message == nil {
				return
			}
			if strings.HasPrefix(update.Message.Text, "/") {
				return
			}
			h.HandleText(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	h = handler.New(handler.Deps{
		Bot:      b,
		Cfg:      cfg,
		Sessions: sessions,
		Catalog:  questionCatalog,
		LogStore: logStore,
	})
	h.Register()

	slog.Info("starting bot",
		"storage", cfg.StorageBackend,
		"persist_session_state", cfg.PersistSessionState,
	)
	b.Start(ctx)

	slog.Info("bot stopped gracefully")
}

// newStore builds the configured KeyValueStore and a cleanup func.
func newStore(ctx context.Context, cfg *config.Config) (storage.KeyValueStore, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, err
		}
		return storage.NewRedis(client), func() { client.Close() }, nil

	case config.StoragePostgres:
		migrationsFS, err := fs.Sub(bertbot.MigrationsFS, "migrations")
		if err != nil {
			return nil, nil, err
		}
		pg, err := storage.NewPostgres(ctx, cfg.DatabaseURL, migrationsFS)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil

	default:
		return storage.NewMemory(), func() {}, nil
	}
}
