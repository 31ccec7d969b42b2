package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"

	ifpbbot "github.com/AlanMartines/ifpbbot"
	"github.com/AlanMartines/ifpbbot/internal/actions"
	"github.com/AlanMartines/ifpbbot/internal/config"
	"github.com/AlanMartines/ifpbbot/internal/handler"
	"github.com/AlanMartines/ifpbbot/internal/middleware"
	"github.com/AlanMartines/ifpbbot/internal/nlu"
	"github.com/AlanMartines/ifpbbot/internal/observability"
	"github.com/AlanMartines/ifpbbot/internal/service"
	"github.com/AlanMartines/ifpbbot/internal/store"
	"github.com/AlanMartines/ifpbbot/internal/telegram"
	"github.com/AlanMartines/ifpbbot/internal/webchat"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration; missing NLU credentials abort startup here
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open the session store (Postgres when DATABASE_URL is set, JSON file
	// otherwise)
	migrationsFS, err := fs.Sub(ifpbbot.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	sessions, err := store.New(ctx, cfg, migrationsFS)
	if err != nil {
		slog.Error("failed to open session store", "error", err)
		os.Exit(1)
	}
	defer sessions.Close()

	backend := "file"
	if cfg.DatabaseURL != "" {
		backend = "postgres"
	}
	slog.Info("session store ready", "backend", backend)

	// Initialize services
	metrics := observability.NewMetrics("ifpbbot")
	registry := actions.NewRegistry()
	nluClient := nlu.NewDialogflow(cfg)
	conv := service.NewConversationService(sessions, nluClient, registry, metrics, cfg.ReplayThreshold())

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
		),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	renderer := telegram.NewRenderer(b, metrics)
	h := handler.New(handler.Deps{
		Bot:          b,
		Cfg:          cfg,
		Conversation: conv,
		Renderer:     renderer,
		BotID:        me.ID,
		BotUsername:  me.Username,
	})

	b.RegisterHandler(bot.HandlerTypeMessageText, "", bot.MatchTypePrefix, h.HandleText)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, h.HandleCallback)

	// Web chat + status/metrics server
	web := webchat.New(cfg, conv, backend, me.Username)
	go func() {
		if err := web.Start(ctx); err != nil {
			slog.Error("status server stopped", "error", err)
		}
	}()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "port", cfg.Port)
	b.Start(ctx)

	slog.Info("bot stopped gracefully")
}
