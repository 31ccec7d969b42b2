// Package handler routes Telegram updates into the conversation pipeline.
package handler

import (
	"github.com/go-telegram/bot"

	"github.com/AlanMartines/ifpbbot/internal/config"
	"github.com/AlanMartines/ifpbbot/internal/service"
	"github.com/AlanMartines/ifpbbot/internal/telegram"
)

// Handler holds all dependencies needed by update handlers.
type Handler struct {
	bot         *bot.Bot
	cfg         *config.Config
	conv        *service.ConversationService
	renderer    *telegram.Renderer
	botID       int64
	botUsername string
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot          *bot.Bot
	Cfg          *config.Config
	Conversation *service.ConversationService
	Renderer     *telegram.Renderer
	BotID        int64
	BotUsername  string
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:         deps.Bot,
		cfg:         deps.Cfg,
		conv:        deps.Conversation,
		renderer:    deps.Renderer,
		botID:       deps.BotID,
		botUsername: deps.BotUsername,
	}
}
