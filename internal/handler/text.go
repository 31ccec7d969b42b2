package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/AlanMartines/ifpbbot/internal/domain"
	"github.com/AlanMartines/ifpbbot/internal/telegram"
)

// HandleText processes free-text messages from private and group chats.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	isGroup := strings.Contains(string(msg.Chat.Type), "group")
	text := msg.Text

	if isGroup {
		// Only answer when the bot is addressed: mentioned in the text or
		// replied to directly.
		mention := "@" + h.botUsername
		mentioned := h.botUsername != "" && strings.Contains(text, mention)
		repliedTo := msg.ReplyToMessage != nil &&
			msg.ReplyToMessage.From != nil &&
			msg.ReplyToMessage.From.ID == h.botID
		if !mentioned && !repliedTo {
			return
		}
		text = strings.TrimSpace(strings.ReplaceAll(text, mention, ""))
		if text == "" {
			return
		}
	}

	h.runTurn(ctx, text, msg.Chat.ID, isGroup, msg.ID, msg.From)
}

// HandleCallback treats a tapped inline button as if its label had been
// typed, so quick replies loop straight back into the conversation.
func (h *Handler) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	cb := update.CallbackQuery
	if cb == nil || cb.Data == "" {
		return
	}

	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: cb.ID,
	})

	msg := cb.Message.Message
	if msg == nil {
		return
	}

	isGroup := strings.Contains(string(msg.Chat.Type), "group")
	h.runTurn(ctx, cb.Data, msg.Chat.ID, isGroup, msg.ID, &cb.From)
}

func (h *Handler) runTurn(ctx context.Context, text string, chatID int64, isGroup bool, messageID int, from *models.User) {
	extra := map[string]any{}
	if from != nil {
		extra["name"] = strings.TrimSpace(from.FirstName + " " + from.LastName)
		extra["username"] = from.Username
	}

	conversationID := strconv.FormatInt(chatID, 10)
	msgs := h.conv.HandleUtterance(ctx, text, conversationID, domain.PlatformTelegram, extra)

	h.renderer.Render(ctx, msgs, telegram.Delivery{
		ChatID:           chatID,
		IsGroup:          isGroup,
		ReplyToMessageID: messageID,
	})
}
