package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/AlanMartines/ifpbbot/internal/domain"
	"github.com/AlanMartines/ifpbbot/internal/observability"
	"github.com/AlanMartines/ifpbbot/internal/render"
)

const deliveryFailedText = "🐛 _Ocorreu um erro ao enviar esta mensagem_"

// sendAPI is the slice of bot methods the renderer dispatches through.
// *bot.Bot satisfies it.
type sendAPI interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *bot.SendDocumentParams) (*models.Message, error)
	SendContact(ctx context.Context, params *bot.SendContactParams) (*models.Message, error)
	SendSticker(ctx context.Context, params *bot.SendStickerParams) (*models.Message, error)
}

// Delivery describes where and how one turn's replies go out.
type Delivery struct {
	ChatID           int64
	IsGroup          bool
	ReplyToMessageID int
}

// Renderer converts normalized messages into Telegram send calls.
type Renderer struct {
	api     sendAPI
	metrics *observability.Metrics
}

func NewRenderer(api sendAPI, metrics *observability.Metrics) *Renderer {
	return &Renderer{api: api, metrics: metrics}
}

// Render applies the chips transform and dispatches each surviving message in
// order. A failed send degrades to a generic failure notice for that message
// only; the rest of the list still goes out.
func (r *Renderer) Render(ctx context.Context, msgs []domain.Message, d Delivery) {
	for _, msg := range render.Prepare(msgs, domain.PlatformTelegram) {
		if err := r.send(ctx, msg, d); err != nil {
			slog.Error("failed to send reply message",
				"chat_id", d.ChatID,
				"type", msg.Kind(),
				"error", err,
			)
			r.metrics.IncDeliveryError(domain.PlatformTelegram)
			r.api.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    d.ChatID,
				Text:      deliveryFailedText,
				ParseMode: models.ParseModeMarkdownV1,
			})
			continue
		}
		r.metrics.IncDelivery(domain.PlatformTelegram, msg.Kind())
	}
}

func (r *Renderer) send(ctx context.Context, msg domain.Message, d Delivery) error {
	markup := replyMarkup(msg, d)
	replyParams := replyParameters(d)

	switch msg.Kind() {
	case domain.TypeText:
		if msg.Text == "" {
			return nil
		}
		return r.sendText(ctx, msg.Text, d, markup, replyParams)

	case domain.TypeImage:
		caption := msg.Caption
		if caption == "" {
			caption = msg.AccessibilityText
		}
		_, err := r.api.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:          d.ChatID,
			Photo:           &models.InputFileString{Data: msg.RawURL},
			Caption:         caption,
			ReplyMarkup:     markup,
			ReplyParameters: replyParams,
		})
		return err

	case domain.TypeFile:
		_, err := r.api.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:          d.ChatID,
			Document:        &models.InputFileString{Data: msg.URL},
			ReplyMarkup:     markup,
			ReplyParameters: replyParams,
		})
		return err

	case domain.TypeContact:
		_, err := r.api.SendContact(ctx, &bot.SendContactParams{
			ChatID:          d.ChatID,
			PhoneNumber:     msg.Phone,
			FirstName:       msg.Name,
			ReplyMarkup:     markup,
			ReplyParameters: replyParams,
		})
		return err

	case domain.TypeAccordion:
		text := fmt.Sprintf("*%s*\n────────────────────\n%s", msg.Title, msg.Text)
		return r.sendText(ctx, text, d, markup, replyParams)

	case domain.TypeOptionList:
		return r.sendText(ctx, formatOptionList(msg), d, markup, replyParams)

	case domain.TypeSticker:
		_, err := r.api.SendSticker(ctx, &bot.SendStickerParams{
			ChatID:  d.ChatID,
			Sticker: &models.InputFileString{Data: msg.URL},
		})
		return err
	}

	// Unknown terminal types are a silent no-op.
	return nil
}

// sendText splits long texts and falls back to plain text when Telegram
// rejects the markdown.
func (r *Renderer) sendText(ctx context.Context, text string, d Delivery, markup models.ReplyMarkup, replyParams *models.ReplyParameters) error {
	text = FixMarkdown(text)
	parts := SplitMessage(text, MaxMessageLen)

	for i, part := range parts {
		params := &bot.SendMessageParams{
			ChatID:    d.ChatID,
			Text:      part,
			ParseMode: models.ParseModeMarkdownV1,
		}
		if i == 0 {
			params.ReplyParameters = replyParams
		}
		if i == len(parts)-1 {
			params.ReplyMarkup = markup
		}

		if _, err := r.api.SendMessage(ctx, params); err != nil {
			slog.Warn("markdown send failed, falling back to plain text", "error", err)
			params.ParseMode = ""
			if _, err := r.api.SendMessage(ctx, params); err != nil {
				return fmt.Errorf("send message: %w", err)
			}
		}
	}
	return nil
}

// replyMarkup prefers the button keyboard; in groups without buttons it asks
// the triggering user for a reply so the conversation stays threaded.
func replyMarkup(msg domain.Message, d Delivery) models.ReplyMarkup {
	if len(msg.Buttons) > 0 {
		return ButtonsKeyboard(msg.Buttons)
	}
	if d.IsGroup {
		return &models.ForceReply{
			ForceReply:            true,
			InputFieldPlaceholder: "Responda ao ChatBot",
			Selective:             true,
		}
	}
	return nil
}

func replyParameters(d Delivery) *models.ReplyParameters {
	if !d.IsGroup || d.ReplyToMessageID == 0 {
		return nil
	}
	return &models.ReplyParameters{MessageID: d.ReplyToMessageID}
}

func formatOptionList(msg domain.Message) string {
	var sb strings.Builder
	if msg.Title != "" {
		sb.WriteString("*" + msg.Title + "*\n")
	}
	for i, opt := range msg.Options {
		fmt.Fprintf(&sb, "*%d.* %s\n", i+1, opt.Text)
		if opt.Link != "" {
			sb.WriteString(opt.Link + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
