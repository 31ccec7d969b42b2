package telegram

import (
	"github.com/go-telegram/bot/models"

	"github.com/AlanMartines/ifpbbot/internal/domain"
)

// ButtonsKeyboard builds an inline keyboard from reply buttons: one row per
// button, the label doubling as the callback value so a tap feeds the label
// back into the conversation as an utterance.
func ButtonsKeyboard(buttons []domain.Button) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		if b.Link != "" {
			rows = append(rows, []models.InlineKeyboardButton{{Text: b.Text, URL: b.Link}})
			continue
		}
		rows = append(rows, []models.InlineKeyboardButton{{Text: b.Text, CallbackData: b.Text}})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
