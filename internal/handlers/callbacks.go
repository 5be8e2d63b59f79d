package handlers

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const cbQuickPrefix = "quick:"

// Клавиатура быстрого выбора времени
var quickPickKB = tgbotapi.NewInlineKeyboardMarkup(
	tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("+10 мин", cbQuickPrefix+"+10"),
		tgbotapi.NewInlineKeyboardButtonData("+30 мин", cbQuickPrefix+"+30"),
		tgbotapi.NewInlineKeyboardButtonData("+1 час", cbQuickPrefix+"+60"),
	),
)

// HandleCallback applies a quick-pick button. Buttons left on old prompts are
// ignored unless the chat is currently choosing a time.
func (h *Handler) HandleCallback(cq *tgbotapi.CallbackQuery) {
	chatID := cq.Message.Chat.ID

	// always answer callback to remove 'loading...'
	if _, err := h.Bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		h.Log.Warn().Err(err).Int64("chat_id", chatID).Msg("answer callback")
	}

	value, ok := strings.CutPrefix(cq.Data, cbQuickPrefix)
	if !ok {
		h.Log.Debug().Int64("chat_id", chatID).Str("data", cq.Data).Msg("unknown callback")
		return
	}
	out, err := h.Machine.Pick(chatID, value, h.Clock.Now())
	h.answer(chatID, out, err, "stale quick pick")
}
