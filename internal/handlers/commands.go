package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-reminder-bot/internal/conversation"
	"telegram-reminder-bot/internal/messages"
)

// Commands is the menu published with setMyCommands.
var Commands = []tgbotapi.BotCommand{
	{Command: "remind", Description: "Создать напоминание"},
	{Command: "cancel", Description: "Отменить создание напоминания"},
	{Command: "help", Description: "Форматы времени"},
}

// RegisterCommands publishes the bot command menu.
func RegisterCommands(bot messages.Sender) error {
	if _, err := bot.Request(tgbotapi.NewSetMyCommands(Commands...)); err != nil {
		return fmt.Errorf("set bot commands: %w", err)
	}
	return nil
}

// HandleCommand reports whether cmd was recognized. Unknown commands are
// treated as plain text by the caller.
func (h *Handler) HandleCommand(chatID int64, cmd string) bool {
	switch cmd {
	case "start", "help":
		h.send(chatID, welcomeText)
	case "remind":
		h.HandleRemind(chatID)
	case "cancel":
		h.HandleCancel(chatID)
	default:
		return false
	}
	return true
}

// ---------------- /remind --------------------
func (h *Handler) HandleRemind(chatID int64) {
	out, err := h.Machine.Start(chatID, h.Clock.Now())
	if err != nil {
		h.fail(chatID, err, "start reminder flow")
		return
	}
	h.reply(chatID, out)
}

// ---------------- /cancel --------------------
func (h *Handler) HandleCancel(chatID int64) {
	out, err := h.Machine.Cancel(chatID)
	if err != nil {
		h.fail(chatID, err, "cancel reminder flow")
		return
	}
	if out.Result == conversation.ResultIgnored {
		h.send(chatID, nothingToCancel)
		return
	}
	h.reply(chatID, out)
}
