package handlers

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-reminder-bot/internal/conversation"
)

const (
	formatsHelp = "1. Через сколько минут: +30 (через 30 минут)\n" +
		"2. Время сегодня: 14:30\n" +
		"3. Дата и время: 14:30 15.12.2023 или 14:30 15-12-2023"

	welcomeText = "Привет! Я бот-напоминалка. Чтобы создать напоминание, " +
		"используй команду /remind\n\n" +
		"Доступные форматы времени:\n" + formatsHelp

	askTextPrompt   = "Напиши текст напоминания:"
	emptyTextPrompt = "Текст напоминания не может быть пустым. Напиши текст:"
	askTimePrompt   = "Теперь укажи время напоминания в одном из форматов:\n" + formatsHelp
	retryTimeFormat = "Ошибка: %s\n\nПожалуйста, укажи время в одном из форматов:\n" + formatsHelp
	scheduledFormat = "⏰ Напоминание установлено на %s:\n%s"
	cancelledText   = "Создание напоминания отменено."
	nothingToCancel = "Сейчас нечего отменять. Чтобы создать напоминание, используй /remind"
	internalError   = "Что-то пошло не так, попробуй ещё раз."

	confirmLayout = "15:04 02.01.2006"
)

func (h *Handler) HandleMessage(msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() && h.HandleCommand(chatID, msg.Command()) {
		return
	}
	h.HandleText(chatID, msg.Text)
}

// reply renders a state machine outcome for the user.
func (h *Handler) reply(chatID int64, out conversation.Outcome) {
	switch out.Result {
	case conversation.ResultAskText:
		h.send(chatID, askTextPrompt)
	case conversation.ResultEmptyText:
		h.send(chatID, emptyTextPrompt)
	case conversation.ResultAskTime:
		msg := tgbotapi.NewMessage(chatID, askTimePrompt)
		msg.ReplyMarkup = quickPickKB
		h.sendConfig(msg)
	case conversation.ResultRetryTime:
		msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(retryTimeFormat, out.Err))
		msg.ReplyMarkup = quickPickKB
		h.sendConfig(msg)
	case conversation.ResultScheduled:
		h.send(chatID, fmt.Sprintf(scheduledFormat, out.Job.FiresAt.Format(confirmLayout), out.Text))
	case conversation.ResultCancelled:
		h.send(chatID, cancelledText)
	}
}

func (h *Handler) fail(chatID int64, err error, what string) {
	h.Log.Error().Err(err).Int64("chat_id", chatID).Msg(what)
	h.send(chatID, internalError)
}
