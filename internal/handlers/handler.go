package handlers

import (
	"context"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"telegram-reminder-bot/internal/conversation"
	"telegram-reminder-bot/internal/messages"
)

type Handler struct {
	Bot     messages.Sender
	Machine *conversation.Machine
	Clock   clockwork.Clock
	Log     zerolog.Logger

	router *Router
}

func NewHandler(bot messages.Sender, machine *conversation.Machine, clock clockwork.Clock, log zerolog.Logger) *Handler {
	return &Handler{
		Bot:     bot,
		Machine: machine,
		Clock:   clock,
		Log:     log.With().Str("component", "handlers").Logger(),
		router:  NewRouter(),
	}
}

// Listen consumes updates until ctx is cancelled or the channel closes,
// then waits for in-flight chats to finish.
func (h *Handler) Listen(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer h.router.Wait()
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			h.HandleUpdate(upd)
		}
	}
}

// HandleUpdate queues the update on its chat's mailbox.
func (h *Handler) HandleUpdate(upd tgbotapi.Update) {
	switch {
	case upd.Message != nil && upd.Message.Chat != nil:
		msg := upd.Message
		h.router.Dispatch(msg.Chat.ID, h.guard(msg.Chat.ID, func() { h.HandleMessage(msg) }))

	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil:
		cq := upd.CallbackQuery
		h.router.Dispatch(cq.Message.Chat.ID, h.guard(cq.Message.Chat.ID, func() { h.HandleCallback(cq) }))
	}
}

// Wait blocks until all queued updates are handled.
func (h *Handler) Wait() { h.router.Wait() }

// guard keeps one broken update from taking the process down.
func (h *Handler) guard(chatID int64, fn func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				h.Log.Error().
					Int64("chat_id", chatID).
					Interface("panic", r).
					Str("stack", string(debug.Stack())).
					Msg("update handler panicked")
			}
		}()
		fn()
	}
}

func (h *Handler) send(chatID int64, text string) {
	h.sendConfig(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) sendConfig(msg tgbotapi.MessageConfig) {
	if _, err := h.Bot.Send(msg); err != nil {
		h.Log.Warn().Err(err).Int64("chat_id", msg.ChatID).Msg("send reply")
	}
}
