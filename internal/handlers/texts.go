package handlers

import (
	"errors"

	"telegram-reminder-bot/internal/conversation"
	"telegram-reminder-bot/internal/timeparse"
)

func (h *Handler) HandleText(chatID int64, text string) {
	out, err := h.Machine.Input(chatID, text, h.Clock.Now())
	h.answer(chatID, out, err, "message outside of a flow")
}

func (h *Handler) answer(chatID int64, out conversation.Outcome, err error, ignored string) {
	if err != nil {
		h.fail(chatID, err, "apply input to flow")
		return
	}

	switch out.Result {
	case conversation.ResultIgnored:
		h.Log.Debug().Int64("chat_id", chatID).Msg(ignored)
		return
	case conversation.ResultRetryTime:
		var pe *timeparse.Error
		if errors.As(out.Err, &pe) {
			h.Log.Debug().Int64("chat_id", chatID).Stringer("kind", pe.Kind).Str("input", pe.Input).Msg("time rejected")
		}
	}
	h.reply(chatID, out)
}
