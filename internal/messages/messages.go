package messages

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"telegram-reminder-bot/internal/models"
)

// Sender is the subset of *tgbotapi.BotAPI used for outbound messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// ContextSender is implemented by senders that can give up on a send when ctx ends.
type ContextSender interface {
	SendContext(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Limited throttles Send to stay under Telegram's global flood limit.
type Limited struct {
	next    Sender
	limiter *rate.Limiter
}

// NewLimited wraps next with a token bucket of rps messages per second.
// rps <= 0 disables throttling.
func NewLimited(next Sender, rps int) *Limited {
	lim := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		lim = rate.NewLimiter(rate.Limit(rps), rps)
	}
	return &Limited{next: next, limiter: lim}
}

func (l *Limited) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return l.SendContext(context.Background(), c)
}

// SendContext waits for a send slot unless ctx ends first.
func (l *Limited) SendContext(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("wait send slot: %w", err)
	}
	return l.next.Send(c)
}

func (l *Limited) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return l.next.Request(c)
}

// ReminderText is the body of a delivered reminder.
func ReminderText(text string) string {
	return "⏰ Напоминание:\n" + text
}

// Deliver returns the dispatcher callback that posts fired reminders.
func Deliver(s Sender) func(ctx context.Context, r models.Reminder) error {
	return func(ctx context.Context, r models.Reminder) error {
		msg := tgbotapi.NewMessage(r.ChatID, ReminderText(r.Text))

		var err error
		if cs, ok := s.(ContextSender); ok {
			_, err = cs.SendContext(ctx, msg)
		} else {
			_, err = s.Send(msg)
		}
		if err != nil {
			return fmt.Errorf("send reminder %s to chat %d: %w", r.ID, r.ChatID, err)
		}
		return nil
	}
}
