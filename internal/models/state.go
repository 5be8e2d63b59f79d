package models

import "time"

// Step is the position of a conversation inside the reminder flow.
type Step int

const (
	StepIdle Step = iota
	StepAwaitingText
	StepAwaitingTime
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepAwaitingText:
		return "awaiting_text"
	case StepAwaitingTime:
		return "awaiting_time"
	default:
		return "unknown"
	}
}

// ConversationState stores transient FSM state of one chat.
type ConversationState struct {
	ChatID      int64     `db:"chat_id"`
	Step        Step      `db:"step"`
	PendingText string    `db:"pending_text"` // set only in StepAwaitingTime
	UpdatedAt   time.Time `db:"updated_at"`
}
