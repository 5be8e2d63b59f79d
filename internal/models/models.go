package models

import "time"

// Reminder is a one-shot job waiting to be delivered back to a chat.
type Reminder struct {
	ID        string    `json:"id"`
	ChatID    int64     `json:"chat_id"`
	Text      string    `json:"text"`
	FiresAt   time.Time `json:"fires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// JobHandle identifies a scheduled reminder.
type JobHandle struct {
	ID      string    `json:"id"`
	FiresAt time.Time `json:"fires_at"`
}
