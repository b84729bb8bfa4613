package notifier

import "time"

type Config struct {
	DedupWindow time.Duration // 0 disables dedup for keyed notifications
}

const DefaultDedupWindow = 10 * time.Minute

// NotificationEvent is published on the event bus after every attempt.
type NotificationEvent struct {
	ChatID int64     `json:"chat_id"`
	Key    string    `json:"key,omitempty"`
	At     time.Time `json:"at"`
	Error  string    `json:"error,omitempty"`
}
