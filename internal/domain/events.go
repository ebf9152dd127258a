package domain

import "time"

// Events published to the order_events exchange. Consumers outside the bot
// (the event-logger mode, or anything else bound to the exchange) receive
// them as JSON; delivery is best-effort and never blocks a user flow.

type OrderCreatedEvent struct {
	GroupID      string    `json:"group_id"`
	RestaurantID int64     `json:"restaurant_id"`
	AdminID      int64     `json:"admin_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type LinesSubmittedEvent struct {
	GroupID    string `json:"group_id"`
	WorkerUUID string `json:"worker_uuid"`
	Lines      int    `json:"lines"`
	TotalCents int64  `json:"total_cents"`
}

type StatusChangedEvent struct {
	GroupID string `json:"group_id"`
	Status  Status `json:"status"`
	AdminID int64  `json:"admin_id"`
}
