package service

import (
	"context"

	"group-order-bot/internal/logger"
)

// Button and Keyboard describe the action set offered to a participant.
// How buttons are laid out on screen is up to the transport adapter.
type Button struct {
	Text string
	Data string
}

type Keyboard struct {
	Inline [][]Button
	Reply  [][]string
}

// Sender is the minimal outbound contract the transport must provide.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, kb *Keyboard) error
}

// EventPublisher publishes to the order_events exchange. Satisfied by mq.Client.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Dispatcher wraps a Sender with per-recipient error isolation. A failed
// send is logged and never escalated to the triggering flow.
type Dispatcher struct {
	sender Sender
	lg     *logger.Logger
}

func NewDispatcher(sender Sender, lg *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, lg: lg}
}

func (d *Dispatcher) Send(ctx context.Context, chatID int64, text string, kb *Keyboard) error {
	if err := d.sender.Send(ctx, chatID, text, kb); err != nil {
		d.lg.Error("send_failed", err, map[string]any{"chat_id": chatID})
		return err
	}
	return nil
}

// Broadcast delivers to each recipient independently; one unreachable
// recipient does not abort delivery to the rest.
func (d *Dispatcher) Broadcast(ctx context.Context, chatIDs []int64, text string, kb *Keyboard) {
	for _, id := range chatIDs {
		if err := d.sender.Send(ctx, id, text, kb); err != nil {
			d.lg.Error("broadcast_send_failed", err, map[string]any{"chat_id": id})
		}
	}
}
