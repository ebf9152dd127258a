// Package notify is the event-logger run mode: it consumes the order_events
// queue and logs every event. It exists for operators watching order flow
// without tailing the bot's own logs.
package notify

import (
	"context"

	"group-order-bot/internal/logger"
	"group-order-bot/internal/mq"
)

func Run(ctx context.Context, client *mq.Client, lg *logger.Logger) error {
	deliveries, err := client.Consume(mq.EventQueue, "event-logger", 1)
	if err != nil {
		return err
	}
	lg.Info("subscribed", map[string]any{"queue": mq.EventQueue})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			lg.Info("event_received", map[string]any{
				"routing_key": d.RoutingKey,
				"body":        string(d.Body),
			})
			if err := d.Ack(false); err != nil {
				lg.Error("ack_failed", err, map[string]any{"routing_key": d.RoutingKey})
			}
		}
	}
}
