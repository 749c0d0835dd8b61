package notify

import (
	"context"
	"log/slog"
)

// LogPublisher records intents instead of delivering them. Used when no
// broker is configured, typically in development.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &LogPublisher{log: log.With(slog.String("component", "notify.log"))}
}

func (p *LogPublisher) Publish(ctx context.Context, intent Intent) error {
	p.log.Info("notification intent", slog.String("routing_key", intent.RoutingKey()), slog.Any("intent", intent))
	return nil
}
