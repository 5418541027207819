// Package notify delivers arbitrage alerts through one or more channels.
// Senders (Telegram, Discord) are fanned out to per notification, with an
// optional event-type filter so operators can mute classes of alerts.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Sender is implemented by each delivery channel.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns the channel identifier (e.g. "telegram").
	Name() string
}

// Dispatcher fans notifications out to all registered senders. When an event
// filter is configured, Notify drops events outside the allowed set.
type Dispatcher struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher delivering to the given senders. An
// empty events slice allows every event type through.
func NewDispatcher(senders []Sender, events []string, logger *slog.Logger) *Dispatcher {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		e = strings.TrimSpace(e)
		if e != "" {
			allowed[e] = true
		}
	}
	return &Dispatcher{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify delivers the message to every sender if the event type passes the
// configured filter. A failing sender does not block the others.
func (d *Dispatcher) Notify(ctx context.Context, event, title, message string) error {
	if len(d.events) > 0 && !d.events[event] {
		d.logger.DebugContext(ctx, "event filtered out",
			slog.String("event", event),
		)
		return nil
	}

	if len(d.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range d.senders {
		if err := s.Send(ctx, title, message); err != nil {
			d.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		d.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
