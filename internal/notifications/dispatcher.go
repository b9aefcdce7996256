package notifications

import (
	"context"
	"log/slog"

	"litany/internal/config"
	"litany/internal/events"
	"litany/internal/logging"
)

// Dispatcher subscribes to the terminal pipeline events and forwards them to
// the push channel. It ignores all intermediate events.
type Dispatcher struct {
	service    Service
	completion bool
	errors     bool
	logger     *slog.Logger
}

// NewDispatcher builds a dispatcher honoring the notification toggles.
func NewDispatcher(cfg *config.Config, service Service, logger *slog.Logger) *Dispatcher {
	if service == nil {
		service = noopService{}
	}
	return &Dispatcher{
		service:    service,
		completion: cfg.Notifications.Completion,
		errors:     cfg.Notifications.Errors,
		logger:     logging.NewComponentLogger(logger, "notifications"),
	}
}

// Register wires the dispatcher onto the bus.
func (d *Dispatcher) Register(bus *events.Bus) {
	bus.Subscribe(events.TypeCompleted, "notify-completed", d.handleCompleted)
	bus.Subscribe(events.TypeFailed, "notify-failed", d.handleFailed)
}

func (d *Dispatcher) handleCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(events.Completed)
	if !ok || !d.completion {
		return nil
	}
	if err := d.service.NotifyCompleted(ctx, completed.ID, completed.Title, completed.ResultRef); err != nil {
		logging.WithContext(ctx, d.logger).Warn("completion notification failed", logging.Error(err))
	}
	return nil
}

func (d *Dispatcher) handleFailed(ctx context.Context, event events.Event) error {
	failed, ok := event.(events.Failed)
	if !ok || !d.errors {
		return nil
	}
	if err := d.service.NotifyFailed(ctx, failed.ID, failed.Stage, failed.Diagnostic); err != nil {
		logging.WithContext(ctx, d.logger).Warn("failure notification failed", logging.Error(err))
	}
	return nil
}
