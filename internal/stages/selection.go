package stages

import (
	"context"
	"log/slog"
	"strings"

	"litany/internal/config"
	"litany/internal/events"
	"litany/internal/process"
	"litany/internal/services"
)

// Selector records the chosen title and publishes the selection event. It is
// shared by the title stage (automatic pick) and the external select-title
// entry point.
type Selector struct {
	core
}

// NewSelector builds the title selector.
func NewSelector(cfg *config.Config, store *process.Store, bus *events.Bus, logger *slog.Logger) *Selector {
	return &Selector{core: newCore(cfg, store, bus, logger, "stage-selection")}
}

// Select validates the choice, persists it, and publishes TitleSelected. The
// content stage picks up from there synchronously.
func (s *Selector) Select(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return services.Wrap(services.ErrValidation, "selection", "select title", "title required", nil)
	}

	proc, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if proc.Stage.IsTerminal() {
		return services.Wrap(services.ErrValidation, "selection", "select title", "process already finished", nil)
	}
	if proc.Stage != process.StageInitiated && proc.Stage != process.StageTitlesReady {
		return services.Wrap(services.ErrValidation, "selection", "select title",
			"process is past title selection (stage "+string(proc.Stage)+")", nil)
	}

	if err := s.store.SetField(ctx, id, process.FieldTitle, title); err != nil {
		return err
	}
	s.progress(ctx, id, process.StageTitleSelected, "Title selected", 45)

	return s.bus.Publish(ctx, events.TitleSelected{ID: id, Title: title})
}
