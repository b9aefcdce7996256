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

// Description generates the promotional description from the short variant.
type Description struct {
	core
	text TextBackend
}

// NewDescription builds the description handler.
func NewDescription(cfg *config.Config, store *process.Store, bus *events.Bus, text TextBackend, logger *slog.Logger) *Description {
	return &Description{
		core: newCore(cfg, store, bus, logger, "stage-description"),
		text: text,
	}
}

func (h *Description) Name() string       { return "description" }
func (h *Description) Event() events.Type { return events.TypeShortReady }

func (h *Description) Handle(ctx context.Context, event events.Event) error {
	evt, ok := event.(events.ShortReady)
	if !ok {
		return nil
	}

	proc, err := h.store.Get(ctx, evt.ID)
	if err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}
	lang := h.language(proc.Payload)

	h.progress(ctx, evt.ID, process.StageShortReady, "Generating description", 85)

	description, err := h.text.Complete(ctx, descriptionSystemPrompt, descriptionPrompt(evt.Title, evt.ShortContent, lang))
	if err != nil {
		return h.fail(ctx, evt.ID, h.Name(), services.Wrap(services.ErrBackend, h.Name(), "generate description", "", err))
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return h.fail(ctx, evt.ID, h.Name(), services.Wrap(services.ErrNoCandidates, h.Name(), "generate description", "backend returned empty text", nil))
	}

	if err := h.store.SetField(ctx, evt.ID, process.FieldDescription, description); err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}
	h.progress(ctx, evt.ID, process.StageDescriptionReady, "Description ready", 90)

	return h.bus.Publish(ctx, events.DescriptionReady{
		ID:           evt.ID,
		Title:        evt.Title,
		Content:      evt.Content,
		ShortContent: evt.ShortContent,
		Description:  description,
	})
}
