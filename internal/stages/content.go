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

// Content generates the primary text from the selected title.
type Content struct {
	core
	text TextBackend
}

// NewContent builds the content generation handler.
func NewContent(cfg *config.Config, store *process.Store, bus *events.Bus, text TextBackend, logger *slog.Logger) *Content {
	return &Content{
		core: newCore(cfg, store, bus, logger, "stage-content"),
		text: text,
	}
}

func (h *Content) Name() string       { return "content" }
func (h *Content) Event() events.Type { return events.TypeTitleSelected }

func (h *Content) Handle(ctx context.Context, event events.Event) error {
	evt, ok := event.(events.TitleSelected)
	if !ok {
		return nil
	}

	proc, err := h.store.Get(ctx, evt.ID)
	if err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}
	payload := proc.Payload
	lang := h.language(payload)

	h.progress(ctx, evt.ID, process.StageTitleSelected, "Generating content", 50)

	content, err := h.text.Complete(ctx, contentSystemPrompt, contentPrompt(payload, evt.Title, lang))
	if err != nil {
		return h.fail(ctx, evt.ID, h.Name(), services.Wrap(services.ErrBackend, h.Name(), "generate content", "", err))
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return h.fail(ctx, evt.ID, h.Name(), services.Wrap(services.ErrNoCandidates, h.Name(), "generate content", "backend returned empty content", nil))
	}

	if err := h.store.SetField(ctx, evt.ID, process.FieldContent, content); err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}
	h.progress(ctx, evt.ID, process.StageContentReady, "Content ready", 70)

	return h.bus.Publish(ctx, events.ContentReady{ID: evt.ID, Title: evt.Title, Content: content})
}
