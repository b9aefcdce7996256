package stages

import (
	"context"
	"log/slog"
	"strings"

	"litany/internal/config"
	"litany/internal/events"
	"litany/internal/language"
	"litany/internal/logging"
	"litany/internal/process"
	"litany/internal/services"
)

// Short produces the condensed variant of the primary content, or copies the
// content through when the request falls in the short bucket.
type Short struct {
	core
	text TextBackend
}

// NewShort builds the condensed-variant handler.
func NewShort(cfg *config.Config, store *process.Store, bus *events.Bus, text TextBackend, logger *slog.Logger) *Short {
	return &Short{
		core: newCore(cfg, store, bus, logger, "stage-short"),
		text: text,
	}
}

func (h *Short) Name() string       { return "short" }
func (h *Short) Event() events.Type { return events.TypeContentReady }

func (h *Short) Handle(ctx context.Context, event events.Event) error {
	evt, ok := event.(events.ContentReady)
	if !ok {
		return nil
	}

	proc, err := h.store.Get(ctx, evt.ID)
	if err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}
	payload := proc.Payload

	// The copy-through keeps the downstream contract uniform: the short
	// field is always populated once this stage ran.
	if h.skip(payload) {
		if err := h.store.SetField(ctx, evt.ID, process.FieldShortContent, evt.Content); err != nil {
			return h.fail(ctx, evt.ID, h.Name(), err)
		}
		h.progress(ctx, evt.ID, process.StageShortReady, "Short variant copied", 80)
		return h.bus.Publish(ctx, events.ShortReady{
			ID:           evt.ID,
			Title:        evt.Title,
			Content:      evt.Content,
			ShortContent: evt.Content,
		})
	}

	h.progress(ctx, evt.ID, process.StageContentReady, "Generating short variant", 75)

	lang := h.language(payload)
	prompt := shortPrompt(evt.Title, evt.Content, lang)

	short, err := h.text.Complete(ctx, shortSystemPrompt, prompt)
	if err != nil {
		return h.fail(ctx, evt.ID, h.Name(), services.Wrap(services.ErrBackend, h.Name(), "generate short variant", "", err))
	}

	// One regeneration attempt when the output reads like the wrong
	// language. The second result is accepted as final either way.
	if !language.Matches(short, lang, h.cfg.Pipeline.DefaultLanguage) {
		logging.WithContext(ctx, h.logger).Warn("short variant failed language check, regenerating",
			logging.String(logging.FieldProcessID, evt.ID),
			logging.String("target_language", lang))
		retried, err := h.text.Complete(ctx, shortSystemPrompt, reinforceLanguage(prompt, lang))
		if err != nil {
			return h.fail(ctx, evt.ID, h.Name(), services.Wrap(services.ErrBackend, h.Name(), "regenerate short variant", "", err))
		}
		if strings.TrimSpace(retried) != "" {
			short = retried
		}
	}

	short = strings.TrimSpace(short)
	if short == "" {
		return h.fail(ctx, evt.ID, h.Name(), services.Wrap(services.ErrNoCandidates, h.Name(), "generate short variant", "backend returned empty text", nil))
	}

	if err := h.store.SetField(ctx, evt.ID, process.FieldShortContent, short); err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}
	h.progress(ctx, evt.ID, process.StageShortReady, "Short variant ready", 80)

	return h.bus.Publish(ctx, events.ShortReady{
		ID:           evt.ID,
		Title:        evt.Title,
		Content:      evt.Content,
		ShortContent: short,
	})
}

// skip reports whether the condensed variant should be a verbatim copy: an
// explicit generate-short=false flag, a duration label containing "short", or
// one of the configured short duration labels.
func (h *Short) skip(payload process.Payload) bool {
	if payload.GenerateShort != nil && !*payload.GenerateShort {
		return true
	}
	duration := strings.ToLower(strings.TrimSpace(payload.Duration))
	if duration == "" {
		return false
	}
	if strings.Contains(duration, "short") {
		return true
	}
	for _, label := range h.cfg.Pipeline.ShortDurations {
		if duration == strings.ToLower(strings.TrimSpace(label)) {
			return true
		}
	}
	return false
}
