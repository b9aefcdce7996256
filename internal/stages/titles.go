package stages

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"litany/internal/config"
	"litany/internal/events"
	"litany/internal/generation"
	"litany/internal/logging"
	"litany/internal/process"
	"litany/internal/services"
)

// Titles generates the candidate title list and hands off to the selector.
type Titles struct {
	core
	text     TextBackend
	selector *Selector
}

// NewTitles builds the title generation handler.
func NewTitles(cfg *config.Config, store *process.Store, bus *events.Bus, text TextBackend, selector *Selector, logger *slog.Logger) *Titles {
	return &Titles{
		core:     newCore(cfg, store, bus, logger, "stage-titles"),
		text:     text,
		selector: selector,
	}
}

func (h *Titles) Name() string       { return "titles" }
func (h *Titles) Event() events.Type { return events.TypeInitiated }

func (h *Titles) Handle(ctx context.Context, event events.Event) error {
	evt, ok := event.(events.Initiated)
	if !ok {
		return nil
	}

	proc, err := h.store.Get(ctx, evt.ID)
	if err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}
	payload := proc.Payload
	lang := h.language(payload)

	// A caller-supplied title skips generation entirely.
	if supplied := strings.TrimSpace(payload.Title); supplied != "" {
		if err := h.store.SetTitles(ctx, evt.ID, []string{supplied}); err != nil {
			return h.fail(ctx, evt.ID, h.Name(), err)
		}
		h.progress(ctx, evt.ID, process.StageTitlesReady, "Title supplied", 45)
		if err := h.bus.Publish(ctx, events.TitlesReady{ID: evt.ID, Titles: []string{supplied}}); err != nil {
			return h.fail(ctx, evt.ID, h.Name(), err)
		}
		return h.selectFirst(ctx, evt.ID, supplied)
	}

	h.progress(ctx, evt.ID, process.StageInitiated, "Generating titles", 20)

	raw, err := h.text.CompleteJSON(ctx, titlesSystemPrompt, titlesPrompt(payload, lang))
	if err != nil {
		return h.fail(ctx, evt.ID, h.Name(), services.Wrap(services.ErrBackend, h.Name(), "generate titles", "", err))
	}
	var parsed struct {
		Titles []string `json:"titles"`
	}
	if err := generation.DecodeJSON(raw, &parsed); err != nil {
		return h.fail(ctx, evt.ID, h.Name(), services.Wrap(services.ErrBackend, h.Name(), "parse titles", "", err))
	}

	titles := normalizeTitles(parsed.Titles, lang)
	if len(titles) == 0 {
		return h.fail(ctx, evt.ID, h.Name(), services.Wrap(services.ErrNoCandidates, h.Name(), "generate titles", "backend returned no usable candidates", nil))
	}

	if err := h.store.SetTitles(ctx, evt.ID, titles); err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}
	h.progress(ctx, evt.ID, process.StageTitlesReady, "Titles ready", 45)

	if err := h.bus.Publish(ctx, events.TitlesReady{ID: evt.ID, Titles: titles}); err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}

	if payload.AwaitTitleSelection {
		logging.WithContext(ctx, h.logger).Info("awaiting external title selection",
			logging.String(logging.FieldProcessID, evt.ID),
			logging.Int("candidates", len(titles)))
		return nil
	}
	return h.selectFirst(ctx, evt.ID, titles[0])
}

func (h *Titles) selectFirst(ctx context.Context, id, title string) error {
	if err := h.selector.Select(ctx, id, title); err != nil {
		return h.fail(ctx, id, h.Name(), err)
	}
	return nil
}

// normalizeTitles trims, strips wrapping quotes, fixes casing of shouted or
// all-lowercase candidates, and drops duplicates while preserving order.
func normalizeTitles(raw []string, lang string) []string {
	caser := cases.Title(xlanguage.Make(lang))
	seen := make(map[string]struct{}, len(raw))
	titles := make([]string, 0, len(raw))
	for _, candidate := range raw {
		title := strings.TrimSpace(candidate)
		title = strings.Trim(title, `"'`)
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		if title == strings.ToUpper(title) || title == strings.ToLower(title) {
			title = caser.String(strings.ToLower(title))
		}
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		titles = append(titles, title)
	}
	return titles
}
