package stages

import (
	"context"
	"log/slog"
	"strings"

	"litany/internal/artifacts"
	"litany/internal/config"
	"litany/internal/events"
	"litany/internal/process"
	"litany/internal/services"
)

// Compile assembles the final document from the accumulated fields and
// records the result reference.
type Compile struct {
	core
	artifacts ArtifactStore
}

// NewCompile builds the compilation handler.
func NewCompile(cfg *config.Config, store *process.Store, bus *events.Bus, artifactStore ArtifactStore, logger *slog.Logger) *Compile {
	return &Compile{
		core:      newCore(cfg, store, bus, logger, "stage-compile"),
		artifacts: artifactStore,
	}
}

func (h *Compile) Name() string       { return "compile" }
func (h *Compile) Event() events.Type { return events.TypeDescriptionReady }

func (h *Compile) Handle(ctx context.Context, event events.Event) error {
	evt, ok := event.(events.DescriptionReady)
	if !ok {
		return nil
	}

	h.progress(ctx, evt.ID, process.StageDescriptionReady, "Compiling document", 70)

	document := buildDocument(evt.Title, evt.Content, evt.ShortContent, evt.Description)
	ref, err := h.artifacts.Put(evt.ID, artifacts.KindDocument, "md", []byte(document))
	if err != nil {
		return h.fail(ctx, evt.ID, h.Name(), services.Wrap(services.ErrBackend, h.Name(), "store document", "", err))
	}

	if err := h.store.SetResult(ctx, evt.ID, ref); err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}
	h.progress(ctx, evt.ID, process.StageCompiled, "Compiled", 80)

	return h.bus.Publish(ctx, events.Compiled{
		ID:        evt.ID,
		Title:     evt.Title,
		Content:   evt.Content,
		ResultRef: ref,
	})
}

func buildDocument(title, content, shortContent, description string) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(strings.TrimSpace(title))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(content))
	b.WriteString("\n")
	if short := strings.TrimSpace(shortContent); short != "" && short != strings.TrimSpace(content) {
		b.WriteString("\n## Short version\n\n")
		b.WriteString(short)
		b.WriteString("\n")
	}
	if desc := strings.TrimSpace(description); desc != "" {
		b.WriteString("\n## Description\n\n")
		b.WriteString(desc)
		b.WriteString("\n")
	}
	return b.String()
}
