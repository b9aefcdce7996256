package stages

import (
	"context"
	"log/slog"
	"strings"

	"litany/internal/artifacts"
	"litany/internal/config"
	"litany/internal/events"
	"litany/internal/logging"
	"litany/internal/process"
	"litany/internal/services"
)

// ImagePrompt generates the image prompt off the description and, when image
// synthesis is enabled, renders the image itself. The branch is independent
// of compilation: both consume DescriptionReady, and nothing in this branch
// may fail the process. On any error the branch logs, stops, and leaves the
// compile branch to carry the authoritative result.
type ImagePrompt struct {
	core
	text      TextBackend
	image     ImageBackend
	artifacts ArtifactStore
}

// NewImagePrompt builds the image branch handler. The image backend may be
// nil when synthesis is disabled.
func NewImagePrompt(cfg *config.Config, store *process.Store, bus *events.Bus, text TextBackend, image ImageBackend, store2 ArtifactStore, logger *slog.Logger) *ImagePrompt {
	return &ImagePrompt{
		core:      newCore(cfg, store, bus, logger, "stage-image"),
		text:      text,
		image:     image,
		artifacts: store2,
	}
}

func (h *ImagePrompt) Name() string       { return "image-prompt" }
func (h *ImagePrompt) Event() events.Type { return events.TypeDescriptionReady }

func (h *ImagePrompt) Handle(ctx context.Context, event events.Event) error {
	evt, ok := event.(events.DescriptionReady)
	if !ok {
		return nil
	}

	log := logging.WithContext(ctx, h.logger)
	proc, err := h.store.Get(ctx, evt.ID)
	if err != nil {
		return err
	}

	h.progress(ctx, evt.ID, process.StageDescriptionReady, "Generating image prompt", 92)

	prompt, err := h.text.Complete(ctx, imagePromptSystemPrompt, imagePrompt(evt.Title, evt.Description))
	if err != nil {
		log.Warn("image prompt generation failed",
			logging.String(logging.FieldProcessID, evt.ID),
			logging.Error(err))
		return services.Wrap(services.ErrBackend, h.Name(), "generate image prompt", "", err)
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		log.Warn("image prompt backend returned empty prompt",
			logging.String(logging.FieldProcessID, evt.ID))
		return services.Wrap(services.ErrNoCandidates, h.Name(), "generate image prompt", "backend returned empty prompt", nil)
	}

	if err := h.store.SetField(ctx, evt.ID, process.FieldImagePrompt, prompt); err != nil {
		log.Warn("persist image prompt failed",
			logging.String(logging.FieldProcessID, evt.ID),
			logging.Error(err))
		return err
	}

	// Image synthesis is an optional extra on top of the prompt. A render
	// failure is logged but never fails the process; the compile branch
	// carries the authoritative result.
	var imageRef string
	if h.cfg.Image.Enabled && proc.Payload.GenerateImage && h.image != nil && h.artifacts != nil {
		imageRef = h.render(ctx, evt.ID, prompt)
	}

	h.progress(ctx, evt.ID, process.StageImagePromptReady, "Image prompt ready", 94)

	return h.bus.Publish(ctx, events.ImagePromptReady{ID: evt.ID, ImagePrompt: prompt, ImageRef: imageRef})
}

func (h *ImagePrompt) render(ctx context.Context, id, prompt string) string {
	log := logging.WithContext(ctx, h.logger)
	data, err := h.image.Generate(ctx, prompt)
	if err != nil {
		log.Warn("image synthesis failed",
			logging.String(logging.FieldProcessID, id),
			logging.Error(err))
		return ""
	}
	ref, err := h.artifacts.Put(id, artifacts.KindImage, "png", data)
	if err != nil {
		log.Warn("image artifact store failed",
			logging.String(logging.FieldProcessID, id),
			logging.Error(err))
		return ""
	}
	if err := h.store.SetField(ctx, id, process.FieldImageRef, ref); err != nil {
		log.Warn("persist image reference failed",
			logging.String(logging.FieldProcessID, id),
			logging.Error(err))
	}
	return ref
}
