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
)

// Audio synthesizes speech for the compiled content and closes the process.
// The stage always ends in the completed state: audio is an optional extra,
// and a synthesis failure must not strand an already compiled result at 80%.
type Audio struct {
	core
	speech    SpeechBackend
	artifacts ArtifactStore
}

// NewAudio builds the audio handler. The speech backend may be nil when
// synthesis is disabled.
func NewAudio(cfg *config.Config, store *process.Store, bus *events.Bus, speech SpeechBackend, artifactStore ArtifactStore, logger *slog.Logger) *Audio {
	return &Audio{
		core:      newCore(cfg, store, bus, logger, "stage-audio"),
		speech:    speech,
		artifacts: artifactStore,
	}
}

func (h *Audio) Name() string       { return "audio" }
func (h *Audio) Event() events.Type { return events.TypeCompiled }

func (h *Audio) Handle(ctx context.Context, event events.Event) error {
	evt, ok := event.(events.Compiled)
	if !ok {
		return nil
	}
	log := logging.WithContext(ctx, h.logger)

	proc, err := h.store.Get(ctx, evt.ID)
	if err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}

	if !h.wantAudio(proc.Payload) {
		return h.complete(ctx, evt, "Completed")
	}

	h.progress(ctx, evt.ID, process.StageCompiled, "Generating audio", 85)

	label := "Completed"
	if err := h.synthesize(ctx, evt); err != nil {
		log.Warn("audio generation failed, completing with compiled result",
			logging.String(logging.FieldProcessID, evt.ID),
			logging.Error(err))
		label = "Completed (audio failed)"
	}
	return h.complete(ctx, evt, label)
}

func (h *Audio) synthesize(ctx context.Context, evt events.Compiled) error {
	text := strings.TrimSpace(evt.Content)
	if text == "" {
		return nil
	}
	data, err := h.speech.Synthesize(ctx, text)
	if err != nil {
		return err
	}
	ref, err := h.artifacts.Put(evt.ID, artifacts.KindAudio, h.speech.Format(), data)
	if err != nil {
		return err
	}
	return h.store.SetField(ctx, evt.ID, process.FieldAudioRef, ref)
}

func (h *Audio) complete(ctx context.Context, evt events.Compiled, label string) error {
	if err := h.store.MarkCompleted(ctx, evt.ID, label); err != nil {
		return h.fail(ctx, evt.ID, h.Name(), err)
	}
	return h.bus.Publish(ctx, events.Completed{ID: evt.ID, Title: evt.Title, ResultRef: evt.ResultRef})
}

func (h *Audio) wantAudio(payload process.Payload) bool {
	return payload.GenerateAudio && h.cfg.Speech.Enabled && h.speech != nil && h.artifacts != nil
}
