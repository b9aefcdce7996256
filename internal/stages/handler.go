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

// Handler is the contract the orchestrator wires onto the event bus.
type Handler interface {
	Name() string
	Event() events.Type
	Handle(ctx context.Context, event events.Event) error
}

// TextBackend is the slice of the text client the stages depend on.
type TextBackend interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// SpeechBackend is the slice of the speech client the audio stage depends on.
type SpeechBackend interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Format() string
}

// ImageBackend is the slice of the image client the image stage depends on.
type ImageBackend interface {
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// ArtifactStore is the slice of the artifact store the stages depend on.
type ArtifactStore interface {
	Put(processID string, kind artifacts.Kind, ext string, data []byte) (string, error)
}

// core carries the dependencies every stage handler shares.
type core struct {
	cfg    *config.Config
	store  *process.Store
	bus    *events.Bus
	logger *slog.Logger
}

func newCore(cfg *config.Config, store *process.Store, bus *events.Bus, logger *slog.Logger, component string) core {
	return core{
		cfg:    cfg,
		store:  store,
		bus:    bus,
		logger: logging.NewComponentLogger(logger, component),
	}
}

// fail transitions the process into the absorbing failed state and publishes
// the terminal failure event. It returns the original error so the bus can
// log it against the handler.
func (c core) fail(ctx context.Context, id, stageName string, err error) error {
	diagnostic := services.Diagnostic(err)
	log := logging.WithContext(ctx, c.logger)
	log.Error("stage failed",
		logging.String(logging.FieldProcessID, id),
		logging.String(logging.FieldStage, stageName),
		logging.Error(err))
	if storeErr := c.store.MarkFailed(ctx, id, diagnostic); storeErr != nil {
		log.Error("persist failure state", logging.Error(storeErr))
	}
	if pubErr := c.bus.Publish(ctx, events.Failed{ID: id, Stage: stageName, Diagnostic: diagnostic}); pubErr != nil {
		log.Warn("publish failure event", logging.Error(pubErr))
	}
	return err
}

// progress records a checkpoint. Checkpoint failures are logged and never
// interrupt the stage; the store clamps percent so progress stays monotonic.
func (c core) progress(ctx context.Context, id string, stage process.Stage, label string, percent float64) {
	if err := c.store.UpdateStatus(ctx, id, stage, label, percent); err != nil {
		logging.WithContext(ctx, c.logger).Warn("progress update failed",
			logging.String(logging.FieldProcessID, id),
			logging.Error(err))
	}
}

// language resolves the output language for a process, falling back to the
// configured default.
func (c core) language(payload process.Payload) string {
	if lang := strings.TrimSpace(payload.Language); lang != "" {
		return lang
	}
	return c.cfg.Pipeline.DefaultLanguage
}
