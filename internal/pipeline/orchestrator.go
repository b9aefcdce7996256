package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"litany/internal/config"
	"litany/internal/events"
	"litany/internal/logging"
	"litany/internal/process"
	"litany/internal/services"
	"litany/internal/stages"
)

// Backends groups the external collaborators the stage handlers call.
type Backends struct {
	Text      stages.TextBackend
	Speech    stages.SpeechBackend
	Image     stages.ImageBackend
	Artifacts stages.ArtifactStore
}

// Orchestrator binds stage handlers to the bus and serializes execution per
// process.
type Orchestrator struct {
	cfg      *config.Config
	store    *process.Store
	bus      *events.Bus
	selector *stages.Selector
	logger   *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup

	mu    sync.Mutex
	lanes map[string]*lane
}

// New builds the orchestrator and registers every stage handler on the bus.
// Registration happens once here; the table is immutable afterwards.
func New(cfg *config.Config, store *process.Store, bus *events.Bus, backends Backends, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	selector := stages.NewSelector(cfg, store, bus, logger)

	handlers := []stages.Handler{
		stages.NewTitles(cfg, store, bus, backends.Text, selector, logger),
		stages.NewContent(cfg, store, bus, backends.Text, logger),
		stages.NewShort(cfg, store, bus, backends.Text, logger),
		stages.NewDescription(cfg, store, bus, backends.Text, logger),
		stages.NewImagePrompt(cfg, store, bus, backends.Text, backends.Image, backends.Artifacts, logger),
		stages.NewCompile(cfg, store, bus, backends.Artifacts, logger),
		stages.NewAudio(cfg, store, bus, backends.Speech, backends.Artifacts, logger),
	}
	for _, handler := range handlers {
		bus.Subscribe(handler.Event(), handler.Name(), handler.Handle)
	}

	workers := cfg.Pipeline.MaxConcurrent
	if workers <= 0 {
		workers = 1
	}

	return &Orchestrator{
		cfg:      cfg,
		store:    store,
		bus:      bus,
		selector: selector,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		sem:      make(chan struct{}, workers),
		lanes:    make(map[string]*lane),
	}
}

// StartProcess validates the request, creates the process record, and queues
// the pipeline run. Validation and id collisions are rejected synchronously;
// everything after that happens on the process lane.
func (o *Orchestrator) StartProcess(ctx context.Context, id string, payload process.Payload) (*process.Process, error) {
	if strings.TrimSpace(payload.Topic) == "" {
		return nil, services.Wrap(services.ErrValidation, "", "start process", "topic is required", nil)
	}
	if payload.Language == "" {
		payload.Language = o.cfg.Pipeline.DefaultLanguage
	}
	if o.cfg.Pipeline.AwaitTitleSelection {
		payload.AwaitTitleSelection = true
	}

	proc, err := o.store.Create(ctx, id, payload)
	if err != nil {
		return nil, err
	}

	o.logger.Info("process started",
		logging.String(logging.FieldProcessID, proc.ID),
		logging.String("topic", payload.Topic),
		logging.String("language", payload.Language))

	o.dispatch(proc.ID, func(ctx context.Context) {
		if err := o.bus.Publish(ctx, events.Initiated{ID: proc.ID}); err != nil {
			logging.WithContext(ctx, o.logger).Error("pipeline run failed", logging.Error(err))
		}
	})
	return proc, nil
}

// SelectTitle drives the external title selection. The choice is validated
// against current state synchronously and then applied on the process lane so
// it never races a running stage.
func (o *Orchestrator) SelectTitle(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return services.Wrap(services.ErrValidation, "", "select title", "title is required", nil)
	}
	proc, err := o.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if proc.Stage != process.StageTitlesReady {
		return services.Wrap(services.ErrValidation, "", "select title",
			"process is not awaiting title selection (stage "+string(proc.Stage)+")", nil)
	}

	o.dispatch(id, func(ctx context.Context) {
		if err := o.selector.Select(ctx, id, title); err != nil {
			logging.WithContext(ctx, o.logger).Error("title selection failed", logging.Error(err))
		}
	})
	return nil
}

// Status returns the externally observable process state.
func (o *Orchestrator) Status(ctx context.Context, id string) (*process.Process, error) {
	return o.store.Get(ctx, id)
}

// Titles returns the candidate title list for a process.
func (o *Orchestrator) Titles(ctx context.Context, id string) ([]string, error) {
	return o.store.Titles(ctx, id)
}

// Result returns the compiled result reference. A process without a result
// yet reports not found.
func (o *Orchestrator) Result(ctx context.Context, id string) (string, error) {
	proc, err := o.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if proc.ResultRef == "" {
		return "", services.Wrap(services.ErrNotFound, "", "get result", "no result available for "+id, nil)
	}
	return proc.ResultRef, nil
}

// List returns processes filtered by stage.
func (o *Orchestrator) List(ctx context.Context, stageFilter ...process.Stage) ([]*process.Process, error) {
	return o.store.List(ctx, stageFilter...)
}

// Stats returns aggregated process counts.
func (o *Orchestrator) Stats(ctx context.Context) (process.Summary, error) {
	return o.store.Stats(ctx)
}

// Shutdown waits for in-flight lanes to drain or the context to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
