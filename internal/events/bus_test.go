package events_test

import (
	"context"
	"errors"
	"testing"

	"litany/internal/events"
	"litany/internal/logging"
	"litany/internal/services"
)

func TestPublishDeliversInRegistrationOrder(t *testing.T) {
	bus := events.NewBus(logging.NewNop())

	var order []string
	for _, name := range []string{"first", "second", "third"} {
		name := name
		bus.Subscribe(events.TypeContentReady, name, func(ctx context.Context, event events.Event) error {
			order = append(order, name)
			return nil
		})
	}

	if err := bus.Publish(context.Background(), events.ContentReady{ID: "p-1", Content: "text"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("unexpected delivery order: %v", order)
	}
}

func TestPublishOnlyReachesMatchingType(t *testing.T) {
	bus := events.NewBus(logging.NewNop())

	calls := 0
	bus.Subscribe(events.TypeCompleted, "completion", func(ctx context.Context, event events.Event) error {
		calls++
		return nil
	})

	if err := bus.Publish(context.Background(), events.Failed{ID: "p-1", Diagnostic: "boom"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if calls != 0 {
		t.Fatalf("handler for another type ran %d times", calls)
	}
}

func TestPublishContainsHandlerFailures(t *testing.T) {
	bus := events.NewBus(logging.NewNop())

	var reached []string
	bus.Subscribe(events.TypeTitlesReady, "erroring", func(ctx context.Context, event events.Event) error {
		reached = append(reached, "erroring")
		return errors.New("handler exploded")
	})
	bus.Subscribe(events.TypeTitlesReady, "panicking", func(ctx context.Context, event events.Event) error {
		reached = append(reached, "panicking")
		panic("handler panicked")
	})
	bus.Subscribe(events.TypeTitlesReady, "healthy", func(ctx context.Context, event events.Event) error {
		reached = append(reached, "healthy")
		return nil
	})

	if err := bus.Publish(context.Background(), events.TitlesReady{ID: "p-1", Titles: []string{"a"}}); err != nil {
		t.Fatalf("Publish must not surface handler errors, got %v", err)
	}
	if len(reached) != 3 || reached[2] != "healthy" {
		t.Fatalf("expected all handlers to run, got %v", reached)
	}
}

func TestPublishNilEventIsValidationError(t *testing.T) {
	bus := events.NewBus(logging.NewNop())
	if err := bus.Publish(context.Background(), nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPublishAnnotatesContextWithProcessID(t *testing.T) {
	bus := events.NewBus(logging.NewNop())

	var got string
	bus.Subscribe(events.TypeInitiated, "probe", func(ctx context.Context, event events.Event) error {
		got, _ = services.ProcessIDFromContext(ctx)
		return nil
	})

	if err := bus.Publish(context.Background(), events.Initiated{ID: "p-77"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got != "p-77" {
		t.Fatalf("expected handler context to carry process id, got %q", got)
	}
}
