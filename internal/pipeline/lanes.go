package pipeline

import (
	"context"

	"litany/internal/logging"
	"litany/internal/services"
)

type task func(ctx context.Context)

// lane is the per-process FIFO queue. At most one task of a lane runs at a
// time; tasks across lanes share the worker pool semaphore.
type lane struct {
	queue []task
	busy  bool
}

func (o *Orchestrator) dispatch(id string, fn task) {
	o.mu.Lock()
	ln, ok := o.lanes[id]
	if !ok {
		ln = &lane{}
		o.lanes[id] = ln
	}
	ln.queue = append(ln.queue, fn)
	if !ln.busy {
		ln.busy = true
		o.wg.Add(1)
		go o.drain(id, ln)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) drain(id string, ln *lane) {
	defer o.wg.Done()
	ctx := services.WithProcessID(context.Background(), id)
	for {
		o.mu.Lock()
		if len(ln.queue) == 0 {
			ln.busy = false
			delete(o.lanes, id)
			o.mu.Unlock()
			return
		}
		fn := ln.queue[0]
		ln.queue = ln.queue[1:]
		o.mu.Unlock()

		o.sem <- struct{}{}
		o.run(ctx, fn)
		<-o.sem
	}
}

func (o *Orchestrator) run(ctx context.Context, fn task) {
	defer func() {
		if r := recover(); r != nil {
			logging.WithContext(ctx, o.logger).Error("pipeline task panicked",
				logging.Any("panic", r))
		}
	}()
	fn(ctx)
}
