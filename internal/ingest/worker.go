package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bull/casereport/internal/store"
)

// dequeueWait bounds each blocking pop so consumers notice cancellation.
const dequeueWait = 5 * time.Second

// Worker runs a fixed set of queue consumers, each feeding documents into
// the pipeline one at a time.
type Worker struct {
	queue    *Queue
	pipeline *Pipeline
	count    int
	logger   *slog.Logger
}

// NewWorker creates a worker with count concurrent consumers (minimum 1).
func NewWorker(queue *Queue, pipeline *Pipeline, count int, logger *slog.Logger) *Worker {
	if count < 1 {
		count = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		queue:    queue,
		pipeline: pipeline,
		count:    count,
		logger:   logger,
	}
}

// Run consumes the queue until ctx is cancelled. Processing errors are
// logged, never fatal: the failed state is already persisted on the document
// by the pipeline.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.count; i++ {
		wg.Add(1)
		go func(consumer int) {
			defer wg.Done()
			w.consume(ctx, consumer)
		}(i)
	}
	wg.Wait()
}

func (w *Worker) consume(ctx context.Context, consumer int) {
	logger := w.logger.With("consumer", consumer)
	for {
		if ctx.Err() != nil {
			return
		}

		id, ok, err := w.queue.Dequeue(ctx, dequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("Dequeue failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}

		err = w.pipeline.Process(ctx, id)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrAlreadyProcessing):
			logger.Info("Skipping duplicate delivery", "document_id", id)
		case errors.Is(err, store.ErrNotFound):
			logger.Warn("Document vanished before processing", "document_id", id)
		default:
			logger.Error("Processing failed", "document_id", id, "error", err)
		}
	}
}
