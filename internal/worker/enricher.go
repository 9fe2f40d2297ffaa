package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jmehdipour/billing-sync/internal/kafka"
	"github.com/jmehdipour/billing-sync/internal/metrics"
	"github.com/jmehdipour/billing-sync/internal/service/enrichment"
	"github.com/jmehdipour/billing-sync/internal/syncerr"
)

// Source is the consumer side of the enrichment topic.
type Source interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// Applier runs one enrichment task.
type Applier interface {
	Apply(ctx context.Context, t enrichment.Task) (bool, error)
}

// EnricherKafka:
// - fetches enrichment tasks from Kafka,
// - applies them with bounded retries,
// - commits every message once handled (enrichment is best effort).
type EnricherKafka struct {
	Source  Source
	Applier Applier
	Log     *zap.Logger

	Workers     int           // number of goroutines applying tasks
	MaxAttempts int           // attempts per task for retryable failures
	Backoff     time.Duration // base delay between attempts
	TaskTimeout time.Duration // per-attempt deadline
}

func NewEnricherKafka(src Source, applier Applier, log *zap.Logger) *EnricherKafka {
	return &EnricherKafka{
		Source:      src,
		Applier:     applier,
		Log:         log,
		Workers:     4,
		MaxAttempts: 3,
		Backoff:     500 * time.Millisecond,
		TaskTimeout: 30 * time.Second,
	}
}

// Run starts the worker and blocks until ctx is cancelled and in-flight tasks
// have finished.
func (w *EnricherKafka) Run(ctx context.Context) error {
	if w.Workers <= 0 {
		w.Workers = 4
	}
	if w.MaxAttempts <= 0 {
		w.MaxAttempts = 1
	}

	msgCh := make(chan kafka.Message, w.Workers*2)

	go func() {
		defer close(msgCh)
		for {
			m, err := w.Source.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.Log.Warn("kafka fetch failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(200 * time.Millisecond):
				}
				continue
			}
			select {
			case msgCh <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < w.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgCh {
				w.processOne(ctx, m)
			}
		}()
	}
	wg.Wait()
	return nil
}

func (w *EnricherKafka) processOne(ctx context.Context, m kafka.Message) {
	t, err := enrichment.DecodeTask(m.Value)
	if err != nil {
		w.Log.Warn("poison enrichment message, skipping",
			zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset), zap.Error(err))
		w.commit(ctx, m)
		return
	}

	for attempt := 1; ; attempt++ {
		err = w.apply(ctx, t)
		if err == nil || !syncerr.Retryable(err) || attempt >= w.MaxAttempts || ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
		case <-time.After(w.Backoff * time.Duration(attempt)):
		}
	}
	if err != nil {
		w.Log.Error("enrichment task failed",
			zap.String("task_id", t.ID), zap.String("user_id", t.UserID), zap.Error(err))
	}

	// Committed whatever the outcome.
	w.commit(ctx, m)
}

func (w *EnricherKafka) apply(ctx context.Context, t enrichment.Task) error {
	if w.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.TaskTimeout)
		defer cancel()
	}
	_, err := w.Applier.Apply(ctx, t)
	return err
}

func (w *EnricherKafka) commit(ctx context.Context, m kafka.Message) {
	if err := w.Source.Commit(context.WithoutCancel(ctx), m); err != nil {
		metrics.EnrichmentTotal.WithLabelValues("commit_failed").Inc()
		w.Log.Error("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
	}
}
