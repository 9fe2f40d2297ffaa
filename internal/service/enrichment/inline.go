package enrichment

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// InlinePublisher runs tasks on a goroutine detached from the request.
// Failures are logged only.
type InlinePublisher struct {
	enricher *Enricher
	timeout  time.Duration
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewInlinePublisher(e *Enricher, timeout time.Duration, log *zap.Logger) *InlinePublisher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &InlinePublisher{enricher: e, timeout: timeout, log: log}
}

func (p *InlinePublisher) Publish(ctx context.Context, t Task) error {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()
		if _, err := p.enricher.Apply(ctx, t); err != nil {
			p.log.Error("enrichment failed",
				zap.String("task_id", t.ID),
				zap.String("subscription_id", t.SubscriptionID),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Wait blocks until in-flight tasks finish; used on shutdown.
func (p *InlinePublisher) Wait() { p.wg.Wait() }
