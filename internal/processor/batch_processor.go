package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"loopimmo/server/config"
	"loopimmo/server/internal/models"
	"loopimmo/server/internal/queue"
)

// EventStore persists activity events.
type EventStore interface {
	RecordEvents(ctx context.Context, events []*models.ActivityEvent) error
}

// BatchProcessor persists the activity event batches delivered by the queue.
type BatchProcessor struct {
	store  EventStore
	logger *logrus.Logger
	config *config.Config
	queue  *queue.EventQueue
	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
}

func NewBatchProcessor(store EventStore, queue *queue.EventQueue, config *config.Config, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		store:  store,
		queue:  queue,
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes the processor to the queue. Calling it again has no effect.
func (p *BatchProcessor) Start() {
	p.once.Do(func() {
		p.queue.Subscribe(p.processBatch)
	})
}

// Stop aborts pending retries.
func (p *BatchProcessor) Stop() {
	p.cancel()
}

// processBatch writes a batch, retrying with a fixed delay on failure.
func (p *BatchProcessor) processBatch(batch []*models.ActivityEvent) error {
	retries := p.config.Events.MaxRetries
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			p.logger.Infof("Retrying event batch, attempt %d of %d", attempt, retries)
			select {
			case <-p.ctx.Done():
				return fmt.Errorf("event batch abandoned: %w", p.ctx.Err())
			case <-time.After(p.config.Events.RetryDelay):
			}
		}

		err = p.store.RecordEvents(p.ctx, batch)
		if err == nil {
			p.logger.WithField("batch_size", len(batch)).Debug("Recorded activity events")
			return nil
		}
		p.logger.WithError(err).Error("Recording event batch failed")
	}

	return fmt.Errorf("failed to process batch after %d attempts: %w", retries+1, err)
}
