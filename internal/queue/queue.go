package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"loopimmo/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// Handler consumes one batch of activity events.
type Handler func([]*models.ActivityEvent) error

// EventQueue is an in-memory queue of activity event batches. Batches are
// delivered in order to every subscriber from a single goroutine.
type EventQueue struct {
	items    chan []*models.ActivityEvent
	stopped  chan struct{}
	maxSize  int
	closed   bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []Handler
}

// NewEventQueue creates a queue holding at most bufferSize pending batches.
func NewEventQueue(bufferSize int, logger *logrus.Logger) *EventQueue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &EventQueue{
		items:   make(chan []*models.ActivityEvent, bufferSize),
		stopped: make(chan struct{}),
		maxSize: bufferSize,
		logger:  logger,
	}
}

// Push adds a batch of events without blocking.
func (q *EventQueue) Push(events ...*models.ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- events:
		q.logger.WithField("batch_size", len(events)).Debug("Pushed events to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler called for each batch. Handlers must be
// registered before Start.
func (q *EventQueue) Subscribe(handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins delivering batches to the subscribers.
func (q *EventQueue) Start() {
	go q.process()
}

func (q *EventQueue) process() {
	defer close(q.stopped)
	for batch := range q.items {
		q.processBatch(batch)
	}
}

func (q *EventQueue) processBatch(batch []*models.ActivityEvent) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(batch); err != nil {
			q.logger.WithError(err).WithField("batch_size", len(batch)).Error("Handler failed to process batch")
		}
	}
}

// Close stops accepting batches. Batches already queued are still delivered.
func (q *EventQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.items)
	return nil
}

// Wait blocks until every queued batch has been delivered after Close.
// It must only be called once Start has been called.
func (q *EventQueue) Wait() {
	<-q.stopped
}

// Len returns the number of batches waiting to be delivered.
func (q *EventQueue) Len() int {
	return len(q.items)
}

func (q *EventQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
