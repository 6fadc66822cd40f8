package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"loopimmo/server/internal/database"
	"loopimmo/server/internal/models"
)

// JobType represents the periodic jobs run by the scheduler
type JobType int

const (
	JobTypeReminders JobType = iota
	JobTypeGeocoding
)

func (j JobType) String() string {
	switch j {
	case JobTypeReminders:
		return "visit_reminders"
	case JobTypeGeocoding:
		return "geocoding"
	default:
		return "unknown"
	}
}

// Store is the part of the repository the scheduler works on.
type Store interface {
	DueReminders(ctx context.Context, now time.Time, lead time.Duration) ([]models.Visit, error)
	MarkReminded(ctx context.Context, ids []uint, at time.Time) error
	UpdateMissingCoordinates(ctx context.Context, geocoder database.Geocoder) (int, int, error)
}

// Publisher receives the reminder events.
type Publisher interface {
	Push(events ...*models.ActivityEvent) error
}

type Options struct {
	Interval     time.Duration
	ReminderLead time.Duration

	// Geocoder is optional. Without it, listings are never geocoded in the background.
	Geocoder database.Geocoder
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	store     Store
	publisher Publisher
	opts      Options
	logger    *logrus.Logger
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	jobMutex  sync.Mutex // Ensures sequential job execution
	now       func() time.Time

	// Guarded by jobMutex
	lastGeocode time.Time
}

func NewScheduler(store Store, publisher Publisher, opts Options, logger *logrus.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.ReminderLead <= 0 {
		opts.ReminderLead = 24 * time.Hour
	}
	return &Scheduler{
		store:     store,
		publisher: publisher,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs the jobs once, then on every tick until ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.runScheduler(ctx)
}

func (s *Scheduler) runScheduler(ctx context.Context) {
	defer s.wg.Done()

	s.executeScheduledJobs(ctx, s.now(), true)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.executeScheduledJobs(ctx, s.now(), false)
		}
	}
}

// geocodeEvery is the minimum time between two background geocoding runs.
const geocodeEvery = time.Hour

// executeScheduledJobs sends due reminders on every run and geocodes
// listings at startup and then at most once per geocodeEvery.
func (s *Scheduler) executeScheduledJobs(ctx context.Context, t time.Time, startup bool) {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	if _, err := s.SendReminders(ctx, t); err != nil {
		s.logger.WithError(err).WithField("job_type", JobTypeReminders.String()).Error("Scheduled job failed")
	}

	if s.opts.Geocoder != nil && (startup || t.Sub(s.lastGeocode) >= geocodeEvery) {
		s.lastGeocode = t
		updated, failed, err := s.store.UpdateMissingCoordinates(ctx, s.opts.Geocoder)
		fields := logrus.Fields{
			"job_type": JobTypeGeocoding.String(),
			"updated":  updated,
			"failed":   failed,
		}
		if err != nil {
			s.logger.WithError(err).WithFields(fields).Error("Scheduled job failed")
		} else {
			s.logger.WithFields(fields).Debug("Scheduled job completed")
		}
	}
}

// SendReminders publishes one reminder per visit starting within the
// reminder lead time. A visit is only marked as reminded once its event
// has been accepted, so a full queue is retried on the next run.
func (s *Scheduler) SendReminders(ctx context.Context, now time.Time) (int, error) {
	visits, err := s.store.DueReminders(ctx, now, s.opts.ReminderLead)
	if err != nil {
		return 0, fmt.Errorf("failed to load due reminders: %w", err)
	}
	if len(visits) == 0 {
		return 0, nil
	}

	events := make([]*models.ActivityEvent, 0, len(visits))
	ids := make([]uint, 0, len(visits))
	for _, v := range visits {
		events = append(events, &models.ActivityEvent{
			Kind:       models.EventVisitReminder,
			EntityType: "visit",
			EntityID:   v.ID,
			Message: fmt.Sprintf("Visit of property #%d with buyer #%d on %s",
				v.PropertyID, v.BuyerID, v.ScheduledAt.Format("02/01/2006 15:04")),
		})
		ids = append(ids, v.ID)
	}

	if err := s.publisher.Push(events...); err != nil {
		return 0, fmt.Errorf("failed to publish reminders: %w", err)
	}
	if err := s.store.MarkReminded(ctx, ids, now); err != nil {
		return 0, fmt.Errorf("failed to mark reminders: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"job_type": JobTypeReminders.String(),
		"count":    len(ids),
	}).Info("Sent visit reminders")
	return len(ids), nil
}

// Stop cancels the scheduler and waits for the running job to finish
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}
