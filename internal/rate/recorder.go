package rate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockfeed/internal/adapters"
	"stockfeed/internal/domain"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultRecordInterval = 15 * time.Minute
	observedBuffer        = 32
)

type snapshotSource interface {
	GetRate(ctx context.Context) domain.RateSnapshot
}

// Recorder stores every live snapshot the resolver obtains so the history
// endpoint has something to show. Snapshots arrive through Observe, which the
// resolver calls after each successful refresh; a periodic job resolves the rate
// as well, keeping the cache warm when there is no traffic.
type Recorder struct {
	source   snapshotSource
	repo     adapters.RateSnapshotRepository
	interval time.Duration
	observed chan domain.RateSnapshot

	mu    sync.Mutex
	sched gocron.Scheduler
	stop  chan struct{}

	saveMu    sync.Mutex
	lastSaved time.Time
}

// NewRecorder accepts a nil repo, in which case snapshots are only resolved.
func NewRecorder(source snapshotSource, repo adapters.RateSnapshotRepository, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = DefaultRecordInterval
	}
	return &Recorder{
		source:   source,
		repo:     repo,
		interval: interval,
		observed: make(chan domain.RateSnapshot, observedBuffer),
	}
}

// Observe queues snap for saving without blocking. It is safe on a nil Recorder.
func (r *Recorder) Observe(snap domain.RateSnapshot) {
	if r == nil || r.repo == nil || snap.IsEmergency() {
		return
	}
	select {
	case r.observed <- snap:
	default:
		logrus.WithField("source", snap.Source).Warn("Recorder queue is full, dropping rate snapshot")
	}
}

func (r *Recorder) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	job := func(jobCtx context.Context) {
		execID := uuid.NewString()
		if recErr := r.RecordOnce(jobCtx, execID); recErr != nil {
			logrus.Errorf("Record rate job %s failed: %v", execID, recErr)
		}
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}

	stop := make(chan struct{})
	r.mu.Lock()
	r.sched = scheduler
	r.stop = stop
	r.mu.Unlock()

	go r.drain(ctx, stop)
	scheduler.Start()

	go func() {
		<-ctx.Done()
		if sdErr := r.Shutdown(); sdErr != nil {
			logrus.Errorf("Recorder shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (r *Recorder) Shutdown() error {
	r.mu.Lock()
	sched, stop := r.sched, r.stop
	r.sched, r.stop = nil, nil
	r.mu.Unlock()

	if sched == nil {
		return nil
	}
	close(stop)
	return sched.Shutdown()
}

// RecordOnce resolves the current rate and saves it unless it is the emergency
// constant or the snapshot saved last time.
func (r *Recorder) RecordOnce(ctx context.Context, execID string) error {
	snap := r.source.GetRate(ctx)
	log := logrus.WithFields(logrus.Fields{"execID": execID, "source": snap.Source})

	if snap.IsEmergency() {
		log.Warn("Rate is degraded to the emergency value, nothing to record")
		return nil
	}
	return r.save(ctx, snap, log)
}

func (r *Recorder) drain(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case snap := <-r.observed:
			log := logrus.WithField("source", snap.Source)
			if err := r.save(ctx, snap, log); err != nil {
				log.WithError(err).Error("Failed to record refreshed rate")
			}
		}
	}
}

func (r *Recorder) save(ctx context.Context, snap domain.RateSnapshot, log *logrus.Entry) error {
	if r.repo == nil {
		return nil
	}

	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	if snap.FetchedAt.Equal(r.lastSaved) {
		log.Debug("Snapshot already recorded")
		return nil
	}
	if err := r.repo.Save(ctx, snap); err != nil {
		return fmt.Errorf("failed to save rate snapshot: %w", err)
	}
	r.lastSaved = snap.FetchedAt
	log.Infof("Recorded rate %.4f fetched at %s", snap.Rate, snap.FetchedAt.Format(time.RFC3339))
	return nil
}
