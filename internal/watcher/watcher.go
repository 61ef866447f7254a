package watcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"sagemaker-client/internal/config"
	"sagemaker-client/internal/models"
	"sagemaker-client/internal/telemetry"
	"sagemaker-client/smclient"
)

// Describer fetches the current remote description of a watched job.
// *smclient.Client satisfies it.
type Describer interface {
	DescribeJob(ctx context.Context, name string, kind smclient.JobKind) (*smclient.JobDescription, error)
}

// Store is the slice of the history store the poll loop needs.
type Store interface {
	GetWatch(ctx context.Context, jobName string) (models.JobWatch, error)
	RecordPoll(ctx context.Context, jobName, lastStatus string, nextPoll time.Time) error
	RecordFailure(ctx context.Context, jobName, describeErr string, nextPoll time.Time) (int, error)
	MarkSettled(ctx context.Context, jobName, state, lastStatus string) error
	MarkLost(ctx context.Context, jobName, lastError string) error
	AppendTransition(ctx context.Context, t models.Transition) error
}

// Queue is the slice of the watch queue the poll loop needs.
type Queue interface {
	PromoteDue(ctx context.Context, now time.Time, limit int64) (int, error)
	RequeueExpired(ctx context.Context, now time.Time, limit int64) ([]string, error)
	DequeueWithLease(ctx context.Context) (string, error)
	Reschedule(ctx context.Context, jobName string, nextPoll time.Time) error
	Retire(ctx context.Context, jobName string) error
	Depth(ctx context.Context) (int64, error)
}

// Watcher drives the poll loop: dequeue a due watch, describe the job,
// record what changed, and either reschedule the watch or retire it.
type Watcher struct {
	cfg      config.Config
	queue    Queue
	store    Store
	describe Describer
	logger   *log.Logger
}

func New(cfg config.Config, q Queue, st Store, d Describer, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{cfg: cfg, queue: q, store: st, describe: d, logger: logger}
}

// Run polls until context cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		_, _ = w.queue.PromoteDue(ctx, time.Now(), int64(w.cfg.PromoteBatch))
		if reclaimed, _ := w.queue.RequeueExpired(ctx, time.Now(), 100); len(reclaimed) > 0 {
			telemetry.InFlightGauge.Sub(float64(len(reclaimed)))
			w.logger.Printf("reclaimed %d expired watch leases", len(reclaimed))
		}
		if depth, err := w.queue.Depth(ctx); err == nil {
			telemetry.QueueDepthGauge.Set(float64(depth))
		}

		jobName, err := w.queue.DequeueWithLease(ctx)
		if err != nil || jobName == "" {
			if !sleepContext(ctx, w.cfg.PollInterval/10) {
				return ctx.Err()
			}
			continue
		}

		telemetry.InFlightGauge.Inc()
		w.PollOnce(ctx, jobName)
		telemetry.InFlightGauge.Dec()
	}
}

// PollOnce performs one describe cycle for a leased watch.
func (w *Watcher) PollOnce(ctx context.Context, jobName string) {
	watch, err := w.store.GetWatch(ctx, jobName)
	if err != nil {
		// No record for the leased name; drop it from the queue.
		w.logger.Printf("watch %s has no history record, retiring: %v", jobName, err)
		_ = w.queue.Retire(ctx, jobName)
		return
	}
	if watch.State != models.WatchActive {
		_ = w.queue.Retire(ctx, jobName)
		return
	}

	kind, err := smclient.ParseJobKind(watch.Kind)
	if err != nil {
		w.logger.Printf("watch %s has invalid kind %q, marking lost", jobName, watch.Kind)
		_ = w.store.MarkLost(ctx, jobName, err.Error())
		_ = w.queue.Retire(ctx, jobName)
		telemetry.WatchesLost.Inc()
		return
	}

	telemetry.DescribeCalls.Inc()
	desc, err := w.describe.DescribeJob(ctx, jobName, kind)
	if err != nil {
		telemetry.DescribeErrors.Inc()
		w.handleDescribeError(ctx, watch, err)
		return
	}

	if desc.Status != watch.LastStatus {
		_ = w.store.AppendTransition(ctx, models.Transition{
			JobName:  jobName,
			From:     watch.LastStatus,
			To:       desc.Status,
			Detail:   transitionDetail(desc),
			Recorded: time.Now().UTC(),
		})
		w.logger.Printf("job %s: %s -> %s", jobName, orNone(watch.LastStatus), desc.Status)
	}

	if desc.Terminal() {
		state := models.TerminalWatchState(desc.Status)
		_ = w.store.MarkSettled(ctx, jobName, state, desc.Status)
		_ = w.queue.Retire(ctx, jobName)
		switch state {
		case models.WatchCompleted:
			telemetry.JobsCompleted.Inc()
		case models.WatchFailed:
			telemetry.JobsFailed.Inc()
		case models.WatchStopped:
			telemetry.JobsStopped.Inc()
		}
		w.logger.Printf("job %s settled with status %s", jobName, desc.Status)
		return
	}

	nextPoll := time.Now().Add(w.cfg.PollInterval)
	_ = w.store.RecordPoll(ctx, jobName, desc.Status, nextPoll)
	_ = w.queue.Reschedule(ctx, jobName, nextPoll)
}

func (w *Watcher) handleDescribeError(ctx context.Context, watch models.JobWatch, describeErr error) {
	nextPoll := time.Now().Add(w.cfg.PollInterval)
	failures, err := w.store.RecordFailure(ctx, watch.JobName, describeErr.Error(), nextPoll)
	if err != nil {
		w.logger.Printf("record failure for %s: %v", watch.JobName, err)
		_ = w.queue.Reschedule(ctx, watch.JobName, nextPoll)
		return
	}
	if failures >= w.cfg.MaxPollFailures {
		_ = w.store.MarkLost(ctx, watch.JobName, describeErr.Error())
		_ = w.queue.Retire(ctx, watch.JobName)
		telemetry.WatchesLost.Inc()
		w.logger.Printf("watch %s lost after %d describe failures: %v", watch.JobName, failures, describeErr)
		return
	}
	w.logger.Printf("describe %s failed (%d/%d): %v", watch.JobName, failures, w.cfg.MaxPollFailures, describeErr)
	_ = w.queue.Reschedule(ctx, watch.JobName, nextPoll)
}

func transitionDetail(desc *smclient.JobDescription) string {
	if desc.Status == smclient.StatusFailed && desc.FailureReason != "" {
		return desc.FailureReason
	}
	if n := len(desc.Transitions); n > 0 {
		last := desc.Transitions[n-1]
		if last.Message != "" {
			return fmt.Sprintf("%s - %s", last.Status, last.Message)
		}
		return last.Status
	}
	return ""
}

func orNone(status string) string {
	if status == "" {
		return "(unseen)"
	}
	return status
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
