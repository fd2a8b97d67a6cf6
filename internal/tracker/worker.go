package tracker

import (
	"context"
	"log"
	"time"

	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/metrics"
)

// categoryJob is one batch of objects waiting to be handed to a
// category's CategoryTracker.
type categoryJob struct {
	objects        []*core.TrackedObject
	when           time.Time
	alreadyTracked bool
}

// worker owns one CategoryTracker and a bounded input queue. A full
// queue means the tracker is still busy with a previous batch; the
// caller is told to drop rather than block, counting a tracker_busy
// metric for the dropped batch.
type worker struct {
	category string
	tracker  CategoryTracker
	queue    chan categoryJob
	cancel   context.CancelFunc
}

func newWorker(ctx context.Context, category string, t CategoryTracker, queueDepth int) *worker {
	workerCtx, cancel := context.WithCancel(ctx)
	w := &worker{
		category: category,
		tracker:  t,
		queue:    make(chan categoryJob, queueDepth),
		cancel:   cancel,
	}
	go w.run(workerCtx)
	return w
}

func (w *worker) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-w.queue:
			if err := w.tracker.TrackObjects(ctx, job.objects, job.when, job.alreadyTracked); err != nil {
				log.Printf("[tracker] category %s: track objects: %v", w.category, err)
			}
		}
	}
}

// busy reports whether the worker's queue currently has a pending job,
// the condition the dispatcher checks before deciding to drop an
// entire category's buffered batch.
func (w *worker) busy() bool {
	return len(w.queue) > 0
}

// enqueue attempts a non-blocking submit. ok is false when the queue is
// full (tracker busy); the drop is counted in DroppedTotal
// ("tracker_busy") here, and callers are responsible for logging.
func (w *worker) enqueue(job categoryJob) bool {
	select {
	case w.queue <- job:
		return true
	default:
		metrics.DroppedTotal.WithLabelValues("tracker_busy", w.category).Inc()
		return false
	}
}

func (w *worker) stop() { w.cancel() }
