package tracker

import (
	"context"
	"log"
	"time"

	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/metrics"
)

// DefaultChunkingIntervalMS is the dispatcher tick period used when the
// tracker config doesn't override it.
const DefaultChunkingIntervalMS = 50

// TimeChunkedFacade batches TrackObjects calls per (category, camera)
// and flushes them to the category workers on a fixed interval rather
// than immediately. Object batching across cameras within a category
// is hardcoded off: each camera's batch is dispatched as its own
// TrackObjects call.
type TimeChunkedFacade struct {
	reg    *registry
	buffer *chunkBuffer
	cancel context.CancelFunc
}

// NewTimeChunkedFacade builds a TimeChunked facade and starts its
// dispatcher goroutine immediately.
func NewTimeChunkedFacade(ctx context.Context, newTracker NewCategoryTracker, persistAttr map[string][]string, intervalMS int) *TimeChunkedFacade {
	if intervalMS <= 0 {
		intervalMS = DefaultChunkingIntervalMS
	}
	dispatchCtx, cancel := context.WithCancel(ctx)
	f := &TimeChunkedFacade{
		reg:    newRegistry(dispatchCtx, newTracker, defaultQueueDepth, persistAttr),
		buffer: newChunkBuffer(),
		cancel: cancel,
	}
	go f.run(dispatchCtx, time.Duration(intervalMS)*time.Millisecond)
	return f
}

func (f *TimeChunkedFacade) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.dispatch()
		}
	}
}

func (f *TimeChunkedFacade) dispatch() {
	pending := f.buffer.popAll()
	for category, byCamera := range pending {
		w := f.reg.workerFor(category)
		if w.busy() {
			log.Printf("[tracker] category %s busy, dropping %d buffered camera batches", category, len(byCamera))
			metrics.DroppedTotal.WithLabelValues("tracker_busy", category).Add(float64(len(byCamera)))
			continue
		}
		for _, batch := range byCamera {
			w.enqueue(categoryJob{
				objects:        batch.objects,
				when:           batch.when,
				alreadyTracked: batch.alreadyTracked,
			})
		}
	}
}

func (f *TimeChunkedFacade) CreateObject(category string, det core.Detection, loc core.Point3, when time.Time, cameraID string) *core.TrackedObject {
	return f.reg.CreateObject(category, det, loc, when, cameraID)
}

// TrackObjects requires objects to carry a CameraID (the batching key);
// an empty-slice call or missing camera ID is a no-op, mirroring
// TimeChunkedIntelLabsTracking.trackObjects's handling of a
// camera-less batch.
func (f *TimeChunkedFacade) TrackObjects(category string, objects []*core.TrackedObject, when time.Time, alreadyTracked bool) error {
	if len(objects) == 0 {
		return nil
	}
	cameraID := objects[0].CameraID
	if cameraID == "" {
		log.Printf("[tracker] category %s: batch missing camera id, dropping", category)
		return nil
	}
	f.buffer.add(category, cameraID, bufferedBatch{objects: objects, when: when, alreadyTracked: alreadyTracked})
	return nil
}

func (f *TimeChunkedFacade) CurrentObjects(category string) []*core.TrackedObject {
	return f.reg.CurrentObjects(category)
}

func (f *TimeChunkedFacade) UpdateObjectClasses(classes []core.AssetClass) {
	f.reg.UpdateObjectClasses(classes)
}

func (f *TimeChunkedFacade) UniqueIDCount(category string) int { return f.reg.UniqueIDCount(category) }

func (f *TimeChunkedFacade) Stop() {
	f.cancel()
	f.reg.stopAll()
}
