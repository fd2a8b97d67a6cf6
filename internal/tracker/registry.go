package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/sua-org/scene-controller/internal/core"
)

// NewCategoryTracker builds the CategoryTracker for a newly seen
// category. Overridable for tests; defaults to SimpleTracker.
type NewCategoryTracker func(category string) CategoryTracker

// registry lazily creates one worker per category the first time it's
// referenced, the same lazy-construction shape
// TimeChunkedIntelLabsTracking._createIlabsTrackers uses for its
// per-category trackers.
type registry struct {
	ctx         context.Context
	newTracker  NewCategoryTracker
	queueDepth  int
	persistAttr map[string][]string // category -> attribute keys to carry through

	mu      sync.Mutex
	workers map[string]*worker
}

func newRegistry(ctx context.Context, newTracker NewCategoryTracker, queueDepth int, persistAttr map[string][]string) *registry {
	if newTracker == nil {
		newTracker = func(string) CategoryTracker { return NewSimpleTracker() }
	}
	return &registry{
		ctx:         ctx,
		newTracker:  newTracker,
		queueDepth:  queueDepth,
		persistAttr: persistAttr,
		workers:     make(map[string]*worker),
	}
}

func (r *registry) workerFor(category string) *worker {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[category]
	if !ok {
		w = newWorker(r.ctx, category, r.newTracker(category), r.queueDepth)
		r.workers[category] = w
	}
	return w
}

func (r *registry) CurrentObjects(category string) []*core.TrackedObject {
	r.mu.Lock()
	w, ok := r.workers[category]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return w.tracker.CurrentObjects()
}

func (r *registry) UpdateObjectClasses(classes []core.AssetClass) {
	r.mu.Lock()
	workers := make([]*worker, 0, len(r.workers))
	for _, w := range r.workers {
		workers = append(workers, w)
	}
	r.mu.Unlock()
	for _, w := range workers {
		w.tracker.UpdateObjectClasses(classes)
	}
}

func (r *registry) UniqueIDCount(category string) int {
	r.mu.Lock()
	w, ok := r.workers[category]
	r.mu.Unlock()
	if !ok {
		return 0
	}
	return w.tracker.UniqueIDCount()
}

func (r *registry) CreateObject(category string, det core.Detection, loc core.Point3, when time.Time, cameraID string) *core.TrackedObject {
	obj := &core.TrackedObject{
		Oid:       det.ID,
		Category:  category,
		SceneLoc:  loc,
		When:      when,
		CameraID:  cameraID,
		ChainData: core.NewChainData(),
		Reid:      det.Reid,
	}
	if det.BoundingBox != nil {
		obj.BoundingBox = det.BoundingBox
	}
	if keys, ok := r.persistAttr[category]; ok && len(keys) > 0 {
		obj.Attributes = make(map[string]interface{}, len(keys))
		// Attribute values themselves arrive out-of-band from the
		// detector payload's sub_detections/attributes; this only
		// reserves the keys the tracker config says to carry through.
		for _, k := range keys {
			obj.Attributes[k] = nil
		}
	}
	return obj
}

func (r *registry) stopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.workers {
		w.stop()
	}
}
