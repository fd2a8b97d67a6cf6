package tracker

import (
	"context"
	"log"
	"time"

	"github.com/sua-org/scene-controller/internal/core"
)

const defaultQueueDepth = 8

// DirectFacade enqueues each TrackObjects call straight onto the
// target category's worker queue as it arrives — no coalescing. This
// is the default, non-time-chunked tracking mode.
type DirectFacade struct {
	reg *registry
}

// NewDirectFacade builds a Direct facade. persistAttr maps category to
// the attribute keys that tracker-config.json says should survive onto
// each TrackedObject.
func NewDirectFacade(ctx context.Context, newTracker NewCategoryTracker, persistAttr map[string][]string) *DirectFacade {
	return &DirectFacade{reg: newRegistry(ctx, newTracker, defaultQueueDepth, persistAttr)}
}

func (f *DirectFacade) CreateObject(category string, det core.Detection, loc core.Point3, when time.Time, cameraID string) *core.TrackedObject {
	return f.reg.CreateObject(category, det, loc, when, cameraID)
}

func (f *DirectFacade) TrackObjects(category string, objects []*core.TrackedObject, when time.Time, alreadyTracked bool) error {
	w := f.reg.workerFor(category)
	if !w.enqueue(categoryJob{objects: objects, when: when, alreadyTracked: alreadyTracked}) {
		log.Printf("[tracker] category %s busy, dropping batch of %d", category, len(objects))
	}
	return nil
}

func (f *DirectFacade) CurrentObjects(category string) []*core.TrackedObject {
	return f.reg.CurrentObjects(category)
}

func (f *DirectFacade) UpdateObjectClasses(classes []core.AssetClass) { f.reg.UpdateObjectClasses(classes) }

func (f *DirectFacade) UniqueIDCount(category string) int { return f.reg.UniqueIDCount(category) }

func (f *DirectFacade) Stop() { f.reg.stopAll() }
