package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sua-org/scene-controller/internal/core"
)

// SimpleTracker is the default CategoryTracker: it preserves object
// identity by detection ID across calls (minting a Gid the first time
// an ID is seen) and otherwise passes the detections through
// unmodified. Real association/motion-prediction tracking math is out
// of scope; this only supplies the identity bookkeeping the rest of
// the pipeline (regions, tripwires, publication) needs to operate on
// stable Gids.
type SimpleTracker struct {
	mu          sync.Mutex
	gidByOid    map[string]string
	current     []*core.TrackedObject
	classes     []core.AssetClass
}

func NewSimpleTracker() *SimpleTracker {
	return &SimpleTracker{gidByOid: make(map[string]string)}
}

func (t *SimpleTracker) TrackObjects(ctx context.Context, objects []*core.TrackedObject, when time.Time, alreadyTracked bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, obj := range objects {
		if alreadyTracked && obj.Gid != "" {
			t.gidByOid[obj.Oid] = obj.Gid
			continue
		}
		if gid, ok := t.gidByOid[obj.Oid]; ok {
			obj.Gid = gid
			continue
		}
		gid := uuid.NewString()
		t.gidByOid[obj.Oid] = gid
		obj.Gid = gid
	}
	t.current = objects
	return nil
}

func (t *SimpleTracker) CurrentObjects() []*core.TrackedObject {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*core.TrackedObject, len(t.current))
	copy(out, t.current)
	return out
}

func (t *SimpleTracker) UpdateObjectClasses(classes []core.AssetClass) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.classes = classes
}

func (t *SimpleTracker) UniqueIDCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.gidByOid)
}
