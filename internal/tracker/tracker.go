// Package tracker implements the per-category multi-object tracking
// facade: a worker goroutine per detection category with a bounded,
// monitored input queue, fed either directly (Direct facade) or
// through a periodic coalescing buffer (TimeChunked facade).
//
// The actual tracking/filtering math (association, motion prediction)
// is out of scope — CategoryTracker is a thin collaborator interface
// with a minimal identity-preserving default implementation, so the
// facade and dispatch machinery around it can be exercised without
// reimplementing a full multi-object tracker.
package tracker

import (
	"context"
	"time"

	"github.com/sua-org/scene-controller/internal/core"
)

// CategoryTracker tracks objects of a single detection category across
// calls to TrackObjects, producing stable Gid assignments.
type CategoryTracker interface {
	TrackObjects(ctx context.Context, objects []*core.TrackedObject, when time.Time, alreadyTracked bool) error
	CurrentObjects() []*core.TrackedObject
	UpdateObjectClasses(classes []core.AssetClass)
	UniqueIDCount() int
}

// Facade is the interface internal/scenemodel drives: it hides whether
// a category's objects are pushed straight to its tracker worker or
// batched through the time-chunk dispatcher.
type Facade interface {
	// CreateObject builds a TrackedObject for a single detection,
	// applying the category's persisted-attribute passthrough.
	CreateObject(category string, det core.Detection, loc core.Point3, when time.Time, cameraID string) *core.TrackedObject

	TrackObjects(category string, objects []*core.TrackedObject, when time.Time, alreadyTracked bool) error
	CurrentObjects(category string) []*core.TrackedObject
	UpdateObjectClasses(classes []core.AssetClass)
	UniqueIDCount(category string) int
}
