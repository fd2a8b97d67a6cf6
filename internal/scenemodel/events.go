package scenemodel

import (
	"log"
	"time"

	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/geometry"
)

// EventKind distinguishes region occupancy events from tripwire
// crossing events, the "region"/"tripwire" etype stamped onto each
// published event (the first topic segment).
type EventKind string

const (
	EventRegion   EventKind = "region"
	EventTripwire EventKind = "tripwire"
)

// Event is one staged region/tripwire change ready for publishEvents.
type Event struct {
	Kind     EventKind
	Region   *core.Region
	Tripwire *core.Tripwire
}

// StagedEvent pairs an Event with the bucket it was staged under
// ("objects", "count" or "value" — the second topic segment), mirroring
// scene.events[event_type][uid].
type StagedEvent struct {
	EventType string
	Event     Event
}

// appendSensorReading records (when, value) in obj's chain data for
// sensorUID, skipping it if that timestamp is already present,
// mirroring _updateSensorObjects's per-object append.
func appendSensorReading(obj *core.TrackedObject, sensorUID string, when time.Time, value interface{}) {
	if obj.ChainData.Sensors == nil {
		obj.ChainData.Sensors = make(map[string][]core.SensorReading)
	}
	for _, r := range obj.ChainData.Sensors[sensorUID] {
		if r.When.Equal(when) {
			return
		}
	}
	obj.ChainData.Sensors[sensorUID] = append(obj.ChainData.Sensors[sensorUID], core.SensorReading{When: when, Value: value})
}

func (s *Scene) updateVisible(objects []*core.TrackedObject) {
	s.mu.Lock()
	cameras := make([]*core.Camera, 0, len(s.cameras))
	for _, c := range s.cameras {
		cameras = append(cameras, c)
	}
	s.mu.Unlock()

	for _, obj := range objects {
		visible := make([]string, 0)
		for _, cam := range cameras {
			if cam.Pose == nil {
				continue
			}
			if geometry.ContainsPoint(cam.Pose.RegionOfView, core.Point2{X: obj.SceneLoc.X, Y: obj.SceneLoc.Y}) {
				visible = append(visible, cam.CameraID)
			}
		}
		obj.Visibility = visible
	}
}

// updateEvents re-evaluates region, sensor-region and tripwire
// occupancy for the given category's just-tracked objects, staging
// any debounce-eligible changes into s.events, mirroring
// Scene._updateEvents.
func (s *Scene) updateEvents(category string, when time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	facade := s.tracker
	if facade == nil {
		return
	}
	current := facade.CurrentObjects(category)
	for _, obj := range current {
		obj.ChainData.PublishedLocations = append([]core.Point3{obj.SceneLoc}, obj.ChainData.PublishedLocations...)
	}

	s.events = make(map[string]map[string]interface{})

	for uid, region := range s.regions {
		s.updateRegionEventsLocked(category, uid, region, current, when)
	}
	for uid, region := range s.sensors {
		s.updateRegionEventsLocked(category, uid, region, current, when)
	}
	for uid, tw := range s.tripwires {
		s.updateTripwireEventsLocked(category, uid, tw, current, when)
	}
}

// updateRegionEventsLocked recomputes occupancy for one region against
// one category's objects, staging entered/exited transitions whenever
// any object entered or exited and the region's debounce window has
// elapsed (plus a count event when the occupant count changed),
// mirroring Scene._updateRegionEvents. Evaluation of
// occupancy itself requires either frameCount>3 or use_tracker=false,
// preventing a track that hasn't stabilized yet from tripping a region.
func (s *Scene) updateRegionEventsLocked(category string, uid string, region *core.Region, objects []*core.TrackedObject, when time.Time) {
	occupants := make([]*core.TrackedObject, 0)
	for _, obj := range objects {
		if obj.FrameCount <= 3 && s.useTracker {
			continue
		}
		if s.isIntersecting(region, obj) {
			occupants = append(occupants, obj)
		}
	}

	oldSet := make(map[string]*core.TrackedObject, len(region.Objects[category]))
	for _, obj := range region.Objects[category] {
		oldSet[obj.Gid] = obj
	}
	newSet := make(map[string]*core.TrackedObject, len(occupants))
	for _, obj := range occupants {
		newSet[obj.Gid] = obj
	}

	countChanged := len(oldSet) != len(newSet)

	// A gid entering for the first time gets its entry timestamp written
	// into chain_data.regions[uid]; dwell on exit reads it back rather
	// than reusing region.When, which tracks the last *published* change.
	entered := make([]*core.TrackedObject, 0)
	for gid, obj := range newSet {
		if _, existed := oldSet[gid]; !existed {
			entered = append(entered, obj)
			if obj.ChainData.Regions == nil {
				obj.ChainData.Regions = make(map[string]core.RegionEntry)
			}
			if _, already := obj.ChainData.Regions[uid]; !already {
				obj.ChainData.Regions[uid] = core.RegionEntry{Entered: when}
			}
		}
	}
	exited := make([]core.ExitedObject, 0)
	for gid, obj := range oldSet {
		if _, still := newSet[gid]; !still {
			var dwell time.Duration
			if entry, ok := obj.ChainData.Regions[uid]; ok {
				dwell = when.Sub(entry.Entered)
				delete(obj.ChainData.Regions, uid)
			}
			exited = append(exited, core.ExitedObject{Object: obj, Dwell: dwell})
		}
	}

	if region.Objects == nil {
		region.Objects = make(map[string][]*core.TrackedObject)
	}
	region.Objects[category] = occupants

	if region.SingletonType == "environmental" {
		for _, obj := range entered {
			obj.ChainData.Sensors[uid] = []core.SensorReading{}
			if region.HasValue {
				appendSensorReading(obj, uid, region.LastWhen, region.Value)
			}
		}
	}

	debounceElapsed := when.Sub(region.When) >= debounceDelay
	if (len(entered) > 0 || len(exited) > 0) && debounceElapsed {
		if region.Entered == nil {
			region.Entered = make(map[string][]*core.TrackedObject)
		}
		region.Entered[category] = entered
		if region.Exited == nil {
			region.Exited = make(map[string][]core.ExitedObject)
		}
		region.Exited[category] = exited
		region.When = when
		log.Printf("[scene] region %s: %d entered, %d exited", uid, len(entered), len(exited))
		s.stageEvent("objects", uid, Event{Kind: EventRegion, Region: region})
		if countChanged {
			s.stageEvent("count", uid, Event{Kind: EventRegion, Region: region})
		}
	}
}

// updateTripwireEventsLocked evaluates crossing direction for every
// object against one tripwire, requiring at least two published
// locations (so there is a "previous" point to test) and a
// stabilized track, mirroring Scene._updateTripwireEvents.
func (s *Scene) updateTripwireEventsLocked(category string, uid string, tw *core.Tripwire, objects []*core.TrackedObject, when time.Time) {
	crossings := make([]core.TripwireCrossing, 0)
	for _, obj := range objects {
		if obj.FrameCount <= 3 {
			continue
		}
		if len(obj.ChainData.PublishedLocations) <= 1 {
			continue
		}
		prev := obj.ChainData.PublishedLocations[1]
		cur := obj.ChainData.PublishedLocations[0]
		d := geometry.LineCrosses(tw.Points, core.Point2{X: prev.X, Y: prev.Y}, core.Point2{X: cur.X, Y: cur.Y})
		if d != 0 {
			crossings = append(crossings, core.TripwireCrossing{Object: obj, Direction: d})
		}
	}

	oldCount := len(tw.Objects[category])
	debounceElapsed := when.Sub(tw.When) >= debounceDelay
	if len(crossings) != oldCount && debounceElapsed {
		if tw.Objects == nil {
			tw.Objects = make(map[string][]core.TripwireCrossing)
		}
		tw.Objects[category] = crossings
		tw.When = when
		log.Printf("[scene] tripwire %s: %d crossings", uid, len(crossings))
		s.stageEvent("objects", uid, Event{Kind: EventTripwire, Tripwire: tw})
	}
}

// stageEvent records one (eventType, uid) -> Event entry. A tripwire's
// crossings are only actually published when non-empty
// (publishTripwireEvent's gate), so staging unconditionally here just
// defers the filtering to publish time.
func (s *Scene) stageEvent(eventType string, uid string, ev Event) {
	bucket, ok := s.events[eventType]
	if !ok {
		bucket = make(map[string]interface{})
		s.events[eventType] = bucket
	}
	bucket[uid] = ev
}

// Events returns every entry staged by the most recent updateEvents (or
// ProcessSensorData) call, for the controller's publishEvents to consume.
func (s *Scene) Events() []StagedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StagedEvent, 0)
	for eventType, bucket := range s.events {
		for _, v := range bucket {
			out = append(out, StagedEvent{EventType: eventType, Event: v.(Event)})
		}
	}
	return out
}

// ClearEventState resets entered/exited bookkeeping after publish,
// mirroring _clearSensorValuesOnExit's closing step: region.entered
// and region.exited are cleared every publish cycle so a steady-state
// occupant doesn't get re-reported.
func (s *Scene) ClearEventState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, region := range s.regions {
		s.clearRegionEventState(region)
	}
	for uid, region := range s.sensors {
		s.clearSingletonOnExit(uid, region)
		s.clearRegionEventState(region)
	}
}

func (s *Scene) clearRegionEventState(region *core.Region) {
	region.Entered = make(map[string][]*core.TrackedObject)
	region.Exited = make(map[string][]core.ExitedObject)
}

// clearSingletonOnExit drops chain_data.sensors[regionUID] for objects
// that just exited an environmental singleton region, matching
// _clearSensorValuesOnExit's environmental-sensor special case.
func (s *Scene) clearSingletonOnExit(uid string, region *core.Region) {
	if region.SingletonType != "environmental" {
		return
	}
	for _, exits := range region.Exited {
		for _, e := range exits {
			if e.Object == nil {
				continue
			}
			delete(e.Object.ChainData.Sensors, uid)
		}
	}
}

// isIntersecting delegates to the injected VolumeIntersector when
// compute_intersection is requested, otherwise falls back to a flat 2D
// polygon containment test against the object's scene location.
func (s *Scene) isIntersecting(region *core.Region, obj *core.TrackedObject) bool {
	if region.ComputeIntersection && s.volume != nil {
		footprint := core.Polygon{{X: obj.SceneLoc.X, Y: obj.SceneLoc.Y}}
		if obj.BoundingBox != nil {
			footprint = geometryBoundingBoxPolygon(*obj.BoundingBox)
		}
		return s.volume.Intersects(region.UID, obj.SceneLoc, footprint)
	}
	return geometry.ContainsPoint(region.Points, core.Point2{X: obj.SceneLoc.X, Y: obj.SceneLoc.Y})
}

func geometryBoundingBoxPolygon(b core.BoundingBox) core.Polygon {
	return geometry.BoundingBoxPolygon(b)
}
