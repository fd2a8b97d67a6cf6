package scenemodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/tracker"
)

// fakeFacade is a synchronous test double for tracker.Facade: TrackObjects
// stores its argument directly rather than dispatching to a worker
// goroutine, so event-pipeline tests can stay deterministic.
type fakeFacade struct {
	current map[string][]*core.TrackedObject
	stopped bool
}

func newFakeFacade() *fakeFacade {
	return &fakeFacade{current: make(map[string][]*core.TrackedObject)}
}

func (f *fakeFacade) CreateObject(category string, det core.Detection, loc core.Point3, when time.Time, cameraID string) *core.TrackedObject {
	return &core.TrackedObject{Oid: det.ID, Category: category, SceneLoc: loc, When: when, CameraID: cameraID, ChainData: core.NewChainData()}
}
func (f *fakeFacade) TrackObjects(category string, objects []*core.TrackedObject, when time.Time, alreadyTracked bool) error {
	f.current[category] = objects
	return nil
}
func (f *fakeFacade) CurrentObjects(category string) []*core.TrackedObject { return f.current[category] }
func (f *fakeFacade) UpdateObjectClasses(classes []core.AssetClass)        {}
func (f *fakeFacade) UniqueIDCount(category string) int                   { return len(f.current[category]) }
func (f *fakeFacade) Stop()                                                { f.stopped = true }

func newTestScene() (*Scene, *fakeFacade) {
	facade := newFakeFacade()
	factory := func(TrackerParams, map[string][]string) tracker.Facade { return facade }
	s := New("scene-1", "Test Scene", factory, nil)
	s.UpdateTracker(TrackerParams{})
	return s, facade
}

func TestRegionEventsRequireStableTrack(t *testing.T) {
	s, facade := newTestScene()
	s.regions["r1"] = &core.Region{
		UID:     "r1",
		Points:  core.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		Objects: map[string][]*core.TrackedObject{},
		Entered: map[string][]*core.TrackedObject{},
		Exited:  map[string][]core.ExitedObject{},
	}
	s.useTracker = true

	unstable := &core.TrackedObject{Gid: "g1", SceneLoc: core.Point3{X: 5, Y: 5}, FrameCount: 1, ChainData: core.NewChainData()}
	facade.current["person"] = []*core.TrackedObject{unstable}

	s.updateEvents("person", time.Now())
	assert.Empty(t, s.regions["r1"].Objects["person"], "frameCount<=3 with use_tracker must not count as an occupant")

	stable := &core.TrackedObject{Gid: "g1", SceneLoc: core.Point3{X: 5, Y: 5}, FrameCount: 4, ChainData: core.NewChainData()}
	facade.current["person"] = []*core.TrackedObject{stable}
	s.updateEvents("person", time.Now())
	assert.Len(t, s.regions["r1"].Objects["person"], 1)
}

func TestRegionEventsDebounce(t *testing.T) {
	s, facade := newTestScene()
	region := &core.Region{
		UID:     "r1",
		Points:  core.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		Objects: map[string][]*core.TrackedObject{},
		Entered: map[string][]*core.TrackedObject{},
		Exited:  map[string][]core.ExitedObject{},
	}
	s.regions["r1"] = region
	s.useTracker = false // skip the frameCount gate to isolate debounce behavior

	base := time.Now()
	obj := &core.TrackedObject{Gid: "g1", SceneLoc: core.Point3{X: 5, Y: 5}, ChainData: core.NewChainData()}
	facade.current["person"] = []*core.TrackedObject{obj}

	s.updateEvents("person", base)
	assert.Len(t, s.Events(), 2, "first occupancy change always publishes (region.When starts at zero), staging both an objects and a count event")

	// The object leaves within the debounce window: region.Objects still
	// reflects the new (empty) occupancy, but the transition itself must
	// not be published yet.
	facade.current["person"] = nil
	s.updateEvents("person", base.Add(100*time.Millisecond))
	assert.Empty(t, s.Events(), "change within debounceDelay must be suppressed")
	assert.Empty(t, s.regions["r1"].Objects["person"])

	// Once the debounce window has elapsed, a fresh transition (the
	// object re-entering) is staged normally: the count goes 0 -> 1, so
	// both an objects and a count event are staged.
	facade.current["person"] = []*core.TrackedObject{obj}
	s.updateEvents("person", base.Add(600*time.Millisecond))
	assert.Len(t, s.Events(), 2)
}

func TestTripwireCrossingRequiresTwoLocations(t *testing.T) {
	s, facade := newTestScene()
	tw := &core.Tripwire{UID: "tw1", Points: core.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}}, Objects: map[string][]core.TripwireCrossing{}}
	s.tripwires["tw1"] = tw

	obj := &core.TrackedObject{
		Gid:        "g1",
		FrameCount: 5,
		SceneLoc:   core.Point3{X: 5, Y: -1},
		ChainData:  core.NewChainData(),
	}
	facade.current["person"] = []*core.TrackedObject{obj}

	// Only one published location so far (updateEvents prepends SceneLoc
	// before evaluating): no "previous" point, no crossing.
	s.updateEvents("person", time.Now())
	assert.Empty(t, s.Events())

	// updateEvents prepends SceneLoc, producing a second location and a
	// genuine crossing on the next tick.
	obj.SceneLoc = core.Point3{X: 5, Y: 1}
	s.updateEvents("person", time.Now().Add(time.Second))
	assert.Len(t, s.Events(), 1)
}

func TestClearEventStateClearsSingletonSensorOnExit(t *testing.T) {
	s, facade := newTestScene()
	region := &core.Region{
		UID:           "env1",
		SingletonType: "environmental",
		Points:        core.Polygon{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		Objects:       map[string][]*core.TrackedObject{},
		Entered:       map[string][]*core.TrackedObject{},
		Exited:        map[string][]core.ExitedObject{},
	}
	s.sensors["env1"] = region
	s.useTracker = false

	obj := &core.TrackedObject{Gid: "g1", SceneLoc: core.Point3{X: 5, Y: 5}, ChainData: core.NewChainData()}
	facade.current["person"] = []*core.TrackedObject{obj}
	s.updateEvents("person", time.Now())
	assert.Contains(t, obj.ChainData.Sensors, "env1")

	facade.current["person"] = nil
	s.updateEvents("person", time.Now().Add(time.Second))
	s.ClearEventState()
	assert.NotContains(t, obj.ChainData.Sensors, "env1", "exiting an environmental singleton must clear its sensor history")
}

func TestUpdateTrackerNoOpWhenUnchanged(t *testing.T) {
	calls := 0
	factory := func(TrackerParams, map[string][]string) tracker.Facade {
		calls++
		return newFakeFacade()
	}
	s := New("scene-1", "s", factory, nil)
	params := TrackerParams{MaxUnreliableTime: 1}

	s.UpdateTracker(params)
	s.UpdateTracker(params)
	assert.Equal(t, 1, calls, "identical params must not rebuild the tracker facade")

	s.UpdateTracker(TrackerParams{MaxUnreliableTime: 2})
	assert.Equal(t, 2, calls)
}

func TestTRSMatrixNilWithoutOutputLLA(t *testing.T) {
	s, _ := newTestScene()
	assert.Nil(t, s.TRSMatrix())
}

func TestUpdateFromPayloadWiresCameraPose(t *testing.T) {
	s, _ := newTestScene()
	transform := make([]float64, 16)
	for i := range transform {
		transform[i] = 0
	}
	transform[0], transform[5], transform[10], transform[15] = 1, 1, 1, 1
	transform[3] = 100 // translate X by 100

	s.UpdateFromPayload(core.ScenePayload{UID: "scene-1", Transform: transform})

	out := s.cameraPose.CameraPointToWorldPoint(core.Point3{X: 1, Y: 2, Z: 3})
	assert.Equal(t, core.Point3{X: 101, Y: 2, Z: 3}, out)
}

func TestResolveLocalChildren(t *testing.T) {
	s, _ := newTestScene()
	s.children["kitchen"] = &Child{Name: "kitchen", LocalUID: "scene-2"}

	other, _ := newTestScene()
	other.uid = "scene-2"

	s.ResolveLocalChildren(map[string]*Scene{"scene-2": other})
	assert.Same(t, other, s.children["kitchen"].Local)
}
