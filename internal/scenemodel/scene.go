// Package scenemodel implements the Scene type: per-scene camera,
// region, tripwire and sensor bookkeeping, detection ingestion, and
// the region/tripwire/sensor event evaluation pipeline.
package scenemodel

import (
	"sync"
	"time"

	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/geometry"
	"github.com/sua-org/scene-controller/internal/tracker"
)

// debounceDelay: a region/tripwire occupancy change is only published
// once this much time has passed since the last publish of that
// region/tripwire.
const debounceDelay = 500 * time.Millisecond

// CameraPose maps a child scene's local coordinates into its parent's
// frame (translation + rotation), applied in processSceneData.
type CameraPose struct {
	Extrinsic geometry.Mat4
}

func (p CameraPose) CameraPointToWorldPoint(loc core.Point3) core.Point3 {
	x, y, z := p.Extrinsic.Apply(loc.X, loc.Y, loc.Z)
	return core.Point3{X: x, Y: y, Z: z}
}

// Child describes a local or remote child scene relationship.
type Child struct {
	Name       string
	Retrack    bool
	LocalUID   string // other scene's UID, for a local (non-remote) child
	Local      *Scene // resolved from LocalUID by ResolveLocalChildren
	RemoteID   string // non-empty for a remote child
	RemoteHost string
	RemotePort int
}

// Scene is the central aggregate: a map's cameras, regions, tripwires,
// sensors and child scenes, plus the tracker facade driving its
// object identities.
type Scene struct {
	mu sync.Mutex

	uid  string
	name string

	cameras   map[string]*core.Camera
	regions   map[string]*core.Region
	tripwires map[string]*core.Tripwire
	sensors   map[string]*core.Region // singleton-typed regions
	children  map[string]*Child

	parentUID string
	cameraPose CameraPose

	useTracker  bool
	outputLLA   bool
	mapCorners  []geometry.MeshCorner
	retrack     bool

	regulatedRate      float64
	externalUpdateRate float64
	persistAttributes  map[string][]string

	refCameraFrameRate float64
	cameraRates        map[string]float64 // cameraID -> last self-reported frame_rate

	trsCached    *geometry.Mat4
	trsComputed  bool

	tracker        tracker.Facade
	trackerFactory TrackerFactory
	trackerParams  TrackerParams
	volume         geometry.VolumeIntersector

	// events accumulates the region/tripwire entries that changed on
	// the most recent processing tick, cleared and rebuilt by
	// updateEvents every call.
	events map[string]map[string]interface{}
}

// TrackerParams are the timing knobs extractTrackerConfigData derives
// from tracker-config.json (max_unreliable_time,
// non_measurement_time_dynamic/static, plus the time-chunking toggle).
// updateTracker only rebuilds the tracker facade when these actually
// change, preserving live tracks across unrelated scene refreshes.
type TrackerParams struct {
	MaxUnreliableTime         float64
	NonMeasurementTimeDynamic float64
	NonMeasurementTimeStatic  float64
	TimeChunkingEnabled       bool
	TimeChunkingIntervalMS    int
}

func (p TrackerParams) Equal(o TrackerParams) bool {
	return p.MaxUnreliableTime == o.MaxUnreliableTime &&
		p.NonMeasurementTimeDynamic == o.NonMeasurementTimeDynamic &&
		p.NonMeasurementTimeStatic == o.NonMeasurementTimeStatic &&
		p.TimeChunkingEnabled == o.TimeChunkingEnabled &&
		p.TimeChunkingIntervalMS == o.TimeChunkingIntervalMS
}

// TrackerFactory builds a fresh tracker facade for the given params and
// this scene's persisted-attribute map, injected so scenemodel never
// constructs internal/tracker facades directly.
type TrackerFactory func(params TrackerParams, persistAttr map[string][]string) tracker.Facade

// New constructs an empty Scene. The tracker factory and volume
// intersector are injected by the controller wiring layer so
// scenemodel never depends on internal/tracker's concrete
// construction details beyond the Facade interface.
func New(uid, name string, trackerFactory TrackerFactory, volume geometry.VolumeIntersector) *Scene {
	return &Scene{
		uid:            uid,
		name:           name,
		cameras:        make(map[string]*core.Camera),
		regions:        make(map[string]*core.Region),
		tripwires:      make(map[string]*core.Tripwire),
		sensors:        make(map[string]*core.Region),
		children:       make(map[string]*Child),
		cameraRates:    make(map[string]float64),
		trackerFactory: trackerFactory,
		volume:         volume,
		useTracker:     true,
		events:         make(map[string]map[string]interface{}),
	}
}

func (s *Scene) UID() string { return s.uid }
func (s *Scene) Name() string { return s.name }

func (s *Scene) CameraIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.cameras))
	for id := range s.cameras {
		out = append(out, id)
	}
	return out
}

func (s *Scene) SensorIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.sensors))
	for id := range s.sensors {
		out = append(out, id)
	}
	return out
}

// CameraRates returns a snapshot of each camera's last self-reported
// frame_rate, the raw per-camera value the regulated-detections topic
// passes through unsmoothed (only scene_rate is exponentially averaged).
func (s *Scene) CameraRates() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.cameraRates))
	for k, v := range s.cameraRates {
		out[k] = v
	}
	return out
}

// ResolveLocalChildren links every local (non-remote) child to its
// target Scene by UID, keeping a direct object reference to a local
// child scene instead of the remote bridge's host/port pair. Called by
// the controller's updateSubscriptions (on connect and on database
// update), once every scene's UID is known.
func (s *Scene) ResolveLocalChildren(byUID map[string]*Scene) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.children {
		if c.RemoteID != "" || c.LocalUID == "" {
			continue
		}
		c.Local = byUID[c.LocalUID]
	}
}

func (s *Scene) RemoteChildIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0)
	for _, c := range s.children {
		if c.RemoteID != "" {
			out = append(out, c.RemoteID)
		}
	}
	return out
}
