// Package core holds the wire and domain types shared across the scene
// controller: scenes, cameras, regions, tripwires, sensors and the
// messages that carry detections over the bus.
package core

import "time"

// Point3 is a Cartesian point in a scene's local frame.
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p Point3) As2D() (float64, float64) { return p.X, p.Y }

// Intrinsics is a pinhole camera intrinsics matrix plus the 5-coefficient
// Brown-Conrady distortion vector the undistort path in internal/geometry
// consumes.
type Intrinsics struct {
	Fx float64 `json:"fx"`
	Fy float64 `json:"fy"`
	Cx float64 `json:"cx"`
	Cy float64 `json:"cy"`
}

type Distortion struct {
	K1 float64 `json:"k1"`
	K2 float64 `json:"k2"`
	P1 float64 `json:"p1"`
	P2 float64 `json:"p2"`
	K3 float64 `json:"k3"`
}

func (d Distortion) Equal(o Distortion) bool {
	return d.K1 == o.K1 && d.K2 == o.K2 && d.P1 == o.P1 && d.P2 == o.P2 && d.K3 == o.K3
}

// Pose is a camera's intrinsic/extrinsic calibration. It is absent
// (CalibrationPending == true) until a calibration step populates it;
// calibration math itself is out of scope here.
type Pose struct {
	Intrinsics         Intrinsics
	Distortion         Distortion
	Extrinsic          [16]float64 // row-major 4x4, identity until calibrated
	Resolution         [2]int
	CalibrationPending bool
	RegionOfView       Polygon
}

// Camera is a single sensor feeding detections into a scene.
type Camera struct {
	CameraID string
	Pose     *Pose // nil until calibrated
}

func (c *Camera) HasPose() bool { return c != nil && c.Pose != nil && !c.Pose.CalibrationPending }

// Polygon is an ordered list of 2D vertices.
type Polygon []Point2

type Point2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Region is a 2D polygon (optionally extruded to a height) evaluated for
// current occupants, or — when SingletonType is set — a singleton
// environmental/generic sensor region carrying a scalar Value.
type Region struct {
	UID                 string
	Name                string
	Points              Polygon
	Height              float64
	BufferSize          float64
	Volumetric          bool
	ComputeIntersection bool
	SingletonType       string // "" for spatial regions, "environmental"/"generic" for sensors

	Objects map[string][]*TrackedObject // detectionType -> current occupants
	Entered map[string][]*TrackedObject // staged for next publish
	Exited  map[string][]ExitedObject
	When    time.Time

	// Singleton sensor fields (dynamic-attribute-on-region per DESIGN NOTES).
	HasValue  bool
	Value     interface{}
	LastValue interface{}
	LastWhen  time.Time
}

type ExitedObject struct {
	Object *TrackedObject
	Dwell  time.Duration
}

func (r *Region) IsSingleton() bool { return r.SingletonType != "" }

// Tripwire is a directed polyline evaluated for crossing direction.
type Tripwire struct {
	UID    string
	Name   string
	Points Polygon // polyline, at least 2 vertices

	Objects map[string][]TripwireCrossing // detectionType -> last-tick crossings
	When    time.Time
}

type TripwireCrossing struct {
	Object    *TrackedObject
	Direction int // -1, 0, +1 (already sign-inverted per spec semantics)
}

// ChainData accumulates the per-object history the event pipeline and
// wire builders consume.
type ChainData struct {
	Regions            map[string]RegionEntry    // regionUID -> entry record
	Sensors             map[string][]SensorReading // sensorUID/regionUID -> readings, oldest first
	PublishedLocations []Point3                   // most-recent-first
}

type RegionEntry struct {
	Entered time.Time
}

type SensorReading struct {
	When  time.Time
	Value interface{}
}

func NewChainData() ChainData {
	return ChainData{
		Regions: make(map[string]RegionEntry),
		Sensors: make(map[string][]SensorReading),
	}
}

// TrackedObject is a per-category track produced by the tracker facade.
type TrackedObject struct {
	Gid         string
	Oid         string
	Category    string
	SceneLoc    Point3
	When        time.Time
	FrameCount  int
	Visibility  []string
	ChainData   ChainData
	CameraID    string
	Attributes  map[string]interface{} // persisted attribute subset
	BoundingBox *BoundingBox
	Reid        []float64
}

type BoundingBox struct {
	X, Y, Width, Height float64
}

// Detection is one inbound detection inside an ingest message, keyed by
// detection type ("person", "vehicle", ...).
type Detection struct {
	BoundingBoxPx *PixelBox    `json:"bounding_box_px,omitempty"`
	BoundingBox   *BoundingBox `json:"bounding_box,omitempty"`
	Translation   []float64    `json:"translation,omitempty"`
	LatLongAlt    []float64    `json:"lat_long_alt,omitempty"`
	SubDetections []string     `json:"sub_detections,omitempty"`
	Reid          []float64    `json:"reid,omitempty"`
	ID            string       `json:"id,omitempty"`
}

type PixelBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IngestMessage is a camera- or child-scene-origin detector message.
type IngestMessage struct {
	ID         string                 `json:"id"`
	Timestamp  string                 `json:"timestamp"`
	Objects    map[string][]Detection `json:"objects"`
	FrameRate  *float64               `json:"frame_rate,omitempty"`
	Intrinsics *Intrinsics            `json:"intrinsics,omitempty"`
	Distortion *Distortion            `json:"distortion,omitempty"`
	UpdateCam  bool                   `json:"updatecamera,omitempty"`
	DebugStart *float64               `json:"debug_hmo_start_time,omitempty"`
}

// SensorMessage is an inbound singleton sensor reading.
type SensorMessage struct {
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp"`
	Subtype   string      `json:"subtype"`
	Value     interface{} `json:"value"`
	Status    string      `json:"status"`
}
