// internal/core/scene_config.go
package core

// ScenePayload is the wire shape of a Scene as returned by the Data
// Source Adapter (REST or file variant) and consumed by
// Scene.Deserialize/Scene.UpdateScene.
type ScenePayload struct {
	UID                 string                  `json:"uid"`
	Name                string                  `json:"name"`
	Map                 string                  `json:"map,omitempty"`
	Scale               *float64                `json:"scale,omitempty"`
	MeshTranslation     []float64               `json:"mesh_translation,omitempty"`
	MeshRotation        []float64               `json:"mesh_rotation,omitempty"`
	UseTracker          *bool                   `json:"use_tracker,omitempty"`
	OutputLLA           *bool                   `json:"output_lla,omitempty"`
	MapCornersLLA       [][]float64             `json:"map_corners_lla,omitempty"`
	Retrack             *bool                   `json:"retrack,omitempty"`
	RegulatedRate       *float64                `json:"regulated_rate,omitempty"`
	ExternalUpdateRate  *float64                `json:"external_update_rate,omitempty"`
	PersistAttributes   map[string][]string     `json:"persist_attributes,omitempty"`
	Parent              *string                 `json:"parent,omitempty"`
	Transform           []float64               `json:"transform,omitempty"`
	TrackerConfig       []float64               `json:"tracker_config,omitempty"`
	Cameras             []CameraPayload         `json:"cameras,omitempty"`
	Regions             []RegionPayload         `json:"regions,omitempty"`
	Tripwires           []TripwirePayload       `json:"tripwires,omitempty"`
	Sensors             []RegionPayload         `json:"sensors,omitempty"`
	Children            []ChildPayload          `json:"children,omitempty"`
}

type CameraPayload struct {
	UID        string      `json:"uid"`
	Resolution [2]int      `json:"resolution"`
	Intrinsics *Intrinsics `json:"intrinsics,omitempty"`
	Distortion *Distortion `json:"distortion,omitempty"`
}

type RegionPayload struct {
	UID                 string      `json:"uid"`
	Name                string      `json:"name"`
	Points              Polygon     `json:"points"`
	Height              float64     `json:"height,omitempty"`
	BufferSize          float64     `json:"buffer_size,omitempty"`
	Volumetric          bool        `json:"volumetric,omitempty"`
	ComputeIntersection bool        `json:"compute_intersection,omitempty"`
	SingletonType       string      `json:"singleton_type,omitempty"`
	HasValue            bool        `json:"has_value,omitempty"`
}

type TripwirePayload struct {
	UID    string  `json:"uid"`
	Name   string  `json:"name"`
	Points Polygon `json:"points"`
}

type ChildPayload struct {
	Name        string `json:"name"`
	ChildType   string `json:"child_type,omitempty"` // "local" | "remote"
	Child       string `json:"child,omitempty"`
	Retrack     bool   `json:"retrack,omitempty"`
	RemoteID    string `json:"remote_child_id,omitempty"`
	RemoteHost  string `json:"remote_host,omitempty"`
	RemotePort  int    `json:"remote_port,omitempty"`
}

// AssetClass is an object-class taxonomy entry from the Data Source
// Adapter's getAssets() call.
type AssetClass struct {
	Name string `json:"name"`
}

// TrackerConfigFile is the on-disk tracker configuration schema described
// in the external-interfaces section: frame counts derived against a
// baseline frame rate, plus the time-chunking knobs.
type TrackerConfigFile struct {
	MaxUnreliableFrames              int                 `json:"max_unreliable_frames"`
	NonMeasurementFramesDynamic      int                 `json:"non_measurement_frames_dynamic"`
	NonMeasurementFramesStatic       int                 `json:"non_measurement_frames_static"`
	BaselineFrameRate                float64             `json:"baseline_frame_rate"`
	TimeChunkingEnabled              *bool               `json:"time_chunking_enabled,omitempty"`
	TimeChunkingIntervalMilliseconds *int                `json:"time_chunking_interval_milliseconds,omitempty"`
	PersistAttributes                map[string][]string `json:"persist_attributes,omitempty"`
}
