package scenemodel

import (
	"fmt"
	"log"
	"time"

	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/geometry"
)

// ProcessCameraData ingests one camera-origin detector message,
// building TrackedObjects per detection category and handing them to
// the tracker facade, mirroring Scene.processCameraData. An unknown
// camera id is reported and fails (so the caller can invalidate its
// cache and retry); a known camera with no resolved pose yet is a
// silent no-op — the scene has nothing to project the detection into.
func (s *Scene) ProcessCameraData(cameraID string, msg core.IngestMessage, when time.Time) error {
	s.mu.Lock()
	cam, ok := s.cameras[cameraID]
	if !ok {
		s.mu.Unlock()
		log.Printf("[scene] unknown camera %s", cameraID)
		return fmt.Errorf("scenemodel: unknown camera %s", cameraID)
	}
	if !cam.HasPose() {
		s.mu.Unlock()
		log.Printf("[scene] camera %s has no pose yet, discarding data", cameraID)
		return nil
	}
	if msg.FrameRate != nil {
		if s.refCameraFrameRate == 0 || *msg.FrameRate < s.refCameraFrameRate {
			s.refCameraFrameRate = *msg.FrameRate
		}
		if s.cameraRates == nil {
			s.cameraRates = make(map[string]float64)
		}
		s.cameraRates[cameraID] = *msg.FrameRate
	}
	pose := cam.Pose
	s.mu.Unlock()

	for category, detections := range msg.Objects {
		objects := make([]*core.TrackedObject, 0, len(detections))
		for _, det := range detections {
			loc, bb := s.resolveDetectionLocation(det, pose)
			obj := s.createObjectLocked(category, det, loc, when, cameraID)
			obj.BoundingBox = bb
			objects = append(objects, obj)
		}
		s.finishProcessing(category, objects, when, false)
	}
	return nil
}

// resolveDetectionLocation undistorts a pixel bounding box into the
// meter plane when the detection only carries pixel coordinates
// (bounding_box_px), matching _convertPixelBoundingBoxToMeters's rule
// that undistortion only runs when 'bounding_box' is absent.
func (s *Scene) resolveDetectionLocation(det core.Detection, pose *core.Pose) (core.Point3, *core.BoundingBox) {
	if det.BoundingBox != nil {
		bb := *det.BoundingBox
		return core.Point3{X: bb.X + bb.Width/2, Y: bb.Y + bb.Height/2}, &bb
	}
	if det.BoundingBoxPx != nil && pose != nil {
		bb := geometry.PixelBoxToMeterPlane(*det.BoundingBoxPx, pose.Intrinsics, pose.Distortion)
		return core.Point3{X: bb.X + bb.Width/2, Y: bb.Y + bb.Height/2}, &bb
	}
	if len(det.Translation) >= 2 {
		loc := core.Point3{X: det.Translation[0], Y: det.Translation[1]}
		if len(det.Translation) >= 3 {
			loc.Z = det.Translation[2]
		}
		return loc, nil
	}
	return core.Point3{}, nil
}

func (s *Scene) createObjectLocked(category string, det core.Detection, loc core.Point3, when time.Time, cameraID string) *core.TrackedObject {
	s.mu.Lock()
	facade := s.tracker
	s.mu.Unlock()
	if facade == nil {
		return &core.TrackedObject{Oid: det.ID, Category: category, SceneLoc: loc, When: when, CameraID: cameraID, ChainData: core.NewChainData()}
	}
	return facade.CreateObject(category, det, loc, when, cameraID)
}

func (s *Scene) finishProcessing(category string, objects []*core.TrackedObject, when time.Time, alreadyTracked bool) {
	s.mu.Lock()
	facade := s.tracker
	s.mu.Unlock()
	if facade == nil {
		return
	}
	s.updateVisible(objects)
	_ = facade.TrackObjects(category, objects, when, alreadyTracked)
	s.updateEvents(category, when)
}

// ProcessSensorData applies a singleton sensor reading, discarding
// stale/out-of-order readings (when <= lastWhen), mirroring
// Scene.processSensorData. Every accepted reading unconditionally
// stages a "value" event (undebounced — a sensor reading is always
// worth publishing) and appends itself to chain_data.sensors for every
// object currently occupying the sensor's region.
func (s *Scene) ProcessSensorData(sensorUID string, when time.Time, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	region, ok := s.sensors[sensorUID]
	if !ok {
		log.Printf("[scene] unknown sensor %s", sensorUID)
		return fmt.Errorf("scenemodel: unknown sensor %s", sensorUID)
	}
	if !region.LastWhen.IsZero() && !when.After(region.LastWhen) {
		log.Printf("[scene] discarding stale sensor reading for %s", sensorUID)
		return nil
	}

	s.events = make(map[string]map[string]interface{})
	region.LastValue = region.Value
	region.Value = value
	region.HasValue = true
	region.LastWhen = when
	region.When = when
	s.stageEvent("value", sensorUID, Event{Kind: EventRegion, Region: region})

	for _, occupants := range region.Objects {
		for _, obj := range occupants {
			appendSensorReading(obj, sensorUID, when, value)
		}
	}
	return nil
}

// ProcessSceneData ingests a child-scene-origin message: objects are
// reprojected through the child's CameraPose into this scene's frame
// and handed to this scene's tracker; when child.Retrack is false they
// are passed as already tracked instead of being re-tracked.
func (s *Scene) ProcessSceneData(child *Child, msg core.IngestMessage, when time.Time) error {
	for category, detections := range msg.Objects {
		objects := make([]*core.TrackedObject, 0, len(detections))
		for _, det := range detections {
			loc := childDetectionLocation(det)
			worldLoc := child.Local.cameraPose.CameraPointToWorldPoint(loc)
			det.Reid = nil // reid is stripped before forwarding, per processSceneData
			obj := s.createObjectLocked(category, det, worldLoc, when, "")
			objects = append(objects, obj)
		}
		if child.Retrack {
			s.finishProcessing(category, objects, when, false)
		} else {
			s.finishProcessing(category, objects, when, true)
		}
	}
	return nil
}

func childDetectionLocation(det core.Detection) core.Point3 {
	if len(det.LatLongAlt) == 3 {
		ecef := geometry.LLAToECEF(geometry.LLA{Lat: det.LatLongAlt[0], Lon: det.LatLongAlt[1], Alt: det.LatLongAlt[2]})
		return core.Point3{X: ecef.X, Y: ecef.Y, Z: ecef.Z}
	}
	if len(det.Translation) >= 2 {
		loc := core.Point3{X: det.Translation[0], Y: det.Translation[1]}
		if len(det.Translation) >= 3 {
			loc.Z = det.Translation[2]
		}
		return loc
	}
	return core.Point3{}
}
