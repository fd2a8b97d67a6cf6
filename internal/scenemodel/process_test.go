package scenemodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/geometry"
)

func TestProcessCameraDataSkipsCameraWithoutPose(t *testing.T) {
	s, facade := newTestScene()
	s.cameras["cam-1"] = &core.Camera{CameraID: "cam-1"} // no Pose

	msg := core.IngestMessage{Objects: map[string][]core.Detection{
		"person": {{ID: "det-1", BoundingBox: &core.BoundingBox{X: 0, Y: 0, Width: 2, Height: 2}}},
	}}
	require.NoError(t, s.ProcessCameraData("cam-1", msg, time.Now()))
	assert.Empty(t, facade.current["person"])
}

func TestProcessCameraDataBoundingBoxLocation(t *testing.T) {
	s, facade := newTestScene()
	s.cameras["cam-1"] = &core.Camera{CameraID: "cam-1", Pose: &core.Pose{}}

	msg := core.IngestMessage{Objects: map[string][]core.Detection{
		"person": {{ID: "det-1", BoundingBox: &core.BoundingBox{X: 0, Y: 0, Width: 2, Height: 4}}},
	}}
	require.NoError(t, s.ProcessCameraData("cam-1", msg, time.Now()))

	require.Len(t, facade.current["person"], 1)
	obj := facade.current["person"][0]
	assert.Equal(t, core.Point3{X: 1, Y: 2}, obj.SceneLoc, "bounding_box location is its center")
	require.NotNil(t, obj.BoundingBox)
	assert.Equal(t, 2.0, obj.BoundingBox.Width)
}

func TestProcessCameraDataTracksMinimumFrameRate(t *testing.T) {
	s, _ := newTestScene()
	s.cameras["cam-1"] = &core.Camera{CameraID: "cam-1", Pose: &core.Pose{}}
	s.cameras["cam-2"] = &core.Camera{CameraID: "cam-2", Pose: &core.Pose{}}

	fast, slow := 30.0, 10.0
	require.NoError(t, s.ProcessCameraData("cam-1", core.IngestMessage{FrameRate: &fast}, time.Now()))
	assert.Equal(t, 30.0, s.refCameraFrameRate)

	require.NoError(t, s.ProcessCameraData("cam-2", core.IngestMessage{FrameRate: &slow}, time.Now()))
	assert.Equal(t, 10.0, s.refCameraFrameRate, "the slowest camera's frame rate wins")
}

func TestResolveDetectionLocationTranslationFallback(t *testing.T) {
	s, _ := newTestScene()
	det := core.Detection{Translation: []float64{1, 2, 3}}
	loc, bb := s.resolveDetectionLocation(det, nil)
	assert.Equal(t, core.Point3{X: 1, Y: 2, Z: 3}, loc)
	assert.Nil(t, bb)
}

func TestResolveDetectionLocationPixelBoxRequiresPose(t *testing.T) {
	s, _ := newTestScene()
	det := core.Detection{BoundingBoxPx: &core.PixelBox{X: 10, Y: 10, Width: 4, Height: 4}}
	loc, bb := s.resolveDetectionLocation(det, nil)
	assert.Equal(t, core.Point3{}, loc, "no pose means a pixel box can't be undistorted")
	assert.Nil(t, bb)
}

func TestResolveDetectionLocationNoGeometryIsZero(t *testing.T) {
	s, _ := newTestScene()
	loc, bb := s.resolveDetectionLocation(core.Detection{}, nil)
	assert.Equal(t, core.Point3{}, loc)
	assert.Nil(t, bb)
}

func TestProcessSensorDataUnknownSensor(t *testing.T) {
	s, _ := newTestScene()
	err := s.ProcessSensorData("missing", time.Now(), 1.0)
	assert.Error(t, err)
}

func TestProcessSensorDataDiscardsStaleReadings(t *testing.T) {
	s, _ := newTestScene()
	s.sensors["env1"] = &core.Region{UID: "env1", SingletonType: "environmental"}

	t0 := time.Now()
	require.NoError(t, s.ProcessSensorData("env1", t0, 1.0))
	assert.Equal(t, 1.0, s.sensors["env1"].Value)

	// A reading at or before the last-applied timestamp is stale and
	// must not overwrite the current value.
	require.NoError(t, s.ProcessSensorData("env1", t0, 2.0))
	assert.Equal(t, 1.0, s.sensors["env1"].Value)
	require.NoError(t, s.ProcessSensorData("env1", t0.Add(-time.Second), 3.0))
	assert.Equal(t, 1.0, s.sensors["env1"].Value)

	require.NoError(t, s.ProcessSensorData("env1", t0.Add(time.Second), 4.0))
	assert.Equal(t, 4.0, s.sensors["env1"].Value)
	assert.Equal(t, 1.0, s.sensors["env1"].LastValue)
}

func TestProcessSceneDataRetrackRoutesIntoOwnTracking(t *testing.T) {
	s, facade := newTestScene()
	child := &Child{Name: "kitchen", Retrack: true, Local: s}

	msg := core.IngestMessage{Objects: map[string][]core.Detection{
		"person": {{ID: "det-1", Translation: []float64{1, 2, 0}}},
	}}
	require.NoError(t, s.ProcessSceneData(child, msg, time.Now()))
	assert.Len(t, facade.current["person"], 1)
}

func TestProcessSceneDataReprojectsThroughChildPose(t *testing.T) {
	parent, facade := newTestScene()
	child := &Child{Name: "annex", Retrack: true, Local: parent}
	parent.cameraPose = CameraPose{Extrinsic: geometry.TranslationMat4(100, 0, 0)}

	msg := core.IngestMessage{Objects: map[string][]core.Detection{
		"person": {{ID: "det-1", Translation: []float64{1, 2, 0}}},
	}}
	require.NoError(t, parent.ProcessSceneData(child, msg, time.Now()))

	require.Len(t, facade.current["person"], 1)
	assert.Equal(t, core.Point3{X: 101, Y: 2, Z: 0}, facade.current["person"][0].SceneLoc)
}

func TestProcessSceneDataStripsReidBeforeForwarding(t *testing.T) {
	s, facade := newTestScene()
	child := &Child{Name: "kitchen", Retrack: true, Local: s}

	msg := core.IngestMessage{Objects: map[string][]core.Detection{
		"person": {{ID: "det-1", Translation: []float64{1, 2, 0}, Reid: []float64{0.1, 0.2}}},
	}}
	require.NoError(t, s.ProcessSceneData(child, msg, time.Now()))
	require.Len(t, facade.current["person"], 1)
	assert.Nil(t, facade.current["person"][0].Reid)
}
