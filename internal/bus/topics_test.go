package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopicFormatters(t *testing.T) {
	assert.Equal(t, "scenescape/data/camera/cam-1", CameraDataTopic("cam-1"))
	assert.Equal(t, "scenescape/data/sensor/sensor-1", SensorDataTopic("sensor-1"))
	assert.Equal(t, "scenescape/data/scene/scene-1/person", SceneDataTopic("scene-1", "person"))
	assert.Equal(t, "scenescape/data/regulated/scene-1", RegulatedDataTopic("scene-1"))
	assert.Equal(t, "scenescape/data/region/scene-1/r1/person", RegionDataTopic("scene-1", "r1", "person"))
	assert.Equal(t, "scenescape/event/region/objects/scene-1/r1", EventTopic("region", "objects", "scene-1", "r1"))
	assert.Equal(t, "scenescape/event/tripwire/count/scene-1/tw1", EventTopic("tripwire", "count", "scene-1", "tw1"))
	assert.Equal(t, "scenescape/data/external/scene-1/person", ExternalDataTopic("scene-1", "person"))
	assert.Equal(t, "scenescape/cmd/database", DatabaseUpdateTopic())
	assert.Equal(t, "scenescape/sys/childscene/child-1/status", ChildSceneStatusTopic("child-1"))
}

func TestCameraIDFromTopic(t *testing.T) {
	assert.Equal(t, "cam-1", CameraIDFromTopic("scenescape/data/camera/cam-1"))
	assert.Equal(t, "", CameraIDFromTopic("scenescape/data/sensor/cam-1"))
	assert.Equal(t, "", CameraIDFromTopic("too/short"))
}

func TestSensorIDFromTopic(t *testing.T) {
	assert.Equal(t, "sensor-1", SensorIDFromTopic("scenescape/data/sensor/sensor-1"))
	assert.Equal(t, "", SensorIDFromTopic("scenescape/data/camera/sensor-1"))
	assert.Equal(t, "", SensorIDFromTopic("too/short"))
}
