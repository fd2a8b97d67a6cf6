package controller

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/sua-org/scene-controller/internal/bus"
	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/metrics"
	"github.com/sua-org/scene-controller/internal/scenemodel"
)

func parseTimestamp(ts string) (time.Time, error) {
	if sec, err := strconv.ParseFloat(ts, 64); err == nil {
		return time.Unix(0, int64(sec*float64(time.Second))), nil
	}
	return time.Parse(time.RFC3339Nano, ts)
}

// handleMovingObjectMessage ingests a camera- or child-scene-origin
// detector message, mirroring SceneController.handleMovingObjectMessage:
// camera-origin payloads are validated against the "detector" schema
// first; NTP-adjusted now is compared against the message timestamp; a
// message that fell too far behind is dropped (or its timestamp
// rewritten to now, if configured), camera parameter changes are
// reconciled against the cache first, and the resolved scene processes
// the detections before publication.
func (c *Controller) handleMovingObjectMessage(topic string, payload []byte) {
	start := time.Now()
	defer func() {
		metrics.HandlerLatency.WithLabelValues("camera").Observe(time.Since(start).Seconds())
	}()
	metrics.MessagesTotal.WithLabelValues("camera").Inc()

	ctx := context.Background()
	isExternal := strings.Contains(topic, "/external/")

	if !isExternal {
		if err := c.schema.Validate("detector", payload); err != nil {
			log.Printf("[controller] camera message on %s: schema: %v", topic, err)
			return
		}
	}

	var msg core.IngestMessage
	if err := decodeJSON(payload, &msg); err != nil {
		log.Printf("[controller] camera message on %s: decode: %v", topic, err)
		return
	}
	if msg.UpdateCam {
		return
	}

	now := time.Now().Add(c.ntp.Offset())

	cameraID := bus.CameraIDFromTopic(topic)

	if cameraID != "" {
		if err := c.cache.RefreshScenesForCamParams(ctx, cameraID, msg.Intrinsics, msg.Distortion); err != nil {
			log.Printf("[controller] camera %s: reconciling params: %v", cameraID, err)
		}
	}

	msgWhen := now
	if msg.Timestamp != "" {
		if t, err := parseTimestamp(msg.Timestamp); err == nil {
			msgWhen = t
		}
	}
	if c.cfg.RewriteAllTime {
		msgWhen = now
	}

	lag := now.Sub(msgWhen)
	if lag < 0 {
		lag = -lag
	}
	if c.cfg.MaxLag > 0 && lag > c.cfg.MaxLag {
		if c.cfg.RewriteBadTime {
			msgWhen = now
		} else {
			metrics.DroppedTotal.WithLabelValues("fell_behind", "").Inc()
			return
		}
	}

	if isExternal {
		c.handleChildSceneObject(ctx, topic, msg, msgWhen)
		return
	}

	if cameraID == "" {
		log.Printf("[controller] camera message on %s: unrecognized topic", topic)
		return
	}
	sceneRaw, err := c.cache.SceneWithCameraID(ctx, cameraID)
	if err != nil || sceneRaw == nil {
		log.Printf("[controller] no scene for camera %s", cameraID)
		return
	}
	scene, ok := sceneRaw.(*scenemodel.Scene)
	if !ok {
		return
	}
	if err := scene.ProcessCameraData(cameraID, msg, msgWhen); err != nil {
		log.Printf("[controller] processing camera data for %s: %v", cameraID, err)
		c.cache.Invalidate()
		return
	}

	for category := range msg.Objects {
		c.publishDetections(ctx, scene, category, msgWhen)
	}
	c.publishEvents(scene)
}

// handleChildSceneObject resolves the sending child scene and routes
// its reprojected detections into the parent scene, mirroring
// SceneController._handleChildSceneObject.
func (c *Controller) handleChildSceneObject(ctx context.Context, topic string, msg core.IngestMessage, when time.Time) {
	senderID := bus.CameraIDFromTopic(topic)
	if senderID == "" {
		parts := strings.Split(topic, "/")
		if len(parts) >= 4 {
			senderID = parts[3]
		}
	}

	senderRaw, _ := c.cache.SceneWithUID(ctx, senderID)
	if senderRaw == nil {
		senderRaw, _ = c.cache.SceneWithRemoteChildID(ctx, senderID)
	}
	if senderRaw == nil {
		log.Printf("[controller] child scene message: unknown sender %s", senderID)
		return
	}
	sender, ok := senderRaw.(*scenemodel.Scene)
	if !ok {
		return
	}
	parentUID := sender.ParentUID()
	if parentUID == "" {
		return
	}
	parentRaw, err := c.cache.SceneWithUID(ctx, parentUID)
	if err != nil || parentRaw == nil {
		return
	}
	parent, ok := parentRaw.(*scenemodel.Scene)
	if !ok {
		return
	}

	child := findChildByLocalUID(parent, sender.UID())
	if child == nil {
		return
	}
	if err := parent.ProcessSceneData(child, msg, when); err != nil {
		log.Printf("[controller] processing child scene data from %s: %v", sender.UID(), err)
		return
	}
	for category := range msg.Objects {
		c.publishDetections(ctx, parent, category, when)
	}
	c.publishEvents(parent)
}

func findChildByLocalUID(parent *scenemodel.Scene, localUID string) *scenemodel.Child {
	for _, child := range parent.Children() {
		if child.Local != nil && child.Local.UID() == localUID {
			return child
		}
	}
	return nil
}

// handleSensorMessage applies a singleton sensor reading and publishes
// any resulting region events, mirroring
// SceneController.handleSensorMessage.
func (c *Controller) handleSensorMessage(topic string, payload []byte) {
	metrics.MessagesTotal.WithLabelValues("sensor").Inc()
	ctx := context.Background()

	if err := c.schema.Validate("singleton", payload); err != nil {
		log.Printf("[controller] sensor message on %s: schema: %v", topic, err)
		return
	}

	var msg core.SensorMessage
	if err := decodeJSON(payload, &msg); err != nil {
		log.Printf("[controller] sensor message on %s: decode: %v", topic, err)
		return
	}

	sensorID := bus.SensorIDFromTopic(topic)
	if sensorID == "" {
		return
	}
	sceneRaw, err := c.cache.SceneWithSensorID(ctx, sensorID)
	if err != nil || sceneRaw == nil {
		return
	}
	scene, ok := sceneRaw.(*scenemodel.Scene)
	if !ok {
		return
	}

	when := time.Now().Add(c.ntp.Offset())
	if c.cfg.RewriteAllTime {
		when = time.Now()
	} else if msg.Timestamp != "" {
		if t, err := parseTimestamp(msg.Timestamp); err == nil {
			when = t
		}
	}

	if err := scene.ProcessSensorData(sensorID, when, msg.Value); err != nil {
		log.Printf("[controller] processing sensor data for %s: %v", sensorID, err)
		c.cache.Invalidate()
		return
	}
	c.publishEvents(scene)
}
