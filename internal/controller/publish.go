package controller

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/sua-org/scene-controller/internal/bus"
	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/geometry"
	"github.com/sua-org/scene-controller/internal/scenemodel"
)

const avgFrames = 100 // AVG_FRAMES: the regulated-rate exponential moving average's window

// wireObject is the published shape of a TrackedObject.
type wireObject struct {
	ID         string                 `json:"id"`
	Category   string                 `json:"category"`
	Location   [3]float64             `json:"translation"`
	Visibility []string               `json:"visibility,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Bounds     *core.BoundingBox      `json:"bounds,omitempty"`
}

func toWireObject(obj *core.TrackedObject) wireObject {
	return wireObject{
		ID:         obj.Gid,
		Category:   obj.Category,
		Location:   [3]float64{obj.SceneLoc.X, obj.SceneLoc.Y, obj.SceneLoc.Z},
		Visibility: obj.Visibility,
		Attributes: obj.Attributes,
		Bounds:     obj.BoundingBox,
	}
}

// publishDetections is the top-level fan-out performed after every
// camera/child-scene ingest: the scene-wide topic, the external
// (rate-limited) topic, the regulated topic, and the per-region topics.
func (c *Controller) publishDetections(ctx context.Context, scene *scenemodel.Scene, category string, when time.Time) {
	facade := scene.Tracker()
	if facade == nil {
		return
	}
	objects := facade.CurrentObjects(category)

	c.publishSceneDetections(scene, category, objects)
	c.publishExternalDetections(scene, category, objects, when)
	c.publishRegulatedDetections(scene, category, objects, when)
	c.publishRegionDetections(scene, category, objects)
}

// publishSceneDetections publishes the full per-category object list
// to the scene-wide topic. An empty list is published exactly once
// after the last non-empty publish (never repeated), mirroring the
// olen>0 or lastPubCount-not-zero guard in publishSceneDetections.
func (c *Controller) publishSceneDetections(scene *scenemodel.Scene, category string, objects []*core.TrackedObject) {
	key := scene.UID() + "/" + category
	c.mu.Lock()
	last, hadLast := c.lastPubCount[key]
	c.mu.Unlock()

	olen := len(objects)
	if olen == 0 && hadLast && last == 0 {
		return
	}

	payload := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"objects":   toWireObjects(objects),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[controller] marshaling scene detections: %v", err)
		return
	}
	if err := c.bus.Publish(bus.SceneDataTopic(scene.UID(), category), false, data); err != nil {
		log.Printf("[controller] publishing scene detections: %v", err)
	}

	c.mu.Lock()
	c.lastPubCount[key] = olen
	c.mu.Unlock()
}

func toWireObjects(objects []*core.TrackedObject) []wireObject {
	out := make([]wireObject, len(objects))
	for i, o := range objects {
		out[i] = toWireObject(o)
	}
	return out
}

// publishExternalDetections republishes to the external-scenes topic
// at most once per 1/external_update_rate seconds, mirroring
// publishExternalDetections's shouldPublish gate.
func (c *Controller) publishExternalDetections(scene *scenemodel.Scene, category string, objects []*core.TrackedObject, when time.Time) {
	rate := scene.ExternalUpdateRate()
	if rate <= 0 {
		return
	}
	key := scene.UID() + "/" + category
	c.mu.Lock()
	last, ok := c.lastExternal[key]
	c.mu.Unlock()
	if ok && when.Sub(last) < time.Duration(float64(time.Second)/rate) {
		return
	}

	payload := map[string]interface{}{
		"timestamp": when.UTC().Format(time.RFC3339Nano),
		"objects":   toWireObjects(objects),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := c.bus.Publish(bus.ExternalDataTopic(scene.UID(), category), false, data); err != nil {
		log.Printf("[controller] publishing external detections: %v", err)
		return
	}
	c.mu.Lock()
	c.lastExternal[key] = when
	c.mu.Unlock()
}

// publishRegulatedDetections maintains a rate-limited view of the
// scene. scene_rate is a moving average (AVG_FRAMES=100) of the actual
// wall-clock interval between calls to this function — an observed
// processing rate, not the static configured Hz. Per-camera rates are
// each camera's own last self-reported frame_rate, passed through
// unsmoothed. When visibility_topic is "regulated", per-camera
// pixel-space bounds are attached as well.
func (c *Controller) publishRegulatedDetections(scene *scenemodel.Scene, category string, objects []*core.TrackedObject, when time.Time) {
	rate := scene.RegulatedRate()
	if rate <= 0 {
		return
	}

	c.mu.Lock()
	state, ok := c.regulateCache[scene.UID()]
	if !ok {
		state = &regulateState{objects: make(map[string][]*core.TrackedObject), regulateRate: 1}
		c.regulateCache[scene.UID()] = state
	}
	state.objects[category] = objects

	var delta float64
	if state.regulateLast != nil {
		delta = when.Sub(*state.regulateLast).Seconds()
	}
	state.regulateRate = (state.regulateRate*avgFrames + delta) / (avgFrames + 1)
	state.regulateLast = &when
	sceneRate := state.regulateRate

	var snapshot []*core.TrackedObject
	shouldPublish := state.last == nil || when.Sub(*state.last) >= time.Duration(float64(time.Second)/rate)
	if shouldPublish {
		state.last = &when
		for _, objs := range state.objects {
			snapshot = append(snapshot, objs...)
		}
	}
	c.mu.Unlock()
	if !shouldPublish {
		return
	}

	payload := map[string]interface{}{
		"scene_rate": round1(1 / sceneRate),
		"rate":       scene.CameraRates(),
		"objects":    toWireObjects(snapshot),
	}
	if c.cfg.VisibilityTopic == "regulated" {
		payload["bounds"] = c.regulatedBounds(scene, snapshot)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := c.bus.Publish(bus.RegulatedDataTopic(scene.UID()), false, data); err != nil {
		log.Printf("[controller] publishing regulated detections: %v", err)
	}
}

// regulatedBounds projects every object into each camera's pixel frame,
// attached only under visibility_topic=="regulated" rather than baked
// into the scene-topic payload.
func (c *Controller) regulatedBounds(scene *scenemodel.Scene, objects []*core.TrackedObject) map[string][]core.BoundingBox {
	out := make(map[string][]core.BoundingBox)
	for camID, cam := range scene.Cameras() {
		for _, obj := range objects {
			if box, ok := geometry.CameraBounds(obj.SceneLoc, cam.Pose); ok {
				out[camID] = append(out[camID], box)
			}
		}
	}
	return out
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}

// publishRegionDetections re-publishes the objects currently occupying
// each region to its own per-region topic, applying the same
// empty-once suppression as publishSceneDetections.
func (c *Controller) publishRegionDetections(scene *scenemodel.Scene, category string, objects []*core.TrackedObject) {
	byGid := make(map[string]*core.TrackedObject, len(objects))
	for _, o := range objects {
		byGid[o.Gid] = o
	}

	for uid, region := range scene.Regions() {
		occupants := region.Objects[category]
		key := scene.UID() + "/" + uid + "/" + category
		c.mu.Lock()
		last, hadLast := c.lastPubCount[key]
		c.mu.Unlock()

		olen := len(occupants)
		if olen == 0 && hadLast && last == 0 {
			continue
		}

		payload := map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"objects":   toWireObjects(occupants),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			continue
		}
		if err := c.bus.Publish(bus.RegionDataTopic(scene.UID(), uid, category), false, data); err != nil {
			log.Printf("[controller] publishing region detections: %v", err)
			continue
		}
		c.mu.Lock()
		c.lastPubCount[key] = olen
		c.mu.Unlock()
	}
}
