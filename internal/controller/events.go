package controller

import (
	"encoding/json"
	"log"
	"time"

	"github.com/sua-org/scene-controller/internal/bus"
	"github.com/sua-org/scene-controller/internal/scenemodel"
)

type exitedWire struct {
	Object wireObject `json:"object"`
	Dwell  float64    `json:"dwell"`
}

// publishEvents builds and publishes one message per staged
// region/tripwire change: a tripwire only publishes when at least one
// crossing occurred, while a region publishes on any entered/exited/count
// change (including to zero, so downstream consumers see occupancy
// clear). Sensor-backed singleton regions attach their scalar value and
// stage an undebounced "value" entry on every accepted reading. State is
// cleared after publish via scene.ClearEventState so a steady-state
// occupant doesn't get re-reported next tick.
func (c *Controller) publishEvents(scene *scenemodel.Scene) {
	for _, staged := range scene.Events() {
		switch staged.Event.Kind {
		case scenemodel.EventRegion:
			c.publishRegionEvent(scene, staged.EventType, staged.Event)
		case scenemodel.EventTripwire:
			c.publishTripwireEvent(scene, staged.EventType, staged.Event)
		}
	}
	scene.ClearEventState()
}

func (c *Controller) publishRegionEvent(scene *scenemodel.Scene, eventType string, ev scenemodel.Event) {
	region := ev.Region
	payload := map[string]interface{}{
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"scene_id":    scene.UID(),
		"scene_name":  scene.Name(),
		"region_id":   region.UID,
		"region_name": region.Name,
		"from_sensor": region.SingletonType != "",
	}
	numObjects := 0
	for category, occupants := range region.Objects {
		payload["objects_"+category] = toWireObjects(occupants)
		numObjects += len(occupants)
	}
	for category, entered := range region.Entered {
		payload["entered_"+category] = toWireObjects(entered)
	}
	for category, exited := range region.Exited {
		wire := make([]exitedWire, len(exited))
		for i, e := range exited {
			wire[i] = exitedWire{Object: toWireObject(e.Object), Dwell: e.Dwell.Seconds()}
		}
		payload["exited_"+category] = wire
	}
	if region.HasValue {
		payload["value"] = region.Value
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[controller] marshaling region event: %v", err)
		return
	}
	if err := c.bus.Publish(bus.EventTopic("region", eventType, scene.UID(), region.UID), false, data); err != nil {
		log.Printf("[controller] publishing region event: %v", err)
	}
	_ = numObjects
}

func (c *Controller) publishTripwireEvent(scene *scenemodel.Scene, eventType string, ev scenemodel.Event) {
	tw := ev.Tripwire
	total := 0
	objectsByCategory := make(map[string]interface{}, len(tw.Objects))
	for category, crossings := range tw.Objects {
		wire := make([]map[string]interface{}, len(crossings))
		for i, cr := range crossings {
			wire[i] = map[string]interface{}{
				"object":    toWireObject(cr.Object),
				"direction": cr.Direction,
			}
		}
		objectsByCategory[category] = wire
		total += len(crossings)
	}
	if total == 0 {
		return
	}

	payload := map[string]interface{}{
		"timestamp":     time.Now().UTC().Format(time.RFC3339Nano),
		"scene_id":      scene.UID(),
		"scene_name":    scene.Name(),
		"tripwire_id":   tw.UID,
		"tripwire_name": tw.Name,
		"crossings":     objectsByCategory,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[controller] marshaling tripwire event: %v", err)
		return
	}
	if err := c.bus.Publish(bus.EventTopic("tripwire", eventType, scene.UID(), tw.UID), false, data); err != nil {
		log.Printf("[controller] publishing tripwire event: %v", err)
	}
}
