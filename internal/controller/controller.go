// Package controller implements the Scene Controller: bus message
// routing, lag/drop handling, and the detection/event publication
// pipeline.
package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sua-org/scene-controller/internal/bus"
	"github.com/sua-org/scene-controller/internal/cache"
	"github.com/sua-org/scene-controller/internal/childbridge"
	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/ntp"
	"github.com/sua-org/scene-controller/internal/schema"
	"github.com/sua-org/scene-controller/internal/scenemodel"
)

// Config holds the controller's runtime knobs, assembled from
// config.Runtime by cmd/scene-controller/main.go.
type Config struct {
	RewriteBadTime  bool
	RewriteAllTime  bool
	MaxLag          time.Duration
	VisibilityTopic string // "regulated" or "unregulated"
}

// Controller is the Scene Controller: it owns the bus subscriptions,
// resolves inbound messages against the Cache Manager, drives each
// Scene's ingestion, and publishes detections/events back out.
type Controller struct {
	cfg    Config
	bus    *bus.Client
	cache  *cache.Manager
	schema schema.Validator
	ntp    ntp.Client

	mu            sync.Mutex
	regulateCache map[string]*regulateState // sceneUID -> state
	lastPubCount  map[string]int            // sceneUID/category or sceneUID/regionUID/category key -> last published count
	lastExternal  map[string]time.Time      // sceneUID/category -> last external publish time

	childBridges map[string]*childbridge.Bridge // remoteChildID -> bridge
}

type regulateState struct {
	objects map[string][]*core.TrackedObject // category -> objects

	regulateRate float64    // EMA of the Δt between publishRegulatedDetections calls, seconds
	regulateLast *time.Time // wall-clock time of the previous call, for the Δt above

	last *time.Time // wall-clock time of the previous actual publish, for the 1/regulated_rate gate
}

// New builds a Controller. cacheMgr and busClient are expected to
// already be constructed; New only wires the handlers together.
func New(cfg Config, busClient *bus.Client, cacheMgr *cache.Manager, validator schema.Validator, ntpClient ntp.Client) *Controller {
	if validator == nil {
		validator = schema.NoOp{}
	}
	if ntpClient == nil {
		ntpClient = ntp.ZeroOffset{}
	}
	return &Controller{
		cfg:           cfg,
		bus:           busClient,
		cache:         cacheMgr,
		schema:        validator,
		ntp:           ntpClient,
		regulateCache: make(map[string]*regulateState),
		lastPubCount:  make(map[string]int),
		lastExternal:  make(map[string]time.Time),
		childBridges:  make(map[string]*childbridge.Bridge),
	}
}

// OnConnect rebuilds every subscription from the current scene set on
// every (re)connect.
func (c *Controller) OnConnect(client *bus.Client) {
	if err := c.updateSubscriptions(context.Background()); err != nil {
		log.Printf("[controller] updating subscriptions on connect: %v", err)
	}
}

// updateSubscriptions rebuilds the bus subscription set from every
// known scene's cameras/sensors/children, mirroring
// SceneController.updateSubscriptions's new/old topic set-diff.
func (c *Controller) updateSubscriptions(ctx context.Context) error {
	c.cache.Invalidate()
	scenes, err := c.cache.AllScenes(ctx)
	if err != nil {
		return fmt.Errorf("controller: listing scenes: %w", err)
	}

	byUID := make(map[string]*scenemodel.Scene, len(scenes))
	for _, s := range scenes {
		if scene, ok := s.(*scenemodel.Scene); ok {
			byUID[scene.UID()] = scene
		}
	}
	for _, scene := range byUID {
		scene.ResolveLocalChildren(byUID)
	}

	want := map[string]bus.Handler{
		bus.DatabaseUpdateTopic(): c.handleDatabaseMessage,
	}
	remoteSeen := make(map[string]struct{})
	for _, scene := range byUID {
		for _, camID := range scene.CameraIDs() {
			want[bus.CameraDataTopic(camID)] = c.handleMovingObjectMessage
		}
		for _, sensorID := range scene.SensorIDs() {
			want[bus.SensorDataTopic(sensorID)] = c.handleSensorMessage
		}
		for name, child := range scene.Children() {
			if child.RemoteID != "" {
				remoteSeen[child.RemoteID] = struct{}{}
				c.ensureChildBridge(ctx, child)
				want[bus.ChildSceneStatusTopic(child.RemoteID)] = c.handleChildStatus
			} else if child.Local != nil {
				want[bus.ExternalDataTopic(child.Local.UID(), "+")] = c.handleMovingObjectMessage
			}
			_ = name
		}
	}

	c.mu.Lock()
	for id, bridge := range c.childBridges {
		if _, ok := remoteSeen[id]; !ok {
			bridge.Stop()
			delete(c.childBridges, id)
		}
	}
	c.mu.Unlock()

	return c.bus.Reconcile(want)
}

func (c *Controller) handleChildStatus(topic string, payload []byte) {
	log.Printf("[controller] child scene status on %s: %s", topic, string(payload))
}

func (c *Controller) handleDatabaseMessage(topic string, payload []byte) {
	ctx := context.Background()
	c.cache.Invalidate()
	if err := c.updateSubscriptions(ctx); err != nil {
		log.Printf("[controller] database update: resubscribing: %v", err)
	}
	c.pruneRegulateCache(ctx)
}

// pruneRegulateCache drops regulate-cache entries for scenes that no
// longer exist, mirroring updateRegulateCache's stale-scene prune.
func (c *Controller) pruneRegulateCache(ctx context.Context) {
	scenes, err := c.cache.AllScenes(ctx)
	if err != nil {
		return
	}
	live := make(map[string]struct{}, len(scenes))
	for _, s := range scenes {
		live[s.UID()] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for uid := range c.regulateCache {
		if _, ok := live[uid]; !ok {
			delete(c.regulateCache, uid)
		}
	}
}

func decodeJSON(payload []byte, out interface{}) error {
	return json.Unmarshal(payload, out)
}
