// Package cache implements the Cache Manager: the mutex-guarded,
// lazily-refreshed index over scenes/cameras/sensors/remote children
// that the Scene Controller resolves incoming messages against.
package cache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/datasource"
)

// Scene is the minimal view the Cache Manager needs of a scene: enough
// to index it and to let internal/scenemodel hydrate/update the rest.
// internal/scenemodel.Scene implements this so the cache can hold the
// concrete scene objects directly instead of a parallel DTO.
type Scene interface {
	UID() string
	CameraIDs() []string
	SensorIDs() []string
	RemoteChildIDs() []string
	UpdateFromPayload(p core.ScenePayload)
}

// Manager holds four lazily populated indexes over a scene set,
// refreshed from a DataSource on demand and invalidated by the
// controller when messages imply the cache may be stale.
type Manager struct {
	ds datasource.DataSource

	// NewScene constructs a Scene from a ScenePayload (deserialize);
	// scenes already cached are updated through UpdateFromPayload
	// instead. It is injected so
	// internal/cache never imports internal/scenemodel, avoiding an
	// import cycle (scenemodel can depend on cache, not the reverse).
	NewScene func(p core.ScenePayload) Scene

	// RefreshTTL enables periodic re-refresh of the whole cache on
	// every lookup, gated behind this opt-in duration. The original
	// source's REFRESH_TIME recheck is present but commented out, so
	// this defaults to zero (disabled) unless the caller sets it.
	RefreshTTL time.Duration

	mu               sync.Mutex
	scenes           map[string]Scene
	byUID            map[string]Scene
	byCameraID       map[string]Scene
	bySensorID       map[string]Scene
	byRemoteChildID  map[string]Scene
	cacheRefreshedAt time.Time

	cameraParams map[string]core.CameraPayload // stash for reconciliation
}

// New builds a Manager. newScene constructs/updates Scene values from
// ScenePayloads; it is supplied by the caller (cmd/scene-controller)
// to avoid a cache<->scenemodel import cycle.
func New(ds datasource.DataSource, newScene func(core.ScenePayload) Scene) *Manager {
	return &Manager{
		ds:           ds,
		NewScene:     newScene,
		scenes:       make(map[string]Scene),
		byUID:        make(map[string]Scene),
		byCameraID:   make(map[string]Scene),
		bySensorID:   make(map[string]Scene),
		cameraParams: make(map[string]core.CameraPayload),
	}
}

// Invalidate forces the next lookup to refresh from the data source.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byUID = nil
}

func (m *Manager) checkRefresh(ctx context.Context) error {
	m.mu.Lock()
	needsRefresh := m.byUID == nil
	if !needsRefresh && m.RefreshTTL > 0 {
		needsRefresh = time.Since(m.cacheRefreshedAt) >= m.RefreshTTL
	}
	m.mu.Unlock()
	if !needsRefresh {
		return nil
	}
	return m.RefreshScenes(ctx)
}

// RefreshScenes re-fetches the scene list from the data source,
// upserting existing scenes in place (preserving their live tracker
// state) and dropping scenes that disappeared, mirroring
// CacheManager.refreshScenes.
func (m *Manager) RefreshScenes(ctx context.Context) error {
	result, err := m.ds.GetScenes(ctx)
	if err != nil {
		return fmt.Errorf("cache: refreshing scenes: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	found := make(map[string]struct{}, len(result.Scenes))
	for _, payload := range result.Scenes {
		found[payload.UID] = struct{}{}
		if existing, ok := m.scenes[payload.UID]; ok {
			existing.UpdateFromPayload(payload)
			continue
		}
		scene := m.NewScene(payload)
		m.scenes[payload.UID] = scene
	}

	for uid := range m.scenes {
		if _, ok := found[uid]; !ok {
			delete(m.scenes, uid)
			log.Printf("[cache] scene %s removed from data source", uid)
		}
	}

	m.reindexLocked()
	m.cacheRefreshedAt = time.Now()
	return nil
}

func (m *Manager) reindexLocked() {
	byUID := make(map[string]Scene, len(m.scenes))
	byCamera := make(map[string]Scene)
	bySensor := make(map[string]Scene)
	byRemoteChild := make(map[string]Scene)

	for uid, scene := range m.scenes {
		byUID[uid] = scene
		for _, camID := range scene.CameraIDs() {
			byCamera[camID] = scene
		}
		for _, sensorID := range scene.SensorIDs() {
			bySensor[sensorID] = scene
		}
		for _, childID := range scene.RemoteChildIDs() {
			byRemoteChild[childID] = scene
		}
	}

	m.byUID = byUID
	m.byCameraID = byCamera
	m.bySensorID = bySensor
	m.byRemoteChildID = byRemoteChild
}

// AllScenes returns every currently cached scene, refreshing first if
// the cache is stale or empty.
func (m *Manager) AllScenes(ctx context.Context) ([]Scene, error) {
	if err := m.checkRefresh(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Scene, 0, len(m.byUID))
	for _, s := range m.byUID {
		out = append(out, s)
	}
	return out, nil
}

func (m *Manager) SceneWithUID(ctx context.Context, uid string) (Scene, error) {
	if err := m.checkRefresh(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byUID[uid], nil
}

func (m *Manager) SceneWithCameraID(ctx context.Context, cameraID string) (Scene, error) {
	if err := m.checkRefresh(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byCameraID[cameraID], nil
}

func (m *Manager) SceneWithSensorID(ctx context.Context, sensorID string) (Scene, error) {
	if err := m.checkRefresh(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bySensorID[sensorID], nil
}

func (m *Manager) SceneWithRemoteChildID(ctx context.Context, childID string) (Scene, error) {
	if err := m.checkRefresh(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byRemoteChildID[childID], nil
}
