package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/datasource"
)

// fakeScene is the minimal Scene implementation cache.Manager needs.
type fakeScene struct {
	uid       string
	cameraIDs []string
	updates   int
}

func (f *fakeScene) UID() string               { return f.uid }
func (f *fakeScene) CameraIDs() []string        { return f.cameraIDs }
func (f *fakeScene) SensorIDs() []string        { return nil }
func (f *fakeScene) RemoteChildIDs() []string   { return nil }
func (f *fakeScene) UpdateFromPayload(core.ScenePayload) { f.updates++ }

type fakeDataSource struct {
	scenes       []core.ScenePayload
	updateCalls  int
	getScenesHit int
}

func (f *fakeDataSource) GetScenes(ctx context.Context) (datasource.Result, error) {
	f.getScenesHit++
	return datasource.Result{Scenes: f.scenes}, nil
}
func (f *fakeDataSource) GetCamera(ctx context.Context, cameraUID string) (core.CameraPayload, error) {
	return core.CameraPayload{UID: cameraUID}, nil
}
func (f *fakeDataSource) UpdateCamera(ctx context.Context, cameraUID string, payload core.CameraPayload) error {
	f.updateCalls++
	return nil
}
func (f *fakeDataSource) GetAssets(ctx context.Context) ([]core.AssetClass, error) { return nil, nil }
func (f *fakeDataSource) GetChildScenes(ctx context.Context, sceneUID string) ([]core.ChildPayload, error) {
	return nil, nil
}
func (f *fakeDataSource) SetTRSMatrix(ctx context.Context, sceneUID string, m [16]float64) error {
	return nil
}

func newScene(p core.ScenePayload) Scene {
	cams := make([]string, len(p.Cameras))
	for i, c := range p.Cameras {
		cams[i] = c.UID
	}
	return &fakeScene{uid: p.UID, cameraIDs: cams}
}

func TestRefreshScenesIndexesByCameraID(t *testing.T) {
	ds := &fakeDataSource{scenes: []core.ScenePayload{
		{UID: "scene-1", Cameras: []core.CameraPayload{{UID: "cam-1"}, {UID: "cam-2"}}},
	}}
	mgr := New(ds, newScene)

	scenes, err := mgr.AllScenes(context.Background())
	require.NoError(t, err)
	assert.Len(t, scenes, 1)

	s, err := mgr.SceneWithCameraID(context.Background(), "cam-2")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "scene-1", s.UID())
}

func TestRefreshScenesDropsRemoved(t *testing.T) {
	ds := &fakeDataSource{scenes: []core.ScenePayload{{UID: "scene-1"}, {UID: "scene-2"}}}
	mgr := New(ds, newScene)

	_, err := mgr.AllScenes(context.Background())
	require.NoError(t, err)

	ds.scenes = []core.ScenePayload{{UID: "scene-1"}}
	mgr.Invalidate()

	scenes, err := mgr.AllScenes(context.Background())
	require.NoError(t, err)
	assert.Len(t, scenes, 1)
	assert.Equal(t, "scene-1", scenes[0].UID())
}

func TestRefreshScenesPreservesExistingInstance(t *testing.T) {
	ds := &fakeDataSource{scenes: []core.ScenePayload{{UID: "scene-1"}}}
	mgr := New(ds, newScene)

	_, err := mgr.AllScenes(context.Background())
	require.NoError(t, err)

	s1, err := mgr.SceneWithUID(context.Background(), "scene-1")
	require.NoError(t, err)

	mgr.Invalidate()
	_, err = mgr.AllScenes(context.Background())
	require.NoError(t, err)

	s2, err := mgr.SceneWithUID(context.Background(), "scene-1")
	require.NoError(t, err)

	// Same underlying object: a refresh must update in place, not
	// replace, so live tracker state on the scene survives.
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, s2.(*fakeScene).updates)
}

func TestCheckRefreshHonorsTTL(t *testing.T) {
	ds := &fakeDataSource{scenes: []core.ScenePayload{{UID: "scene-1"}}}
	mgr := New(ds, newScene)
	mgr.RefreshTTL = 10 * time.Millisecond

	_, err := mgr.AllScenes(context.Background())
	require.NoError(t, err)
	firstRefresh := mgr.cacheRefreshedAt

	// Immediate re-lookup should not re-refresh.
	_, err = mgr.AllScenes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, firstRefresh, mgr.cacheRefreshedAt)

	time.Sleep(15 * time.Millisecond)
	_, err = mgr.AllScenes(context.Background())
	require.NoError(t, err)
	assert.True(t, mgr.cacheRefreshedAt.After(firstRefresh))
}
