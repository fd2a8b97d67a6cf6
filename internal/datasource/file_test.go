package datasource

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sua-org/scene-controller/internal/core"
)

func writeFile(t *testing.T, dir, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func TestFileGetScenesReadsManifestAndPayloads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.yaml", []byte("scenes:\n  - scene-1.json\nassets: assets.json\n"))
	scene := core.ScenePayload{UID: "scene-1", Name: "Lobby"}
	body, err := json.Marshal(scene)
	require.NoError(t, err)
	writeFile(t, dir, "scene-1.json", body)

	ds, err := NewFile(dir)
	require.NoError(t, err)

	res, err := ds.GetScenes(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Scenes, 1)
	assert.Equal(t, "scene-1", res.Scenes[0].UID)
	assert.Equal(t, "Lobby", res.Scenes[0].Name)
}

func TestFileGetScenesReloadsManifestOnEachCall(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.yaml", []byte("scenes: []\n"))
	ds, err := NewFile(dir)
	require.NoError(t, err)

	res, err := ds.GetScenes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Scenes)

	writeFile(t, dir, "manifest.yaml", []byte("scenes:\n  - scene-1.json\n"))
	writeFile(t, dir, "scene-1.json", []byte(`{"uid":"scene-1"}`))

	res, err = ds.GetScenes(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Scenes, 1)
	assert.Equal(t, "scene-1", res.Scenes[0].UID)
}

func TestFileGetCameraAndUpdateCameraRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.yaml", []byte("scenes: []\n"))
	ds, err := NewFile(dir)
	require.NoError(t, err)

	payload := core.CameraPayload{UID: "cam-1", Resolution: [2]int{1920, 1080}}
	require.NoError(t, ds.UpdateCamera(context.Background(), "cam-1", payload))

	got, err := ds.GetCamera(context.Background(), "cam-1")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFileGetAssetsEmptyManifestFieldIsNoOp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.yaml", []byte("scenes: []\n"))
	ds, err := NewFile(dir)
	require.NoError(t, err)

	assets, err := ds.GetAssets(context.Background())
	require.NoError(t, err)
	assert.Nil(t, assets)
}

func TestFileGetChildScenesReadsSceneFileByUID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.yaml", []byte("scenes: []\n"))
	ds, err := NewFile(dir)
	require.NoError(t, err)

	scene := core.ScenePayload{UID: "scene-1", Children: []core.ChildPayload{{Name: "annex", ChildType: "local"}}}
	body, err := json.Marshal(scene)
	require.NoError(t, err)
	writeFile(t, dir, "scene-1.json", body)

	children, err := ds.GetChildScenes(context.Background(), "scene-1")
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "annex", children[0].Name)
}

func TestFileSetTRSMatrixWritesSidecar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "manifest.yaml", []byte("scenes: []\n"))
	ds, err := NewFile(dir)
	require.NoError(t, err)

	m := [16]float64{1: 1}
	require.NoError(t, ds.SetTRSMatrix(context.Background(), "scene-1", m))

	data, err := os.ReadFile(filepath.Join(dir, "scene-1.trs.json"))
	require.NoError(t, err)
	var got [16]float64
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, m, got)
}

func TestNewFileRequiresManifest(t *testing.T) {
	_, err := NewFile(t.TempDir())
	assert.Error(t, err)
}
