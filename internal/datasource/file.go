package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sua-org/scene-controller/internal/core"
	"gopkg.in/yaml.v3"
)

func init() {
	Register("file", func(settings map[string]string) (DataSource, error) {
		dir := settings["dir"]
		if dir == "" {
			return nil, fmt.Errorf("datasource: file adapter requires a dir")
		}
		return NewFile(dir)
	})
}

// manifest is a small sidecar describing which scene/camera/asset
// files live in the data directory, the way mediamtx/config.go keeps
// its path list in a single structured document rather than scanning
// the filesystem on every call.
type manifest struct {
	Scenes  []string `yaml:"scenes"`
	Assets  string   `yaml:"assets,omitempty"`
	Cameras []string `yaml:"cameras,omitempty"`
}

// File is the Data Source Adapter for local/offline deployments: scene
// and camera configuration are plain JSON files in a directory,
// indexed by a manifest.yaml sidecar.
type File struct {
	dir string

	mu       sync.Mutex
	manifest manifest
}

// NewFile builds a File adapter rooted at dir, reading dir/manifest.yaml.
func NewFile(dir string) (*File, error) {
	f := &File{dir: dir}
	if err := f.reloadManifest(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) reloadManifest() error {
	data, err := os.ReadFile(filepath.Join(f.dir, "manifest.yaml"))
	if err != nil {
		return fmt.Errorf("datasource: reading manifest: %w", err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("datasource: parsing manifest: %w", err)
	}
	f.mu.Lock()
	f.manifest = m
	f.mu.Unlock()
	return nil
}

func (f *File) GetScenes(ctx context.Context) (Result, error) {
	if err := f.reloadManifest(); err != nil {
		return Result{}, err
	}
	f.mu.Lock()
	files := append([]string(nil), f.manifest.Scenes...)
	f.mu.Unlock()

	scenes := make([]core.ScenePayload, 0, len(files))
	for _, name := range files {
		var payload core.ScenePayload
		if err := f.readJSON(name, &payload); err != nil {
			return Result{}, err
		}
		scenes = append(scenes, payload)
	}
	return Result{Scenes: scenes}, nil
}

func (f *File) GetCamera(ctx context.Context, cameraUID string) (core.CameraPayload, error) {
	var payload core.CameraPayload
	err := f.readJSON(filepath.Join("cameras", cameraUID+".json"), &payload)
	return payload, err
}

func (f *File) UpdateCamera(ctx context.Context, cameraUID string, payload core.CameraPayload) error {
	return f.writeJSON(filepath.Join("cameras", cameraUID+".json"), payload)
}

func (f *File) GetAssets(ctx context.Context) ([]core.AssetClass, error) {
	f.mu.Lock()
	assetsFile := f.manifest.Assets
	f.mu.Unlock()
	if assetsFile == "" {
		return nil, nil
	}
	var assets []core.AssetClass
	if err := f.readJSON(assetsFile, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func (f *File) GetChildScenes(ctx context.Context, sceneUID string) ([]core.ChildPayload, error) {
	var payload core.ScenePayload
	if err := f.readJSON(sceneUID+".json", &payload); err != nil {
		return nil, err
	}
	return payload.Children, nil
}

func (f *File) SetTRSMatrix(ctx context.Context, sceneUID string, m [16]float64) error {
	path := filepath.Join(f.dir, sceneUID+".trs.json")
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (f *File) readJSON(relPath string, out interface{}) error {
	data, err := os.ReadFile(filepath.Join(f.dir, relPath))
	if err != nil {
		return fmt.Errorf("datasource: reading %s: %w", relPath, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("datasource: parsing %s: %w", relPath, err)
	}
	return nil
}

func (f *File) writeJSON(relPath string, in interface{}) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(f.dir, relPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
