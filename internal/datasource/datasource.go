// Package datasource implements the Data Source Adapter: the
// collaborator the Cache Manager calls to fetch scene/camera/asset
// configuration and push camera parameter updates, backed by either a
// REST service or a local directory of JSON files.
package datasource

import (
	"context"

	"github.com/sua-org/scene-controller/internal/core"
)

// Result wraps a data source response the way the REST adapter's
// envelope and the file adapter's directory read both need to report.
// It carries only the results payload; failures are reported through
// the accompanying error return value.
type Result struct {
	Scenes      []core.ScenePayload
	Camera      *core.CameraPayload
	Assets      []core.AssetClass
	ChildScenes []core.ChildPayload
}

// DataSource is the adapter interface the Cache Manager depends on.
// Implementations must be safe for concurrent use.
type DataSource interface {
	GetScenes(ctx context.Context) (Result, error)
	GetCamera(ctx context.Context, cameraUID string) (core.CameraPayload, error)
	UpdateCamera(ctx context.Context, cameraUID string, payload core.CameraPayload) error
	GetAssets(ctx context.Context) ([]core.AssetClass, error)
	GetChildScenes(ctx context.Context, sceneUID string) ([]core.ChildPayload, error)
	SetTRSMatrix(ctx context.Context, sceneUID string, m [16]float64) error
}
