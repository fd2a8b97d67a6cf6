package cache

import (
	"context"
	"fmt"

	"github.com/sua-org/scene-controller/internal/core"
)

// RefreshScenesForCamParams reconciles the camera intrinsics/distortion
// carried on an inbound ingest message against the last-known values,
// mirroring CacheManager.refreshScenesForCamParams: only k1,k2,p1,p2,k3
// are compared for distortion; intrinsics comparison is on cx,cy only,
// with resolution derived as [2cx, 2cy] when they change. A change in
// either pushes the new parameters to the data source and forces a
// full scene refresh so cached poses pick up the update.
func (m *Manager) RefreshScenesForCamParams(ctx context.Context, cameraUID string, intr *core.Intrinsics, dist *core.Distortion) error {
	if intr == nil && dist == nil {
		return nil
	}

	m.mu.Lock()
	prev, hadPrev := m.cameraParams[cameraUID]
	m.mu.Unlock()

	next := prev
	intrinsicsChanged := false
	distortionChanged := false

	if intr != nil {
		if !hadPrev || prev.Intrinsics == nil || prev.Intrinsics.Cx != intr.Cx || prev.Intrinsics.Cy != intr.Cy {
			intrinsicsChanged = true
		}
		next.Intrinsics = intr
		next.Resolution = [2]int{int(2 * intr.Cx), int(2 * intr.Cy)}
	}
	if dist != nil {
		if !hadPrev || prev.Distortion == nil || !prev.Distortion.Equal(*dist) {
			distortionChanged = true
		}
		next.Distortion = dist
	}

	if !intrinsicsChanged && !distortionChanged {
		return nil
	}

	next.UID = cameraUID
	m.mu.Lock()
	m.cameraParams[cameraUID] = next
	m.mu.Unlock()

	if err := m.ds.UpdateCamera(ctx, cameraUID, next); err != nil {
		return fmt.Errorf("cache: pushing camera params for %s: %w", cameraUID, err)
	}
	return m.RefreshScenes(ctx)
}
