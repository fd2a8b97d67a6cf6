package geometry

import "github.com/sua-org/scene-controller/internal/core"

// VolumeIntersector resolves 3D mesh intersection between a volumetric
// region and a tracked object's bounding volume. Full 3D map mesh
// parsing and mesh-mesh intersection are out of scope for this
// implementation; callers inject a VolumeIntersector so the rest of the
// region-evaluation path stays mesh-format agnostic.
type VolumeIntersector interface {
	// Intersects reports whether the object at loc (with the given
	// footprint) intersects the named region's volume.
	Intersects(regionUID string, loc core.Point3, footprint core.Polygon) bool

	// ProjectedCorners returns the scene map's corner points projected
	// onto the XY plane together with their surveyed LLA. Returns
	// ok=false when no map mesh/corners are configured. Scenes do not
	// call it; their CalculateTRSLocal2LLA corners come from the scene
	// payload's map_corners_lla.
	ProjectedCorners() (corners []MeshCorner, ok bool)
}

// FlatVolumeIntersector is the default VolumeIntersector: it treats
// every region as flat (height ignored) and falls back to 2D polygon
// containment/intersection. It has no map corners, so
// ProjectedCorners always reports ok=false; a scene's trs_xyz_to_lla
// is derived from the map_corners_lla entries of its payload instead.
type FlatVolumeIntersector struct {
	Regions map[string]core.Polygon
}

func (f *FlatVolumeIntersector) Intersects(regionUID string, _ core.Point3, footprint core.Polygon) bool {
	poly, ok := f.Regions[regionUID]
	if !ok {
		return false
	}
	return Intersects(poly, footprint)
}

func (f *FlatVolumeIntersector) ProjectedCorners() ([]MeshCorner, bool) {
	return nil, false
}

// CameraBounds computes the axis-aligned pixel bounding box a scene
// point reprojects to in a camera's image plane, used by
// publishRegulatedDetections to attach per-camera bounds to a
// regulated detection. Calibration (deriving the camera's projection
// matrix) is out of scope; this applies an already-resolved pose's
// extrinsic/intrinsic matrices.
func CameraBounds(loc core.Point3, pose *core.Pose) (core.BoundingBox, bool) {
	if pose == nil {
		return core.BoundingBox{}, false
	}
	m := Mat4(pose.Extrinsic)
	x, y, z := m.Apply(loc.X, loc.Y, loc.Z)
	if z == 0 {
		return core.BoundingBox{}, false
	}
	px := pose.Intrinsics.Fx*x/z + pose.Intrinsics.Cx
	py := pose.Intrinsics.Fy*y/z + pose.Intrinsics.Cy
	return core.BoundingBox{X: px, Y: py, Width: 0, Height: 0}, true
}
