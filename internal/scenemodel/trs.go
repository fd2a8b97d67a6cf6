package scenemodel

import "github.com/sua-org/scene-controller/internal/geometry"

// invalidateTRSLocked clears the cached local-to-LLA transform; the
// caller holds s.mu.
func (s *Scene) invalidateTRSLocked() {
	s.trsCached = nil
	s.trsComputed = false
}

// trsLocked lazily computes the scene's local-XY-to-LLA transform,
// mirroring the trs_xyz_to_lla property: it is nil unless output_lla
// is enabled and map corners are configured, and is cached until
// invalidated.
func (s *Scene) trsLocked() *geometry.Mat4 {
	if s.trsComputed {
		return s.trsCached
	}
	s.trsComputed = true
	if !s.outputLLA || len(s.mapCorners) == 0 {
		s.trsCached = nil
		return nil
	}
	m, ok := geometry.CalculateTRSLocal2LLA(s.mapCorners)
	if !ok {
		s.trsCached = nil
		return nil
	}
	s.trsCached = &m
	return s.trsCached
}

// TRSMatrix returns the current local-to-LLA transform, or nil if the
// scene has no geodetic mapping configured.
func (s *Scene) TRSMatrix() *geometry.Mat4 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trsLocked()
}
