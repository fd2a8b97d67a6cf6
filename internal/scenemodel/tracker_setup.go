package scenemodel

// UpdateTracker rebuilds the scene's tracker facade from newParams,
// but only if the timing parameters actually changed — mirroring
// Scene.updateTracker's exact-equality guard, which exists so a scene
// refresh that doesn't touch tracking config doesn't throw away live
// tracks by rebuilding the facade (and therefore every in-flight
// track) on every cache refresh.
func (s *Scene) UpdateTracker(newParams TrackerParams) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracker != nil && s.trackerParams.Equal(newParams) {
		return
	}
	s.trackerParams = newParams
	if s.trackerFactory != nil {
		if old, ok := s.tracker.(interface{ Stop() }); ok {
			old.Stop()
		}
		s.tracker = s.trackerFactory(newParams, s.persistAttributes)
	}
}
