package scenemodel

import (
	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/geometry"
)

// UpdateFromPayload applies a ScenePayload fetched by the Cache
// Manager, the combined equivalent of Scene.deserialize (first time)
// and Scene.updateScene (subsequent refreshes): cameras/regions/
// tripwires/sensors are reconciled with an old/new UID set-diff so
// existing entries (and their live occupancy state) survive a refresh
// instead of being rebuilt from scratch.
func (s *Scene) UpdateFromPayload(p core.ScenePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Parent != nil {
		s.parentUID = *p.Parent
	}
	if p.UseTracker != nil {
		s.useTracker = *p.UseTracker
	}
	if p.OutputLLA != nil {
		s.outputLLA = *p.OutputLLA
	}
	if p.Retrack != nil {
		s.retrack = *p.Retrack
	}
	if p.RegulatedRate != nil {
		s.regulatedRate = *p.RegulatedRate
	}
	if p.ExternalUpdateRate != nil {
		s.externalUpdateRate = *p.ExternalUpdateRate
	}
	if p.PersistAttributes != nil {
		s.persistAttributes = p.PersistAttributes
	}

	if len(p.Transform) == 16 {
		if m, ok := geometry.Mat4FromSlice(p.Transform); ok {
			s.cameraPose = CameraPose{Extrinsic: m}
		}
	} else if len(p.MeshTranslation) == 3 {
		s.cameraPose = CameraPose{Extrinsic: geometry.TranslationMat4(p.MeshTranslation[0], p.MeshTranslation[1], p.MeshTranslation[2])}
	}

	s.updateCamerasLocked(p.Cameras)
	s.updateRegionsLocked(p.Regions, false)
	s.updateRegionsLocked(p.Sensors, true)
	s.updateTripwiresLocked(p.Tripwires)
	s.updateChildrenLocked(p.Children)

	s.invalidateTRSLocked()
	if len(p.MapCornersLLA) > 0 {
		s.mapCorners = cornersFromPayload(p)
	}
	// Force eager recompute the way updateScene accesses the
	// trs_xyz_to_lla property after invalidating it.
	s.trsLocked()
}

func cornersFromPayload(p core.ScenePayload) []geometry.MeshCorner {
	corners := make([]geometry.MeshCorner, 0, len(p.MapCornersLLA))
	for _, c := range p.MapCornersLLA {
		if len(c) < 5 {
			continue
		}
		corners = append(corners, geometry.MeshCorner{
			Local: core.Point3{X: c[0], Y: c[1], Z: c[2]},
			Geo:   geometry.LLA{Lat: c[3], Lon: c[4]},
		})
	}
	return corners
}

func (s *Scene) updateCamerasLocked(payloads []core.CameraPayload) {
	found := make(map[string]struct{}, len(payloads))
	for _, cp := range payloads {
		found[cp.UID] = struct{}{}
		cam, ok := s.cameras[cp.UID]
		if !ok {
			cam = &core.Camera{CameraID: cp.UID}
			s.cameras[cp.UID] = cam
		}
		pose := cam.Pose
		if pose == nil {
			pose = &core.Pose{CalibrationPending: true}
		}
		if cp.Intrinsics != nil {
			pose.Intrinsics = *cp.Intrinsics
			pose.CalibrationPending = false
		}
		if cp.Distortion != nil {
			pose.Distortion = *cp.Distortion
		}
		if cp.Resolution != [2]int{} {
			pose.Resolution = cp.Resolution
		}
		cam.Pose = pose
	}
	for uid := range s.cameras {
		if _, ok := found[uid]; !ok {
			delete(s.cameras, uid)
		}
	}
}

func (s *Scene) updateRegionsLocked(payloads []core.RegionPayload, singleton bool) {
	target := s.regions
	if singleton {
		target = s.sensors
	}
	found := make(map[string]struct{}, len(payloads))
	for _, rp := range payloads {
		found[rp.UID] = struct{}{}
		region, ok := target[rp.UID]
		if !ok {
			region = &core.Region{
				UID:     rp.UID,
				Objects: make(map[string][]*core.TrackedObject),
				Entered: make(map[string][]*core.TrackedObject),
				Exited:  make(map[string][]core.ExitedObject),
			}
			target[rp.UID] = region
		}
		region.Name = rp.Name
		region.Points = rp.Points
		region.Height = rp.Height
		region.BufferSize = rp.BufferSize
		region.Volumetric = rp.Volumetric
		region.ComputeIntersection = rp.ComputeIntersection
		region.SingletonType = rp.SingletonType
		region.HasValue = rp.HasValue
	}
	for uid := range target {
		if _, ok := found[uid]; !ok {
			delete(target, uid)
		}
	}
}

func (s *Scene) updateTripwiresLocked(payloads []core.TripwirePayload) {
	found := make(map[string]struct{}, len(payloads))
	for _, tp := range payloads {
		found[tp.UID] = struct{}{}
		tw, ok := s.tripwires[tp.UID]
		if !ok {
			tw = &core.Tripwire{
				UID:     tp.UID,
				Objects: make(map[string][]core.TripwireCrossing),
			}
			s.tripwires[tp.UID] = tw
		}
		tw.Name = tp.Name
		tw.Points = tp.Points
	}
	for uid := range s.tripwires {
		if _, ok := found[uid]; !ok {
			delete(s.tripwires, uid)
		}
	}
}

func (s *Scene) updateChildrenLocked(payloads []core.ChildPayload) {
	found := make(map[string]struct{}, len(payloads))
	for _, cp := range payloads {
		found[cp.Name] = struct{}{}
		child, ok := s.children[cp.Name]
		if !ok {
			child = &Child{Name: cp.Name}
			s.children[cp.Name] = child
		}
		child.Retrack = cp.Retrack
		child.RemoteID = cp.RemoteID
		child.RemoteHost = cp.RemoteHost
		child.RemotePort = cp.RemotePort
		if cp.RemoteID == "" {
			child.LocalUID = cp.Child
		}
	}
	for name := range s.children {
		if _, ok := found[name]; !ok {
			delete(s.children, name)
		}
	}
}
