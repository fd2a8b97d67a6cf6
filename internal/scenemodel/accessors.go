package scenemodel

import (
	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/tracker"
)

func (s *Scene) RegulatedRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regulatedRate
}

func (s *Scene) ExternalUpdateRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.externalUpdateRate
}

func (s *Scene) UseTracker() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.useTracker
}

func (s *Scene) ParentUID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parentUID
}

func (s *Scene) CameraPose() CameraPose {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cameraPose
}

func (s *Scene) Tracker() tracker.Facade {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker
}

func (s *Scene) Cameras() map[string]*core.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*core.Camera, len(s.cameras))
	for k, v := range s.cameras {
		out[k] = v
	}
	return out
}

func (s *Scene) Regions() map[string]*core.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*core.Region, len(s.regions))
	for k, v := range s.regions {
		out[k] = v
	}
	return out
}

func (s *Scene) Sensors() map[string]*core.Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*core.Region, len(s.sensors))
	for k, v := range s.sensors {
		out[k] = v
	}
	return out
}

func (s *Scene) Tripwires() map[string]*core.Tripwire {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*core.Tripwire, len(s.tripwires))
	for k, v := range s.tripwires {
		out[k] = v
	}
	return out
}

func (s *Scene) Children() map[string]*Child {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*Child, len(s.children))
	for k, v := range s.children {
		out[k] = v
	}
	return out
}
