package controller

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/scenemodel"
)

// LoadTrackerConfig reads the tracker-config.json file and derives the
// timing parameters every scene's tracker is built from, mirroring
// extractTrackerConfigData: the max-unreliable/non-measurement frame
// counts are converted to seconds against the configured baseline
// frame rate, and time-chunking settings are validated rather than
// silently coerced.
func LoadTrackerConfig(path string) (scenemodel.TrackerParams, map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scenemodel.TrackerParams{}, nil, fmt.Errorf("controller: reading tracker config: %w", err)
	}
	var cfg core.TrackerConfigFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return scenemodel.TrackerParams{}, nil, fmt.Errorf("controller: parsing tracker config: %w", err)
	}
	if cfg.BaselineFrameRate <= 0 {
		return scenemodel.TrackerParams{}, nil, fmt.Errorf("controller: tracker config: baseline_frame_rate must be positive")
	}

	params := scenemodel.TrackerParams{
		MaxUnreliableTime:         float64(cfg.MaxUnreliableFrames) / cfg.BaselineFrameRate,
		NonMeasurementTimeDynamic: float64(cfg.NonMeasurementFramesDynamic) / cfg.BaselineFrameRate,
		NonMeasurementTimeStatic:  float64(cfg.NonMeasurementFramesStatic) / cfg.BaselineFrameRate,
	}
	if cfg.TimeChunkingEnabled != nil {
		params.TimeChunkingEnabled = *cfg.TimeChunkingEnabled
	}
	if cfg.TimeChunkingIntervalMilliseconds != nil {
		if *cfg.TimeChunkingIntervalMilliseconds <= 0 {
			return scenemodel.TrackerParams{}, nil, fmt.Errorf("controller: tracker config: time_chunking_interval_milliseconds must be positive")
		}
		params.TimeChunkingIntervalMS = *cfg.TimeChunkingIntervalMilliseconds
	}

	persist := cfg.PersistAttributes
	if persist == nil {
		persist = map[string][]string{}
	}
	return params, persist, nil
}
