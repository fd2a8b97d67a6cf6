// cmd/scene-controller/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sua-org/scene-controller/internal/bus"
	"github.com/sua-org/scene-controller/internal/cache"
	"github.com/sua-org/scene-controller/internal/config"
	"github.com/sua-org/scene-controller/internal/controller"
	"github.com/sua-org/scene-controller/internal/core"
	"github.com/sua-org/scene-controller/internal/datasource"
	"github.com/sua-org/scene-controller/internal/geometry"
	"github.com/sua-org/scene-controller/internal/metrics"
	"github.com/sua-org/scene-controller/internal/scenemodel"
	"github.com/sua-org/scene-controller/internal/tracker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[main] warning: could not load .env: %v", err)
	} else {
		log.Printf("[main] .env loaded")
	}

	cfg := config.LoadRuntime()

	ds, err := buildDataSource(cfg)
	if err != nil {
		log.Fatalf("[main] data source: %v", err)
	}

	trackerParams, persistAttr, err := loadTrackerConfig(cfg)
	if err != nil {
		log.Fatalf("[main] tracker config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trackerFactory := func(params scenemodel.TrackerParams, persist map[string][]string) tracker.Facade {
		if params.TimeChunkingEnabled {
			return tracker.NewTimeChunkedFacade(ctx, nil, persist, params.TimeChunkingIntervalMS)
		}
		return tracker.NewDirectFacade(ctx, nil, persist)
	}

	newScene := func(p core.ScenePayload) cache.Scene {
		scene := scenemodel.New(p.UID, p.Name, trackerFactory, &geometry.FlatVolumeIntersector{Regions: regionPolygons(p)})
		scene.UpdateTracker(trackerParams)
		scene.UpdateFromPayload(p)
		return scene
	}

	cacheMgr := cache.New(ds, newScene)
	cacheMgr.RefreshTTL = config.GetenvDurationSeconds("CACHE_REFRESH_SECONDS", 0)
	_ = persistAttr

	ctrlCfg := controller.Config{
		RewriteBadTime:  cfg.RewriteBadTime,
		RewriteAllTime:  cfg.RewriteAllTime,
		MaxLag:          time.Duration(cfg.MaxLagSeconds * float64(time.Second)),
		VisibilityTopic: cfg.VisibilityTopic,
	}

	var ctrl *controller.Controller
	busClient, err := bus.New(bus.Config{
		Host:     cfg.MQTTHost,
		Port:     cfg.MQTTPort,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
		ClientID: cfg.MQTTClientID,
	}, func(c *bus.Client) {
		if ctrl != nil {
			ctrl.OnConnect(c)
		}
	})
	if err != nil {
		log.Fatalf("[main] mqtt connect: %v", err)
	}
	defer busClient.Close()

	ctrl = controller.New(ctrlCfg, busClient, cacheMgr, nil, nil)
	ctrl.OnConnect(busClient)

	go metrics.Serve(ctx, cfg.MetricsAddr)
	go metrics.RunProcessLoop(ctx, 30*time.Second)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Println("[main] signal received, shutting down...")
	cancel()
	time.Sleep(1 * time.Second)
}

func buildDataSource(cfg config.Runtime) (datasource.DataSource, error) {
	if cfg.LocalDataDir != "" {
		return datasource.Get("file", map[string]string{"dir": cfg.LocalDataDir})
	}
	return datasource.Get("rest", map[string]string{
		"url":       cfg.RESTURL,
		"auth":      cfg.RESTAuth,
		"root_cert": cfg.RootCert,
	})
}

func loadTrackerConfig(cfg config.Runtime) (scenemodel.TrackerParams, map[string][]string, error) {
	if cfg.TrackerConfigFile == "" {
		return scenemodel.TrackerParams{}, map[string][]string{}, nil
	}
	return controller.LoadTrackerConfig(cfg.TrackerConfigFile)
}

func regionPolygons(p core.ScenePayload) map[string]core.Polygon {
	out := make(map[string]core.Polygon, len(p.Regions))
	for _, r := range p.Regions {
		out[r.UID] = r.Points
	}
	return out
}
