// Package config reads runtime settings from the environment, the same
// getenv-with-default style the rest of this codebase's ancestor used.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func Getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var x int
		if _, err := fmt.Sscanf(v, "%d", &x); err == nil && x > 0 {
			return x
		}
	}
	return def
}

func GetenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func GetenvBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func GetenvDurationSeconds(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	sec, err := strconv.Atoi(v)
	if err != nil || sec <= 0 {
		return def
	}
	return time.Duration(sec) * time.Second
}

// Runtime holds the scene controller's top-level configuration, assembled
// from environment variables the way cmd/scene-controller/main.go does.
type Runtime struct {
	MQTTHost     string
	MQTTPort     int
	MQTTUsername string
	MQTTPassword string
	MQTTClientID string

	RESTURL      string
	RESTAuth     string
	RootCert     string
	ClientCert   string
	LocalDataDir string

	TrackerConfigFile string
	SchemaFile        string

	RewriteBadTime bool
	RewriteAllTime bool
	MaxLagSeconds  float64

	VisibilityTopic string

	NTPServer string

	MetricsAddr string
}

func LoadRuntime() Runtime {
	return Runtime{
		MQTTHost:     Getenv("MQTT_HOST", "localhost"),
		MQTTPort:     GetenvInt("MQTT_PORT", 1883),
		MQTTUsername: os.Getenv("MQTT_USERNAME"),
		MQTTPassword: os.Getenv("MQTT_PASSWORD"),
		MQTTClientID: Getenv("MQTT_CLIENT_ID", "scene-controller"),

		RESTURL:      os.Getenv("REST_URL"),
		RESTAuth:     os.Getenv("REST_AUTH_TOKEN"),
		RootCert:     os.Getenv("ROOT_CERT"),
		ClientCert:   os.Getenv("CLIENT_CERT"),
		LocalDataDir: os.Getenv("SCENE_DATA_DIR"),

		TrackerConfigFile: os.Getenv("TRACKER_CONFIG_FILE"),
		SchemaFile:        os.Getenv("SCHEMA_FILE"),

		RewriteBadTime: GetenvBool("REWRITE_BAD_TIME", false),
		RewriteAllTime: GetenvBool("REWRITE_ALL_TIME", false),
		MaxLagSeconds:  GetenvFloat("MAX_LAG_SECONDS", 5.0),

		VisibilityTopic: Getenv("VISIBILITY_TOPIC", "unregulated"),

		NTPServer: Getenv("NTP_SERVER", "pool.ntp.org"),

		MetricsAddr: Getenv("METRICS_ADDR", ":9090"),
	}
}
