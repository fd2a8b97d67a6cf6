// Package bus wraps the MQTT client: connection options, auto-reconnect,
// keepalive and token-wait handling, plus the topic formatting/parsing
// and subscription set-diff bookkeeping the Scene Controller needs.
package bus

import (
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sua-org/scene-controller/internal/config"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	ClientID string
}

// Handler processes one message delivered on a subscription.
type Handler func(topic string, payload []byte)

// Client is the bus connection plus the set of topics currently
// subscribed, so UpdateSubscriptions can diff against it.
type Client struct {
	client mqtt.Client

	onConnect func(*Client)
	qos       byte

	subscribed map[string]Handler
}

func NewFromEnv(defaultClientID string) (*Client, error) {
	cfg := Config{
		Host:     config.Getenv("MQTT_HOST", "localhost"),
		Port:     config.GetenvInt("MQTT_PORT", 1883),
		Username: config.Getenv("MQTT_USERNAME", ""),
		Password: config.Getenv("MQTT_PASSWORD", ""),
		ClientID: config.Getenv("MQTT_CLIENT_ID", defaultClientID),
	}
	return New(cfg, nil)
}

// New connects a client. onConnect, if set, runs every time the
// connection is (re)established, including the first connect, so
// subscriptions can be rebuilt from scratch after any reconnect.
func New(cfg Config, onConnect func(*Client)) (*Client, error) {
	c := &Client{onConnect: onConnect, qos: 1, subscribed: make(map[string]Handler)}

	broker := fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(5 * time.Second)
	opts.SetKeepAlive(30 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetOnConnectHandler(func(mqtt.Client) {
		// A clean session starts with no subscriptions on the broker, so
		// forget the recorded set and let onConnect rebuild it.
		c.subscribed = make(map[string]Handler)
		if c.onConnect != nil {
			c.onConnect(c)
		}
	})

	c.client = mqtt.NewClient(opts)
	token := c.client.Connect()
	if ok := token.WaitTimeout(10 * time.Second); !ok {
		return nil, fmt.Errorf("bus: mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("bus: mqtt connect error: %w", err)
	}
	return c, nil
}

func (c *Client) Publish(topic string, retained bool, payload []byte) error {
	token := c.client.Publish(topic, c.qos, retained, payload)
	token.Wait()
	return token.Error()
}

func (c *Client) Subscribe(topic string, handler Handler) error {
	token := c.client.Subscribe(topic, c.qos, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	c.subscribed[topic] = handler
	return nil
}

func (c *Client) Unsubscribe(topic string) error {
	token := c.client.Unsubscribe(topic)
	token.Wait()
	delete(c.subscribed, topic)
	return token.Error()
}

// Reconcile subscribes to every topic in want not already subscribed,
// and unsubscribes every currently-subscribed topic not in want —
// mirroring updateSubscriptions's new/old set-diff.
func (c *Client) Reconcile(want map[string]Handler) error {
	for topic, handler := range want {
		if _, ok := c.subscribed[topic]; !ok {
			if err := c.Subscribe(topic, handler); err != nil {
				return err
			}
		}
	}
	for topic := range c.subscribed {
		if _, ok := want[topic]; !ok {
			if err := c.Unsubscribe(topic); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) Close() {
	if c.client != nil && c.client.IsConnected() {
		c.client.Disconnect(250)
	}
}

// Topic helpers matching the external-interfaces topic patterns.

func CameraDataTopic(cameraID string) string {
	return fmt.Sprintf("scenescape/data/camera/%s", cameraID)
}

func SensorDataTopic(sensorID string) string {
	return fmt.Sprintf("scenescape/data/sensor/%s", sensorID)
}

func SceneDataTopic(sceneUID, detectionType string) string {
	return fmt.Sprintf("scenescape/data/scene/%s/%s", sceneUID, detectionType)
}

func RegulatedDataTopic(sceneUID string) string {
	return fmt.Sprintf("scenescape/data/regulated/%s", sceneUID)
}

func RegionDataTopic(sceneUID, regionUID, detectionType string) string {
	return fmt.Sprintf("scenescape/data/region/%s/%s/%s", sceneUID, regionUID, detectionType)
}

// EventTopic builds a region or tripwire event topic. regionType is
// "region" or "tripwire"; eventType is the staged bucket the change
// came from ("objects", "count" or "value").
func EventTopic(regionType, eventType, sceneUID, regionUID string) string {
	return fmt.Sprintf("scenescape/event/%s/%s/%s/%s", regionType, eventType, sceneUID, regionUID)
}

func ExternalDataTopic(sceneUID, detectionType string) string {
	return fmt.Sprintf("scenescape/data/external/%s/%s", sceneUID, detectionType)
}

func DatabaseUpdateTopic() string { return "scenescape/cmd/database" }

func ChildSceneStatusTopic(childID string) string {
	return fmt.Sprintf("scenescape/sys/childscene/%s/status", childID)
}

// CameraIDFromTopic extracts the camera id from a camera-data topic,
// returning "" if the topic doesn't match the expected shape.
func CameraIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[1] != "data" || parts[2] != "camera" {
		return ""
	}
	return parts[3]
}

// SensorIDFromTopic extracts the sensor id from a sensor-data topic.
func SensorIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 || parts[1] != "data" || parts[2] != "sensor" {
		return ""
	}
	return parts[3]
}
