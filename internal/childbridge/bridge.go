// Package childbridge bridges a remote child scene's MQTT broker into
// this controller: one goroutine and one bus connection per remote
// child, torn down by cancelling its context.
package childbridge

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sua-org/scene-controller/internal/bus"
)

// Bridge owns a connection to one remote child scene's broker and
// forwards its external-detection topic to onMessage. The child's
// status topic is not subscribed on the remote broker.
type Bridge struct {
	RemoteID string

	cancel context.CancelFunc
	client *bus.Client
}

// Start connects to the remote child at host:port and subscribes only
// to its external-detection topic (scenescape/data/external/<id>/+),
// invoking onMessage for each message with the remote topic string
// unchanged (the caller is expected to
// route external/+ topics the same way a local child's would be
// routed).
func Start(ctx context.Context, remoteID, host string, port int, onMessage bus.Handler) (*Bridge, error) {
	bridgeCtx, cancel := context.WithCancel(ctx)

	client, err := bus.New(bus.Config{
		Host:     host,
		Port:     port,
		ClientID: fmt.Sprintf("scene-controller-child-%s-%s", remoteID, uuid.NewString()[:8]),
	}, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("childbridge: connecting to remote child %s: %w", remoteID, err)
	}

	b := &Bridge{RemoteID: remoteID, cancel: cancel, client: client}

	topic := fmt.Sprintf("scenescape/data/external/%s/+", remoteID)
	if err := client.Subscribe(topic, onMessage); err != nil {
		cancel()
		client.Close()
		return nil, fmt.Errorf("childbridge: subscribing to %s: %w", topic, err)
	}

	go func() {
		<-bridgeCtx.Done()
		client.Close()
		log.Printf("[childbridge] disconnected from remote child %s", remoteID)
	}()

	return b, nil
}

func (b *Bridge) Stop() { b.cancel() }
