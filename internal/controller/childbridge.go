package controller

import (
	"context"
	"log"

	"github.com/sua-org/scene-controller/internal/childbridge"
	"github.com/sua-org/scene-controller/internal/scenemodel"
)

// ensureChildBridge starts a remote child bridge the first time a
// remote child is seen, and leaves it running across subsequent
// updateSubscriptions calls — bridges are only torn down when the
// child disappears from every scene (handled at the end of
// updateSubscriptions).
func (c *Controller) ensureChildBridge(ctx context.Context, child *scenemodel.Child) {
	c.mu.Lock()
	_, exists := c.childBridges[child.RemoteID]
	c.mu.Unlock()
	if exists {
		return
	}

	bridge, err := childbridge.Start(ctx, child.RemoteID, child.RemoteHost, child.RemotePort, c.handleMovingObjectMessage)
	if err != nil {
		log.Printf("[controller] starting child bridge for %s: %v", child.RemoteID, err)
		return
	}
	c.mu.Lock()
	c.childBridges[child.RemoteID] = bridge
	c.mu.Unlock()
}
