package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sua-org/scene-controller/internal/core"
)

func TestTimeChunkedFacadeDispatchesPerCamera(t *testing.T) {
	f := NewTimeChunkedFacade(context.Background(), nil, nil, 10)
	defer f.Stop()

	obj1 := &core.TrackedObject{Oid: "a", CameraID: "cam-1"}
	obj2 := &core.TrackedObject{Oid: "b", CameraID: "cam-2"}
	assert.NoError(t, f.TrackObjects("person", []*core.TrackedObject{obj1}, time.Now(), false))
	assert.NoError(t, f.TrackObjects("person", []*core.TrackedObject{obj2}, time.Now(), false))

	assert.Eventually(t, func() bool {
		return len(f.CurrentObjects("person")) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTimeChunkedFacadeDropsBatchWithoutCameraID(t *testing.T) {
	f := NewTimeChunkedFacade(context.Background(), nil, nil, 10)
	defer f.Stop()

	obj := &core.TrackedObject{Oid: "a"} // no CameraID
	assert.NoError(t, f.TrackObjects("person", []*core.TrackedObject{obj}, time.Now(), false))

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, f.CurrentObjects("person"))
}

func TestTimeChunkedFacadeEmptyBatchIsNoOp(t *testing.T) {
	f := NewTimeChunkedFacade(context.Background(), nil, nil, 10)
	defer f.Stop()

	assert.NoError(t, f.TrackObjects("person", nil, time.Now(), false))
}
