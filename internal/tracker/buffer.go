package tracker

import (
	"sync"
	"time"

	"github.com/sua-org/scene-controller/internal/core"
)

// bufferedBatch is one camera's pending objects for a category, held
// until the next chunking tick.
type bufferedBatch struct {
	objects        []*core.TrackedObject
	when           time.Time
	alreadyTracked bool
}

// chunkBuffer coalesces TrackObjects calls by (category, cameraID)
// between dispatcher ticks: add() overwrites any previous pending
// batch for the same key (only the latest per tick survives), popAll
// atomically drains and clears the whole buffer.
type chunkBuffer struct {
	mu   sync.Mutex
	data map[string]map[string]bufferedBatch // category -> cameraID -> batch
}

func newChunkBuffer() *chunkBuffer {
	return &chunkBuffer{data: make(map[string]map[string]bufferedBatch)}
}

func (b *chunkBuffer) add(category, cameraID string, batch bufferedBatch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cameras, ok := b.data[category]
	if !ok {
		cameras = make(map[string]bufferedBatch)
		b.data[category] = cameras
	}
	cameras[cameraID] = batch
}

func (b *chunkBuffer) popAll() map[string]map[string]bufferedBatch {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.data
	b.data = make(map[string]map[string]bufferedBatch)
	return out
}
