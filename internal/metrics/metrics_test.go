package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMessagesTotalIncrementsByKind(t *testing.T) {
	before := testutil.ToFloat64(MessagesTotal.WithLabelValues("test-kind"))
	MessagesTotal.WithLabelValues("test-kind").Inc()
	after := testutil.ToFloat64(MessagesTotal.WithLabelValues("test-kind"))
	assert.Equal(t, before+1, after)
}

func TestDroppedTotalLabelsAreIndependent(t *testing.T) {
	DroppedTotal.WithLabelValues("fell_behind", "person").Inc()
	DroppedTotal.WithLabelValues("tracker_busy", "vehicle").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(DroppedTotal.WithLabelValues("fell_behind", "person")))
	assert.Equal(t, 2.0, testutil.ToFloat64(DroppedTotal.WithLabelValues("tracker_busy", "vehicle")))
}

func TestObjectCountGaugeSet(t *testing.T) {
	ObjectCount.WithLabelValues("scene-1", "person").Set(5)
	assert.Equal(t, 5.0, testutil.ToFloat64(ObjectCount.WithLabelValues("scene-1", "person")))
}
