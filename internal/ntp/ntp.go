// Package ntp provides the time-source collaborator
// handleMovingObjectMessage consults to adjust inbound timestamps.
// NTP time correction itself is out of scope; Client is a thin
// interface so the controller's lag/drop logic can be exercised
// without a real NTP round trip.
package ntp

import "time"

// Client resolves the current offset between the local clock and the
// configured time source.
type Client interface {
	// Offset returns the correction to add to time.Now() to get
	// "true" time.
	Offset() time.Duration
}

// ZeroOffset is the default Client: no correction applied. Real
// NTP polling is not implemented here.
type ZeroOffset struct{}

func (ZeroOffset) Offset() time.Duration { return 0 }

// Now returns the corrected current time per c's offset.
func Now(c Client) time.Time {
	if c == nil {
		return time.Now()
	}
	return time.Now().Add(c.Offset())
}
