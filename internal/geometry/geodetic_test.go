package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sua-org/scene-controller/internal/core"
)

func TestLLAECEFRoundTrip(t *testing.T) {
	lla := LLA{Lat: 37.422, Lon: -122.084, Alt: 30}
	ecef := LLAToECEF(lla)
	back := ECEFToLLA(ecef)

	assert.InDelta(t, lla.Lat, back.Lat, 1e-6)
	assert.InDelta(t, lla.Lon, back.Lon, 1e-6)
	assert.InDelta(t, lla.Alt, back.Alt, 1e-3)
}

func TestMat4FromSlice(t *testing.T) {
	_, ok := Mat4FromSlice([]float64{1, 2, 3})
	assert.False(t, ok)

	m, ok := Mat4FromSlice(Identity4()[:])
	assert.True(t, ok)
	x, y, z := m.Apply(1, 2, 3)
	assert.Equal(t, 1.0, x)
	assert.Equal(t, 2.0, y)
	assert.Equal(t, 3.0, z)
}

func TestTranslationMat4(t *testing.T) {
	m := TranslationMat4(10, -5, 2)
	x, y, z := m.Apply(1, 1, 1)
	assert.Equal(t, 11.0, x)
	assert.Equal(t, -4.0, y)
	assert.Equal(t, 3.0, z)
}

func TestCalculateTRSLocal2LLA(t *testing.T) {
	corners := []MeshCorner{
		{Local: core.Point3{X: 0, Y: 0}, Geo: LLA{Lat: 37.0, Lon: -122.0}},
		{Local: core.Point3{X: 10, Y: 0}, Geo: LLA{Lat: 37.0001, Lon: -122.0}},
		{Local: core.Point3{X: 0, Y: 10}, Geo: LLA{Lat: 37.0, Lon: -121.9999}},
	}

	m, ok := CalculateTRSLocal2LLA(corners)
	assert.True(t, ok)
	assert.NotEqual(t, Mat4{}, m)

	_, ok = CalculateTRSLocal2LLA(corners[:2])
	assert.False(t, ok)
}
