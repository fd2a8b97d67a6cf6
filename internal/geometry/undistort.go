package geometry

import (
	"math"

	"github.com/sua-org/scene-controller/internal/core"
)

const (
	undistortMaxIterations = 20
	undistortEpsilon       = 1e-10
)

// UndistortPoint inverts the Brown-Conrady distortion model to recover
// normalized (meter-plane) coordinates from a pixel location, matching
// the contract of OpenCV's undistortPoints: iteratively refine the
// normalized coordinate until the forward-distortion of the guess
// converges back onto the observed point.
func UndistortPoint(px, py float64, intr core.Intrinsics, dist core.Distortion) (x, y float64) {
	xp := (px - intr.Cx) / intr.Fx
	yp := (py - intr.Cy) / intr.Fy

	x, y = xp, yp
	for i := 0; i < undistortMaxIterations; i++ {
		r2 := x*x + y*y
		radial := 1 + dist.K1*r2 + dist.K2*r2*r2 + dist.K3*r2*r2*r2
		if radial == 0 {
			break
		}
		dx := 2*dist.P1*x*y + dist.P2*(r2+2*x*x)
		dy := dist.P1*(r2+2*y*y) + 2*dist.P2*x*y

		nx := (xp - dx) / radial
		ny := (yp - dy) / radial

		if math.Abs(nx-x) < undistortEpsilon && math.Abs(ny-y) < undistortEpsilon {
			x, y = nx, ny
			break
		}
		x, y = nx, ny
	}
	return x, y
}

// PixelBoxToMeterPlane undistorts the top-left and bottom-right corners
// of a pixel bounding box and returns an equivalent box in the
// undistorted meter plane: width/height are derived from the
// undistorted corners rather than scaled directly.
func PixelBoxToMeterPlane(b core.PixelBox, intr core.Intrinsics, dist core.Distortion) core.BoundingBox {
	x0, y0 := UndistortPoint(b.X, b.Y, intr, dist)
	x1, y1 := UndistortPoint(b.X+b.Width, b.Y+b.Height, intr, dist)
	return core.BoundingBox{
		X:      x0,
		Y:      y0,
		Width:  x1 - x0,
		Height: y1 - y0,
	}
}
