package reco

import "math"

// directionCosines converts horizon-system angles [rad] to a unit
// vector in the x-north, y-west, z-up frame.
func directionCosines(az, alt float64) (x, y, z float64) {
	ca := math.Cos(alt)
	return math.Cos(az) * ca, math.Sin(-az) * ca, math.Sin(alt)
}

// angleBetween returns the space angle [rad] between two directions
// given in horizon-system angles [rad].
func angleBetween(az1, alt1, az2, alt2 float64) float64 {
	x1, y1, z1 := directionCosines(az1, alt1)
	x2, y2, z2 := directionCosines(az2, alt2)
	cosAng := x1*x2 + y1*y2 + z1*z2
	if cosAng > 1 {
		cosAng = 1
	}
	if cosAng < -1 {
		cosAng = -1
	}
	return math.Acos(cosAng)
}

// linePointDistance returns the perpendicular distance of point
// (x, y, z) from the line through (xp, yp, zp) with direction
// cosines (cx, cy, cz).
func linePointDistance(xp, yp, zp, cx, cy, cz, x, y, z float64) float64 {
	a1 := (y-yp)*cz - (z-zp)*cy
	a2 := (z-zp)*cx - (x-xp)*cz
	a3 := (x-xp)*cy - (y-yp)*cx
	return math.Sqrt(a1*a1 + a2*a2 + a3*a3)
}

// anglesToOffset projects an object direction into the camera plane
// of a telescope pointing at (telAz, telAlt), both in [rad], and
// returns the offset [same unit as focalLength].
func anglesToOffset(objAz, objAlt, telAz, telAlt, focalLength float64) (xoff, yoff float64) {
	daz := objAz - telAz
	coa := math.Cos(objAlt)

	xp0 := -math.Cos(daz) * coa
	yp0 := math.Sin(daz) * coa
	zp0 := math.Sin(objAlt)

	cx := math.Sin(telAlt)
	sx := math.Cos(telAlt)

	xp1 := cx*xp0 + sx*zp0
	yp1 := yp0
	zp1 := -sx*xp0 + cx*zp0

	if zp1 == 0 {
		return math.Inf(1), math.Inf(1)
	}
	return focalLength * xp1 / zp1, focalLength * yp1 / zp1
}
