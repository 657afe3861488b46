package sdfgen

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// pointSegmentDistance returns the distance from x0 to the segment x1-x2.
// A zero length segment collapses to point distance.
func pointSegmentDistance(x0, x1, x2 ms3.Vec) float32 {
	dx := ms3.Sub(x2, x1)
	m2 := ms3.Norm2(dx)
	if m2 <= 0 {
		return ms3.Norm(ms3.Sub(x0, x1))
	}
	// Find parameter coordinate of closest point on segment.
	s12 := ms3.Dot(ms3.Sub(x2, x0), dx) / m2
	s12 = clampf(s12, 0, 1)
	closest := ms3.Add(ms3.Scale(s12, x1), ms3.Scale(1-s12, x2))
	return ms3.Norm(ms3.Sub(x0, closest))
}

// pointTriangleDistance returns the unsigned distance from x0 to the
// triangle x1-x2-x3. The closest feature is classified through barycentric
// coordinates: an interior foot of perpendicular when all weights are
// non-negative, otherwise the minimum over the two candidate edges.
// Degenerate triangles collapse to segment or point distance.
func pointTriangleDistance(x0, x1, x2, x3 ms3.Vec) float32 {
	x13 := ms3.Sub(x1, x3)
	x23 := ms3.Sub(x2, x3)
	x03 := ms3.Sub(x0, x3)
	m13 := ms3.Norm2(x13)
	m23 := ms3.Norm2(x23)
	d := ms3.Dot(x13, x23)
	det := m13*m23 - d*d
	if det <= 0 {
		// Collinear or coincident vertices: the closest point lies on an edge.
		return min3(pointSegmentDistance(x0, x1, x2), pointSegmentDistance(x0, x1, x3), pointSegmentDistance(x0, x2, x3))
	}
	invdet := 1 / math32.Max(det, 1e-30)
	a := ms3.Dot(x13, x03)
	b := ms3.Dot(x23, x03)
	// Barycentric weights of the projected point.
	w23 := invdet * (m23*a - d*b)
	w31 := invdet * (m13*b - d*a)
	w12 := 1 - w23 - w31
	if w23 >= 0 && w31 >= 0 && w12 >= 0 {
		// Inside the triangle: distance to the foot of the perpendicular.
		closest := ms3.Add(ms3.Scale(w23, x1), ms3.Add(ms3.Scale(w31, x2), ms3.Scale(w12, x3)))
		return ms3.Norm(ms3.Sub(x0, closest))
	}
	// Outside: clamp to the two edges adjacent to the violated region.
	if w23 > 0 {
		return math32.Min(pointSegmentDistance(x0, x1, x2), pointSegmentDistance(x0, x1, x3))
	} else if w31 > 0 {
		return math32.Min(pointSegmentDistance(x0, x1, x2), pointSegmentDistance(x0, x2, x3))
	}
	return math32.Min(pointSegmentDistance(x0, x1, x3), pointSegmentDistance(x0, x2, x3))
}

// orientation computes twice the signed area of the triangle (0,0)-(x1,y1)-(x2,y2)
// and returns its sign. Exact zeros are broken lexicographically so that the
// result is nonzero unless the two points are identical, which keeps the
// 2D containment test below consistent along shared triangle edges.
// Double precision deliberately: the tie-break must not be disturbed by
// rounding in the subtraction.
func orientation(x1, y1, x2, y2 float64) (sign int, twiceSignedArea float64) {
	twiceSignedArea = y1*x2 - x1*y2
	switch {
	case twiceSignedArea > 0:
		return 1, twiceSignedArea
	case twiceSignedArea < 0:
		return -1, twiceSignedArea
	case y2 > y1:
		return 1, twiceSignedArea
	case y2 < y1:
		return -1, twiceSignedArea
	case x1 > x2:
		return 1, twiceSignedArea
	case x1 < x2:
		return -1, twiceSignedArea
	}
	return 0, twiceSignedArea // Only true when the two points are equal.
}

// pointInTriangle2D reports whether (x0,y0) lies in the 2D triangle
// (x1,y1)-(x2,y2)-(x3,y3) and returns the barycentric coordinates of the
// point if so. The boundary rule from orientation guarantees each lattice
// point on an edge shared by two triangles is claimed by exactly one of them.
func pointInTriangle2D(x0, y0, x1, y1, x2, y2, x3, y3 float64) (a, b, c float64, inside bool) {
	x1 -= x0
	x2 -= x0
	x3 -= x0
	y1 -= y0
	y2 -= y0
	y3 -= y0
	signa, a := orientation(x2, y2, x3, y3)
	if signa == 0 {
		return 0, 0, 0, false
	}
	signb, b := orientation(x3, y3, x1, y1)
	if signb != signa {
		return 0, 0, 0, false
	}
	signc, c := orientation(x1, y1, x2, y2)
	if signc != signa {
		return 0, 0, 0, false
	}
	sum := a + b + c
	// sum != 0 since sign(a) == sign(b) == sign(c) != 0.
	return a / sum, b / sum, c / sum, true
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	} else if v > hi {
		return hi
	}
	return v
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	} else if v > hi {
		return hi
	}
	return v
}

func min3(a, b, c float32) float32 {
	return math32.Min(a, math32.Min(b, c))
}

func max3(a, b, c float32) float32 {
	return math32.Max(a, math32.Max(b, c))
}
