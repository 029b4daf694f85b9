package rectify

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
)

// Corner roles, used to index a Quad.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

var roleNames = []string{"TL", "TR", "BR", "BL"}

// Quad holds four points with fixed roles: top-left, top-right, bottom-right, bottom-left.
type Quad [4]r2.Point

// OrderCorners assigns roles to exactly four unordered points in image space (Y down)
// using the sum/difference rule: min x+y is top-left, max x+y is bottom-right, min y-x is
// top-right and max y-x is bottom-left. Degenerate inputs are not detected here.
func OrderCorners(pts []r2.Point) (Quad, error) {
	var q Quad
	if len(pts) < 4 {
		return q, &InsufficientPointsError{Got: len(pts)}
	}
	if len(pts) > 4 {
		return q, ErrTooManyPoints
	}

	minS, maxS, minD, maxD := 0, 0, 0, 0
	for i, p := range pts {
		s := p.X + p.Y
		d := p.Y - p.X
		if s < pts[minS].X+pts[minS].Y {
			minS = i
		}
		if s > pts[maxS].X+pts[maxS].Y {
			maxS = i
		}
		if d < pts[minD].Y-pts[minD].X {
			minD = i
		}
		if d > pts[maxD].Y-pts[maxD].X {
			maxD = i
		}
	}

	q[TopLeft] = pts[minS]
	q[TopRight] = pts[minD]
	q[BottomRight] = pts[maxS]
	q[BottomLeft] = pts[maxD]
	return q, nil
}

// OrderByAngle returns the points sorted by their angle around the centroid. The result
// is a non-crossing cyclic order but carries no corner roles, so it is only meant for
// drawing outlines.
func OrderByAngle(pts []r2.Point) []r2.Point {
	out := make([]r2.Point, len(pts))
	copy(out, pts)
	if len(out) < 2 {
		return out
	}

	c := centroid(out)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Atan2(out[i].Y-c.Y, out[i].X-c.X) < math.Atan2(out[j].Y-c.Y, out[j].X-c.X)
	})
	return out
}

func centroid(pts []r2.Point) r2.Point {
	var c r2.Point
	for _, p := range pts {
		c = c.Add(p)
	}
	return c.Mul(1 / float64(len(pts)))
}

// Centroid is the mean of the four corners.
func (q Quad) Centroid() r2.Point {
	return centroid(q[:])
}

// Edges returns the lengths of the top, right, bottom and left edges.
func (q Quad) Edges() (top, right, bottom, left float64) {
	top = q[TopRight].Sub(q[TopLeft]).Norm()
	right = q[BottomRight].Sub(q[TopRight]).Norm()
	bottom = q[BottomRight].Sub(q[BottomLeft]).Norm()
	left = q[BottomLeft].Sub(q[TopLeft]).Norm()
	return top, right, bottom, left
}

// Area is the unsigned shoelace area of the quad taken in role order.
func (q Quad) Area() float64 {
	a := 0.0
	for i := range q {
		j := (i + 1) % len(q)
		a += q[i].Cross(q[j])
	}
	return math.Abs(a) / 2
}

// Scale multiplies every corner by f.
func (q Quad) Scale(f float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = p.Mul(f)
	}
	return out
}

// Rect returns the destination rectangle (0,0),(w,0),(w,h),(0,h).
func Rect(w, h float64) Quad {
	return Quad{
		{X: 0, Y: 0},
		{X: w, Y: 0},
		{X: w, Y: h},
		{X: 0, Y: h},
	}
}
