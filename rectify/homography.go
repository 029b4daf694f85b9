package rectify

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
	"gonum.org/v1/gonum/mat"
)

// Homography is a row-major 3x3 projective transform. Solvers return it with the last
// element fixed to 1, so that
//
//	x' = (a*x + b*y + c) / (g*x + h*y + 1)
//	y' = (d*x + e*y + f) / (g*x + h*y + 1)
type Homography [9]float64

// Identity maps every point to itself.
var Identity = Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}

// At returns the element at row, col.
func (h Homography) At(row, col int) float64 {
	return h[row*3+col]
}

// Apply maps p. It returns false if p maps to infinity.
func (h Homography) Apply(p r2.Point) (r2.Point, bool) {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return r2.Point{}, false
	}
	return r2.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}, true
}

// Inverse returns the transform mapping destination points back to the source.
func (h Homography) Inverse() (Homography, error) {
	var inv mat.Dense
	if err := inv.Inverse(mat.NewDense(3, 3, h[:])); err != nil {
		return Homography{}, degenerate("transform cannot be inverted")
	}

	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}
	if math.Abs(out[8]) > 1e-12 {
		s := out[8]
		for i := range out {
			out[i] /= s
		}
	}
	return out, nil
}

// A Solver finds the homography mapping each src corner onto the matching dst corner.
type Solver interface {
	Solve(src, dst Quad) (Homography, error)
}

// Estimate solves src -> dst with s, or with DenseSolver when s is nil.
func Estimate(src, dst Quad, s Solver) (Homography, error) {
	if s == nil {
		s = DenseSolver{}
	}
	return s.Solve(src, dst)
}

// dltSystem builds the 8x8 direct linear transform system for four correspondences.
// Row 2i constrains x', row 2i+1 constrains y'.
func dltSystem(src, dst Quad) ([8][8]float64, [8]float64) {
	var a [8][8]float64
	var b [8]float64
	for i := range 4 {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		r := 2 * i

		a[r] = [8]float64{x, y, 1, 0, 0, 0, -x * u, -y * u}
		b[r] = u

		a[r+1] = [8]float64{0, 0, 0, x, y, 1, -x * v, -y * v}
		b[r+1] = v
	}
	return a, b
}

func fromCoefficients(c [8]float64) (Homography, error) {
	for _, v := range c {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Homography{}, degenerate("transform is not finite")
		}
	}
	return Homography{c[0], c[1], c[2], c[3], c[4], c[5], c[6], c[7], 1}, nil
}

// DenseSolver hands the linear system to gonum.
type DenseSolver struct{}

// Solve implements Solver.
func (DenseSolver) Solve(src, dst Quad) (Homography, error) {
	a, b := dltSystem(src, dst)

	data := make([]float64, 0, 64)
	for _, row := range a {
		data = append(data, row[:]...)
	}

	var x mat.VecDense
	if err := x.SolveVec(mat.NewDense(8, 8, data), mat.NewVecDense(8, b[:])); err != nil {
		return Homography{}, degenerate("corners are collinear or repeated")
	}

	var c [8]float64
	for i := range c {
		c[i] = x.AtVec(i)
	}
	return fromCoefficients(c)
}

// GaussSolver solves the system itself with Gaussian elimination and partial pivoting.
type GaussSolver struct{}

// pivotTolerance is relative to the largest magnitude in the system.
const pivotTolerance = 1e-12

// Solve implements Solver.
func (GaussSolver) Solve(src, dst Quad) (Homography, error) {
	a, b := dltSystem(src, dst)
	c, ok := solve8x8(a, b)
	if !ok {
		return Homography{}, degenerate("corners are collinear or repeated")
	}
	return fromCoefficients(c)
}

func solve8x8(a [8][8]float64, b [8]float64) ([8]float64, bool) {
	scale := 0.0
	for _, row := range a {
		for _, v := range row {
			scale = math.Max(scale, math.Abs(v))
		}
	}
	if scale == 0 {
		return [8]float64{}, false
	}
	eps := scale * pivotTolerance

	for col := range 8 {
		pivot := findPivotRow(&a, col)
		if math.Abs(a[pivot][col]) <= eps {
			return [8]float64{}, false
		}
		if pivot != col {
			a[pivot], a[col] = a[col], a[pivot]
			b[pivot], b[col] = b[col], b[pivot]
		}

		for r := col + 1; r < 8; r++ {
			f := a[r][col] / a[col][col]
			if f == 0 {
				continue
			}
			for c := col; c < 8; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	var x [8]float64
	for r := 7; r >= 0; r-- {
		sum := b[r]
		for c := r + 1; c < 8; c++ {
			sum -= a[r][c] * x[c]
		}
		x[r] = sum / a[r][r]
	}
	return x, true
}

// findPivotRow returns the row at or below col with the largest magnitude in col.
func findPivotRow(a *[8][8]float64, col int) int {
	best := col
	for r := col + 1; r < 8; r++ {
		if math.Abs(a[r][col]) > math.Abs(a[best][col]) {
			best = r
		}
	}
	return best
}

// ParseSolver maps "dense" (or "") and "gauss" to a Solver.
func ParseSolver(name string) (Solver, error) {
	switch name {
	case "", "dense":
		return DenseSolver{}, nil
	case "gauss":
		return GaussSolver{}, nil
	}
	return nil, fmt.Errorf("unknown solver %q", name)
}
