package rectify

import (
	"fmt"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

var solvers = []Solver{DenseSolver{}, GaussSolver{}}

func TestSolversMapCorners(t *testing.T) {
	cases := []struct {
		src, dst Quad
	}{
		{Quad{{X: 50, Y: 50}, {X: 950, Y: 80}, {X: 900, Y: 950}, {X: 40, Y: 900}}, Rect(800, 1100)},
		{Rect(1000, 1000), Rect(1000, 1000)},
		// axis aligned source, the case naive elimination trips on
		{Quad{{X: 100, Y: 100}, {X: 900, Y: 100}, {X: 900, Y: 900}, {X: 100, Y: 900}}, Rect(400, 400)},
		{Quad{{X: 12.5, Y: 3}, {X: 640, Y: 40}, {X: 600, Y: 470}, {X: 0, Y: 480}}, Rect(1600, 1200)},
	}

	for i, tc := range cases {
		for _, s := range solvers {
			t.Run(fmt.Sprintf("%d-%T", i, s), func(t *testing.T) {
				h, err := s.Solve(tc.src, tc.dst)
				test.That(t, err, test.ShouldBeNil)
				test.That(t, h[8], test.ShouldEqual, 1)
				for k := range tc.src {
					got, ok := h.Apply(tc.src[k])
					test.That(t, ok, test.ShouldBeTrue)
					test.That(t, near(got, tc.dst[k], 1e-6), test.ShouldBeTrue)
				}
			})
		}
	}
}

func TestSolversAgree(t *testing.T) {
	src := Quad{{X: 50, Y: 50}, {X: 950, Y: 80}, {X: 900, Y: 950}, {X: 40, Y: 900}}
	dst := Rect(800, 1100)

	a, err := DenseSolver{}.Solve(src, dst)
	test.That(t, err, test.ShouldBeNil)
	b, err := GaussSolver{}.Solve(src, dst)
	test.That(t, err, test.ShouldBeNil)

	for i := range a {
		test.That(t, a[i], test.ShouldAlmostEqual, b[i], 1e-9)
	}
}

func TestSolversRejectSingular(t *testing.T) {
	same := Quad{{X: 4, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 4}, {X: 4, Y: 4}}
	for _, s := range solvers {
		_, err := s.Solve(same, Rect(8, 8))
		test.That(t, IsDegenerateGeometry(err), test.ShouldBeTrue)
	}
}

func TestEstimateDefaultsToDense(t *testing.T) {
	h, err := Estimate(Rect(10, 10), Rect(20, 20), nil)
	test.That(t, err, test.ShouldBeNil)
	p, ok := h.Apply(r2.Point{X: 5, Y: 5})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, near(p, r2.Point{X: 10, Y: 10}, 1e-9), test.ShouldBeTrue)
}

func TestHomographyInverse(t *testing.T) {
	src := Quad{{X: 50, Y: 50}, {X: 950, Y: 80}, {X: 900, Y: 950}, {X: 40, Y: 900}}
	h, err := Estimate(src, Rect(800, 1100), GaussSolver{})
	test.That(t, err, test.ShouldBeNil)

	inv, err := h.Inverse()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, inv[8], test.ShouldAlmostEqual, 1)

	for _, p := range pts(0, 0, 800, 0, 800, 1100, 0, 1100, 400, 550) {
		back, ok := inv.Apply(p)
		test.That(t, ok, test.ShouldBeTrue)
		fwd, ok := h.Apply(back)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, near(fwd, p, 1e-6), test.ShouldBeTrue)
	}
	back, _ := inv.Apply(r2.Point{X: 800, Y: 0})
	test.That(t, near(back, src[TopRight], 1e-6), test.ShouldBeTrue)

	_, err = Homography{}.Inverse()
	test.That(t, IsDegenerateGeometry(err), test.ShouldBeTrue)
}

func TestHomographyApply(t *testing.T) {
	p, ok := Identity.Apply(r2.Point{X: 3, Y: 4})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, p, test.ShouldResemble, r2.Point{X: 3, Y: 4})
	test.That(t, Identity.At(1, 1), test.ShouldEqual, 1)

	_, ok = Homography{1, 0, 0, 0, 1, 0, 1, 0, 0}.Apply(r2.Point{X: 0, Y: 5})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestParseSolver(t *testing.T) {
	s, err := ParseSolver("")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s, test.ShouldResemble, DenseSolver{})

	s, err = ParseSolver("gauss")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s, test.ShouldResemble, GaussSolver{})

	_, err = ParseSolver("svd")
	test.That(t, err, test.ShouldNotBeNil)
}
