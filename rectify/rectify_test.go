package rectify

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestRectifySkewedFixedFrame(t *testing.T) {
	src := gradientImage(1000, 1000)

	for _, s := range solvers {
		res, err := Rectify(Request{
			Image:   src,
			Corners: pts(900, 950, 50, 50, 40, 900, 950, 80),
			Sizer:   Sizer{Mode: SizeFixed, Width: 800, Height: 1100},
			Solver:  s,
		})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, res.Frame, test.ShouldResemble, TargetFrame{800, 1100})
		test.That(t, res.Image.Bounds().Dx(), test.ShouldEqual, 800)
		test.That(t, res.Image.Bounds().Dy(), test.ShouldEqual, 1100)
		test.That(t, res.Quad[TopLeft], test.ShouldResemble, r2.Point{X: 50, Y: 50})
		test.That(t, res.Quad[BottomRight], test.ShouldResemble, r2.Point{X: 900, Y: 950})

		// the output's top-left pixel comes from near the marked top-left corner
		c := res.Image.NRGBAAt(0, 0)
		test.That(t, c.R, test.ShouldEqual, src.NRGBAAt(50, 50).R)
		test.That(t, c.G, test.ShouldEqual, src.NRGBAAt(50, 50).G)
	}
}

func TestRectifyEdgeSizing(t *testing.T) {
	res, err := Rectify(Request{
		Image:   gradientImage(1000, 1000),
		Corners: pts(50, 50, 950, 80, 900, 950, 40, 900),
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Frame, test.ShouldResemble, TargetFrame{900, 871})
	test.That(t, res.Image.Bounds(), test.ShouldResemble, image.Rect(0, 0, 900, 871))
}

func TestRectifyPreserveAngle(t *testing.T) {
	res, err := Rectify(Request{
		Image:   gradientImage(800, 600),
		Corners: pts(100, 100, 600, 100, 750, 400, 300, 500),
		Sizer:   Sizer{Mode: SizePreserveAngle},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Image.Bounds().Dx(), test.ShouldEqual, res.Frame.Width)
	test.That(t, res.Image.Bounds().Dy(), test.ShouldEqual, res.Frame.Height)

	for i := range res.Quad {
		p, ok := res.Homography.Apply(res.Quad[i])
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, near(p, res.Dest[i], 1e-6), test.ShouldBeTrue)
	}
}

func TestRectifyRejectsCluster(t *testing.T) {
	res, err := Rectify(Request{
		Image:   gradientImage(1000, 1000),
		Corners: pts(500, 500, 504, 501, 503, 504, 501, 503),
		Sizer:   Sizer{Mode: SizeFixed, Width: 800, Height: 1100},
	})
	test.That(t, IsDegenerateGeometry(err), test.ShouldBeTrue)
	test.That(t, res, test.ShouldBeNil)
}

func TestRectifyRejectsNearlyCollinear(t *testing.T) {
	for _, mode := range []SizingMode{SizeFromEdges, SizeFixed, SizePreserveAngle} {
		res, err := Rectify(Request{
			Image:   gradientImage(1000, 1000),
			Corners: pts(100, 100, 400, 401, 700, 699, 950, 951),
			Sizer:   Sizer{Mode: mode, Width: 400, Height: 400},
		})
		test.That(t, IsDegenerateGeometry(err), test.ShouldBeTrue)
		test.That(t, res, test.ShouldBeNil)
	}
}

func TestRectifyInputErrors(t *testing.T) {
	_, err := Rectify(Request{Corners: pts(0, 0, 100, 0, 100, 100, 0, 100)})
	test.That(t, IsSourceUnavailable(err), test.ShouldBeTrue)

	_, err = Rectify(Request{Image: image.NewNRGBA(image.Rectangle{}), Corners: pts(0, 0, 100, 0, 100, 100, 0, 100)})
	test.That(t, IsSourceUnavailable(err), test.ShouldBeTrue)

	_, err = Rectify(Request{Image: gradientImage(100, 100), Corners: pts(0, 0, 100, 0, 100, 100)})
	test.That(t, IsInsufficientPoints(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldEqual, "need 4 corner points, have 3")

	_, err = Rectify(Request{Image: gradientImage(100, 100), Corners: pts(0, 0, 100, 0, 100, 100, 0, 100, 50, 50)})
	test.That(t, err, test.ShouldEqual, ErrTooManyPoints)

	_, err = Rectify(Request{
		Image:   gradientImage(100, 100),
		Corners: pts(0, 0, 100, 0, 100, 100, 0, 100),
		Surface: &Surface{},
	})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRectifyRejectsHugeFrames(t *testing.T) {
	res, err := Rectify(Request{
		Image:   gradientImage(200, 200),
		Corners: pts(10, 10, 190, 10, 190, 190, 10, 190),
		Sizer:   Sizer{Mode: SizeFixed, Width: 1 << 30, Height: 1 << 30},
	})
	test.That(t, IsFrameTooLarge(err), test.ShouldBeTrue)
	test.That(t, res, test.ShouldBeNil)

	// sizes within the ceiling are unaffected
	res, err = Rectify(Request{
		Image:   gradientImage(200, 200),
		Corners: pts(10, 10, 190, 10, 190, 190, 10, 190),
		Sizer:   Sizer{Mode: SizeFixed, Width: 100, Height: 100},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Frame, test.ShouldResemble, TargetFrame{100, 100})
}

func TestRectifyFromSurfaceTaps(t *testing.T) {
	src := gradientImage(1000, 1000)

	direct, err := Rectify(Request{
		Image:   src,
		Corners: pts(100, 100, 900, 100, 900, 900, 100, 900),
	})
	test.That(t, err, test.ShouldBeNil)

	// the same corners tapped on a 500x500 preview whose y axis points up
	viaTaps, err := Rectify(Request{
		Image:   src,
		Corners: pts(50, 450, 450, 450, 450, 50, 50, 50),
		Surface: &Surface{Width: 500, Height: 500},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, viaTaps.Frame, test.ShouldResemble, direct.Frame)
	for i := range direct.Quad {
		test.That(t, near(viaTaps.Quad[i], direct.Quad[i], 1e-9), test.ShouldBeTrue)
	}
	test.That(t, meanDiff(viaTaps.Image, direct.Image), test.ShouldBeLessThan, 1.0/255)
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	src := gradientImage(400, 300)

	req, err := Fetch(ctx, StaticSource{src}, StaticCorners(pts(10, 10, 390, 10, 390, 290, 10, 290)), Request{
		Interpolation: Bicubic,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, req.Image, test.ShouldEqual, src)
	test.That(t, len(req.Corners), test.ShouldEqual, 4)
	test.That(t, req.Interpolation, test.ShouldEqual, Bicubic)

	res, err := Rectify(req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Frame, test.ShouldResemble, TargetFrame{380, 280})

	_, err = Fetch(ctx, StaticSource{}, StaticCorners(nil), Request{})
	test.That(t, IsSourceUnavailable(err), test.ShouldBeTrue)

	_, err = Fetch(ctx, FileSource(filepath.Join(t.TempDir(), "missing.jpg")), StaticCorners(nil), Request{})
	test.That(t, IsSourceUnavailable(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "missing.jpg")
}
