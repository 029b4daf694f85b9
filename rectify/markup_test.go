package rectify

import (
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestDrawMarkup(t *testing.T) {
	src := gradientImage(200, 200)
	corners := pts(20, 20, 180, 20, 180, 180, 20, 180)

	out := DrawMarkup(src, corners)
	test.That(t, out.Bounds(), test.ShouldResemble, src.Bounds())

	// the source is not drawn on
	test.That(t, src.NRGBAAt(20, 20), test.ShouldResemble, color.NRGBA{5, 5, 128, 255})

	// corner markers and the outline between them
	test.That(t, out.NRGBAAt(20, 20), test.ShouldNotResemble, src.NRGBAAt(20, 20))
	test.That(t, out.NRGBAAt(100, 20), test.ShouldResemble, outlineColor)
	test.That(t, out.NRGBAAt(100, 100), test.ShouldResemble, src.NRGBAAt(100, 100))
}

func TestDrawMarkupPartial(t *testing.T) {
	src := gradientImage(100, 100)

	out := DrawMarkup(src, pts(10, 10, 90, 90))
	test.That(t, out.NRGBAAt(50, 50), test.ShouldResemble, outlineColor)

	out = DrawMarkup(src, nil)
	test.That(t, out.Pix, test.ShouldResemble, src.Pix)
}
