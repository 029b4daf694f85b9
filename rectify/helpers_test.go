package rectify

import (
	"image"
	"image/color"
	"math"

	"github.com/golang/geo/r2"
)

// gradientImage has red growing with x and green growing with y, a quarter level per pixel.
func gradientImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x / 4), uint8(y / 4), 128, 255})
		}
	}
	return img
}

// patternImage is busy enough that a misplaced sample shows up.
func patternImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 7), uint8(y * 13), uint8((x + y) * 3), 255})
		}
	}
	return img
}

// meanDiff is the mean absolute channel difference, scaled to [0,1].
func meanDiff(a, b *image.NRGBA) float64 {
	total := 0.0
	n := 0
	for i := range a.Pix {
		total += math.Abs(float64(a.Pix[i]) - float64(b.Pix[i]))
		n++
	}
	return total / float64(n) / 255
}

func pts(xy ...float64) []r2.Point {
	out := make([]r2.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, r2.Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func near(a, b r2.Point, tol float64) bool {
	return a.Sub(b).Norm() <= tol
}
