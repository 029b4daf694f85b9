package rectify

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// Surface is the on-screen widget the user tapped on. Origin is its bottom-left corner,
// and Y grows upward, the way touch surfaces report positions.
type Surface struct {
	Origin        r2.Point
	Width, Height float64
}

// Validate checks the surface has a usable extent.
func (s Surface) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("surface size must be positive, got %vx%v", s.Width, s.Height)
	}
	return nil
}

// NormalizeTap converts a tap on the surface into the pixel frame of an image that is
// imageW x imageH pixels (origin top-left, Y down). The Y fraction is inverted since the
// two frames disagree on which way is up. Taps outside the surface are not clamped.
func NormalizeTap(tap r2.Point, s Surface, imageW, imageH int) r2.Point {
	fx := (tap.X - s.Origin.X) / s.Width
	fy := (tap.Y - s.Origin.Y) / s.Height
	return r2.Point{
		X: fx * float64(imageW),
		Y: (1 - fy) * float64(imageH),
	}
}

// NormalizeTaps is NormalizeTap over a list of taps.
func NormalizeTaps(taps []r2.Point, s Surface, imageW, imageH int) ([]r2.Point, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	out := make([]r2.Point, len(taps))
	for i, t := range taps {
		out[i] = NormalizeTap(t, s, imageW, imageH)
	}
	return out, nil
}
