package rectify

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"golang.org/x/image/draw"
)

// Interpolation selects how the source is sampled between pixel centres.
type Interpolation int

const (
	// Bilinear blends the four nearest pixels.
	Bilinear Interpolation = iota
	// Bicubic uses a 4x4 Catmull-Rom kernel.
	Bicubic
	// Nearest takes the closest pixel.
	Nearest
)

func (i Interpolation) String() string {
	switch i {
	case Bilinear:
		return "bilinear"
	case Bicubic:
		return "bicubic"
	case Nearest:
		return "nearest"
	default:
		return fmt.Sprintf("Interpolation(%d)", int(i))
	}
}

// ParseInterpolation is the inverse of Interpolation.String. The empty string is Bilinear.
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "", "bilinear":
		return Bilinear, nil
	case "bicubic":
		return Bicubic, nil
	case "nearest":
		return Nearest, nil
	}
	return Bilinear, fmt.Errorf("unknown interpolation %q", s)
}

// Warp renders frame by mapping every destination pixel centre back through h into src.
// Destination pixels that land outside src are left transparent black.
func Warp(src image.Image, h Homography, frame TargetFrame, interp Interpolation) (*image.NRGBA, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, &SourceUnavailableError{}
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("invalid output frame %v", frame)
	}
	if frame.Width > DefaultMaxFixedSide || frame.Height > DefaultMaxFixedSide {
		return nil, &FrameTooLargeError{Width: frame.Width, Height: frame.Height, Limit: DefaultMaxFixedSide}
	}

	inv, err := h.Inverse()
	if err != nil {
		return nil, err
	}

	s := newSampler(imaging.Clone(src))
	dst := image.NewNRGBA(image.Rect(0, 0, frame.Width, frame.Height))

	for y := 0; y < frame.Height; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < frame.Width; x++ {
			p, ok := inv.Apply(r2.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
			if !ok {
				continue
			}
			// pixel centres sit at +0.5
			sx, sy := p.X-0.5, p.Y-0.5
			if !s.inside(sx, sy) {
				continue
			}

			var c [4]float64
			switch interp {
			case Nearest:
				c = s.nearest(sx, sy)
			case Bicubic:
				c = s.bicubic(sx, sy)
			default:
				c = s.bilinear(sx, sy)
			}
			writePremul(row[x*4:x*4+4], c)
		}
	}

	return dst, nil
}

// sampler reads premultiplied channels from an NRGBA image with origin (0,0).
type sampler struct {
	img  *image.NRGBA
	w, h int
}

func newSampler(img *image.NRGBA) *sampler {
	b := img.Bounds()
	return &sampler{img: img, w: b.Dx(), h: b.Dy()}
}

func (s *sampler) inside(x, y float64) bool {
	return x >= -0.5 && y >= -0.5 && x <= float64(s.w)-0.5 && y <= float64(s.h)-0.5
}

func (s *sampler) at(x, y int) [4]float64 {
	x = clampInt(x, 0, s.w-1)
	y = clampInt(y, 0, s.h-1)
	i := y*s.img.Stride + x*4
	p := s.img.Pix[i : i+4 : i+4]
	a := float64(p[3]) / 255
	return [4]float64{float64(p[0]) * a, float64(p[1]) * a, float64(p[2]) * a, float64(p[3])}
}

func (s *sampler) nearest(x, y float64) [4]float64 {
	return s.at(int(math.Round(x)), int(math.Round(y)))
}

func (s *sampler) bilinear(x, y float64) [4]float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	ix, iy := int(x0), int(y0)

	c00 := s.at(ix, iy)
	c10 := s.at(ix+1, iy)
	c01 := s.at(ix, iy+1)
	c11 := s.at(ix+1, iy+1)

	var out [4]float64
	for k := range out {
		top := c00[k] + (c10[k]-c00[k])*fx
		bottom := c01[k] + (c11[k]-c01[k])*fx
		out[k] = top + (bottom-top)*fy
	}
	return out
}

func (s *sampler) bicubic(x, y float64) [4]float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	ix, iy := int(x0), int(y0)

	var wx, wy [4]float64
	for i := range 4 {
		wx[i] = draw.CatmullRom.At(math.Abs(x - (x0 + float64(i-1))))
		wy[i] = draw.CatmullRom.At(math.Abs(y - (y0 + float64(i-1))))
	}

	var out [4]float64
	for j := range 4 {
		for i := range 4 {
			w := wx[i] * wy[j]
			if w == 0 {
				continue
			}
			c := s.at(ix+i-1, iy+j-1)
			for k := range out {
				out[k] += c[k] * w
			}
		}
	}
	return out
}

// writePremul stores premultiplied channels c into a non-premultiplied NRGBA pixel.
func writePremul(px []uint8, c [4]float64) {
	a := clampFloat(c[3], 0, 255)
	if a == 0 {
		return
	}
	f := 255 / a
	px[0] = uint8(clampFloat(c[0]*f, 0, 255) + 0.5)
	px[1] = uint8(clampFloat(c[1]*f, 0, 255) + 0.5)
	px[2] = uint8(clampFloat(c[2]*f, 0, 255) + 0.5)
	px[3] = uint8(a + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
