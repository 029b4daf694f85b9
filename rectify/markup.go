package rectify

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r2"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var outlineColor = color.NRGBA{0, 255, 0, 255}

// DrawMarkup returns a copy of img with the marked points, an outline joining them in
// angular order, and, once there are four, their corner roles.
func DrawMarkup(img image.Image, pts []r2.Point) *image.NRGBA {
	dst := imaging.Clone(img)

	outline := OrderByAngle(pts)
	if len(outline) >= 2 {
		for i := range outline {
			if i == len(outline)-1 && len(outline) < 3 {
				break
			}
			drawLine(dst, outline[i], outline[(i+1)%len(outline)], 2, outlineColor)
		}
	}

	labels := make([]string, len(pts))
	for i := range pts {
		labels[i] = fmt.Sprintf("%d", i+1)
	}
	if q, err := OrderCorners(pts); err == nil {
		for role, p := range q {
			for i := range pts {
				if pts[i] == p {
					labels[i] = roleNames[role]
				}
			}
		}
	}

	for i, p := range pts {
		c := colorful.Hsv(float64(i)*90, 1, 1)
		fillCircle(dst, p, 6, c)
		drawString(dst, int(p.X)+9, int(p.Y)-9, labels[i], c)
	}

	return dst
}

func drawLine(img *image.NRGBA, a, b r2.Point, width float64, c color.Color) {
	steps := int(math.Ceil(b.Sub(a).Norm()))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		fillCircle(img, a.Add(b.Sub(a).Mul(t)), width/2, c)
	}
}

func fillCircle(img *image.NRGBA, center r2.Point, radius float64, c color.Color) {
	r := int(math.Ceil(radius))
	cx, cy := int(math.Round(center.X)), int(math.Round(center.Y))
	b := img.Bounds()
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx, dy := float64(x-cx), float64(y-cy)
			if dx*dx+dy*dy > radius*radius {
				continue
			}
			if image.Pt(x, y).In(b) {
				img.Set(x, y, c)
			}
		}
	}
}

func drawString(dst *image.NRGBA, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}
