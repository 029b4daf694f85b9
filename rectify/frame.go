package rectify

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

const (
	// DefaultMinSide is the smallest marked region, in pixels, that is rectified.
	DefaultMinSide = 50
	// DefaultMaxSide bounds the longest side of an output derived from the markup.
	DefaultMaxSide = 1600
	// DefaultMaxFixedSide bounds each side of any output, fixed or derived.
	DefaultMaxFixedSide = 8192
)

// SizingMode selects how the output frame is derived from the marked quad.
type SizingMode int

const (
	// SizeFromEdges uses the longer of each pair of opposite edges.
	SizeFromEdges SizingMode = iota
	// SizeFixed uses Sizer.Width x Sizer.Height regardless of the quad's proportions.
	SizeFixed
	// SizePreserveAngle keeps the angle between the top and left edges and the left/right
	// depth ratio, producing a non-rectangular destination quad.
	SizePreserveAngle
)

func (m SizingMode) String() string {
	switch m {
	case SizeFromEdges:
		return "edges"
	case SizeFixed:
		return "fixed"
	case SizePreserveAngle:
		return "angle"
	default:
		return fmt.Sprintf("SizingMode(%d)", int(m))
	}
}

// ParseSizingMode is the inverse of SizingMode.String. The empty string is SizeFromEdges.
func ParseSizingMode(s string) (SizingMode, error) {
	switch s {
	case "", "edges":
		return SizeFromEdges, nil
	case "fixed":
		return SizeFixed, nil
	case "angle":
		return SizePreserveAngle, nil
	}
	return SizeFromEdges, fmt.Errorf("unknown sizing mode %q", s)
}

// TargetFrame is the size of the rectified output.
type TargetFrame struct {
	Width, Height int
}

func (f TargetFrame) String() string {
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

// Plan is a sized output frame plus the destination of each corner inside it.
type Plan struct {
	Frame TargetFrame
	Dest  Quad
}

// Sizer derives a Plan from a marked quad. The zero value sizes from edge lengths with
// the default limits.
type Sizer struct {
	Mode SizingMode

	// Width and Height are only used by SizeFixed.
	Width, Height int

	MaxSide int
	MinSide int
	// MaxFixedSide lowers the ceiling for Width and Height. It cannot raise it past
	// DefaultMaxFixedSide.
	MaxFixedSide int
}

func (s Sizer) minSide() float64 {
	if s.MinSide <= 0 {
		return DefaultMinSide
	}
	return float64(s.MinSide)
}

func (s Sizer) maxSide() float64 {
	if s.MaxSide <= 0 {
		return DefaultMaxSide
	}
	return float64(s.MaxSide)
}

func (s Sizer) maxFixedSide() int {
	if s.MaxFixedSide <= 0 || s.MaxFixedSide > DefaultMaxFixedSide {
		return DefaultMaxFixedSide
	}
	return s.MaxFixedSide
}

// Plan sizes the output for q. Marked regions smaller than MinSide in either direction,
// or thinner than MinSide on average, fail with a DegenerateGeometryError. Fixed sizes
// above MaxFixedSide fail with a FrameTooLargeError.
func (s Sizer) Plan(q Quad) (Plan, error) {
	if err := s.check(q); err != nil {
		return Plan{}, err
	}

	top, right, bottom, left := q.Edges()

	switch s.Mode {
	case SizeFromEdges:
		w := int(math.Max(top, bottom))
		h := int(math.Max(left, right))
		return s.capRect(w, h), nil
	case SizeFixed:
		if s.Width <= 0 || s.Height <= 0 {
			return Plan{}, fmt.Errorf("fixed output size must be positive, got %dx%d", s.Width, s.Height)
		}
		if limit := s.maxFixedSide(); s.Width > limit || s.Height > limit {
			return Plan{}, &FrameTooLargeError{Width: s.Width, Height: s.Height, Limit: limit}
		}
		return Plan{
			Frame: TargetFrame{s.Width, s.Height},
			Dest:  Rect(float64(s.Width), float64(s.Height)),
		}, nil
	case SizePreserveAngle:
		return s.planAngle(q)
	}
	return Plan{}, fmt.Errorf("unknown sizing mode %v", s.Mode)
}

func (s Sizer) check(q Quad) error {
	top, right, bottom, left := q.Edges()
	w := math.Max(top, bottom)
	h := math.Max(left, right)
	limit := s.minSide()

	if w < limit || h < limit {
		return degenerate("marked region is %.0fx%.0f px, need at least %.0f px each way", w, h, limit)
	}
	if q.Area()/math.Max(w, h) < limit {
		return degenerate("corners are nearly in a line")
	}
	return nil
}

func (s Sizer) capRect(w, h int) Plan {
	if longest := math.Max(float64(w), float64(h)); longest > s.maxSide() {
		f := s.maxSide() / longest
		w = atLeastOne(int(math.Round(float64(w) * f)))
		h = atLeastOne(int(math.Round(float64(h) * f)))
	}
	return Plan{
		Frame: TargetFrame{w, h},
		Dest:  Rect(float64(w), float64(h)),
	}
}

// planAngle keeps the top edge horizontal and lays the left and right edges out at the
// angle the top and left edges make in the photo, with their lengths in the same ratio.
func (s Sizer) planAngle(q Quad) (Plan, error) {
	top, right, bottom, left := q.Edges()
	if right == 0 || left == 0 || top == 0 {
		return Plan{}, degenerate("an edge has zero length")
	}

	angle := EdgeAngle(q)
	ratio := DepthRatio(q)

	w := math.Max(top, bottom)
	h := math.Max(left, right)
	leftLen, rightLen := h, h/ratio
	if ratio < 1 {
		leftLen, rightLen = h*ratio, h
	}

	dir := r2.Point{X: math.Cos(angle), Y: math.Sin(angle)}
	dest := Quad{
		{X: 0, Y: 0},
		{X: w, Y: 0},
		r2.Point{X: w, Y: 0}.Add(dir.Mul(rightLen)),
		dir.Mul(leftLen),
	}

	minX, maxX, maxY := 0.0, 0.0, 0.0
	for _, p := range dest {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	for i := range dest {
		dest[i].X -= minX
	}

	fw, fh := maxX-minX, maxY
	if longest := math.Max(fw, fh); longest > s.maxSide() {
		f := s.maxSide() / longest
		dest = dest.Scale(f)
		fw *= f
		fh *= f
	}

	return Plan{
		Frame: TargetFrame{ceilPx(fw), ceilPx(fh)},
		Dest:  dest,
	}, nil
}

// EdgeAngle is the angle, in radians, between the top and left edges of q.
func EdgeAngle(q Quad) float64 {
	topV := q[TopRight].Sub(q[TopLeft])
	leftV := q[BottomLeft].Sub(q[TopLeft])
	n := topV.Norm() * leftV.Norm()
	if n == 0 {
		return math.Pi / 2
	}
	c := topV.Dot(leftV) / n
	return math.Acos(math.Max(-1, math.Min(1, c)))
}

// DepthRatio is the left edge length over the right edge length.
func DepthRatio(q Quad) float64 {
	_, right, _, left := q.Edges()
	if right == 0 {
		return math.Inf(1)
	}
	return left / right
}

// ceilPx rounds up, ignoring float noise just above a whole pixel.
func ceilPx(v float64) int {
	return atLeastOne(int(math.Ceil(v - 1e-9)))
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
