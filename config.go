package viamrectify

import (
	"fmt"

	"github.com/golang/geo/r2"
	"go.uber.org/multierr"

	"viamrectify/rectify"
)

// SurfaceConfig is the preview widget the corners were tapped on, bottom-left origin.
type SurfaceConfig struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectifyConfig holds the rectification options shared by the camera and the service.
type RectifyConfig struct {
	// Corners are [x, y] pairs, in image pixels unless Surface is set.
	Corners [][]float64    `json:"corners,omitempty"`
	Surface *SurfaceConfig `json:"surface,omitempty"`

	Mode    string `json:"mode,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	MaxSide int    `json:"max_side,omitempty"`

	Interpolation string `json:"interpolation,omitempty"`
	Solver        string `json:"solver,omitempty"`
}

// Validate returns every problem with the options at once.
func (c *RectifyConfig) Validate() error {
	var err error

	if len(c.Corners) > 4 {
		err = multierr.Append(err, fmt.Errorf("at most 4 corners, got %d", len(c.Corners)))
	}
	for i, p := range c.Corners {
		if len(p) != 2 {
			err = multierr.Append(err, fmt.Errorf("corner %d needs [x, y], got %v", i, p))
		}
	}

	if c.Surface != nil {
		err = multierr.Append(err, c.surface().Validate())
	}

	mode, modeErr := rectify.ParseSizingMode(c.Mode)
	err = multierr.Append(err, modeErr)
	if modeErr == nil && mode == rectify.SizeFixed && (c.Width <= 0 || c.Height <= 0) {
		err = multierr.Append(err, fmt.Errorf("mode fixed needs a positive width and height"))
	}
	if c.Width > rectify.DefaultMaxFixedSide || c.Height > rectify.DefaultMaxFixedSide {
		err = multierr.Append(err, &rectify.FrameTooLargeError{Width: c.Width, Height: c.Height, Limit: rectify.DefaultMaxFixedSide})
	}
	if c.MaxSide < 0 {
		err = multierr.Append(err, fmt.Errorf("max_side cannot be negative"))
	}
	if c.MaxSide > rectify.DefaultMaxFixedSide {
		err = multierr.Append(err, fmt.Errorf("max_side %d above the limit of %d", c.MaxSide, rectify.DefaultMaxFixedSide))
	}

	_, interpErr := rectify.ParseInterpolation(c.Interpolation)
	err = multierr.Append(err, interpErr)
	_, solverErr := rectify.ParseSolver(c.Solver)
	err = multierr.Append(err, solverErr)

	return err
}

func (c *RectifyConfig) surface() rectify.Surface {
	return rectify.Surface{
		Origin: r2.Point{X: c.Surface.X, Y: c.Surface.Y},
		Width:  c.Surface.Width,
		Height: c.Surface.Height,
	}
}

func (c *RectifyConfig) points() []r2.Point {
	out := make([]r2.Point, 0, len(c.Corners))
	for _, p := range c.Corners {
		if len(p) == 2 {
			out = append(out, r2.Point{X: p[0], Y: p[1]})
		}
	}
	return out
}

// request builds everything but the image.
func (c *RectifyConfig) request() (rectify.Request, error) {
	if err := c.Validate(); err != nil {
		return rectify.Request{}, err
	}

	// errors already checked by Validate
	mode, _ := rectify.ParseSizingMode(c.Mode)
	interp, _ := rectify.ParseInterpolation(c.Interpolation)
	solver, _ := rectify.ParseSolver(c.Solver)

	req := rectify.Request{
		Corners: c.points(),
		Sizer: rectify.Sizer{
			Mode:    mode,
			Width:   c.Width,
			Height:  c.Height,
			MaxSide: c.MaxSide,
		},
		Interpolation: interp,
		Solver:        solver,
	}
	if c.Surface != nil {
		s := c.surface()
		req.Surface = &s
	}
	return req, nil
}
