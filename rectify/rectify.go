// Package rectify turns a photo of a roughly planar object and four marked corners into
// an upright, perspective-free image of that object.
//
// The pipeline is point normalization -> corner ordering -> output sizing -> homography
// estimation -> warping. Each step is exported so callers can run them piecemeal; Rectify
// runs them all.
package rectify

import (
	"image"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// Request is everything one rectification needs.
type Request struct {
	Image image.Image

	// Corners are in the image's pixel frame (top-left of Bounds is 0,0) unless Surface
	// is set, in which case they are taps on that surface.
	Corners []r2.Point
	Surface *Surface

	Sizer         Sizer
	Interpolation Interpolation
	// Solver defaults to DenseSolver.
	Solver Solver
}

// Result is a rectified image and how it was produced.
type Result struct {
	Image *image.NRGBA
	Frame TargetFrame

	// Quad is the ordered corners in source pixels, Dest where they land in Image.
	Quad       Quad
	Dest       Quad
	Homography Homography
}

// Rectify runs the whole pipeline for req.
func Rectify(req Request) (*Result, error) {
	if req.Image == nil || req.Image.Bounds().Empty() {
		return nil, &SourceUnavailableError{}
	}
	if len(req.Corners) < 4 {
		return nil, &InsufficientPointsError{Got: len(req.Corners)}
	}

	corners := req.Corners
	if req.Surface != nil {
		b := req.Image.Bounds()
		var err error
		corners, err = NormalizeTaps(corners, *req.Surface, b.Dx(), b.Dy())
		if err != nil {
			return nil, err
		}
	}

	quad, err := OrderCorners(corners)
	if err != nil {
		return nil, err
	}

	plan, err := req.Sizer.Plan(quad)
	if err != nil {
		return nil, err
	}

	h, err := Estimate(quad, plan.Dest, req.Solver)
	if err != nil {
		return nil, err
	}

	out, err := Warp(req.Image, h, plan.Frame, req.Interpolation)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot warp to %v", plan.Frame)
	}

	return &Result{
		Image:      out,
		Frame:      plan.Frame,
		Quad:       quad,
		Dest:       plan.Dest,
		Homography: h,
	}, nil
}
