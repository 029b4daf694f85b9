package rectify

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrTooManyPoints is returned when more than four corners reach the core. The markup
// collaborator is expected to stop accepting taps after the fourth.
var ErrTooManyPoints = errors.New("too many corner points, mark exactly 4")

// InsufficientPointsError means fewer than four corners were supplied.
type InsufficientPointsError struct {
	Got int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("need 4 corner points, have %d", e.Got)
}

// DegenerateGeometryError means the corners are too close together, collinear or
// otherwise produce a singular transform. The user should re-mark the corners.
type DegenerateGeometryError struct {
	Reason string
}

func (e *DegenerateGeometryError) Error() string {
	if e.Reason == "" {
		return "points too close together"
	}
	return "points too close together: " + e.Reason
}

// SourceUnavailableError means there is no usable source image.
type SourceUnavailableError struct {
	Err error
}

func (e *SourceUnavailableError) Error() string {
	if e.Err == nil {
		return "source image unavailable"
	}
	return "source image unavailable: " + e.Err.Error()
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// FrameTooLargeError means a requested output frame exceeds the allowed size.
type FrameTooLargeError struct {
	Width, Height int
	Limit         int
}

func (e *FrameTooLargeError) Error() string {
	return fmt.Sprintf("output size %dx%d too large, at most %d px per side", e.Width, e.Height, e.Limit)
}

func degenerate(format string, args ...interface{}) error {
	return &DegenerateGeometryError{Reason: fmt.Sprintf(format, args...)}
}

// IsInsufficientPoints reports whether err (or anything it wraps) is an InsufficientPointsError.
func IsInsufficientPoints(err error) bool {
	var e *InsufficientPointsError
	return errors.As(err, &e)
}

// IsDegenerateGeometry reports whether err (or anything it wraps) is a DegenerateGeometryError.
func IsDegenerateGeometry(err error) bool {
	var e *DegenerateGeometryError
	return errors.As(err, &e)
}

// IsSourceUnavailable reports whether err (or anything it wraps) is a SourceUnavailableError.
func IsSourceUnavailable(err error) bool {
	var e *SourceUnavailableError
	return errors.As(err, &e)
}

// IsFrameTooLarge reports whether err (or anything it wraps) is a FrameTooLargeError.
func IsFrameTooLarge(err error) bool {
	var e *FrameTooLargeError
	return errors.As(err, &e)
}
