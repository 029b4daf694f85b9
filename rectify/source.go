package rectify

import (
	"context"
	"image"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.viam.com/rdk/rimage"
)

// ImageSource produces the photo to rectify.
type ImageSource interface {
	Image(ctx context.Context) (image.Image, error)
}

// CornerInput produces the corners the user marked.
type CornerInput interface {
	Corners(ctx context.Context) ([]r2.Point, error)
}

// FileSource decodes an image file from disk.
type FileSource string

// Image implements ImageSource.
func (f FileSource) Image(ctx context.Context) (image.Image, error) {
	img, err := rimage.ReadImageFromFile(string(f))
	if err != nil {
		return nil, &SourceUnavailableError{Err: errors.Wrapf(err, "cannot read %s", string(f))}
	}
	return img, nil
}

// StaticSource always returns the same image.
type StaticSource struct {
	Img image.Image
}

// Image implements ImageSource.
func (s StaticSource) Image(ctx context.Context) (image.Image, error) {
	if s.Img == nil {
		return nil, &SourceUnavailableError{}
	}
	return s.Img, nil
}

// StaticCorners always returns the same corners.
type StaticCorners []r2.Point

// Corners implements CornerInput.
func (c StaticCorners) Corners(ctx context.Context) ([]r2.Point, error) {
	return []r2.Point(c), nil
}

// Fetch builds a Request from src and in, filling in everything else from base.
func Fetch(ctx context.Context, src ImageSource, in CornerInput, base Request) (Request, error) {
	img, err := src.Image(ctx)
	if err != nil {
		if IsSourceUnavailable(err) {
			return base, err
		}
		return base, &SourceUnavailableError{Err: err}
	}

	corners, err := in.Corners(ctx)
	if err != nil {
		return base, err
	}

	base.Image = img
	base.Corners = corners
	return base, nil
}
