package viamrectify

import (
	"context"
	"fmt"
	"image"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/resource"

	"viamrectify/rectify"
)

// cameraSource reads the first image a camera returns. md keeps the metadata of the last
// read, so use one per call when that matters.
type cameraSource struct {
	cam   camera.Camera
	extra map[string]interface{}

	md resource.ResponseMetadata
}

func (cs *cameraSource) Image(ctx context.Context) (image.Image, error) {
	ni, md, err := cs.cam.Images(ctx, nil, cs.extra)
	cs.md = md
	if err != nil {
		return nil, &rectify.SourceUnavailableError{Err: err}
	}
	if len(ni) == 0 {
		return nil, &rectify.SourceUnavailableError{Err: fmt.Errorf("no images returned from input camera")}
	}

	img, err := ni[0].Image(ctx)
	if err != nil {
		return nil, &rectify.SourceUnavailableError{Err: err}
	}
	return img, nil
}
