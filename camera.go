package viamrectify

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/golang/geo/r2"
	"go.uber.org/multierr"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/data"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/pointcloud"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/spatialmath"
	rutils "go.viam.com/rdk/utils"
	"go.viam.com/utils/trace"

	"viamrectify/rectify"
)

var RectifiedCameraModel = family.WithModel("rectified-camera")

func init() {
	resource.RegisterComponent(camera.API, RectifiedCameraModel,
		resource.Registration[camera.Camera, *RectifiedCameraConfig]{
			Constructor: newRectifiedCamera,
		},
	)
}

type RectifiedCameraConfig struct {
	Input string `json:"input"`

	// Markup returns the input with the marked corners drawn on it until there are 4.
	Markup bool `json:"markup,omitempty"`

	RectifyConfig `json:",squash"`
}

func (cfg *RectifiedCameraConfig) Validate(path string) ([]string, []string, error) {
	var err error
	if cfg.Input == "" {
		err = multierr.Append(err, fmt.Errorf("need an input"))
	}
	err = multierr.Append(err, cfg.RectifyConfig.Validate())
	if err != nil {
		return nil, nil, err
	}
	return []string{cfg.Input}, nil, nil
}

func newRectifiedCamera(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (camera.Camera, error) {
	conf, err := resource.NativeConfig[*RectifiedCameraConfig](rawConf)
	if err != nil {
		return nil, err
	}

	return NewRectifiedCamera(ctx, deps, rawConf.ResourceName(), conf, logger)
}

func NewRectifiedCamera(ctx context.Context, deps resource.Dependencies, name resource.Name, conf *RectifiedCameraConfig, logger logging.Logger) (camera.Camera, error) {
	input, err := camera.FromProvider(deps, conf.Input)
	if err != nil {
		return nil, err
	}
	return newRectifiedCameraFrom(input, name, conf, logger)
}

func newRectifiedCameraFrom(input camera.Camera, name resource.Name, conf *RectifiedCameraConfig, logger logging.Logger) (*RectifiedCamera, error) {
	base, err := conf.request()
	if err != nil {
		return nil, err
	}

	rc := &RectifiedCamera{
		name:    name,
		conf:    conf,
		logger:  logger,
		input:   input,
		base:    base,
		corners: append([]r2.Point(nil), base.Corners...),
		surface: base.Surface,
	}
	return rc, nil
}

type RectifiedCamera struct {
	resource.AlwaysRebuild
	resource.TriviallyCloseable

	name   resource.Name
	conf   *RectifiedCameraConfig
	logger logging.Logger

	input camera.Camera
	base  rectify.Request

	mu      sync.Mutex
	corners []r2.Point
	surface *rectify.Surface
}

// snapshot copies the marked corners and the surface they were tapped on under one lock.
func (rc *RectifiedCamera) snapshot() ([]r2.Point, *rectify.Surface) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	out := make([]r2.Point, len(rc.corners))
	copy(out, rc.corners)
	if rc.surface == nil {
		return out, nil
	}
	s := *rc.surface
	return out, &s
}

func (rc *RectifiedCamera) Image(ctx context.Context, mimeType string, extra map[string]interface{}) ([]byte, camera.ImageMetadata, error) {
	return camera.GetImageFromGetImages(ctx, nil, rc, extra, nil)
}

func (rc *RectifiedCamera) Images(ctx context.Context, filterSourceNames []string, extra map[string]interface{}) ([]camera.NamedImage, resource.ResponseMetadata, error) {
	ctx, span := trace.StartSpan(ctx, "viamrectify::RectifiedCamera::Images")
	defer span.End()

	src := &cameraSource{cam: rc.input, extra: extra}
	corners, surface := rc.snapshot()

	req, err := rectify.Fetch(ctx, src, rectify.StaticCorners(corners), rc.base)
	if err != nil {
		return nil, src.md, err
	}
	req.Surface = surface

	dst, err := rc.render(req)
	if err != nil {
		return nil, src.md, err
	}

	result, err := camera.NamedImageFromImage(dst, rc.name.ShortName(), rutils.MimeTypePNG, data.Annotations{})
	if err != nil {
		return nil, src.md, err
	}
	return []camera.NamedImage{result}, src.md, nil
}

func (rc *RectifiedCamera) render(req rectify.Request) (image.Image, error) {
	if len(req.Corners) < 4 && rc.conf.Markup && req.Image != nil {
		pts := req.Corners
		if req.Surface != nil {
			b := req.Image.Bounds()
			var err error
			pts, err = rectify.NormalizeTaps(pts, *req.Surface, b.Dx(), b.Dy())
			if err != nil {
				return nil, err
			}
		}
		return rectify.DrawMarkup(req.Image, pts), nil
	}

	res, err := rectify.Rectify(req)
	if err != nil {
		return nil, err
	}
	rc.logger.Debugf("rectified %v -> %v", res.Quad, res.Frame)
	return res.Image, nil
}

type cornersCmd struct {
	Corners [][]float64    `json:"corners"`
	Tap     []float64      `json:"tap"`
	Surface *SurfaceConfig `json:"surface"`
	Clear   bool           `json:"clear"`
}

func (rc *RectifiedCamera) DoCommand(ctx context.Context, cmdMap map[string]interface{}) (map[string]interface{}, error) {
	var cmd cornersCmd
	if err := decodeCmd(cmdMap, &cmd); err != nil {
		return nil, err
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	if cmd.Clear {
		rc.corners = nil
	}

	if cmd.Surface != nil {
		rc2 := RectifyConfig{Surface: cmd.Surface}
		s := rc2.surface()
		if err := s.Validate(); err != nil {
			return nil, err
		}
		rc.surface = &s
	}

	if cmd.Corners != nil {
		pts, err := parsePoints(cmd.Corners)
		if err != nil {
			return nil, err
		}
		rc.corners = nil
		rc.addLocked(pts...)
	}

	if cmd.Tap != nil {
		pts, err := parsePoints([][]float64{cmd.Tap})
		if err != nil {
			return nil, err
		}
		rc.addLocked(pts...)
	}

	return map[string]interface{}{
		"corners": pointsToList(rc.corners),
		"ready":   len(rc.corners) == 4,
	}, nil
}

// addLocked appends corners, ignoring anything past the fourth.
func (rc *RectifiedCamera) addLocked(pts ...r2.Point) {
	for _, p := range pts {
		if len(rc.corners) >= 4 {
			rc.logger.Debugf("already have 4 corners, ignoring %v", p)
			continue
		}
		rc.corners = append(rc.corners, p)
	}
}

func parsePoints(in [][]float64) ([]r2.Point, error) {
	out := make([]r2.Point, 0, len(in))
	for i, p := range in {
		if len(p) != 2 {
			return nil, fmt.Errorf("corner %d needs [x, y], got %v", i, p)
		}
		out = append(out, r2.Point{X: p[0], Y: p[1]})
	}
	return out, nil
}

func pointsToList(pts []r2.Point) []interface{} {
	out := make([]interface{}, 0, len(pts))
	for _, p := range pts {
		out = append(out, []interface{}{p.X, p.Y})
	}
	return out
}

func (rc *RectifiedCamera) NextPointCloud(ctx context.Context, extra map[string]interface{}) (pointcloud.PointCloud, error) {
	return nil, fmt.Errorf("NextPointCloud not supported")
}

func (rc *RectifiedCamera) Properties(ctx context.Context) (camera.Properties, error) {
	return camera.Properties{}, nil
}

func (rc *RectifiedCamera) Geometries(ctx context.Context, extra map[string]interface{}) ([]spatialmath.Geometry, error) {
	return nil, nil
}

func (rc *RectifiedCamera) Name() resource.Name {
	return rc.name
}
