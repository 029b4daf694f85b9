package viamrectify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/rdk/components/camera"
	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/resource"
	"go.viam.com/rdk/rimage"
	generic "go.viam.com/rdk/services/generic"
	"go.viam.com/utils/trace"

	"viamrectify/rectify"
)

var RectifierModel = family.WithModel("rectifier")

func init() {
	resource.RegisterService(generic.API, RectifierModel,
		resource.Registration[resource.Resource, *RectifierConfig]{
			Constructor: newRectifier,
		},
	)
}

type RectifierConfig struct {
	Camera    string `json:"camera,omitempty"`
	OutputDir string `json:"output_dir,omitempty"`
}

func (cfg *RectifierConfig) Validate(path string) ([]string, []string, error) {
	if cfg.Camera == "" {
		return nil, nil, nil
	}
	return nil, []string{cfg.Camera}, nil
}

type rectifier struct {
	resource.AlwaysRebuild
	resource.TriviallyCloseable

	name   resource.Name
	logger logging.Logger
	conf   *RectifierConfig

	cam camera.Camera
	now func() time.Time

	// serializes numbering in OutputDir and the headings index
	saveLock sync.Mutex
}

func newRectifier(ctx context.Context, deps resource.Dependencies, rawConf resource.Config, logger logging.Logger) (resource.Resource, error) {
	conf, err := resource.NativeConfig[*RectifierConfig](rawConf)
	if err != nil {
		return nil, err
	}

	return NewRectifier(ctx, deps, rawConf.ResourceName(), conf, logger)
}

func NewRectifier(ctx context.Context, deps resource.Dependencies, name resource.Name, conf *RectifierConfig, logger logging.Logger) (resource.Resource, error) {
	r := &rectifier{
		name:   name,
		logger: logger,
		conf:   conf,
		now:    time.Now,
	}

	if conf.Camera != "" {
		cam, err := camera.FromProvider(deps, conf.Camera)
		if err != nil {
			logger.Warnf("can't find camera %s: %v", conf.Camera, err)
		} else {
			r.cam = cam
		}
	}

	if conf.OutputDir != "" {
		err := os.MkdirAll(conf.OutputDir, 0o755)
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *rectifier) Name() resource.Name {
	return r.name
}

// ----

type RectifyCmd struct {
	Camera string `json:"camera,omitempty"`
	Path   string `json:"path,omitempty"`
	Output string `json:"output,omitempty"`

	// KeepOriginal also writes the unrectified input as <name>_I next to the output.
	KeepOriginal bool `json:"keep_original,omitempty"`

	// Heading is the compass angle the photo was taken at, recorded in the headings index.
	Heading *float64 `json:"heading,omitempty"`

	RectifyConfig `json:",squash"`
}

type rectifierCmd struct {
	Rectify  *RectifyCmd `json:"rectify"`
	Headings bool        `json:"headings"`
}

func (r *rectifier) DoCommand(ctx context.Context, cmdMap map[string]interface{}) (map[string]interface{}, error) {
	var cmd rectifierCmd
	err := decodeCmd(cmdMap, &cmd)
	if err != nil {
		return nil, err
	}

	if cmd.Rectify != nil {
		return r.rectify(ctx, cmd.Rectify)
	}

	if cmd.Headings {
		return r.headings()
	}

	return nil, fmt.Errorf("bad cmd %v", cmdMap)
}

func (r *rectifier) source(cmd *RectifyCmd) (rectify.ImageSource, error) {
	switch {
	case cmd.Path != "" && cmd.Camera != "":
		return nil, fmt.Errorf("give a camera or a path, not both")
	case cmd.Path != "":
		return rectify.FileSource(cmd.Path), nil
	case cmd.Camera != "" && r.cam != nil && cmd.Camera == r.conf.Camera:
		return &cameraSource{cam: r.cam}, nil
	case cmd.Camera != "":
		return nil, fmt.Errorf("camera %s is not configured", cmd.Camera)
	case r.cam != nil:
		return &cameraSource{cam: r.cam}, nil
	}
	return nil, &rectify.SourceUnavailableError{Err: fmt.Errorf("no camera or path given")}
}

func (r *rectifier) rectify(ctx context.Context, cmd *RectifyCmd) (map[string]interface{}, error) {
	ctx, span := trace.StartSpan(ctx, "viamrectify::rectifier::rectify")
	defer span.End()

	base, err := cmd.RectifyConfig.request()
	if err != nil {
		return nil, err
	}

	src, err := r.source(cmd)
	if err != nil {
		return nil, err
	}

	req, err := rectify.Fetch(ctx, src, rectify.StaticCorners(base.Corners), base)
	if err != nil {
		return nil, err
	}

	res, err := rectify.Rectify(req)
	if err != nil {
		return nil, err
	}

	r.saveLock.Lock()
	defer r.saveLock.Unlock()

	out, err := r.outputPath(cmd)
	if err != nil {
		return nil, err
	}

	ret := map[string]interface{}{
		"width":  res.Frame.Width,
		"height": res.Frame.Height,
		"path":   out,
	}

	if out == "" {
		if cmd.Heading != nil || cmd.KeepOriginal {
			return nil, fmt.Errorf("heading and keep_original need an output or output_dir")
		}
		return ret, nil
	}

	err = rimage.WriteImageToFile(out, res.Image)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot write %s", out)
	}
	if cmd.KeepOriginal {
		original := originalPath(out)
		err = rimage.WriteImageToFile(original, req.Image)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot write %s", original)
		}
		ret["original"] = original
	}
	r.logger.Infof("rectified %v into %v, saved %s", res.Quad, res.Frame, out)

	if cmd.Heading != nil {
		h := headingRecord{Angle: *cmd.Heading, Timestamp: r.now().Format(time.RFC3339)}
		err = recordHeading(out, h)
		if err != nil {
			return nil, err
		}
		ret["heading"] = map[string]interface{}{
			"angle":     h.Angle,
			"timestamp": h.Timestamp,
		}
	}

	return ret, nil
}

func (r *rectifier) headings() (map[string]interface{}, error) {
	if r.conf.OutputDir == "" {
		return nil, fmt.Errorf("no output_dir configured")
	}

	r.saveLock.Lock()
	defer r.saveLock.Unlock()

	all, err := readHeadings(r.conf.OutputDir)
	if err != nil {
		return nil, err
	}
	ret := map[string]interface{}{}
	for k, h := range all {
		ret[k] = map[string]interface{}{"angle": h.Angle, "timestamp": h.Timestamp}
	}
	return ret, nil
}

// outputPath picks where to write. Without an explicit output the next number in
// OutputDir is used. Callers hold saveLock.
func (r *rectifier) outputPath(cmd *RectifyCmd) (string, error) {
	if cmd.Output != "" {
		return cmd.Output, nil
	}
	if r.conf.OutputDir == "" {
		return "", nil
	}

	n, err := lastNumber(r.conf.OutputDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.conf.OutputDir, fmt.Sprintf("%04d.png", n+1)), nil
}

// originalPath is out with _I before the extension.
func originalPath(out string) string {
	ext := filepath.Ext(out)
	return strings.TrimSuffix(out, ext) + "_I" + ext
}

var numberedFile = regexp.MustCompile(`^(\d{4,})(_I)?\.png$`)

// lastNumber is the highest NNNN of the NNNN.png and NNNN_I.png files in dir, 0 if none.
func lastNumber(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	last := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := numberedFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > last {
			last = n
		}
	}
	return last, nil
}
