package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/spf13/cobra"

	"go.viam.com/rdk/logging"
	"go.viam.com/rdk/rimage"

	"viamrectify/rectify"
)

var (
	outputFile    string
	markupFile    string
	mode          string
	width         int
	height        int
	maxSide       int
	interpolation string
	solver        string
	surface       string
)

var rootCmd = &cobra.Command{
	Use:   "rectify <input> <x,y> <x,y> <x,y> <x,y>",
	Short: "Rectify the quadrilateral marked by four corners",
	Long: `Maps the four marked corners of a photographed page, whiteboard or screen onto an
upright rectangle and writes the result. Corners can be given in any order.`,
	Args: cobra.ExactArgs(5),
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file, default <input>_rectified<ext>")
	rootCmd.Flags().StringVar(&markupFile, "markup", "", "also write the input with the corners drawn on it")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", "edges", "sizing mode: edges, fixed or angle")
	rootCmd.Flags().IntVar(&width, "width", 0, "output width for mode fixed")
	rootCmd.Flags().IntVar(&height, "height", 0, "output height for mode fixed")
	rootCmd.Flags().IntVar(&maxSide, "max-side", 0, "largest output side, 0 for the default")
	rootCmd.Flags().StringVarP(&interpolation, "interp", "i", "bilinear", "bilinear, bicubic or nearest")
	rootCmd.Flags().StringVar(&solver, "solver", "dense", "homography solver: dense or gauss")
	rootCmd.Flags().StringVar(&surface, "surface", "", "corners are taps on a surface x,y,w,h with y up")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger("rectify")

	inputFile := args[0]
	if outputFile == "" {
		ext := filepath.Ext(inputFile)
		outputFile = strings.TrimSuffix(inputFile, ext) + "_rectified" + ext
	}

	corners := make([]r2.Point, 0, 4)
	for _, a := range args[1:] {
		v, err := parseFloats(a, 2)
		if err != nil {
			return fmt.Errorf("bad corner %q: %w", a, err)
		}
		corners = append(corners, r2.Point{X: v[0], Y: v[1]})
	}

	req := rectify.Request{Corners: corners}

	var err error
	req.Sizer.Mode, err = rectify.ParseSizingMode(mode)
	if err != nil {
		return err
	}
	req.Sizer.Width = width
	req.Sizer.Height = height
	req.Sizer.MaxSide = maxSide

	req.Interpolation, err = rectify.ParseInterpolation(interpolation)
	if err != nil {
		return err
	}
	req.Solver, err = rectify.ParseSolver(solver)
	if err != nil {
		return err
	}

	if surface != "" {
		v, err := parseFloats(surface, 4)
		if err != nil {
			return fmt.Errorf("bad surface %q: %w", surface, err)
		}
		req.Surface = &rectify.Surface{Origin: r2.Point{X: v[0], Y: v[1]}, Width: v[2], Height: v[3]}
	}

	req, err = rectify.Fetch(cmd.Context(), rectify.FileSource(inputFile), rectify.StaticCorners(corners), req)
	if err != nil {
		return err
	}
	logger.Infof("image size: %dx%d", req.Image.Bounds().Dx(), req.Image.Bounds().Dy())

	if markupFile != "" {
		pts := corners
		if req.Surface != nil {
			pts, err = rectify.NormalizeTaps(corners, *req.Surface, req.Image.Bounds().Dx(), req.Image.Bounds().Dy())
			if err != nil {
				return err
			}
		}
		err = rimage.WriteImageToFile(markupFile, rectify.DrawMarkup(req.Image, pts))
		if err != nil {
			return err
		}
	}

	res, err := rectify.Rectify(req)
	if err != nil {
		return err
	}

	logger.Infof("top-left:     %v", res.Quad[rectify.TopLeft])
	logger.Infof("top-right:    %v", res.Quad[rectify.TopRight])
	logger.Infof("bottom-right: %v", res.Quad[rectify.BottomRight])
	logger.Infof("bottom-left:  %v", res.Quad[rectify.BottomLeft])

	err = rimage.WriteImageToFile(outputFile, res.Image)
	if err != nil {
		return err
	}

	logger.Infof("saved %v image to %s", res.Frame, outputFile)
	return nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("need %d comma separated numbers", n)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
