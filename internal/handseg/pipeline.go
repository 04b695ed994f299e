package handseg

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/handpoint/internal/frame"
)

// Result is the output of one pipeline pass. The three images are handed to
// the presenter read-only and must be released with Close.
type Result struct {
	Seq uint64

	// Tracked is false when the frame carried no valid hand; the buffers were
	// left untouched and no hand geometry was computed.
	Tracked bool

	// MaskedPixels counts pixels excluded from the depth band.
	MaskedPixels int

	Hand     image.Point
	Contours ContourSet
	Analyses []Convexity
	Geometry Geometry

	DepthView gocv.Mat // CV_8UC1 hand-isolated depth visualization
	Overlay   gocv.Mat // CV_8UC3 contour and defect overlay
	ColorView gocv.Mat // CV_8UC3 color image
}

// DefectCount returns the number of defects found before filtering.
func (r *Result) DefectCount() int {
	n := 0
	for _, a := range r.Analyses {
		n += len(a.Defects)
	}
	return n
}

// Close releases the result images. It is safe to call more than once.
func (r *Result) Close() {
	r.DepthView.Close()
	r.Overlay.Close()
	r.ColorView.Close()
}

// Pipeline runs hand isolation, conversion, contour extraction, convexity
// analysis and defect classification over one frame at a time.
type Pipeline struct {
	params Params
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewPipeline creates a Pipeline with the given parameters.
func NewPipeline(params Params, logger *slog.Logger) (*Pipeline, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{params: params, logger: logger}, nil
}

// Params returns the current parameters.
func (p *Pipeline) Params() Params {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.params
}

// SetParams replaces the parameters used from the next frame on.
func (p *Pipeline) SetParams(params Params) error {
	if err := params.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.params = params
	return nil
}

// Process runs one pass over f. When f.Hand is valid the frame's depth and
// color buffers are masked in place before conversion. When it is not, the
// buffers pass through unmodified and the result carries no hand geometry.
//
// Steady-state conditions (no tracked hand, no contours, degenerate
// contours) are not errors. Process only fails on malformed frames or
// image conversion failures.
func (p *Pipeline) Process(f frame.Frame) (*Result, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	params := p.Params()

	res := &Result{Seq: f.Seq, Tracked: f.Hand.Valid}

	if res.Tracked {
		res.MaskedPixels = Mask(f.Depth, f.Color, f.Hand.Depth(), params.Tolerance)
	}

	var err error
	res.DepthView, err = DepthToDisplay(f.Depth, params.DisplayScale)
	if err != nil {
		return nil, fmt.Errorf("convert depth: %w", err)
	}
	res.ColorView, err = ColorToImage(f.Color)
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("convert color: %w", err)
	}

	size := image.Pt(f.Depth.Width, f.Depth.Height)
	if !res.Tracked {
		res.Overlay = gocv.NewMatWithSize(size.Y, size.X, gocv.MatTypeCV8UC3)
		return res, nil
	}

	res.Hand = image.Pt(
		int(math.Round(f.Hand.Projective.X)),
		int(math.Round(f.Hand.Projective.Y)),
	)

	res.Contours, err = ExtractContours(res.DepthView, params)
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("extract contours: %w", err)
	}

	res.Analyses = make([]Convexity, len(res.Contours.Contours))
	for i, c := range res.Contours.Contours {
		res.Analyses[i] = Analyze(c)
	}

	res.Geometry = Classify(res.Hand, res.Contours.Contours, res.Analyses, params.MinDefectDepth)
	res.Overlay = RenderOverlay(res.Geometry, res.Contours, size)

	// The hand marker is drawn after extraction so it never shapes a contour:
	// a hand point off the silhouette no longer yields a contour of its own,
	// and one on the silhouette edge no longer bulges the hull.
	markHand(&res.DepthView, res.Hand)

	p.logger.Debug("frame processed",
		"frame", f.Seq,
		"masked", res.MaskedPixels,
		"contours", res.Contours.Len(),
		"defects", res.DefectCount(),
		"candidates", len(res.Geometry.Candidates),
	)

	return res, nil
}
