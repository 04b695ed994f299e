package handseg

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"gocv.io/x/gocv"
)

func TestRenderOverlay_Markers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	hand := image.Pt(100, 300)
	valley := image.Pt(200, 150)
	tip := image.Pt(250, 50)
	g := Geometry{
		Hand: hand,
		Segments: []Segment{
			{From: hand, To: tip, Kind: SegmentHandToTip},
			{From: hand, To: valley, Kind: SegmentHandToValley},
			{From: valley, To: tip, Kind: SegmentValleyToTip},
		},
		Markers: []Marker{
			{At: valley, Kind: MarkerValley},
			{At: tip, Kind: MarkerFingertip},
		},
	}

	img := RenderOverlay(g, ContourSet{}, image.Pt(640, 480))
	defer img.Close()

	assert.Equal(t, gocv.MatTypeCV8UC3, img.Type())
	assert.Equal(t, 480, img.Rows())
	assert.Equal(t, 640, img.Cols())

	// BGR order.
	assert.Equal(t, gocv.Vecb{0, 0, 255}, img.GetVecbAt(valley.Y, valley.X), "valley is red")
	assert.Equal(t, gocv.Vecb{0, 255, 255}, img.GetVecbAt(tip.Y, tip.X), "fingertip is yellow")
	assert.Equal(t, gocv.Vecb{0, 0, 0}, img.GetVecbAt(400, 600), "background stays black")
}

func TestRenderOverlay_Contours(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	set := ContourSet{
		Contours: []Contour{{
			image.Pt(10, 10), image.Pt(60, 10), image.Pt(60, 60), image.Pt(10, 60),
		}},
		Hierarchy: []HierarchyEntry{{Next: -1, Prev: -1, FirstChild: -1, Parent: -1}},
	}

	img := RenderOverlay(Geometry{}, set, image.Pt(100, 100))
	defer img.Close()

	assert.Equal(t, gocv.Vecb{0, 255, 0}, img.GetVecbAt(10, 30), "contour edge is green")
	assert.Equal(t, gocv.Vecb{0, 0, 0}, img.GetVecbAt(30, 30), "contours are not filled")
}

func TestStampFrameID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	defer img.Close()

	StampFrameID(&img, 42)
	assert.Greater(t, gocv.CountNonZero(img), 0)
}
