package handseg

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Overlay colors.
var (
	contourColor    = color.RGBA{G: 255, A: 255}
	handLineColor   = color.RGBA{G: 255, B: 255, A: 255}
	valleyLineColor = color.RGBA{R: 255, B: 255, A: 255}
	valleyColor     = color.RGBA{R: 255, A: 255}
	fingertipColor  = color.RGBA{R: 255, G: 255, A: 255}
	handMarkerColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

const handMarkerRadius = 5

var frameIDOrigin = image.Pt(10, 24)

// RenderOverlay draws the classified geometry and every contour on a black
// 3-channel image of the given size. The caller must close the returned Mat.
func RenderOverlay(g Geometry, contours ContourSet, size image.Point) gocv.Mat {
	img := gocv.NewMatWithSize(size.Y, size.X, gocv.MatTypeCV8UC3)

	for _, s := range g.Segments {
		c := handLineColor
		if s.Kind == SegmentValleyToTip {
			c = valleyLineColor
		}
		gocv.Line(&img, s.From, s.To, c, 1)
	}

	for _, m := range g.Markers {
		c := valleyColor
		if m.Kind == MarkerFingertip {
			c = fingertipColor
		}
		gocv.Circle(&img, m.At, 2, c, 5)
	}

	if contours.Len() > 0 {
		pv := contours.pointsVector()
		defer pv.Close()
		gocv.DrawContours(&img, pv, -1, contourColor, 1)
	}

	return img
}

// markHand draws the tracked hand position on the depth view.
func markHand(view *gocv.Mat, hand image.Point) {
	gocv.Circle(view, hand, handMarkerRadius, handMarkerColor, 5)
}

// StampFrameID writes the frame number in the top-left corner of view.
func StampFrameID(view *gocv.Mat, seq uint64) {
	gocv.PutText(view, fmt.Sprintf("Frame %d", seq), frameIDOrigin,
		gocv.FontHersheySimplex, 0.6, handMarkerColor, 1)
}
