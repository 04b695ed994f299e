package capture

import (
	"image"

	"github.com/ayusman/handpoint/internal/frame"
)

// Synthetic scene depths.
const (
	// SquareDepth is the depth of the block in SquareScene.
	SquareDepth = 500
	// HandDepth is the depth of the hand in OpenHandScene.
	HandDepth = 800
	// BackgroundDepth is the wall behind the hand in OpenHandScene.
	BackgroundDepth = 2000
)

// OpenHandFingers lists the finger rectangles of OpenHandScene, thumb side
// first. Finger lengths differ so every fingertip sits on the hull.
var OpenHandFingers = []image.Rectangle{
	image.Rect(244, 220, 260, 261),
	image.Rect(278, 190, 294, 261),
	image.Rect(312, 180, 328, 261),
	image.Rect(346, 190, 362, 261),
	image.Rect(380, 230, 396, 261),
}

// OpenHandPalm is the palm rectangle of OpenHandScene. Its sides are flush
// with the outer fingers.
var OpenHandPalm = image.Rect(244, 260, 396, 380)

// fillDepth sets every sample of r to v.
func fillDepth(d frame.DepthMap, r image.Rectangle, v uint16) {
	r = r.Intersect(image.Rect(0, 0, d.Width, d.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			d.Set(x, y, v)
		}
	}
}

// fillColor sets every sample of r to v.
func fillColor(c frame.ColorMap, r image.Rectangle, v frame.RGB) {
	r = r.Intersect(image.Rect(0, 0, c.Width, c.Height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c.Set(x, y, v)
		}
	}
}

// trackedAt returns a valid tracked point at pixel (x, y) and the given depth.
func trackedAt(x, y, z float64) frame.TrackedPoint {
	return frame.TrackedPoint{
		Projective: frame.Point3D{X: x, Y: y, Z: z},
		RealWorld:  frame.Point3D{X: x - frame.Width/2, Y: frame.Height/2 - y, Z: z},
		Valid:      true,
	}
}

// SquareScene returns a 640x480 frame with a 100x100 block of depth 500
// centred at (320, 240) on an empty background, tracked at the block.
func SquareScene() frame.Frame {
	f := frame.New(frame.Width, frame.Height)
	fillColor(f.Color, image.Rect(0, 0, frame.Width, frame.Height), frame.RGB{R: 40, G: 90, B: 160})

	block := image.Rect(270, 190, 370, 290)
	fillDepth(f.Depth, block, SquareDepth)
	fillColor(f.Color, block, frame.RGB{R: 220, G: 180, B: 150})

	f.Hand = trackedAt(320, 240, SquareDepth)
	return f
}

// OpenHandScene returns a 640x480 frame with an open hand (palm and five
// straight fingers) at depth 800 in front of a wall at depth 2000.
func OpenHandScene() frame.Frame {
	f := frame.New(frame.Width, frame.Height)
	all := image.Rect(0, 0, frame.Width, frame.Height)
	fillDepth(f.Depth, all, BackgroundDepth)
	fillColor(f.Color, all, frame.RGB{R: 90, G: 90, B: 90})

	skin := frame.RGB{R: 224, G: 172, B: 105}
	fillDepth(f.Depth, OpenHandPalm, HandDepth)
	fillColor(f.Color, OpenHandPalm, skin)
	for _, r := range OpenHandFingers {
		fillDepth(f.Depth, r, HandDepth)
		fillColor(f.Color, r, skin)
	}

	c := OpenHandPalm.Min.Add(OpenHandPalm.Size().Div(2))
	f.Hand = trackedAt(float64(c.X), float64(c.Y), HandDepth)
	return f
}

// NoHandScene returns OpenHandScene with tracking lost.
func NoHandScene() frame.Frame {
	f := OpenHandScene()
	f.Hand.Valid = false
	return f
}

// HandSequence returns n frames of OpenHandScene where tracking is lost on
// the frames listed in lost.
func HandSequence(n int, lost ...int) []frame.Frame {
	lostSet := make(map[int]bool, len(lost))
	for _, i := range lost {
		lostSet[i] = true
	}

	base := OpenHandScene()
	frames := make([]frame.Frame, n)
	for i := range frames {
		frames[i] = base.Clone()
		frames[i].Hand.Valid = !lostSet[i]
	}
	return frames
}
