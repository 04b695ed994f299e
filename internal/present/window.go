package present

import (
	"errors"

	"gocv.io/x/gocv"
)

// Window titles.
const (
	TitleOverlay = "Hull demo"
	TitleColor   = "RGB"
	TitleDepth   = "Depth"
)

// DefaultKeyDelay is how long Present waits for a key, in milliseconds.
const DefaultKeyDelay = 33

// Window shows the overlay, color and depth images in three highgui
// windows. It must be used from the thread that created it.
type Window struct {
	overlay *gocv.Window
	color   *gocv.Window
	depth   *gocv.Window
	blank   gocv.Mat
	delay   int
}

// NewWindow opens the three preview windows. A non-positive delay selects
// DefaultKeyDelay.
func NewWindow(delay int) *Window {
	if delay <= 0 {
		delay = DefaultKeyDelay
	}
	return &Window{
		overlay: gocv.NewWindow(TitleOverlay),
		color:   gocv.NewWindow(TitleColor),
		depth:   gocv.NewWindow(TitleDepth),
		blank:   gocv.NewMat(),
		delay:   delay,
	}
}

// Present shows the images and waits up to the key delay for input.
func (w *Window) Present(img Images) (Command, error) {
	w.overlay.IMShow(img.Overlay)
	w.color.IMShow(img.ColorView)

	if img.ShowDepth {
		w.depth.IMShow(img.DepthView)
	} else {
		if w.blank.Rows() != img.DepthView.Rows() || w.blank.Cols() != img.DepthView.Cols() {
			w.blank.Close()
			w.blank = gocv.NewMatWithSize(img.DepthView.Rows(), img.DepthView.Cols(), gocv.MatTypeCV8UC1)
		}
		w.depth.IMShow(w.blank)
	}

	return CommandForKey(w.overlay.WaitKey(w.delay)), nil
}

// Close destroys the windows.
func (w *Window) Close() error {
	w.blank.Close()
	return errors.Join(w.overlay.Close(), w.color.Close(), w.depth.Close())
}
