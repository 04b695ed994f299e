// Package frame defines the per-tick data handed from a tracking source to the
// hand segmentation pipeline.
package frame

import (
	"errors"
	"fmt"
	"time"
)

// Sensor resolution.
const (
	Width  = 640
	Height = 480
)

// ErrSizeMismatch is returned when a buffer does not match its declared size.
var ErrSizeMismatch = errors.New("buffer size mismatch")

// RGB is a single 8-bit color sample.
type RGB struct {
	R, G, B uint8
}

// Red is the sentinel color written over pixels excluded by the depth mask.
var Red = RGB{R: 255}

// Point3D represents a point with x, y, z coordinates.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// TrackedPoint is the tracking engine's current estimate of the hand position.
// Projective holds pixel coordinates plus depth, RealWorld the same point in
// sensor space. Valid is false whenever no hand is being tracked.
type TrackedPoint struct {
	Projective Point3D `json:"projective"`
	RealWorld  Point3D `json:"real_world"`
	Valid      bool    `json:"valid"`
}

// Depth returns the tracked depth used for the hand band.
func (p TrackedPoint) Depth() float64 {
	return p.RealWorld.Z
}

// DepthMap is a row-major grid of 16-bit depth samples.
type DepthMap struct {
	Width  int
	Height int
	Data   []uint16
}

// NewDepthMap allocates a zeroed depth map.
func NewDepthMap(width, height int) DepthMap {
	return DepthMap{Width: width, Height: height, Data: make([]uint16, width*height)}
}

// At returns the depth sample at (x, y).
func (d DepthMap) At(x, y int) uint16 {
	return d.Data[y*d.Width+x]
}

// Set stores a depth sample at (x, y).
func (d DepthMap) Set(x, y int, v uint16) {
	d.Data[y*d.Width+x] = v
}

// Clone returns a deep copy.
func (d DepthMap) Clone() DepthMap {
	c := d
	c.Data = append([]uint16(nil), d.Data...)
	return c
}

// ColorMap is a row-major grid of interleaved RGB samples.
type ColorMap struct {
	Width  int
	Height int
	Data   []RGB
}

// NewColorMap allocates a black color map.
func NewColorMap(width, height int) ColorMap {
	return ColorMap{Width: width, Height: height, Data: make([]RGB, width*height)}
}

// At returns the color sample at (x, y).
func (c ColorMap) At(x, y int) RGB {
	return c.Data[y*c.Width+x]
}

// Set stores a color sample at (x, y).
func (c ColorMap) Set(x, y int, v RGB) {
	c.Data[y*c.Width+x] = v
}

// Clone returns a deep copy.
func (c ColorMap) Clone() ColorMap {
	out := c
	out.Data = append([]RGB(nil), c.Data...)
	return out
}

// Frame is one tick of sensor output: depth, color and the tracked hand.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Depth     DepthMap
	Color     ColorMap
	Hand      TrackedPoint
}

// New allocates a frame with zeroed buffers of the given size.
func New(width, height int) Frame {
	return Frame{
		Depth: NewDepthMap(width, height),
		Color: NewColorMap(width, height),
	}
}

// Clone returns a deep copy so the caller can mutate buffers freely.
func (f Frame) Clone() Frame {
	c := f
	c.Depth = f.Depth.Clone()
	c.Color = f.Color.Clone()
	return c
}

// Validate checks that depth and color buffers agree on size.
func (f Frame) Validate() error {
	if f.Depth.Width <= 0 || f.Depth.Height <= 0 {
		return fmt.Errorf("%w: empty depth map", ErrSizeMismatch)
	}
	if len(f.Depth.Data) != f.Depth.Width*f.Depth.Height {
		return fmt.Errorf("%w: depth has %d samples, want %d",
			ErrSizeMismatch, len(f.Depth.Data), f.Depth.Width*f.Depth.Height)
	}
	if f.Color.Width != f.Depth.Width || f.Color.Height != f.Depth.Height {
		return fmt.Errorf("%w: color %dx%d, depth %dx%d",
			ErrSizeMismatch, f.Color.Width, f.Color.Height, f.Depth.Width, f.Depth.Height)
	}
	if len(f.Color.Data) != f.Color.Width*f.Color.Height {
		return fmt.Errorf("%w: color has %d samples, want %d",
			ErrSizeMismatch, len(f.Color.Data), f.Color.Width*f.Color.Height)
	}
	return nil
}
