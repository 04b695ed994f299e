// Package handseg isolates the tracked hand in a depth frame and extracts its
// contour, convex hull and convexity defects, classifying defects into
// fingertip and valley candidates.
package handseg

import (
	"errors"
	"fmt"
)

// Default tuning values.
const (
	// DefaultTolerance is the half-width of the depth band around the hand.
	DefaultTolerance = 50
	// DefaultBinaryThreshold is the minimum display intensity kept by binarization.
	DefaultBinaryThreshold = 10
	// DefaultMinDefectDepth is the fixed-point (x256) depth a defect must exceed.
	DefaultMinDefectDepth = 1700
	// DefaultDisplayScale maps depth units to 8-bit display intensity.
	DefaultDisplayScale = 0.025
	// DefaultBlurSize is the box filter kernel applied before binarization.
	DefaultBlurSize = 3
)

// DefectDepthScale is the fixed-point scale of Defect.Depth.
const DefectDepthScale = 256

// ErrInvalidParams is returned when tuning parameters are out of range.
var ErrInvalidParams = errors.New("invalid pipeline parameters")

// Params holds the externally tunable pipeline parameters.
type Params struct {
	// Tolerance is the half-width of the inclusive depth band, in depth units.
	Tolerance uint16 `json:"tolerance"`

	// BinaryThreshold is the display intensity at or above which a pixel
	// belongs to the hand silhouette.
	BinaryThreshold uint8 `json:"binary_threshold"`

	// MinDefectDepth is the fixed-point (x256) depth a defect must strictly
	// exceed to be classified.
	MinDefectDepth int `json:"min_defect_depth"`

	// DisplayScale is the linear factor from depth units to intensity.
	DisplayScale float64 `json:"display_scale"`

	// BlurSize is the odd box filter size used before binarization.
	BlurSize int `json:"blur_size"`
}

// DefaultParams returns Params with the tuned default values.
func DefaultParams() Params {
	return Params{
		Tolerance:       DefaultTolerance,
		BinaryThreshold: DefaultBinaryThreshold,
		MinDefectDepth:  DefaultMinDefectDepth,
		DisplayScale:    DefaultDisplayScale,
		BlurSize:        DefaultBlurSize,
	}
}

// Validate reports whether the parameters can drive the pipeline.
func (p Params) Validate() error {
	if p.DisplayScale <= 0 {
		return fmt.Errorf("%w: display scale must be positive, got %v", ErrInvalidParams, p.DisplayScale)
	}
	if p.MinDefectDepth < 0 {
		return fmt.Errorf("%w: min defect depth must be non-negative, got %d", ErrInvalidParams, p.MinDefectDepth)
	}
	if p.BlurSize < 1 || p.BlurSize%2 == 0 {
		return fmt.Errorf("%w: blur size must be a positive odd number, got %d", ErrInvalidParams, p.BlurSize)
	}
	return nil
}

// MinDefectDepthPixels returns the defect threshold in pixel units.
func (p Params) MinDefectDepthPixels() float64 {
	return float64(p.MinDefectDepth) / DefectDepthScale
}
