package handseg

import "github.com/ayusman/handpoint/internal/frame"

// Mask isolates the hand band in place. Every pixel whose depth lies outside
// [trackedDepth-tolerance, trackedDepth+tolerance] gets depth 0 and its color
// sample is overwritten with frame.Red. Pixels inside the band are untouched.
// It returns the number of masked pixels.
//
// The caller decides whether a hand is tracked; Mask always runs.
func Mask(depth frame.DepthMap, color frame.ColorMap, trackedDepth float64, tolerance uint16) int {
	lo := trackedDepth - float64(tolerance)
	hi := trackedDepth + float64(tolerance)

	masked := 0
	for i, d := range depth.Data {
		v := float64(d)
		if v >= lo && v <= hi {
			continue
		}
		depth.Data[i] = 0
		color.Data[i] = frame.Red
		masked++
	}
	return masked
}
