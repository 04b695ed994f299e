package handseg

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/ayusman/handpoint/internal/frame"
)

// DepthToDisplay converts a depth map into an 8-bit intensity image using a
// linear scale. Values are rounded and saturated to [0, 255], so the mapping
// is monotonic. The caller is responsible for closing the returned Mat.
func DepthToDisplay(depth frame.DepthMap, scale float64) (gocv.Mat, error) {
	src := gocv.NewMatWithSize(depth.Height, depth.Width, gocv.MatTypeCV16UC1)
	defer src.Close()

	data, err := src.DataPtrUint16()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("depth buffer: %w", err)
	}
	copy(data, depth.Data)

	dst := gocv.NewMat()
	src.ConvertToWithParams(&dst, gocv.MatTypeCV8UC1, float32(scale), 0)
	return dst, nil
}

// ColorToImage converts an interleaved RGB buffer into a 3-channel image.
// The buffer is first split into independent red, green and blue planes and
// then merged in OpenCV's BGR plane order, so every component lands in its
// matching channel. The caller is responsible for closing the returned Mat.
func ColorToImage(color frame.ColorMap) (gocv.Mat, error) {
	planes := make([]gocv.Mat, 3)
	for i := range planes {
		planes[i] = gocv.NewMatWithSize(color.Height, color.Width, gocv.MatTypeCV8UC1)
		defer planes[i].Close()
	}

	blue, err := planes[0].DataPtrUint8()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("blue plane: %w", err)
	}
	green, err := planes[1].DataPtrUint8()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("green plane: %w", err)
	}
	red, err := planes[2].DataPtrUint8()
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("red plane: %w", err)
	}

	for i, px := range color.Data {
		blue[i] = px.B
		green[i] = px.G
		red[i] = px.R
	}

	dst := gocv.NewMat()
	gocv.Merge(planes, &dst)
	return dst, nil
}
