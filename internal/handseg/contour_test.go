package handseg

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// newDisplay returns a black 8-bit image with the given rectangles filled.
func newDisplay(t *testing.T, fills ...displayFill) gocv.Mat {
	t.Helper()

	m := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC1)
	data, err := m.DataPtrUint8()
	require.NoError(t, err)

	for _, f := range fills {
		for y := f.rect.Min.Y; y < f.rect.Max.Y; y++ {
			for x := f.rect.Min.X; x < f.rect.Max.X; x++ {
				data[y*640+x] = f.value
			}
		}
	}
	return m
}

type displayFill struct {
	rect  image.Rectangle
	value uint8
}

func TestExtractContours_EmptyMat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	m := gocv.NewMat()
	defer m.Close()

	_, err := ExtractContours(m, DefaultParams())
	assert.True(t, errors.Is(err, ErrEmptyImage))
}

func TestExtractContours_NoForeground(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	m := newDisplay(t)
	defer m.Close()

	set, err := ExtractContours(m, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Hierarchy)
}

func TestExtractContours_Square(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	m := newDisplay(t, displayFill{image.Rect(270, 190, 370, 290), 12})
	defer m.Close()

	set, err := ExtractContours(m, DefaultParams())
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	// Simple chain approximation keeps only the corners.
	assert.Len(t, set.Contours[0], 4)
	assert.Equal(t, -1, set.Hierarchy[0].Parent)
	assert.Equal(t, []int{0}, set.Outer())

	for _, p := range set.Contours[0] {
		assert.True(t, p.In(image.Rect(269, 189, 371, 291)), "corner %v outside square", p)
	}
}

func TestExtractContours_Hierarchy(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	m := newDisplay(t,
		displayFill{image.Rect(200, 140, 440, 340), 20},
		displayFill{image.Rect(260, 200, 380, 280), 0},
	)
	defer m.Close()

	set, err := ExtractContours(m, DefaultParams())
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	require.Len(t, set.Hierarchy, 2)

	outer := set.Outer()
	require.Len(t, outer, 1)
	hole := 1 - outer[0]
	assert.Equal(t, outer[0], set.Hierarchy[hole].Parent)
	assert.Equal(t, hole, set.Hierarchy[outer[0]].FirstChild)
}

func TestExtractContours_ThresholdInclusive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	tests := []struct {
		name  string
		value uint8
		want  int
	}{
		{name: "below threshold", value: DefaultBinaryThreshold - 1, want: 0},
		{name: "at threshold", value: DefaultBinaryThreshold, want: 1},
		{name: "above threshold", value: DefaultBinaryThreshold + 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newDisplay(t, displayFill{image.Rect(100, 100, 200, 200), tt.value})
			defer m.Close()

			set, err := ExtractContours(m, DefaultParams())
			require.NoError(t, err)
			assert.Equal(t, tt.want, set.Len())
		})
	}
}

func TestExtractContours_BlurRemovesSpeckle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	m := newDisplay(t,
		displayFill{image.Rect(100, 100, 200, 200), 20},
		displayFill{image.Rect(400, 400, 401, 401), 40},
	)
	defer m.Close()

	set, err := ExtractContours(m, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len(), "isolated pixel should not survive the box filter")
}
