package handseg

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handpoint/internal/frame"
)

func TestMask_Band(t *testing.T) {
	tests := []struct {
		name       string
		depth      uint16
		tracked    float64
		wantMasked bool
	}{
		{name: "at tracked depth", depth: 500, tracked: 500},
		{name: "lower edge inclusive", depth: 450, tracked: 500},
		{name: "upper edge inclusive", depth: 550, tracked: 500},
		{name: "just below band", depth: 449, tracked: 500, wantMasked: true},
		{name: "just above band", depth: 551, tracked: 500, wantMasked: true},
		{name: "zero depth far from hand", depth: 0, tracked: 500, wantMasked: true},
		{name: "band below zero does not wrap", depth: 0, tracked: 20},
		{name: "fractional tracked depth", depth: 551, tracked: 500.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			depth := frame.NewDepthMap(1, 1)
			color := frame.NewColorMap(1, 1)
			depth.Data[0] = tt.depth
			color.Data[0] = frame.RGB{R: 10, G: 20, B: 30}

			n := Mask(depth, color, tt.tracked, DefaultTolerance)

			if tt.wantMasked {
				assert.Equal(t, 1, n)
				assert.Equal(t, uint16(0), depth.Data[0])
				assert.Equal(t, frame.Red, color.Data[0])
				return
			}
			assert.Equal(t, 0, n)
			assert.Equal(t, tt.depth, depth.Data[0])
			assert.Equal(t, frame.RGB{R: 10, G: 20, B: 30}, color.Data[0])
		})
	}
}

func TestMask_RandomFrames(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 20; iter++ {
		depth := frame.NewDepthMap(64, 48)
		color := frame.NewColorMap(64, 48)
		for i := range depth.Data {
			depth.Data[i] = uint16(rng.Intn(2000))
			color.Data[i] = frame.RGB{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256))}
		}
		z := float64(rng.Intn(2000))
		origDepth := depth.Clone()
		origColor := color.Clone()

		Mask(depth, color, z, DefaultTolerance)

		for i, d := range origDepth.Data {
			inside := float64(d) >= z-DefaultTolerance && float64(d) <= z+DefaultTolerance
			if inside {
				require.Equal(t, d, depth.Data[i], "pixel %d inside band changed", i)
				require.Equal(t, origColor.Data[i], color.Data[i], "pixel %d color inside band changed", i)
				continue
			}
			require.Equal(t, uint16(0), depth.Data[i], "pixel %d outside band kept", i)
			require.Equal(t, frame.Red, color.Data[i], "pixel %d outside band not red", i)
		}
	}
}

func TestMask_SquareScene(t *testing.T) {
	f := frame.New(frame.Width, frame.Height)
	for y := 190; y < 290; y++ {
		for x := 270; x < 370; x++ {
			f.Depth.Set(x, y, 500)
		}
	}

	n := Mask(f.Depth, f.Color, 500, DefaultTolerance)

	assert.Equal(t, frame.Width*frame.Height-100*100, n)
	assert.Equal(t, uint16(500), f.Depth.At(320, 240))
	assert.Equal(t, uint16(0), f.Depth.At(0, 0))
	assert.Equal(t, frame.Red, f.Color.At(0, 0))
	assert.Equal(t, frame.RGB{}, f.Color.At(320, 240))
}
