package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// createTestFrame builds a frame whose visible pixels cycle through values.
func createTestFrame(width, height, pitch int, values []byte) *Frame {
	frame := NewFrame(width, height, pitch)
	i := 0
	for y := 0; y < height; y++ {
		row := frame.Row(y)
		for x := range row {
			row[x] = values[i%len(values)]
			i++
		}
	}
	return frame
}

func allIndices() []byte {
	values := make([]byte, PaletteSize)
	for i := range values {
		values[i] = byte(i)
	}
	return values
}

func TestFindColorKey(t *testing.T) {
	tests := []struct {
		name     string
		values   []byte
		expected ColorKey
	}{
		{"gap at three", []byte{0, 1, 2, 4, 5}, 3},
		{"only border used", []byte{0}, 1},
		{"index one used", []byte{1}, 2},
		{"high indices only", []byte{200, 255}, 1},
		{"all used", allIndices(), NoColorKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := createTestFrame(16, 16, 16, tt.values)
			assert.Equal(t, tt.expected, FindColorKey(frame))
		})
	}
}

func TestFindColorKey_OnlyIndexZeroFree(t *testing.T) {
	values := allIndices()[1:]
	frame := createTestFrame(16, 16, 16, values)

	key := FindColorKey(frame)

	assert.Equal(t, NoColorKey, key)
	assert.False(t, key.Reserved())
}

func TestFindColorKey_IgnoresPitchPadding(t *testing.T) {
	frame := createTestFrame(4, 4, 8, []byte{0, 1, 2, 4})
	for y := 0; y < frame.Height; y++ {
		// Index 3 only lives in the padding bytes.
		for x := frame.Width; x < frame.Pitch; x++ {
			frame.Pixels[y*frame.Pitch+x] = 3
		}
	}

	assert.Equal(t, ColorKey(3), FindColorKey(frame))
}

func TestFindColorKey_IndependentOfFrameIndex(t *testing.T) {
	a := createTestFrame(8, 8, 8, []byte{0, 1, 3})
	b := createTestFrame(8, 8, 8, []byte{0, 1, 3})
	a.Index = 10
	b.Index = 5000

	assert.Equal(t, FindColorKey(a), FindColorKey(b))
	assert.Equal(t, ColorKey(2), FindColorKey(a))
}
