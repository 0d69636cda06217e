package video

// ColorKey is a palette index reserved for overlay drawing.
type ColorKey uint8

// NoColorKey means every index in [1,255] is used by the frame. It shares its
// value with BorderIndex, which is never handed out as a key.
const NoColorKey ColorKey = 0

// Reserved reports whether k names a usable overlay index.
func (k ColorKey) Reserved() bool {
	return k != NoColorKey
}

// FindColorKey returns the lowest palette index in [1,255] that no visible
// pixel of frame uses, or NoColorKey when all of them occur. Pitch padding is
// ignored. The result depends on pixel content only.
func FindColorKey(frame *Frame) ColorKey {
	var used [PaletteSize]bool
	for y := 0; y < frame.Height; y++ {
		for _, p := range frame.Row(y) {
			used[p] = true
		}
	}

	// 0 is the border color.
	for i := 1; i < PaletteSize; i++ {
		if !used[i] {
			return ColorKey(i)
		}
	}
	return NoColorKey
}
