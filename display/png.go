package display

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
)

// Snapshot returns the visible screen as a paletted image.
func (m *Memory) Snapshot() *image.Paletted {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.surface
	pal := make(color.Palette, len(m.palette))
	for i, c := range m.palette {
		pal[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
	}

	img := image.NewPaletted(image.Rect(0, 0, s.Width, s.Height), pal)
	for y := 0; y < s.Height; y++ {
		copy(img.Pix[y*img.Stride:], s.Row(y))
	}
	return img
}

// WritePNG encodes the visible screen as PNG.
func (m *Memory) WritePNG(w io.Writer) error {
	if err := png.Encode(w, m.Snapshot()); err != nil {
		return fmt.Errorf("encode screen snapshot: %w", err)
	}
	return nil
}
