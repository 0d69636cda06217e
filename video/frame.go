package video

import (
	"fmt"
)

// PaletteSize is the number of entries in an 8-bit palette.
const PaletteSize = 256

// BorderIndex is the palette index reserved for the screen border color.
const BorderIndex = 0

// RGB is a single palette entry.
type RGB struct {
	R uint8 `yaml:"r"`
	G uint8 `yaml:"g"`
	B uint8 `yaml:"b"`
}

// Palette is a full 256-entry color table.
type Palette [PaletteSize]RGB

// PaletteFromBytes builds a palette from packed RGB triples.
func PaletteFromBytes(data []byte) (Palette, error) {
	var p Palette
	if len(data) != PaletteSize*3 {
		return p, fmt.Errorf("palette data must be %d bytes, got %d", PaletteSize*3, len(data))
	}
	for i := range p {
		p[i] = RGB{R: data[i*3], G: data[i*3+1], B: data[i*3+2]}
	}
	return p, nil
}

// Bytes packs the palette as RGB triples.
func (p *Palette) Bytes() []byte {
	data := make([]byte, PaletteSize*3)
	for i, c := range p {
		data[i*3] = c.R
		data[i*3+1] = c.G
		data[i*3+2] = c.B
	}
	return data
}

// ResolutionMode tells the compositor how a decoded frame maps onto the screen.
type ResolutionMode int

const (
	// ModeNormal frames are copied to the screen one to one.
	ModeNormal ResolutionMode = iota
	// ModeHalfHeight frames carry half the nominal rows and are doubled vertically.
	ModeHalfHeight
)

// String returns the mode name used in logs.
func (m ResolutionMode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeHalfHeight:
		return "half-height"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Frame is one decoded 8-bit paletted picture.
//
// The frame returned by a decoder stays owned by that decoder and is only
// valid until the next decode call.
type Frame struct {
	Width   int
	Height  int
	Pitch   int    // Bytes between the start of consecutive rows
	Pixels  []byte // Pitch*Height bytes of palette indices
	Palette Palette
	Index   int // Zero-based position of the frame in its stream
}

// NewFrame allocates a zeroed frame. A pitch smaller than width is raised to width.
func NewFrame(width, height, pitch int) *Frame {
	if pitch < width {
		pitch = width
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pitch:  pitch,
		Pixels: make([]byte, pitch*height),
	}
}

// Row returns the visible bytes of row y, excluding pitch padding.
func (f *Frame) Row(y int) []byte {
	start := y * f.Pitch
	return f.Pixels[start : start+f.Width]
}

// Validate checks that the pixel buffer covers the declared geometry.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("video frame cannot be nil")
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions: %dx%d", f.Width, f.Height)
	}
	if f.Pitch < f.Width {
		return fmt.Errorf("pitch %d smaller than width %d", f.Pitch, f.Width)
	}
	if need := f.Pitch*(f.Height-1) + f.Width; len(f.Pixels) < need {
		return fmt.Errorf("pixel buffer too small: got %d, expected %d", len(f.Pixels), need)
	}
	return nil
}

// CopyFrom makes f an exact copy of src, reusing f's buffer when it is large enough.
func (f *Frame) CopyFrom(src *Frame) {
	if cap(f.Pixels) < len(src.Pixels) {
		f.Pixels = make([]byte, len(src.Pixels))
	}
	f.Pixels = f.Pixels[:len(src.Pixels)]
	copy(f.Pixels, src.Pixels)
	f.Width = src.Width
	f.Height = src.Height
	f.Pitch = src.Pitch
	f.Palette = src.Palette
	f.Index = src.Index
}

// Surface is a locked view of the display's screen buffer.
type Surface struct {
	Width  int
	Height int
	Pitch  int
	Pixels []byte
}

// NewSurface allocates a zeroed surface with pitch equal to width.
func NewSurface(width, height int) *Surface {
	return &Surface{
		Width:  width,
		Height: height,
		Pitch:  width,
		Pixels: make([]byte, width*height),
	}
}

// Row returns the visible bytes of screen row y.
func (s *Surface) Row(y int) []byte {
	start := y * s.Pitch
	return s.Pixels[start : start+s.Width]
}
