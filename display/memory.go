// Package display provides an in-memory paletted screen for headless movie
// playback.
//
// Memory implements the screen operations the player needs (locking,
// rectangle blits, palette upload, presentation and redraw requests) over a
// plain byte buffer, and can export what is currently shown as a PNG image.
package display

import (
	"errors"
	"sync"

	"github.com/opd-ai/palmovie/video"
	"github.com/sirupsen/logrus"
)

// ErrScreenLocked is returned by LockScreen while the screen is already locked.
var ErrScreenLocked = errors.New("screen already locked")

// ErrInvalidSize indicates a screen with a non-positive dimension.
var ErrInvalidSize = errors.New("invalid screen size")

// Memory is a paletted screen backed by memory. It is safe for concurrent use,
// although the surface returned by LockScreen must only be written by the
// goroutine holding the lock.
type Memory struct {
	mu sync.Mutex

	surface *video.Surface
	palette video.Palette
	base    video.Palette
	locked  bool

	updates        int
	redraws        int
	paletteUploads int
	restores       int
}

// NewMemory creates a width*height screen with an all-black palette.
func NewMemory(width, height int) (*Memory, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	return &Memory{surface: video.NewSurface(width, height)}, nil
}

// Size returns the screen dimensions.
func (m *Memory) Size() (width, height int) {
	return m.surface.Width, m.surface.Height
}

// LockScreen grants direct access to the screen buffer.
func (m *Memory) LockScreen() (*video.Surface, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locked {
		return nil, ErrScreenLocked
	}
	m.locked = true
	return m.surface, nil
}

// UnlockScreen releases the surface returned by LockScreen.
func (m *Memory) UnlockScreen() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.locked {
		logrus.WithFields(logrus.Fields{
			"function": "Memory.UnlockScreen",
		}).Warn("Unlock without matching lock")
	}
	m.locked = false
}

// CopyRectToScreen copies a w*h block whose rows are pitch bytes apart to
// (x, y). Parts falling outside the screen are clipped.
func (m *Memory) CopyRectToScreen(src []byte, pitch, x, y, w, h int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.surface
	srcX, srcY := 0, 0
	if x < 0 {
		srcX, w, x = -x, w+x, 0
	}
	if y < 0 {
		srcY, h, y = -y, h+y, 0
	}
	if x+w > s.Width {
		w = s.Width - x
	}
	if y+h > s.Height {
		h = s.Height - y
	}
	if w <= 0 || h <= 0 {
		return
	}

	for row := 0; row < h; row++ {
		start := (srcY+row)*pitch + srcX
		if start >= len(src) {
			break
		}
		end := start + w
		if end > len(src) {
			end = len(src)
		}
		dst := (y+row)*s.Pitch + x
		copy(s.Pixels[dst:dst+w], src[start:end])
	}
}

// SetPalette replaces len(colors) entries starting at index start.
func (m *Memory) SetPalette(colors []video.RGB, start int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range colors {
		idx := start + i
		if idx < 0 || idx >= video.PaletteSize {
			continue
		}
		m.palette[idx] = c
	}
	m.paletteUploads++
}

// UpdateScreen presents the current buffer.
func (m *Memory) UpdateScreen() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
}

// RequestFullRedraw marks the whole screen dirty for the engine that owns it.
func (m *Memory) RequestFullRedraw() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redraws++

	logrus.WithFields(logrus.Fields{
		"function": "Memory.RequestFullRedraw",
		"redraws":  m.redraws,
	}).Debug("Full redraw requested")
}

// SetBasePalette sets the palette RestorePalette returns to.
func (m *Memory) SetBasePalette(p video.Palette) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.base = p
	m.palette = p
}

// RestorePalette reinstates the base palette.
func (m *Memory) RestorePalette() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.palette = m.base
	m.restores++
}

// Palette returns the palette currently in effect.
func (m *Memory) Palette() video.Palette {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.palette
}

// Pixel returns the palette index shown at (x, y).
func (m *Memory) Pixel(x, y int) byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.surface.Pixels[y*m.surface.Pitch+x]
}

// Stats reports how often each presentation operation ran.
type Stats struct {
	Updates        int
	Redraws        int
	PaletteUploads int
	Restores       int
}

// Stats returns the operation counters.
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Updates:        m.updates,
		Redraws:        m.redraws,
		PaletteUploads: m.paletteUploads,
		Restores:       m.restores,
	}
}
