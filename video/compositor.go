package video

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Screen is the part of a display backend the compositor writes to.
type Screen interface {
	// LockScreen grants exclusive write access to the screen buffer.
	LockScreen() (*Surface, error)
	// UnlockScreen releases the surface returned by LockScreen.
	UnlockScreen()
	// CopyRectToScreen copies a w*h block, rows pitch bytes apart, to (x, y).
	CopyRectToScreen(src []byte, pitch, x, y, w, h int)
}

// SubtitleRenderer draws the text timed for frameIndex into dst using the
// palette index key. A key of NoColorKey means no overlay color is available.
type SubtitleRenderer interface {
	Render(dst *Frame, frameIndex int, key ColorKey)
}

// Compositor writes decoded frames to a Screen.
type Compositor struct {
	screen      Screen
	subtitles   SubtitleRenderer
	workarounds WorkaroundTable
	scratch     *Frame
}

// NewCompositor creates a compositor. subtitles may be nil.
func NewCompositor(screen Screen, subtitles SubtitleRenderer, workarounds WorkaroundTable) *Compositor {
	return &Compositor{
		screen:      screen,
		subtitles:   subtitles,
		workarounds: workarounds,
		scratch:     &Frame{},
	}
}

// Composite presents frame on the screen.
//
// In ModeNormal the frame is copied at the origin with its own pitch, after
// the subtitle renderer has drawn into a private copy of it, and any matching
// workaround patches are applied. In ModeHalfHeight the top half of the frame
// is row-doubled onto the locked screen and subtitles are skipped.
func (c *Compositor) Composite(streamID string, frame *Frame, mode ResolutionMode, key ColorKey) error {
	if err := frame.Validate(); err != nil {
		return err
	}

	if mode == ModeHalfHeight {
		return c.blitHalfHeight(frame)
	}

	src := frame
	if c.subtitles != nil {
		c.scratch.CopyFrom(frame)
		c.subtitles.Render(c.scratch, frame.Index, key)
		src = c.scratch
	}
	c.screen.CopyRectToScreen(src.Pixels, src.Pitch, 0, 0, src.Width, src.Height)

	for _, w := range c.workarounds.Match(streamID, frame.Index, mode) {
		c.applyWorkaround(w, frame)
	}
	return nil
}

// blitHalfHeight copies each source row y in [0, h/2) to screen rows 2y and
// 2y+1. Only Width bytes per row are copied so pitch padding never reaches
// the screen.
func (c *Compositor) blitHalfHeight(frame *Frame) error {
	surface, err := c.screen.LockScreen()
	if err != nil {
		return fmt.Errorf("lock screen: %w", err)
	}
	defer c.screen.UnlockScreen()

	for y := 0; y < frame.Height/2; y++ {
		dst := 2 * y
		if dst+1 >= surface.Height {
			break
		}
		row := frame.Row(y)
		copy(surface.Row(dst), row)
		copy(surface.Row(dst+1), row)
	}
	return nil
}

func (c *Compositor) applyWorkaround(w Workaround, frame *Frame) {
	logrus.WithFields(logrus.Fields{
		"function":    "Compositor.applyWorkaround",
		"workaround":  w.Name,
		"stream":      w.StreamID,
		"frame_index": frame.Index,
	}).Debug("Applying known-defect patch")

	for _, r := range w.Rects {
		x := r.X(frame.Width)
		if x < 0 || r.SrcRow >= frame.Height || r.DstRow >= frame.Height {
			logrus.WithFields(logrus.Fields{
				"function":     "Compositor.applyWorkaround",
				"workaround":   w.Name,
				"src_row":      r.SrcRow,
				"dst_row":      r.DstRow,
				"width":        r.Width,
				"frame_width":  frame.Width,
				"frame_height": frame.Height,
			}).Warn("Patch rect outside frame, skipping")
			continue
		}
		offset := r.SrcRow*frame.Pitch + x
		c.screen.CopyRectToScreen(frame.Pixels[offset:], frame.Pitch, x, r.DstRow, r.Width, 1)
	}
}
