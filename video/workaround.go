package video

import (
	"fmt"
)

// Anchor selects which frame edge a PatchRect is measured from.
type Anchor string

const (
	// AnchorLeft rects start at x = 0.
	AnchorLeft Anchor = "left"
	// AnchorRight rects end at the right edge of the frame.
	AnchorRight Anchor = "right"
)

// PatchRect copies Width pixels of source row SrcRow onto screen row DstRow.
type PatchRect struct {
	SrcRow int    `yaml:"src_row"`
	DstRow int    `yaml:"dst_row"`
	Width  int    `yaml:"width"`
	Anchor Anchor `yaml:"anchor"`
}

// X returns the left column of the rect for a frame of the given width.
func (r PatchRect) X(frameWidth int) int {
	if r.Anchor == AnchorRight {
		return frameWidth - r.Width
	}
	return 0
}

// Workaround hides a known encoding defect in one stream by re-copying rows
// from neighbouring lines for an inclusive range of frames.
type Workaround struct {
	Name       string      `yaml:"name"`
	StreamID   string      `yaml:"stream"`
	FirstFrame int         `yaml:"first_frame"`
	LastFrame  int         `yaml:"last_frame"`
	Rects      []PatchRect `yaml:"rects"`
}

// IntroStreamID names the first introductory movie, whose frames 956-1038
// carry a one-line encoder glitch.
const IntroStreamID = "209_1M.SMK"

// DefaultWorkarounds returns the built-in defect table.
func DefaultWorkarounds() WorkaroundTable {
	return WorkaroundTable{
		{
			Name:       "intro-glitch",
			StreamID:   IntroStreamID,
			FirstFrame: 956,
			LastFrame:  1038,
			Rects: []PatchRect{
				{SrcRow: 123, DstRow: 124, Width: 188, Anchor: AnchorRight},
				{SrcRow: 126, DstRow: 125, Width: 188, Anchor: AnchorRight},
				{SrcRow: 125, DstRow: 126, Width: 64, Anchor: AnchorLeft},
				{SrcRow: 128, DstRow: 127, Width: 64, Anchor: AnchorLeft},
			},
		},
	}
}

// Applies reports whether w patches the given frame. Patches never apply to
// half-height streams and the stream identifier must match exactly.
func (w Workaround) Applies(streamID string, frameIndex int, mode ResolutionMode) bool {
	return mode == ModeNormal &&
		streamID == w.StreamID &&
		frameIndex >= w.FirstFrame &&
		frameIndex <= w.LastFrame
}

// Validate checks the entry for values that can never match or draw.
func (w Workaround) Validate() error {
	if w.StreamID == "" {
		return fmt.Errorf("workaround %q: stream identifier is required", w.Name)
	}
	if w.FirstFrame < 0 || w.LastFrame < w.FirstFrame {
		return fmt.Errorf("workaround %q: invalid frame range [%d,%d]", w.Name, w.FirstFrame, w.LastFrame)
	}
	if len(w.Rects) == 0 {
		return fmt.Errorf("workaround %q: no rects", w.Name)
	}
	for i, r := range w.Rects {
		if r.Width <= 0 || r.SrcRow < 0 || r.DstRow < 0 {
			return fmt.Errorf("workaround %q: rect %d has invalid geometry", w.Name, i)
		}
		if r.Anchor != AnchorLeft && r.Anchor != AnchorRight {
			return fmt.Errorf("workaround %q: rect %d has unknown anchor %q", w.Name, i, r.Anchor)
		}
	}
	return nil
}

// WorkaroundTable is an ordered list of defect patches.
type WorkaroundTable []Workaround

// Match returns the entries that apply to the frame, in table order.
func (t WorkaroundTable) Match(streamID string, frameIndex int, mode ResolutionMode) []Workaround {
	var matched []Workaround
	for _, w := range t {
		if w.Applies(streamID, frameIndex, mode) {
			matched = append(matched, w)
		}
	}
	return matched
}
