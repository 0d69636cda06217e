package video

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rectCall struct {
	x, y, w, h int
	rows       [][]byte
}

// recordingScreen is an in-memory Screen that remembers every copy.
type recordingScreen struct {
	surface  *Surface
	copies   []rectCall
	locks    int
	unlocks  int
	lockFail bool
}

func newRecordingScreen(width, height int) *recordingScreen {
	return &recordingScreen{surface: NewSurface(width, height)}
}

func (s *recordingScreen) LockScreen() (*Surface, error) {
	if s.lockFail {
		return nil, errors.New("locked elsewhere")
	}
	s.locks++
	return s.surface, nil
}

func (s *recordingScreen) UnlockScreen() { s.unlocks++ }

func (s *recordingScreen) CopyRectToScreen(src []byte, pitch, x, y, w, h int) {
	call := rectCall{x: x, y: y, w: w, h: h}
	for row := 0; row < h; row++ {
		line := append([]byte(nil), src[row*pitch:row*pitch+w]...)
		call.rows = append(call.rows, line)
		copy(s.surface.Pixels[(y+row)*s.surface.Pitch+x:], line)
	}
	s.copies = append(s.copies, call)
}

type recordingSubtitles struct {
	calls []ColorKey
	index []int
}

func (r *recordingSubtitles) Render(dst *Frame, frameIndex int, key ColorKey) {
	r.calls = append(r.calls, key)
	r.index = append(r.index, frameIndex)
	if key.Reserved() {
		dst.Row(dst.Height - 1)[0] = byte(key)
	}
}

func TestCompositor_NormalModeCopiesWholeFrame(t *testing.T) {
	screen := newRecordingScreen(8, 4)
	comp := NewCompositor(screen, nil, nil)
	frame := createTestFrame(8, 4, 8, []byte{1, 2, 3})

	require.NoError(t, comp.Composite("movie.pmv", frame, ModeNormal, NoColorKey))

	require.Len(t, screen.copies, 1)
	call := screen.copies[0]
	assert.Equal(t, rectCall{x: 0, y: 0, w: 8, h: 4, rows: call.rows}, call)
	assert.Equal(t, frame.Pixels, screen.surface.Pixels)
	assert.Zero(t, screen.locks)
}

func TestCompositor_SubtitlesDrawIntoPrivateCopy(t *testing.T) {
	screen := newRecordingScreen(8, 4)
	subs := &recordingSubtitles{}
	comp := NewCompositor(screen, subs, nil)
	frame := createTestFrame(8, 4, 8, []byte{1, 2})
	frame.Index = 42
	original := append([]byte(nil), frame.Pixels...)

	require.NoError(t, comp.Composite("movie.pmv", frame, ModeNormal, ColorKey(7)))

	assert.Equal(t, []ColorKey{7}, subs.calls)
	assert.Equal(t, []int{42}, subs.index)
	assert.Equal(t, byte(7), screen.surface.Row(3)[0], "glyph pixel reaches the screen")
	assert.Equal(t, original, frame.Pixels, "decoder frame must stay untouched")
}

func TestCompositor_SubtitlesReceiveZeroWhenNoKey(t *testing.T) {
	screen := newRecordingScreen(8, 4)
	subs := &recordingSubtitles{}
	comp := NewCompositor(screen, subs, nil)

	require.NoError(t, comp.Composite("movie.pmv", createTestFrame(8, 4, 8, []byte{1}), ModeNormal, NoColorKey))

	assert.Equal(t, []ColorKey{NoColorKey}, subs.calls)
}

func TestCompositor_HalfHeightDoublesRows(t *testing.T) {
	const width, height, pitch = 6, 8, 10
	screen := newRecordingScreen(width, height)
	subs := &recordingSubtitles{}
	comp := NewCompositor(screen, subs, DefaultWorkarounds())
	frame := NewFrame(width, height, pitch)
	for y := 0; y < height; y++ {
		for x := 0; x < pitch; x++ {
			frame.Pixels[y*pitch+x] = byte(y*16 + x)
		}
	}

	require.NoError(t, comp.Composite(IntroStreamID, frame, ModeHalfHeight, ColorKey(9)))

	for y := 0; y < height/2; y++ {
		assert.Equal(t, frame.Row(y), screen.surface.Row(2*y), "row %d", 2*y)
		assert.Equal(t, frame.Row(y), screen.surface.Row(2*y+1), "row %d", 2*y+1)
	}
	assert.Equal(t, 1, screen.locks)
	assert.Equal(t, 1, screen.unlocks)
	assert.Empty(t, screen.copies)
	assert.Empty(t, subs.calls, "no subtitles for half-height streams")
}

func TestCompositor_HalfHeightCopiesOnlyWidthBytes(t *testing.T) {
	screen := &recordingScreen{surface: &Surface{Width: 4, Height: 4, Pitch: 8, Pixels: make([]byte, 32)}}
	for i := range screen.surface.Pixels {
		screen.surface.Pixels[i] = 0xEE
	}
	comp := NewCompositor(screen, nil, nil)
	frame := createTestFrame(4, 4, 8, []byte{1})
	for y := 0; y < 4; y++ {
		for x := 4; x < 8; x++ {
			frame.Pixels[y*8+x] = 0x55
		}
	}

	require.NoError(t, comp.Composite("movie.pmv", frame, ModeHalfHeight, NoColorKey))

	for y := 0; y < 4; y++ {
		assert.Equal(t, []byte{1, 1, 1, 1}, screen.surface.Pixels[y*8:y*8+4])
		assert.Equal(t, []byte{0xEE, 0xEE, 0xEE, 0xEE}, screen.surface.Pixels[y*8+4:y*8+8])
	}
}

func TestCompositor_HalfHeightLockFailure(t *testing.T) {
	screen := newRecordingScreen(4, 4)
	screen.lockFail = true
	comp := NewCompositor(screen, nil, nil)

	err := comp.Composite("movie.pmv", createTestFrame(4, 4, 4, []byte{1}), ModeHalfHeight, NoColorKey)

	assert.Error(t, err)
	assert.Zero(t, screen.unlocks)
}

func TestCompositor_RejectsInvalidFrame(t *testing.T) {
	comp := NewCompositor(newRecordingScreen(4, 4), nil, nil)

	err := comp.Composite("movie.pmv", &Frame{Width: 4, Height: 4, Pitch: 4}, ModeNormal, NoColorKey)

	assert.Error(t, err)
}

func introFrame(index int) *Frame {
	frame := NewFrame(640, 400, 640)
	for y := 0; y < frame.Height; y++ {
		row := frame.Row(y)
		for x := range row {
			row[x] = byte(y)
		}
	}
	frame.Index = index
	return frame
}

func TestCompositor_IntroWorkaroundWindow(t *testing.T) {
	tests := []struct {
		name     string
		stream   string
		index    int
		mode     ResolutionMode
		expected bool
	}{
		{"before window", IntroStreamID, 955, ModeNormal, false},
		{"first frame", IntroStreamID, 956, ModeNormal, true},
		{"inside window", IntroStreamID, 1000, ModeNormal, true},
		{"last frame", IntroStreamID, 1038, ModeNormal, true},
		{"after window", IntroStreamID, 1039, ModeNormal, false},
		{"other stream", "209_2M.SMK", 1000, ModeNormal, false},
		{"case differs", "209_1m.smk", 1000, ModeNormal, false},
		{"half height", IntroStreamID, 1000, ModeHalfHeight, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			screen := newRecordingScreen(640, 400)
			comp := NewCompositor(screen, nil, DefaultWorkarounds())

			require.NoError(t, comp.Composite(tt.stream, introFrame(tt.index), tt.mode, NoColorKey))

			patched := 0
			for _, c := range screen.copies {
				if c.h == 1 {
					patched++
				}
			}
			if tt.expected {
				assert.Equal(t, 4, patched)
			} else {
				assert.Zero(t, patched)
			}
		})
	}
}

func TestCompositor_IntroWorkaroundRects(t *testing.T) {
	screen := newRecordingScreen(640, 400)
	comp := NewCompositor(screen, nil, DefaultWorkarounds())

	require.NoError(t, comp.Composite(IntroStreamID, introFrame(990), ModeNormal, NoColorKey))

	require.Len(t, screen.copies, 5)
	patches := screen.copies[1:]
	expected := []struct{ x, y, w, srcRow int }{
		{452, 124, 188, 123},
		{452, 125, 188, 126},
		{0, 126, 64, 125},
		{0, 127, 64, 128},
	}
	for i, e := range expected {
		assert.Equal(t, e.x, patches[i].x)
		assert.Equal(t, e.y, patches[i].y)
		assert.Equal(t, e.w, patches[i].w)
		assert.Equal(t, 1, patches[i].h)
		assert.Equal(t, byte(e.srcRow), patches[i].rows[0][0])
	}
	assert.Equal(t, byte(123), screen.surface.Row(124)[639])
	assert.Equal(t, byte(124), screen.surface.Row(124)[0], "left side of row 124 untouched")
	assert.Equal(t, byte(128), screen.surface.Row(127)[0])
}

func TestCompositor_SkipsRectsOutsideFrame(t *testing.T) {
	screen := newRecordingScreen(100, 50)
	table := WorkaroundTable{{
		Name: "small", StreamID: "x", FirstFrame: 0, LastFrame: 0,
		Rects: []PatchRect{
			{SrcRow: 10, DstRow: 60, Width: 8, Anchor: AnchorLeft},
			{SrcRow: 10, DstRow: 11, Width: 200, Anchor: AnchorRight},
			{SrcRow: 10, DstRow: 11, Width: 8, Anchor: AnchorLeft},
		},
	}}
	comp := NewCompositor(screen, nil, table)

	require.NoError(t, comp.Composite("x", createTestFrame(100, 50, 100, []byte{1}), ModeNormal, NoColorKey))

	assert.Len(t, screen.copies, 2)
}
