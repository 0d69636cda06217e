package player

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opd-ai/palmovie/input"
	"github.com/opd-ai/palmovie/video"
)

// Flags control a single Play call.
type Flags uint32

const (
	// FlagDuckMusic silences music for the session.
	FlagDuckMusic Flags = 1 << 0
	// FlagTolerateMissing makes a load failure return without error.
	FlagTolerateMissing Flags = 1 << 1
)

// Has reports whether every bit of f2 is set in f.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// String lists the set flags for logs.
func (f Flags) String() string {
	var names []string
	if f.Has(FlagDuckMusic) {
		names = append(names, "duck-music")
	}
	if f.Has(FlagTolerateMissing) {
		names = append(names, "tolerate-missing")
	}
	if rest := f &^ (FlagDuckMusic | FlagTolerateMissing); rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint32(rest)))
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// State is the lifecycle position of the player.
type State int

const (
	// StateIdle means no session is active.
	StateIdle State = iota
	// StateLoading means the stream is being opened.
	StateLoading
	// StatePlaying means the presentation loop is running.
	StatePlaying
	// StateFinished means the stream played to its end.
	StateFinished
	// StateCancelled means the user pressed Escape or the host quit.
	StateCancelled
	// StateFailed means the stream could not be loaded or decoded.
	StateFailed
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether s ends a session.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateCancelled || s == StateFailed
}

// Display is the presentation backend.
type Display interface {
	video.Screen
	// SetPalette uploads len(colors) entries starting at index start.
	SetPalette(colors []video.RGB, start int)
	// UpdateScreen presents the screen buffer.
	UpdateScreen()
	// RequestFullRedraw asks the owner of the screen to repaint everything.
	RequestFullRedraw()
	// RestorePalette reinstates the palette in effect before playback.
	RestorePalette()
}

// Input is the event source polled between frames.
type Input interface {
	PollEvent() (input.Event, bool)
}

// Mixer is the music volume control.
type Mixer interface {
	MusicVolume() int
	SetMusicVolume(volume int)
	IsMusicMuted() bool
}

// Subtitles renders timed text for the loaded stream.
type Subtitles interface {
	video.SubtitleRenderer
	// Load selects the timing table for streamID.
	Load(streamID string) error
}

// FrameSource decodes one stream frame by frame.
type FrameSource interface {
	LoadStream(path string) error
	Start()
	DecodeNextFrame() (*video.Frame, error)
	EndOfVideo() bool
	NeedsUpdate() bool
	Palette() video.Palette
	CurrentFrame() int
	IsLowRes() bool
	Close() error
}

// SourceFactory creates the frame source for one session.
type SourceFactory func() FrameSource

// Clock abstracts time so loop pacing can be controlled in tests.
type Clock interface {
	Now() time.Time
	// Sleep waits for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration)
}

// DefaultClock uses the system clock.
type DefaultClock struct{}

// Now returns the current time.
func (DefaultClock) Now() time.Time {
	return time.Now()
}

// Sleep waits for d or until ctx is done.
func (DefaultClock) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
