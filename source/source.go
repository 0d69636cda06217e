// Package source provides the Frame Source used by movie playback: a PMV
// decoder specialized with HalfHeightQuirks.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/opd-ai/palmovie/container"
	"github.com/opd-ai/palmovie/video"
	"github.com/sirupsen/logrus"
)

// ErrLoadFailed indicates a stream is missing, unreadable or corrupt.
var ErrLoadFailed = errors.New("load failed")

// Option configures a FrameSource.
type Option func(*options)

type options struct {
	aux          container.AuxHandler
	timeProvider container.TimeProvider
}

// WithAuxHandler routes auxiliary packets the quirks do not consume.
func WithAuxHandler(h container.AuxHandler) Option {
	return func(o *options) { o.aux = h }
}

// WithTimeProvider replaces the pacing clock.
func WithTimeProvider(tp container.TimeProvider) Option {
	return func(o *options) { o.timeProvider = tp }
}

// FrameSource decodes one movie for one playback session. Create a new one
// per session; detection state does not carry over safely.
type FrameSource struct {
	decoder *container.Decoder
	quirks  *HalfHeightQuirks
	name    string
}

// New creates a FrameSource with nothing loaded.
func New(opts ...Option) *FrameSource {
	o := options{timeProvider: container.DefaultTimeProvider{}}
	for _, opt := range opts {
		opt(&o)
	}

	quirks := &HalfHeightQuirks{}
	decOpts := []container.Option{
		container.WithQuirks(quirks),
		container.WithTimeProvider(o.timeProvider),
	}
	if o.aux != nil {
		decOpts = append(decOpts, container.WithAuxHandler(o.aux))
	}
	return &FrameSource{
		decoder: container.NewDecoder(decOpts...),
		quirks:  quirks,
	}
}

// LoadStream opens and validates the movie at path.
func (s *FrameSource) LoadStream(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadFailed, path, err)
	}
	defer f.Close()
	return s.LoadReader(path, f)
}

// LoadReader loads a movie from r, using name in errors and logs.
func (s *FrameSource) LoadReader(name string, r io.Reader) error {
	s.name = name
	if err := s.decoder.Load(r); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "FrameSource.LoadReader",
			"stream":   name,
			"error":    err.Error(),
		}).Warn("Stream failed to load")
		return fmt.Errorf("%w: %s: %w", ErrLoadFailed, name, err)
	}
	return nil
}

// Start begins decoding from the first frame.
func (s *FrameSource) Start() { s.decoder.Start() }

// DecodeNextFrame advances one frame; nil means nothing new to show.
func (s *FrameSource) DecodeNextFrame() (*video.Frame, error) {
	return s.decoder.DecodeNextFrame()
}

// EndOfVideo reports whether all frames were delivered.
func (s *FrameSource) EndOfVideo() bool { return s.decoder.EndOfVideo() }

// NeedsUpdate reports whether the next frame is due.
func (s *FrameSource) NeedsUpdate() bool { return s.decoder.NeedsUpdate() }

// Palette returns the palette in effect for the current frame.
func (s *FrameSource) Palette() video.Palette { return s.decoder.Palette() }

// CurrentFrame returns the index of the last decoded frame, or -1.
func (s *FrameSource) CurrentFrame() int { return s.decoder.CurrentFrame() }

// IsLowRes reports whether the stream is encoded at half height.
func (s *FrameSource) IsLowRes() bool { return s.quirks.LowRes() }

// Mode maps IsLowRes onto a compositor resolution mode.
func (s *FrameSource) Mode() video.ResolutionMode {
	if s.IsLowRes() {
		return video.ModeHalfHeight
	}
	return video.ModeNormal
}

// Close releases decode state. Safe to call more than once.
func (s *FrameSource) Close() error {
	s.decoder.Close()
	return nil
}
