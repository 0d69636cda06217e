package player

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/palmovie/config"
	"github.com/opd-ai/palmovie/input"
	"github.com/opd-ai/palmovie/video"
	"github.com/sirupsen/logrus"
)

// DefaultPollInterval is the sleep between loop iterations.
const DefaultPollInterval = 10 * time.Millisecond

// DefaultSubtitleColor is the color uploaded at the reserved palette index.
var DefaultSubtitleColor = video.RGB{R: 0xff, G: 0xff, B: 0x00}

// Deps are the collaborators a Player drives. Subtitles may be nil.
type Deps struct {
	Display   Display
	Input     Input
	Mixer     Mixer
	Subtitles Subtitles
	NewSource SourceFactory
}

// StateFunc observes state changes of a session.
type StateFunc func(sessionID uuid.UUID, state State)

// Option configures a Player.
type Option func(*Player)

// WithPollInterval sets the sleep between loop iterations.
func WithPollInterval(d time.Duration) Option {
	return func(p *Player) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(p *Player) {
		if c != nil {
			p.clock = c
		}
	}
}

// WithSubtitleColor sets the color shown at the reserved palette index.
func WithSubtitleColor(c video.RGB) Option {
	return func(p *Player) {
		p.subtitleColor = c
	}
}

// WithWorkarounds replaces the table of known stream defects.
func WithWorkarounds(t video.WorkaroundTable) Option {
	return func(p *Player) {
		p.workarounds = t
	}
}

// WithStreamDir resolves stream identifiers relative to dir.
func WithStreamDir(dir string) Option {
	return func(p *Player) {
		p.streamDir = dir
	}
}

// WithStateCallback registers fn to observe every state change.
func WithStateCallback(fn StateFunc) Option {
	return func(p *Player) {
		p.onState = fn
	}
}

// FromConfig applies the playback settings of cfg.
func FromConfig(cfg *config.Config) Option {
	return func(p *Player) {
		WithPollInterval(cfg.PollInterval())(p)
		p.subtitleColor = cfg.SubtitleColor
		p.workarounds = cfg.WorkaroundTable()
	}
}

// Player plays movies one at a time. Its accessors are safe for concurrent
// use; Play itself refuses to run twice at once.
type Player struct {
	display   Display
	input     Input
	mixer     Mixer
	subtitles Subtitles
	newSource SourceFactory

	compositor    *video.Compositor
	clock         Clock
	pollInterval  time.Duration
	subtitleColor video.RGB
	workarounds   video.WorkaroundTable
	streamDir     string
	onState       StateFunc

	mu      sync.RWMutex
	state   State
	playing bool
	last    *Session
}

// NewPlayer creates a player over deps.
func NewPlayer(deps Deps, opts ...Option) (*Player, error) {
	switch {
	case deps.Display == nil:
		return nil, fmt.Errorf("%w: display", ErrMissingDependency)
	case deps.Input == nil:
		return nil, fmt.Errorf("%w: input", ErrMissingDependency)
	case deps.Mixer == nil:
		return nil, fmt.Errorf("%w: mixer", ErrMissingDependency)
	case deps.NewSource == nil:
		return nil, fmt.Errorf("%w: source factory", ErrMissingDependency)
	}

	p := &Player{
		display:       deps.Display,
		input:         deps.Input,
		mixer:         deps.Mixer,
		subtitles:     deps.Subtitles,
		newSource:     deps.NewSource,
		clock:         DefaultClock{},
		pollInterval:  DefaultPollInterval,
		subtitleColor: DefaultSubtitleColor,
		workarounds:   video.DefaultWorkarounds(),
	}
	for _, opt := range opts {
		opt(p)
	}

	var renderer video.SubtitleRenderer
	if p.subtitles != nil {
		renderer = p.subtitles
	}
	p.compositor = video.NewCompositor(p.display, renderer, p.workarounds)

	logrus.WithFields(logrus.Fields{
		"function":      "NewPlayer",
		"poll_interval": p.pollInterval,
		"workarounds":   len(p.workarounds),
		"subtitles":     p.subtitles != nil,
	}).Debug("Player created")

	return p, nil
}

// IsPlaying reports whether a session is active.
func (p *Player) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing
}

// State returns the current lifecycle state.
func (p *Player) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

// LastSession returns a copy of the most recently finished session.
func (p *Player) LastSession() (Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return Session{}, false
	}
	return *p.last, true
}

// Play shows streamID full screen until it ends, the user presses Escape,
// the host sends a quit event or ctx is cancelled.
//
// A stream that fails to load returns an error wrapping ErrLoadFailure,
// unless flags has FlagTolerateMissing, in which case Play returns nil.
// Cancellation and quitting are not errors.
func (p *Player) Play(ctx context.Context, streamID string, flags Flags) error {
	if err := p.acquire(); err != nil {
		return err
	}

	sess := newSession(streamID, p.streamPath(streamID), flags, p.clock.Now())
	defer p.release(sess)

	logrus.WithFields(logrus.Fields{
		"function":   "Play",
		"session_id": sess.ID.String(),
		"stream":     streamID,
		"flags":      flags.String(),
	}).Info("Starting video playback")

	p.setState(sess, StateLoading)

	if flags.Has(FlagDuckMusic) {
		defer p.duckMusic(sess)()
	}

	src := p.newSource()
	if err := src.LoadStream(sess.Path); err != nil {
		return p.loadFailed(sess, src, err)
	}

	if p.subtitles != nil {
		if err := p.subtitles.Load(streamID); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":   "Play",
				"session_id": sess.ID.String(),
				"stream":     streamID,
				"error":      err.Error(),
			}).Warn("Subtitles unavailable, playing without them")
		}
	}

	p.setState(sess, StatePlaying)
	outcome, err := p.run(ctx, sess, src)

	p.display.RequestFullRedraw()
	p.display.RestorePalette()
	p.closeSource(sess, src)

	sess.Err = err
	p.setState(sess, outcome)
	return err
}

func (p *Player) acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		logrus.WithFields(logrus.Fields{
			"function": "Play",
			"state":    p.state.String(),
		}).Warn("Play called while a video is playing")
		return ErrAlreadyPlaying
	}
	p.playing = true
	return nil
}

func (p *Player) release(sess *Session) {
	sess.EndedAt = p.clock.Now()

	p.mu.Lock()
	p.playing = false
	p.last = sess
	p.mu.Unlock()

	p.setState(sess, StateIdle)

	logrus.WithFields(logrus.Fields{
		"function":           "Play",
		"session_id":         sess.ID.String(),
		"stream":             sess.StreamID,
		"outcome":            sess.State.String(),
		"frames_presented":   sess.FramesPresented,
		"frames_without_key": sess.FramesWithoutKey,
		"duration":           sess.Duration(),
	}).Info("Video playback ended")
}

// setState moves the player to state. Every state but Idle is also recorded
// on the session, so a finished session keeps its outcome.
func (p *Player) setState(sess *Session, state State) {
	p.mu.Lock()
	prev := p.state
	p.state = state
	p.mu.Unlock()

	if state != StateIdle {
		sess.State = state
	}
	id := sess.ID

	logrus.WithFields(logrus.Fields{
		"function":   "setState",
		"session_id": id.String(),
		"from":       prev.String(),
		"to":         state.String(),
	}).Debug("Player state changed")

	if p.onState != nil {
		p.onState(id, state)
	}
}

func (p *Player) streamPath(streamID string) string {
	if p.streamDir == "" {
		return streamID
	}
	return filepath.Join(p.streamDir, streamID)
}

// duckMusic silences music and returns the function restoring it: back to
// the entry volume, or to silence when the user muted music meanwhile.
func (p *Player) duckMusic(sess *Session) func() {
	prior := p.mixer.MusicVolume()
	p.mixer.SetMusicVolume(0)

	return func() {
		restored := prior
		if p.mixer.IsMusicMuted() {
			restored = 0
		}
		p.mixer.SetMusicVolume(restored)

		logrus.WithFields(logrus.Fields{
			"function":   "duckMusic",
			"session_id": sess.ID.String(),
			"volume":     restored,
		}).Debug("Music volume restored")
	}
}

func (p *Player) loadFailed(sess *Session, src FrameSource, err error) error {
	p.closeSource(sess, src)
	sess.Err = err
	p.setState(sess, StateFailed)

	if sess.Flags.Has(FlagTolerateMissing) {
		logrus.WithFields(logrus.Fields{
			"function":   "Play",
			"session_id": sess.ID.String(),
			"stream":     sess.StreamID,
			"error":      err.Error(),
		}).Info("Video not available, skipping")
		return nil
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Play",
		"session_id": sess.ID.String(),
		"stream":     sess.StreamID,
		"error":      err.Error(),
	}).Error("Unable to play video")
	return fmt.Errorf("%w %s: %w", ErrLoadFailure, sess.StreamID, err)
}

func (p *Player) closeSource(sess *Session, src FrameSource) {
	if err := src.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "closeSource",
			"session_id": sess.ID.String(),
			"error":      err.Error(),
		}).Warn("Failed to close frame source")
	}
}

// run is the presentation loop. It returns the terminal state of the session.
func (p *Player) run(ctx context.Context, sess *Session, src FrameSource) (State, error) {
	src.Start()

	for !src.EndOfVideo() {
		if ctx.Err() != nil {
			logrus.WithFields(logrus.Fields{
				"function":   "run",
				"session_id": sess.ID.String(),
				"frame":      sess.LastFrame,
			}).Info("Playback interrupted by host")
			return StateCancelled, nil
		}

		if src.NeedsUpdate() {
			if err := p.presentNext(sess, src); err != nil {
				return StateFailed, err
			}
		}

		if state, done := p.drainInput(sess); done {
			return state, nil
		}

		p.clock.Sleep(ctx, p.pollInterval)
	}
	return StateFinished, nil
}

// presentNext decodes the due frame, composites it and uploads the palette
// followed by the subtitle color at the reserved index.
func (p *Player) presentNext(sess *Session, src FrameSource) error {
	frame, err := src.DecodeNextFrame()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":   "presentNext",
			"session_id": sess.ID.String(),
			"frame":      src.CurrentFrame(),
			"error":      err.Error(),
		}).Error("Frame decode failed")
		return fmt.Errorf("%w: %s frame %d: %w", ErrDecodeFailure, sess.StreamID, src.CurrentFrame(), err)
	}

	key := video.NoColorKey
	if frame != nil {
		mode := video.ModeNormal
		if src.IsLowRes() {
			mode = video.ModeHalfHeight
		}
		sess.Mode = mode

		if mode == video.ModeNormal {
			key = video.FindColorKey(frame)
			if key == video.NoColorKey {
				sess.FramesWithoutKey++
				logrus.WithFields(logrus.Fields{
					"function":   "presentNext",
					"session_id": sess.ID.String(),
					"frame":      frame.Index,
				}).Debug("No free palette index, subtitles skipped")
			}
		}

		if err := p.compositor.Composite(sess.StreamID, frame, mode, key); err != nil {
			return fmt.Errorf("%w: %s frame %d: %w", ErrPresentFailure, sess.StreamID, frame.Index, err)
		}
		sess.FramesPresented++
		sess.LastFrame = frame.Index
	}

	pal := src.Palette()
	p.display.SetPalette(pal[:], 0)
	if key != video.NoColorKey {
		p.display.SetPalette([]video.RGB{p.subtitleColor}, int(key))
	}
	p.display.UpdateScreen()
	return nil
}

// drainInput consumes every pending event. It reports the terminal state
// when an event ends the session.
func (p *Player) drainInput(sess *Session) (State, bool) {
	for {
		ev, ok := p.input.PollEvent()
		if !ok {
			return StatePlaying, false
		}

		switch {
		case ev.Type == input.EventKeyDown && ev.Key == input.KeyEscape:
			logrus.WithFields(logrus.Fields{
				"function":   "drainInput",
				"session_id": sess.ID.String(),
				"frame":      sess.LastFrame,
			}).Info("Playback cancelled by user")
			return StateCancelled, true
		case ev.Type == input.EventQuit:
			logrus.WithFields(logrus.Fields{
				"function":   "drainInput",
				"session_id": sess.ID.String(),
				"frame":      sess.LastFrame,
			}).Info("Quit requested during playback")
			return StateCancelled, true
		}
	}
}
