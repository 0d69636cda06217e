// Package audio provides the music mixer and the auxiliary-track audio
// handling used during movie playback.
//
// Auxiliary PMV tracks are routed by codec:
//
//	PCM16 chunk → little-endian samples → Sink
//	Opus chunk  → pion/opus decoder    → Sink
//
// Implementation uses pion/opus for decoding, the same pure Go decoder the
// rest of the audio stack relies on.
package audio

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// MaxVolume is the loudest music volume.
const MaxVolume = 255

// Mixer is an in-memory music volume control. It is safe for concurrent use.
type Mixer struct {
	mu     sync.RWMutex
	volume int
	muted  bool
}

// NewMixer creates a mixer at the given volume, clamped to [0, MaxVolume].
func NewMixer(volume int) *Mixer {
	return &Mixer{volume: clampVolume(volume)}
}

// MusicVolume returns the current music volume.
func (m *Mixer) MusicVolume() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// SetMusicVolume sets the music volume, clamped to [0, MaxVolume].
func (m *Mixer) SetMusicVolume(volume int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.volume
	m.volume = clampVolume(volume)

	logrus.WithFields(logrus.Fields{
		"function":   "Mixer.SetMusicVolume",
		"old_volume": old,
		"new_volume": m.volume,
	}).Debug("Music volume changed")
}

// IsMusicMuted reports whether the user muted music.
func (m *Mixer) IsMusicMuted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.muted
}

// SetMusicMuted records the user's music mute setting.
func (m *Mixer) SetMusicMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxVolume {
		return MaxVolume
	}
	return v
}
