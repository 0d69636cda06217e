package player

import (
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/palmovie/video"
)

// Session records one Play call. It is created when Play starts and handed
// out as a copy once Play returns.
type Session struct {
	ID       uuid.UUID
	StreamID string
	Path     string
	Flags    Flags

	// State is the last state the session reached; after Play returns it
	// is one of the terminal states.
	State State
	Mode  video.ResolutionMode

	FramesPresented  int
	FramesWithoutKey int // Normal-mode frames that used every palette index
	LastFrame        int

	StartedAt time.Time
	EndedAt   time.Time
	Err       error
}

func newSession(streamID, path string, flags Flags, now time.Time) *Session {
	return &Session{
		ID:        uuid.New(),
		StreamID:  streamID,
		Path:      path,
		Flags:     flags,
		State:     StateIdle,
		LastFrame: -1,
		StartedAt: now,
	}
}

// Duration returns how long the session ran.
func (s *Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}
