package player

import "errors"

// Sentinel errors for playback sessions.
// These errors enable reliable error classification using errors.Is().
var (
	// ErrLoadFailure indicates the stream could not be opened or is corrupt.
	ErrLoadFailure = errors.New("unable to play video")

	// ErrDecodeFailure indicates a frame failed to decode mid-stream.
	ErrDecodeFailure = errors.New("video decode failed")

	// ErrPresentFailure indicates a decoded frame could not be shown.
	ErrPresentFailure = errors.New("video presentation failed")

	// ErrAlreadyPlaying indicates Play was called while a session is active.
	ErrAlreadyPlaying = errors.New("a video is already playing")

	// ErrMissingDependency indicates NewPlayer was given an incomplete Deps.
	ErrMissingDependency = errors.New("missing player dependency")
)
