package container

import "errors"

// Sentinel errors for container operations.
// These errors enable reliable error classification using errors.Is().

// Load errors.
var (
	// ErrBadMagic indicates the stream does not start with the PMV signature.
	ErrBadMagic = errors.New("not a PMV stream")

	// ErrBadHeader indicates a header field holds an impossible value.
	ErrBadHeader = errors.New("invalid PMV header")

	// ErrChecksumMismatch indicates the body does not match the header digest.
	ErrChecksumMismatch = errors.New("PMV checksum mismatch")

	// ErrTruncated indicates the stream ended inside a header or record.
	ErrTruncated = errors.New("PMV stream truncated")
)

// Decode errors.
var (
	// ErrBadFrame indicates a frame record could not be parsed.
	ErrBadFrame = errors.New("invalid PMV frame record")

	// ErrNotLoaded indicates a decode call before a successful Load.
	ErrNotLoaded = errors.New("no stream loaded")
)

// Write errors.
var (
	// ErrWriterClosed indicates a write after Close.
	ErrWriterClosed = errors.New("writer is closed")
)
