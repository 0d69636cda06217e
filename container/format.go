package container

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Magic is the four-byte signature at the start of every PMV stream.
const Magic = "PMV1"

// HeaderSize is the encoded size of Header in bytes.
const HeaderSize = 64

// MaxAuxTracks is the number of auxiliary (non-picture) tracks a stream may carry.
const MaxAuxTracks = 7

// Video track flags.
const (
	// FlagYInterlaced places decoded rows on even lines; odd lines are blank.
	FlagYInterlaced uint32 = 2
	// FlagYDoubled emits every decoded row twice.
	FlagYDoubled uint32 = 4
)

// Frame record kind bits.
const (
	kindPalette byte = 1 << 0
	kindVideo   byte = 1 << 1
)

// Encoding identifies how a video payload is stored.
type Encoding uint8

const (
	// EncodingRaw stores width*height bytes verbatim.
	EncodingRaw Encoding = 0
	// EncodingRLE stores PackBits run-length encoded bytes.
	EncodingRLE Encoding = 1
)

// Codec identifies the payload format of an auxiliary track.
type Codec uint8

const (
	// CodecNone marks an unused track.
	CodecNone Codec = 0
	// CodecPCM16 carries little-endian signed 16-bit mono samples.
	CodecPCM16 Codec = 1
	// CodecOpus carries one Opus packet per chunk.
	CodecOpus Codec = 2
)

// String returns the codec name used in logs.
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecPCM16:
		return "pcm16"
	case CodecOpus:
		return "opus"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// Header is the fixed-size PMV file header.
//
// Layout (little-endian):
//
//	magic[4] width:2 height:2 frames:4 frameUsec:4 flags:4
//	codecs[7] sampleRate:4 reserved[1] checksum[32]
type Header struct {
	Width         uint16
	Height        uint16
	Frames        uint32
	FrameDuration uint32 // Microseconds per frame
	Flags         uint32
	Codecs        [MaxAuxTracks]Codec
	SampleRate    uint32
	Checksum      [32]byte // BLAKE2b-256 of everything after the header
}

// FrameInterval returns the pacing interval between frames.
func (h Header) FrameInterval() time.Duration {
	return time.Duration(h.FrameDuration) * time.Microsecond
}

// Validate checks header fields for impossible values.
func (h Header) Validate() error {
	if h.Width == 0 || h.Height == 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrBadHeader, h.Width, h.Height)
	}
	if h.FrameDuration == 0 {
		return fmt.Errorf("%w: zero frame duration", ErrBadHeader)
	}
	if h.Flags&^(FlagYInterlaced|FlagYDoubled) != 0 {
		return fmt.Errorf("%w: unknown video flags %#x", ErrBadHeader, h.Flags)
	}
	return nil
}

// MarshalBinary encodes the header into HeaderSize bytes.
func (h Header) MarshalBinary() ([]byte, error) {
	data := make([]byte, HeaderSize)
	copy(data[0:4], Magic)
	binary.LittleEndian.PutUint16(data[4:], h.Width)
	binary.LittleEndian.PutUint16(data[6:], h.Height)
	binary.LittleEndian.PutUint32(data[8:], h.Frames)
	binary.LittleEndian.PutUint32(data[12:], h.FrameDuration)
	binary.LittleEndian.PutUint32(data[16:], h.Flags)
	for i, c := range h.Codecs {
		data[20+i] = byte(c)
	}
	binary.LittleEndian.PutUint32(data[27:], h.SampleRate)
	copy(data[32:], h.Checksum[:])
	return data, nil
}

// UnmarshalBinary decodes a header produced by MarshalBinary.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, HeaderSize, len(data))
	}
	if string(data[0:4]) != Magic {
		return fmt.Errorf("%w: signature %q", ErrBadMagic, data[0:4])
	}
	h.Width = binary.LittleEndian.Uint16(data[4:])
	h.Height = binary.LittleEndian.Uint16(data[6:])
	h.Frames = binary.LittleEndian.Uint32(data[8:])
	h.FrameDuration = binary.LittleEndian.Uint32(data[12:])
	h.Flags = binary.LittleEndian.Uint32(data[16:])
	for i := range h.Codecs {
		h.Codecs[i] = Codec(data[20+i])
	}
	h.SampleRate = binary.LittleEndian.Uint32(data[27:])
	copy(h.Checksum[:], data[32:HeaderSize])
	return nil
}

// VideoInfo describes the picture track as the decoder will emit it.
type VideoInfo struct {
	Width  int    // Declared width
	Height int    // Output height after interlace/doubling
	Flags  uint32 // Effective flags after quirks
}

// AuxPacket is one auxiliary-track chunk from a frame record.
type AuxPacket struct {
	Track      uint8
	Codec      Codec
	SampleRate uint32
	Payload    []byte
}
