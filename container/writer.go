package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/opd-ai/palmovie/video"
	"golang.org/x/crypto/blake2b"
)

// AuxChunk is an auxiliary-track payload to store in a frame record.
type AuxChunk struct {
	Track   uint8
	Payload []byte
}

// FrameRecord is one frame to write.
type FrameRecord struct {
	Palette  *video.Palette // nil keeps the previous palette
	Aux      []AuxChunk
	Pixels   []byte // Width*Height bytes; nil writes a frame without a picture
	Encoding Encoding
}

// Writer builds a PMV stream. The body is buffered until Close, which writes
// the header with the final frame count and checksum.
type Writer struct {
	w      io.Writer
	header Header
	body   bytes.Buffer
	frames uint32
	closed bool
}

// NewWriter creates a writer for streams described by h. Frames and
// Checksum are filled in by Close.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &Writer{w: w, header: h}, nil
}

// WriteFrame appends one frame record.
func (w *Writer) WriteFrame(rec FrameRecord) error {
	if w.closed {
		return ErrWriterClosed
	}

	var buf bytes.Buffer
	var kind byte
	if rec.Palette != nil {
		kind |= kindPalette
	}
	if rec.Pixels != nil {
		kind |= kindVideo
	}
	buf.WriteByte(kind)

	if rec.Palette != nil {
		buf.Write(rec.Palette.Bytes())
	}

	if len(rec.Aux) > 255 {
		return fmt.Errorf("too many auxiliary chunks: %d", len(rec.Aux))
	}
	buf.WriteByte(byte(len(rec.Aux)))
	for _, chunk := range rec.Aux {
		if chunk.Track >= MaxAuxTracks {
			return fmt.Errorf("auxiliary track %d out of range", chunk.Track)
		}
		buf.WriteByte(chunk.Track)
		writeUint32(&buf, uint32(len(chunk.Payload)))
		buf.Write(chunk.Payload)
	}

	if rec.Pixels != nil {
		want := int(w.header.Width) * int(w.header.Height)
		if len(rec.Pixels) != want {
			return fmt.Errorf("picture must be %d bytes, got %d", want, len(rec.Pixels))
		}
		payload := rec.Pixels
		switch rec.Encoding {
		case EncodingRaw:
		case EncodingRLE:
			payload = EncodeRLE(rec.Pixels)
		default:
			return fmt.Errorf("unknown picture encoding %d", rec.Encoding)
		}
		buf.WriteByte(byte(rec.Encoding))
		writeUint32(&buf, uint32(len(payload)))
		buf.Write(payload)
	}

	writeUint32(&w.body, uint32(buf.Len()))
	w.body.Write(buf.Bytes())
	w.frames++
	return nil
}

// Close writes the header and buffered frames to the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true

	w.header.Frames = w.frames
	w.header.Checksum = blake2b.Sum256(w.body.Bytes())
	head, err := w.header.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.w.Write(head); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := w.w.Write(w.body.Bytes()); err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	return nil
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}
