package container

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/opd-ai/palmovie/video"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// rowAlign is the alignment of decoded frame rows; bytes past the width are padding.
const rowAlign = 8

// Option configures a Decoder.
type Option func(*Decoder)

// WithQuirks installs a title-specific strategy.
func WithQuirks(q Quirks) Option {
	return func(d *Decoder) { d.quirks = q }
}

// WithAuxHandler sets the receiver for auxiliary-track packets.
func WithAuxHandler(h AuxHandler) Option {
	return func(d *Decoder) { d.aux = h }
}

// WithTimeProvider replaces the pacing clock.
func WithTimeProvider(tp TimeProvider) Option {
	return func(d *Decoder) { d.timeProvider = tp }
}

// Decoder reads a PMV stream one frame at a time.
//
// Decoding is non-blocking: every frame record is parsed from memory, and
// NeedsUpdate tells the caller when the next frame is due. Decoder is NOT
// thread-safe.
type Decoder struct {
	quirks       Quirks
	aux          AuxHandler
	timeProvider TimeProvider

	header  Header
	info    VideoInfo
	body    []byte
	offset  int
	picture []byte // width*height scratch for the declared picture
	frame   *video.Frame

	loaded    bool
	started   bool
	startTime time.Time
	next      int // Index of the next frame record
	current   int // Index of the last decoded frame, -1 before the first
}

// NewDecoder creates a decoder with no stream loaded.
func NewDecoder(opts ...Option) *Decoder {
	d := &Decoder{
		quirks:       NoQuirks{},
		timeProvider: DefaultTimeProvider{},
		current:      -1,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load reads and validates a whole stream. Any previously loaded stream is
// discarded first.
func (d *Decoder) Load(r io.Reader) error {
	d.Close()
	d.quirks.Reset()

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read stream: %w", err)
	}

	var h Header
	if err := h.UnmarshalBinary(data); err != nil {
		return err
	}
	if err := h.Validate(); err != nil {
		return err
	}
	body := data[HeaderSize:]
	if sum := blake2b.Sum256(body); !bytes.Equal(sum[:], h.Checksum[:]) {
		return fmt.Errorf("%w: body digest %x, header %x", ErrChecksumMismatch, sum[:8], h.Checksum[:8])
	}

	flags := d.quirks.VideoTrackFlags(h.Width, h.Height, h.Flags)
	if flags != h.Flags {
		logrus.WithFields(logrus.Fields{
			"function":       "Decoder.Load",
			"height":         h.Height,
			"declared_flags": h.Flags,
			"forced_flags":   flags,
		}).Debug("Video track flags overridden")
	}

	width := int(h.Width)
	height := int(h.Height)
	if flags&(FlagYDoubled|FlagYInterlaced) != 0 {
		height *= 2
	}
	pitch := (width + rowAlign - 1) / rowAlign * rowAlign

	d.header = h
	d.info = VideoInfo{Width: width, Height: height, Flags: flags}
	d.body = body
	d.offset = 0
	d.picture = make([]byte, int(h.Width)*int(h.Height))
	d.frame = video.NewFrame(width, height, pitch)
	d.frame.Index = -1
	d.loaded = true

	logrus.WithFields(logrus.Fields{
		"function":    "Decoder.Load",
		"width":       width,
		"height":      height,
		"pitch":       pitch,
		"frames":      h.Frames,
		"frame_usec":  h.FrameDuration,
		"flags":       flags,
		"sample_rate": h.SampleRate,
		"body_size":   len(body),
	}).Info("PMV stream loaded")

	return nil
}

// Header returns the header of the loaded stream.
func (d *Decoder) Header() Header { return d.header }

// Info returns the output geometry of the loaded stream.
func (d *Decoder) Info() VideoInfo { return d.info }

// Start begins pacing from the first frame. Only the first call after a Load
// has an effect.
func (d *Decoder) Start() {
	if !d.loaded || d.started {
		logrus.WithFields(logrus.Fields{
			"function": "Decoder.Start",
			"loaded":   d.loaded,
			"started":  d.started,
		}).Debug("Ignoring start request")
		return
	}
	d.started = true
	d.startTime = d.timeProvider.Now()
}

// EndOfVideo reports whether every frame has been delivered.
func (d *Decoder) EndOfVideo() bool {
	return !d.loaded || d.next >= int(d.header.Frames)
}

// NeedsUpdate reports whether the next frame is due.
func (d *Decoder) NeedsUpdate() bool {
	if !d.started || d.EndOfVideo() {
		return false
	}
	due := d.startTime.Add(time.Duration(d.next) * d.header.FrameInterval())
	return !d.timeProvider.Now().Before(due)
}

// CurrentFrame returns the index of the last decoded frame, or -1.
func (d *Decoder) CurrentFrame() int { return d.current }

// Palette returns the palette in effect after the last decoded frame.
func (d *Decoder) Palette() video.Palette {
	if d.frame == nil {
		return video.Palette{}
	}
	return d.frame.Palette
}

// DecodeNextFrame advances one frame. It returns nil without error when the
// frame carried no picture, or when the stream has ended.
func (d *Decoder) DecodeNextFrame() (*video.Frame, error) {
	if !d.loaded {
		return nil, ErrNotLoaded
	}
	if d.EndOfVideo() {
		return nil, nil
	}

	rec, err := d.nextRecord()
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", d.next, err)
	}
	hasVideo, err := d.decodeRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", d.next, err)
	}

	d.current = d.next
	d.next++
	d.frame.Index = d.current
	if !hasVideo {
		return nil, nil
	}
	return d.frame, nil
}

// Close releases decode state. It is safe to call more than once.
func (d *Decoder) Close() {
	d.loaded = false
	d.started = false
	d.body = nil
	d.picture = nil
	d.frame = nil
	d.offset = 0
	d.next = 0
	d.current = -1
}

func (d *Decoder) nextRecord() ([]byte, error) {
	if d.offset+4 > len(d.body) {
		return nil, fmt.Errorf("%w: missing record size", ErrTruncated)
	}
	size := int(binary.LittleEndian.Uint32(d.body[d.offset:]))
	start := d.offset + 4
	if size > len(d.body)-start {
		return nil, fmt.Errorf("%w: record of %d bytes, %d left", ErrTruncated, size, len(d.body)-start)
	}
	d.offset = start + size
	return d.body[start : start+size], nil
}

// decodeRecord applies one frame record and reports whether it carried a picture.
func (d *Decoder) decodeRecord(rec []byte) (bool, error) {
	rd := recordReader{data: rec}

	kind, err := rd.readByte()
	if err != nil {
		return false, err
	}

	if kind&kindPalette != 0 {
		raw, err := rd.readBytes(video.PaletteSize * 3)
		if err != nil {
			return false, err
		}
		pal, err := video.PaletteFromBytes(raw)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrBadFrame, err)
		}
		d.frame.Palette = pal
	}

	if err := d.dispatchAux(&rd); err != nil {
		return false, err
	}

	if kind&kindVideo == 0 {
		return false, rd.finish()
	}
	if err := d.decodePicture(&rd); err != nil {
		return false, err
	}
	return true, rd.finish()
}

func (d *Decoder) dispatchAux(rd *recordReader) error {
	count, err := rd.readByte()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		track, err := rd.readByte()
		if err != nil {
			return err
		}
		if track >= MaxAuxTracks {
			return fmt.Errorf("%w: auxiliary track %d out of range", ErrBadFrame, track)
		}
		size, err := rd.readUint32()
		if err != nil {
			return err
		}
		payload, err := rd.readBytes(int(size))
		if err != nil {
			return err
		}

		pkt := AuxPacket{
			Track:      track,
			Codec:      d.header.Codecs[track],
			SampleRate: d.header.SampleRate,
			Payload:    payload,
		}
		if d.quirks.HandleAuxTrack(d.info, pkt) || d.aux == nil {
			continue
		}
		if err := d.aux.HandleAux(pkt); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Decoder.dispatchAux",
				"frame":    d.next,
				"track":    track,
				"codec":    pkt.Codec.String(),
				"size":     size,
				"error":    err.Error(),
			}).Warn("Auxiliary track packet rejected")
		}
	}
	return nil
}

func (d *Decoder) decodePicture(rd *recordReader) error {
	enc, err := rd.readByte()
	if err != nil {
		return err
	}
	size, err := rd.readUint32()
	if err != nil {
		return err
	}
	payload, err := rd.readBytes(int(size))
	if err != nil {
		return err
	}

	switch Encoding(enc) {
	case EncodingRaw:
		if len(payload) != len(d.picture) {
			return fmt.Errorf("%w: raw picture of %d bytes, expected %d", ErrBadFrame, len(payload), len(d.picture))
		}
		copy(d.picture, payload)
	case EncodingRLE:
		if err := DecodeRLE(d.picture, payload); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown picture encoding %d", ErrBadFrame, enc)
	}

	d.expandPicture()
	return nil
}

// expandPicture lays the declared picture out in the output frame according
// to the effective video flags.
func (d *Decoder) expandPicture() {
	width := int(d.header.Width)
	f := d.frame
	for y := 0; y < int(d.header.Height); y++ {
		src := d.picture[y*width : (y+1)*width]
		switch {
		case d.info.Flags&FlagYDoubled != 0:
			copy(f.Row(2*y), src)
			copy(f.Row(2*y+1), src)
		case d.info.Flags&FlagYInterlaced != 0:
			copy(f.Row(2*y), src)
			clear(f.Row(2*y + 1))
		default:
			copy(f.Row(y), src)
		}
	}
}

// recordReader walks a single frame record.
type recordReader struct {
	data []byte
	pos  int
}

func (r *recordReader) readBytes(n int) ([]byte, error) {
	if n < 0 || n > len(r.data)-r.pos {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, record has %d", ErrBadFrame, n, r.pos, len(r.data))
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *recordReader) readByte() (byte, error) {
	b, err := r.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *recordReader) readUint32() (uint32, error) {
	b, err := r.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *recordReader) finish() error {
	if r.pos != len(r.data) {
		return fmt.Errorf("%w: %d trailing bytes", ErrBadFrame, len(r.data)-r.pos)
	}
	return nil
}
