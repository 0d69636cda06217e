package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/opd-ai/palmovie/container"
	"github.com/sirupsen/logrus"
)

// ErrUnsupportedCodec indicates an auxiliary track with an unknown codec.
var ErrUnsupportedCodec = errors.New("unsupported audio codec")

// Sink receives decoded samples for playback.
type Sink interface {
	QueuePCM(track uint8, pcm []int16, sampleRate uint32, stereo bool)
}

// TrackRouter implements container.AuxHandler by decoding each packet with
// the codec its track declares and queuing the samples on a Sink.
type TrackRouter struct {
	sink Sink
	opus map[uint8]*OpusTrack
}

// NewTrackRouter creates a router feeding sink.
func NewTrackRouter(sink Sink) *TrackRouter {
	return &TrackRouter{
		sink: sink,
		opus: make(map[uint8]*OpusTrack),
	}
}

// HandleAux decodes one auxiliary packet.
func (r *TrackRouter) HandleAux(pkt container.AuxPacket) error {
	switch pkt.Codec {
	case container.CodecNone:
		logrus.WithFields(logrus.Fields{
			"function": "TrackRouter.HandleAux",
			"track":    pkt.Track,
			"size":     len(pkt.Payload),
		}).Debug("Dropping packet on track without codec")
		return nil
	case container.CodecPCM16:
		pcm, err := DecodePCM16(pkt.Payload)
		if err != nil {
			return err
		}
		r.sink.QueuePCM(pkt.Track, pcm, pkt.SampleRate, false)
		return nil
	case container.CodecOpus:
		track, ok := r.opus[pkt.Track]
		if !ok {
			track = NewOpusTrack()
			r.opus[pkt.Track] = track
		}
		pcm, rate, stereo, err := track.Decode(pkt.Payload)
		if err != nil {
			return err
		}
		r.sink.QueuePCM(pkt.Track, pcm, rate, stereo)
		return nil
	default:
		return fmt.Errorf("%w: %s on track %d", ErrUnsupportedCodec, pkt.Codec, pkt.Track)
	}
}

// DecodePCM16 converts little-endian signed 16-bit samples.
func DecodePCM16(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("odd PCM16 payload length %d", len(data))
	}
	pcm := make([]int16, len(data)/2)
	for i := range pcm {
		pcm[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return pcm, nil
}

// TrackStats summarizes the samples a Buffer received on one track.
type TrackStats struct {
	Packets    int
	Samples    int
	SampleRate uint32
	Stereo     bool
}

// Buffer is a Sink that keeps queued samples in memory. It is safe for
// concurrent use.
type Buffer struct {
	mu      sync.Mutex
	limit   int
	samples map[uint8][]int16
	stats   map[uint8]TrackStats
}

// NewBuffer creates a Buffer retaining at most limit samples per track.
// A limit of 0 keeps statistics only.
func NewBuffer(limit int) *Buffer {
	return &Buffer{
		limit:   limit,
		samples: make(map[uint8][]int16),
		stats:   make(map[uint8]TrackStats),
	}
}

// QueuePCM implements Sink.
func (b *Buffer) QueuePCM(track uint8, pcm []int16, sampleRate uint32, stereo bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := b.stats[track]
	st.Packets++
	st.Samples += len(pcm)
	st.SampleRate = sampleRate
	st.Stereo = stereo
	b.stats[track] = st

	if room := b.limit - len(b.samples[track]); room > 0 {
		if len(pcm) > room {
			pcm = pcm[:room]
		}
		b.samples[track] = append(b.samples[track], pcm...)
	}
}

// Samples returns a copy of the retained samples for track.
func (b *Buffer) Samples(track uint8) []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int16(nil), b.samples[track]...)
}

// Stats returns the statistics for track.
func (b *Buffer) Stats(track uint8) TrackStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats[track]
}
