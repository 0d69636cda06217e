package audio

import (
	"fmt"

	"github.com/pion/opus"
	"github.com/sirupsen/logrus"
)

// opusMaxFrameBytes fits 40ms of 48kHz 16-bit output.
const opusMaxFrameBytes = 1920 * 2

// OpusTrack decodes the Opus packets of one auxiliary track. The decoder
// keeps inter-packet state, so each track needs its own OpusTrack.
type OpusTrack struct {
	decoder *opus.Decoder
	output  []byte
}

// NewOpusTrack creates a decoder for one track.
func NewOpusTrack() *OpusTrack {
	decoder := opus.NewDecoder()
	return &OpusTrack{
		decoder: &decoder,
		output:  make([]byte, opusMaxFrameBytes),
	}
}

// Decode converts one Opus packet to PCM and reports its sample rate and
// channel layout.
func (t *OpusTrack) Decode(data []byte) ([]int16, uint32, bool, error) {
	if len(data) == 0 {
		return nil, 0, false, fmt.Errorf("empty opus packet")
	}

	bandwidth, isStereo, err := t.decoder.Decode(data, t.output)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "OpusTrack.Decode",
			"size":     len(data),
			"error":    err.Error(),
		}).Debug("Opus decode failed")
		return nil, 0, false, fmt.Errorf("opus decode failed: %w", err)
	}

	pcm, err := DecodePCM16(t.output)
	if err != nil {
		return nil, 0, false, err
	}
	return pcm, uint32(bandwidth.SampleRate()), isStereo, nil
}
