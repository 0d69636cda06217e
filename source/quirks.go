package source

import (
	"encoding/binary"

	"github.com/opd-ai/palmovie/container"
	"github.com/sirupsen/logrus"
)

const (
	// MetadataTrack is the auxiliary track that may carry nominal dimensions.
	MetadataTrack = 1
	// MetadataSize is the exact payload size of a dimensions chunk.
	MetadataSize = 4
	// DoubledHeight is the declared height whose picture track is always
	// decoded line-doubled, whatever the container flags say.
	DoubledHeight = 200
)

// HalfHeightQuirks adapts the generic PMV pipeline to titles that encode
// some movies at half their nominal height.
//
// A 4-byte chunk on MetadataTrack holds the nominal width and height as
// little-endian uint16 values instead of audio. When the nominal height is
// half the decoded picture height the stream is low-res and must be
// row-doubled on screen.
type HalfHeightQuirks struct {
	lowRes        bool
	haveMetadata  bool
	nominalWidth  uint16
	nominalHeight uint16
}

// Reset clears detection state before a new stream loads.
func (q *HalfHeightQuirks) Reset() {
	*q = HalfHeightQuirks{}
}

// VideoTrackFlags forces line doubling for pictures declared DoubledHeight
// rows tall.
func (q *HalfHeightQuirks) VideoTrackFlags(_, height uint16, flags uint32) uint32 {
	if height == DoubledHeight {
		return container.FlagYDoubled
	}
	return flags
}

// HandleAuxTrack consumes dimension chunks and leaves every other packet to
// the generic audio handling.
func (q *HalfHeightQuirks) HandleAuxTrack(info container.VideoInfo, pkt container.AuxPacket) bool {
	if pkt.Track != MetadataTrack || len(pkt.Payload) != MetadataSize {
		return false
	}

	q.nominalWidth = binary.LittleEndian.Uint16(pkt.Payload[0:2])
	q.nominalHeight = binary.LittleEndian.Uint16(pkt.Payload[2:4])
	q.haveMetadata = true
	q.lowRes = int(q.nominalHeight) == info.Height/2

	logrus.WithFields(logrus.Fields{
		"function":       "HalfHeightQuirks.HandleAuxTrack",
		"nominal_width":  q.nominalWidth,
		"nominal_height": q.nominalHeight,
		"video_height":   info.Height,
		"low_res":        q.lowRes,
	}).Debug("Dimension metadata chunk intercepted")

	return true
}

// LowRes reports whether the loaded stream was detected as half-height.
func (q *HalfHeightQuirks) LowRes() bool { return q.lowRes }

// NominalSize returns the dimensions from the metadata chunk, if one was seen.
func (q *HalfHeightQuirks) NominalSize() (width, height uint16, ok bool) {
	return q.nominalWidth, q.nominalHeight, q.haveMetadata
}
