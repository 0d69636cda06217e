package container

// Quirks lets a title-specific strategy adjust the generic decode pipeline
// without replacing it.
type Quirks interface {
	// Reset is called at the start of every Load.
	Reset()
	// VideoTrackFlags returns the flags to decode the picture track with,
	// given the declared geometry and flags.
	VideoTrackFlags(width, height uint16, flags uint32) uint32
	// HandleAuxTrack may consume an auxiliary packet. Returning false passes
	// the packet on to the AuxHandler unchanged.
	HandleAuxTrack(info VideoInfo, pkt AuxPacket) bool
}

// AuxHandler receives auxiliary-track packets no quirk consumed, normally
// the audio backend.
type AuxHandler interface {
	HandleAux(pkt AuxPacket) error
}

// NoQuirks decodes streams exactly as declared.
type NoQuirks struct{}

// Reset implements Quirks.
func (NoQuirks) Reset() {}

// VideoTrackFlags implements Quirks.
func (NoQuirks) VideoTrackFlags(_, _ uint16, flags uint32) uint32 { return flags }

// HandleAuxTrack implements Quirks.
func (NoQuirks) HandleAuxTrack(VideoInfo, AuxPacket) bool { return false }
