// Package container reads and writes PMV, a small paletted movie container
// with up to seven auxiliary (audio or metadata) tracks.
//
// # Format
//
// A stream is a 64-byte Header followed by one length-prefixed record per
// frame. A record may carry a full palette, any number of auxiliary chunks
// and a picture stored raw or PackBits-compressed. The header holds a
// BLAKE2b-256 digest of the records, so truncated or damaged files fail at
// Load instead of mid-playback.
//
// # Decoding
//
//	dec := container.NewDecoder(container.WithAuxHandler(audioRouter))
//	if err := dec.Load(file); err != nil {
//	    return err
//	}
//	dec.Start()
//	for !dec.EndOfVideo() {
//	    if dec.NeedsUpdate() {
//	        frame, err := dec.DecodeNextFrame()
//	        // frame is nil when the record carried no picture
//	    }
//	}
//
// Frames are paced from the Start time using a TimeProvider, which tests
// replace to step the clock deterministically.
//
// # Quirks
//
// Title-specific behavior plugs in through the Quirks strategy instead of a
// decoder subtype: it can rewrite the picture track flags at Load and claim
// auxiliary packets before they reach the AuxHandler.
package container
