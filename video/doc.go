// Package video provides the 8-bit paletted frame model and the
// presentation helpers used by movie playback.
//
// The package covers three concerns:
//
//	Frame/Palette/Surface  - decoded picture and screen buffer types
//	FindColorKey           - picks a palette index unused by a frame
//	Compositor             - blits frames to a Screen, with half-height
//	                         row doubling and known-defect patches
//
// # Frames
//
// A Frame holds one byte per pixel. Rows are Pitch bytes apart and Pitch may
// be larger than Width; bytes past Width in a row are padding and are never
// read by the helpers in this package:
//
//	frame := video.NewFrame(320, 200, 320)
//	frame.Row(10)[5] = 42
//
// # Color keys
//
// Subtitles are drawn with a palette index that the current frame does not
// use, so overwriting that palette entry cannot change the picture:
//
//	key := video.FindColorKey(frame)
//	if key.Reserved() {
//	    // draw with key, then upload the subtitle color at index key
//	}
//
// Index 0 is the border color and is never returned.
//
// # Compositing
//
// A Compositor owns a scratch copy of the frame for subtitle drawing, so the
// decoder's frame (which it may use as a reference for the next frame) is
// never written to:
//
//	comp := video.NewCompositor(screen, subtitles, video.DefaultWorkarounds())
//	err := comp.Composite(streamID, frame, video.ModeNormal, key)
//
// # Thread Safety
//
// Compositor is NOT thread-safe. Playback drives it from a single goroutine.
package video
