// Package config loads palmovie settings.
//
// Settings come from three layers, later layers winning:
//
//  1. built-in defaults (Default)
//  2. an optional YAML file (Load)
//  3. PALMOVIE_* environment variables (ApplyEnvironment)
//
// # Environment
//
//   - PALMOVIE_POLL_INTERVAL_MS: integer milliseconds between loop iterations
//   - PALMOVIE_MUSIC_VOLUME: integer music volume, 0 to 255
//   - PALMOVIE_SUBTITLE_DIR: directory holding subtitle timing tables
//   - PALMOVIE_LOG_LEVEL: logrus level name
//
// Invalid or out-of-range environment values are logged and ignored, so a
// bad variable never prevents playback.
//
// # File format
//
//	poll_interval_ms: 10
//	music_volume: 192
//	subtitle_dir: subs
//	subtitle_color: {r: 255, g: 255, b: 0}
//	log_level: info
//	workarounds:
//	  - name: credits-glitch
//	    stream: 305_2M.SMK
//	    first_frame: 10
//	    last_frame: 20
//	    rects:
//	      - {src_row: 40, dst_row: 41, width: 32, anchor: left}
//
// Workarounds listed in the file are added to the built-in table.
package config
