// Package main provides the palmovie command-line player.
//
// The play command runs a movie headless into an in-memory screen, which is
// useful for checking streams, subtitle tables and workaround entries
// without a game window:
//
//	palmovie play [-config palmovie.yaml] [-subs dir] [-flags n] [-png last.png] movies/209_1M.SMK
//
// While a movie plays, typing q followed by Enter acts as the Escape key and
// Ctrl-C quits. The gen command writes a small synthetic stream:
//
//	palmovie gen [-frames 48] [-width 64] [-height 48] [-lowres] demo.pmv
package main
