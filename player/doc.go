// Package player runs full-screen movie playback sessions.
//
// A Player owns no media itself. Every Play call builds a fresh frame source
// through a SourceFactory and drives it against the Display, Input, Mixer and
// Subtitles collaborators it was constructed with:
//
//	Idle → Loading → Playing → Finished | Cancelled | Failed → Idle
//
// Each loop iteration decodes the frame that is due, reserves a free palette
// index for subtitle text, composites the frame, uploads the movie palette
// followed by the subtitle color, and presents the screen. Pending input is
// then drained: Escape cancels the session and a quit event ends it the same
// way. The loop sleeps for the poll interval between iterations.
//
// # Flags
//
//   - FlagDuckMusic silences music for the session and restores it on exit.
//   - FlagTolerateMissing turns a stream that fails to load into a silent no-op.
//
// # Example
//
//	p, err := player.NewPlayer(player.Deps{
//	    Display:   screen,
//	    Input:     events,
//	    Mixer:     mixer,
//	    Subtitles: subtitle.NewRenderer("subs"),
//	    NewSource: func() player.FrameSource { return source.New() },
//	}, player.WithStreamDir("movies"))
//	if err != nil {
//	    return err
//	}
//	err = p.Play(ctx, "209_1M.SMK", player.FlagDuckMusic)
package player
