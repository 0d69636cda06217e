package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/opd-ai/palmovie/audio"
	"github.com/opd-ai/palmovie/config"
	"github.com/opd-ai/palmovie/container"
	"github.com/opd-ai/palmovie/display"
	"github.com/opd-ai/palmovie/input"
	"github.com/opd-ai/palmovie/player"
	"github.com/opd-ai/palmovie/source"
	"github.com/opd-ai/palmovie/subtitle"
	"github.com/sirupsen/logrus"
)

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches to a subcommand and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "play":
		return runPlay(args[1:], stdin, stdout, stderr)
	case "gen":
		return runGen(args[1:], stdout, stderr)
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return exitUsage
	}
}

// printUsage prints the usage information.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "palmovie - palette-indexed movie player")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  palmovie play [options] <stream>   play a stream into a headless screen")
	fmt.Fprintln(w, "  palmovie gen [options] <out.pmv>   write a synthetic demo stream")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'palmovie <command> -h' for command options.")
}

// playConfig holds the play command flags.
type playConfig struct {
	configPath string
	subtitles  string
	flags      uint
	pngPath    string
	width      int
	height     int
	logLevel   string
	stream     string
}

func parsePlayFlags(args []string, stderr io.Writer) (*playConfig, error) {
	cfg := &playConfig{}
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&cfg.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&cfg.subtitles, "subs", "", "Subtitle table directory (overrides config)")
	fs.UintVar(&cfg.flags, "flags", 0, "Play flags: 1 = duck music, 2 = tolerate missing stream")
	fs.StringVar(&cfg.pngPath, "png", "", "Write the final screen to this PNG file")
	fs.IntVar(&cfg.width, "width", 640, "Screen width")
	fs.IntVar(&cfg.height, "height", 480, "Screen height")
	fs.StringVar(&cfg.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, fmt.Errorf("play needs exactly one stream, got %d", fs.NArg())
	}
	cfg.stream = fs.Arg(0)
	return cfg, nil
}

func runPlay(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	pc, err := parsePlayFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitUsage
	}

	cfg, err := config.Load(pc.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitError
	}
	if pc.subtitles != "" {
		cfg.SubtitleDir = pc.subtitles
	}
	if pc.logLevel != "" {
		cfg.LogLevel = pc.logLevel
	}
	if err := setupLogging(cfg.LogLevel, stderr); err != nil {
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitUsage
	}

	screen, err := display.NewMemory(pc.width, pc.height)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create screen: %v\n", err)
		return exitUsage
	}
	events := input.NewQueue(0)
	mixer := audio.NewMixer(cfg.MusicVolume)
	sink := audio.NewBuffer(0)
	router := audio.NewTrackRouter(sink)

	p, err := player.NewPlayer(player.Deps{
		Display:   screen,
		Input:     events,
		Mixer:     mixer,
		Subtitles: subtitle.NewRenderer(cfg.SubtitleDir),
		NewSource: func() player.FrameSource {
			return source.New(source.WithAuxHandler(router))
		},
	}, player.FromConfig(cfg), player.WithStreamDir(filepath.Dir(pc.stream)))
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create player: %v\n", err)
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go readKeys(ctx, stdin, events)

	streamID := filepath.Base(pc.stream)
	if err := p.Play(ctx, streamID, player.Flags(pc.flags)); err != nil {
		fmt.Fprintf(stderr, "Playback failed: %v\n", err)
		return exitError
	}

	if sess, ok := p.LastSession(); ok {
		printSummary(stdout, sess, sink)
	}

	if pc.pngPath != "" {
		if err := writeSnapshot(screen, pc.pngPath); err != nil {
			fmt.Fprintf(stderr, "Failed to write snapshot: %v\n", err)
			return exitError
		}
	}
	return exitOK
}

func setupLogging(level string, out io.Writer) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(out)
	return nil
}

// readKeys turns lines typed on r into key presses: "q" is Escape, an empty
// line is Return. It stops at EOF or when ctx is done.
func readKeys(ctx context.Context, r io.Reader, events *input.Queue) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "q", "esc":
			events.Push(input.KeyPress(input.KeyEscape))
		case "":
			events.Push(input.KeyPress(input.KeyReturn))
		case "space":
			events.Push(input.KeyPress(input.KeySpace))
		}
	}
}

func printSummary(w io.Writer, sess player.Session, sink *audio.Buffer) {
	fmt.Fprintf(w, "session %s\n", sess.ID)
	fmt.Fprintf(w, "  stream:   %s\n", sess.StreamID)
	fmt.Fprintf(w, "  outcome:  %s\n", sess.State)
	fmt.Fprintf(w, "  mode:     %s\n", sess.Mode)
	fmt.Fprintf(w, "  frames:   %d presented, %d without subtitle color\n", sess.FramesPresented, sess.FramesWithoutKey)
	fmt.Fprintf(w, "  duration: %s\n", sess.Duration())
	if sess.Err != nil {
		fmt.Fprintf(w, "  error:    %v\n", sess.Err)
	}
	for track := uint8(0); track < container.MaxAuxTracks; track++ {
		st := sink.Stats(track)
		if st.Packets == 0 {
			continue
		}
		fmt.Fprintf(w, "  audio %d:  %d packets, %d samples at %d Hz\n", track, st.Packets, st.Samples, st.SampleRate)
	}
}

func writeSnapshot(screen *display.Memory, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := screen.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
