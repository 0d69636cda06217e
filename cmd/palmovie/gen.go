package main

import (
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/opd-ai/palmovie/container"
	"github.com/opd-ai/palmovie/source"
	"github.com/opd-ai/palmovie/video"
)

// demoOptions describes the synthetic stream written by gen.
type demoOptions struct {
	frames     int
	width      int
	height     int
	fps        int
	sampleRate int
	lowRes     bool
	raw        bool
}

// Demo pictures only use indices [demoFirstIndex, demoFirstIndex+demoBands)
// so index 1 stays free for subtitles.
const (
	demoFirstIndex = 16
	demoBands      = 64
)

func parseGenFlags(args []string, stderr io.Writer) (*demoOptions, string, error) {
	opts := &demoOptions{}
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.IntVar(&opts.frames, "frames", 48, "Number of frames")
	fs.IntVar(&opts.width, "width", 64, "Picture width")
	fs.IntVar(&opts.height, "height", 48, "Picture height as stored")
	fs.IntVar(&opts.fps, "fps", 15, "Frames per second")
	fs.IntVar(&opts.sampleRate, "rate", 22050, "PCM sample rate of the audio track, 0 for none")
	fs.BoolVar(&opts.lowRes, "lowres", false, "Store a half-height picture with dimension metadata")
	fs.BoolVar(&opts.raw, "raw", false, "Store pictures uncompressed instead of RLE")

	if err := fs.Parse(args); err != nil {
		return nil, "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return nil, "", fmt.Errorf("gen needs exactly one output path, got %d", fs.NArg())
	}
	if opts.frames <= 0 || opts.fps <= 0 || opts.sampleRate < 0 {
		return nil, "", fmt.Errorf("frames and fps must be positive, rate not negative")
	}
	if opts.width <= 0 || opts.width > 0xffff || opts.height <= 0 || opts.height > 0xffff {
		return nil, "", fmt.Errorf("invalid picture size %dx%d", opts.width, opts.height)
	}
	return opts, fs.Arg(0), nil
}

func runGen(args []string, stdout, stderr io.Writer) int {
	opts, path, err := parseGenFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Configuration error: %v\n", err)
		return exitUsage
	}

	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create %s: %v\n", path, err)
		return exitError
	}
	if err := writeDemo(f, *opts); err != nil {
		f.Close()
		fmt.Fprintf(stderr, "Failed to write %s: %v\n", path, err)
		return exitError
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(stderr, "Failed to write %s: %v\n", path, err)
		return exitError
	}

	fmt.Fprintf(stdout, "wrote %s: %d frames, %dx%d, low-res %t\n", path, opts.frames, opts.width, opts.height, opts.lowRes)
	return exitOK
}

// writeDemo writes a stream of scrolling color bands. Audio goes on track 0;
// in low-res mode the picture is stored line-doubled and track 1 carries
// the nominal dimensions.
func writeDemo(w io.Writer, opts demoOptions) error {
	h := container.Header{
		Width:         uint16(opts.width),
		Height:        uint16(opts.height),
		FrameDuration: uint32(1000000 / opts.fps),
		SampleRate:    uint32(opts.sampleRate),
	}
	if opts.lowRes {
		h.Flags = container.FlagYDoubled
	}
	if opts.sampleRate > 0 {
		h.Codecs[0] = container.CodecPCM16
	}

	cw, err := container.NewWriter(w, h)
	if err != nil {
		return err
	}

	palette := demoPalette()
	encoding := container.EncodingRLE
	if opts.raw {
		encoding = container.EncodingRaw
	}

	for i := 0; i < opts.frames; i++ {
		rec := container.FrameRecord{
			Pixels:   demoPicture(opts.width, opts.height, i),
			Encoding: encoding,
		}
		if i == 0 {
			rec.Palette = &palette
			if opts.lowRes {
				rec.Aux = append(rec.Aux, container.AuxChunk{
					Track:   source.MetadataTrack,
					Payload: dimensionChunk(opts.width, opts.height),
				})
			}
		}
		if opts.sampleRate > 0 {
			rec.Aux = append(rec.Aux, container.AuxChunk{
				Track:   0,
				Payload: squareWave(opts.sampleRate/opts.fps, i),
			})
		}
		if err := cw.WriteFrame(rec); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return cw.Close()
}

func demoPalette() video.Palette {
	var p video.Palette
	for i := 0; i < demoBands; i++ {
		p[demoFirstIndex+i] = video.RGB{
			R: uint8(i * 4),
			G: uint8(255 - i*4),
			B: uint8(128 + i*2),
		}
	}
	return p
}

func demoPicture(width, height, frame int) []byte {
	pix := make([]byte, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix[y*width+x] = byte(demoFirstIndex + (x/4+y/8+frame)%demoBands)
		}
	}
	return pix
}

// dimensionChunk encodes the nominal size of a line-doubled picture: the
// stored height is half of what the decoder will output.
func dimensionChunk(width, height int) []byte {
	b := make([]byte, source.MetadataSize)
	binary.LittleEndian.PutUint16(b[0:], uint16(width))
	binary.LittleEndian.PutUint16(b[2:], uint16(height))
	return b
}

func squareWave(samples, frame int) []byte {
	b := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(4000)
		if ((frame*samples+i)/50)%2 == 1 {
			v = -v
		}
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}
