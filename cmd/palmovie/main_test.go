package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opd-ai/palmovie/container"
	"github.com/opd-ai/palmovie/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI()
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "Usage:")

	code, stdout, _ := runCLI("help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "palmovie play")

	code, _, stderr = runCLI("dance")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, `unknown command "dance"`)
}

func TestGen_ArgumentErrors(t *testing.T) {
	code, _, _ := runCLI("gen")
	assert.Equal(t, exitUsage, code)

	code, _, stderr := runCLI("gen", "-frames", "0", filepath.Join(t.TempDir(), "x.pmv"))
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "must be positive")

	code, _, _ = runCLI("gen", "-h")
	assert.Equal(t, exitOK, code)
}

func TestWriteDemo_Decodes(t *testing.T) {
	tests := []struct {
		name       string
		opts       demoOptions
		wantLowRes bool
		wantHeight int
	}{
		{"normal", demoOptions{frames: 3, width: 16, height: 8, fps: 10, sampleRate: 8000}, false, 8},
		{"low res", demoOptions{frames: 3, width: 16, height: 8, fps: 10, lowRes: true}, true, 16},
		{"raw", demoOptions{frames: 2, width: 16, height: 8, fps: 10, raw: true}, false, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeDemo(&buf, tt.opts))

			src := source.New()
			require.NoError(t, src.LoadReader(tt.name, bytes.NewReader(buf.Bytes())))
			frame, err := src.DecodeNextFrame()
			require.NoError(t, err)
			require.NotNil(t, frame)

			assert.Equal(t, tt.wantHeight, frame.Height)
			assert.Equal(t, tt.wantLowRes, src.IsLowRes())
			assert.Equal(t, byte(demoFirstIndex), frame.Pixels[0])
		})
	}
}

func TestGenThenPlay(t *testing.T) {
	dir := t.TempDir()
	stream := filepath.Join(dir, "demo.pmv")
	snapshot := filepath.Join(dir, "last.png")

	code, stdout, stderr := runCLI("gen", "-frames", "4", "-fps", "200", "-rate", "8000", stream)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "wrote")

	code, stdout, stderr = runCLI("play", "-width", "64", "-height", "48", "-log-level", "error", "-png", snapshot, stream)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "outcome:  finished")
	assert.Contains(t, stdout, "4 presented")
	assert.Contains(t, stdout, "audio 0:")

	f, err := os.Open(snapshot)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
}

func TestPlay_MissingStream(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "209_1M.SMK")

	code, _, stderr := runCLI("play", "-log-level", "error", missing)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "209_1M.SMK")

	code, stdout, _ := runCLI("play", "-log-level", "error", "-flags", "2", missing)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "outcome:  failed")
}

func TestPlay_BadArguments(t *testing.T) {
	code, _, _ := runCLI("play")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI("play", "-log-level", "chatty", "x.pmv")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI("play", "-config", filepath.Join(t.TempDir(), "none.yaml"), "x.pmv")
	assert.Equal(t, exitError, code)
}

func TestDimensionChunk(t *testing.T) {
	b := dimensionChunk(640, 200)
	require.Len(t, b, source.MetadataSize)
	assert.Equal(t, []byte{0x80, 0x02, 0xc8, 0x00}, b)
	assert.Less(t, int(source.MetadataTrack), container.MaxAuxTracks)
}
