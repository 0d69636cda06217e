package source

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/opd-ai/palmovie/container"
	"github.com/opd-ai/palmovie/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingAux struct {
	packets []container.AuxPacket
}

func (r *recordingAux) HandleAux(pkt container.AuxPacket) error {
	r.packets = append(r.packets, pkt)
	return nil
}

func dimensions(width, height uint16) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint16(b[0:], width)
	binary.LittleEndian.PutUint16(b[2:], height)
	return b
}

func writeStream(t *testing.T, h container.Header, records ...container.FrameRecord) []byte {
	t.Helper()
	var buf bytes.Buffer
	w, err := container.NewWriter(&buf, h)
	require.NoError(t, err)
	for _, rec := range records {
		require.NoError(t, w.WriteFrame(rec))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func header(width, height uint16) container.Header {
	return container.Header{Width: width, Height: height, FrameDuration: 1000, SampleRate: 22050}
}

func TestHalfHeightDetection(t *testing.T) {
	tests := []struct {
		name         string
		height       uint16
		nominal      uint16
		expectLowRes bool
	}{
		{"half of picture height", 240, 120, true},
		{"full height", 240, 240, false},
		{"other height", 240, 100, false},
		{"doubled sentinel", 200, 200, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pix := make([]byte, 16*int(tt.height))
			data := writeStream(t, header(16, tt.height), container.FrameRecord{
				Pixels: pix,
				Aux:    []container.AuxChunk{{Track: MetadataTrack, Payload: dimensions(16, tt.nominal)}},
			})
			aux := &recordingAux{}
			src := New(WithAuxHandler(aux))
			require.NoError(t, src.LoadReader("test.pmv", bytes.NewReader(data)))

			_, err := src.DecodeNextFrame()
			require.NoError(t, err)

			assert.Equal(t, tt.expectLowRes, src.IsLowRes())
			assert.Empty(t, aux.packets, "metadata chunk must not reach the audio handler")
			if tt.expectLowRes {
				assert.Equal(t, video.ModeHalfHeight, src.Mode())
			} else {
				assert.Equal(t, video.ModeNormal, src.Mode())
			}
		})
	}
}

func TestHalfHeightQuirks_ForwardsOtherPackets(t *testing.T) {
	data := writeStream(t, header(16, 8), container.FrameRecord{
		Pixels: make([]byte, 128),
		Aux: []container.AuxChunk{
			{Track: MetadataTrack, Payload: []byte{1, 2, 3}},
			{Track: MetadataTrack, Payload: []byte{1, 2, 3, 4, 5}},
			{Track: 0, Payload: dimensions(16, 4)},
		},
	})
	aux := &recordingAux{}
	src := New(WithAuxHandler(aux))
	require.NoError(t, src.LoadReader("test.pmv", bytes.NewReader(data)))

	_, err := src.DecodeNextFrame()
	require.NoError(t, err)

	require.Len(t, aux.packets, 3)
	assert.Equal(t, []byte{1, 2, 3}, aux.packets[0].Payload)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, aux.packets[1].Payload)
	assert.Equal(t, uint8(0), aux.packets[2].Track)
	assert.False(t, src.IsLowRes())
}

func TestHalfHeightQuirks_VideoTrackFlags(t *testing.T) {
	q := &HalfHeightQuirks{}
	assert.Equal(t, container.FlagYDoubled, q.VideoTrackFlags(640, 200, 0))
	assert.Equal(t, container.FlagYDoubled, q.VideoTrackFlags(640, 200, container.FlagYInterlaced))
	assert.Equal(t, container.FlagYInterlaced, q.VideoTrackFlags(640, 201, container.FlagYInterlaced))
	assert.Equal(t, uint32(0), q.VideoTrackFlags(640, 400, 0))
}

func TestFrameSource_SentinelHeightIsDoubled(t *testing.T) {
	data := writeStream(t, header(8, 200), container.FrameRecord{Pixels: make([]byte, 8*200)})
	src := New()
	require.NoError(t, src.LoadReader("tall.pmv", bytes.NewReader(data)))

	frame, err := src.DecodeNextFrame()

	require.NoError(t, err)
	assert.Equal(t, 400, frame.Height)
}

func TestFrameSource_ReloadResetsDetection(t *testing.T) {
	lowRes := writeStream(t, header(16, 8), container.FrameRecord{
		Pixels: make([]byte, 128),
		Aux:    []container.AuxChunk{{Track: MetadataTrack, Payload: dimensions(16, 4)}},
	})
	normal := writeStream(t, header(16, 8), container.FrameRecord{Pixels: make([]byte, 128)})

	src := New()
	require.NoError(t, src.LoadReader("a.pmv", bytes.NewReader(lowRes)))
	_, err := src.DecodeNextFrame()
	require.NoError(t, err)
	require.True(t, src.IsLowRes())

	require.NoError(t, src.LoadReader("b.pmv", bytes.NewReader(normal)))
	assert.False(t, src.IsLowRes())
	_, _, ok := src.quirks.NominalSize()
	assert.False(t, ok)
}

func TestFrameSource_LoadStreamFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.pmv")
	require.NoError(t, os.WriteFile(path, writeStream(t, header(8, 8), container.FrameRecord{Pixels: make([]byte, 64)}), 0o644))

	src := New()
	require.NoError(t, src.LoadStream(path))
	src.Start()
	assert.True(t, src.NeedsUpdate())
	frame, err := src.DecodeNextFrame()
	require.NoError(t, err)
	assert.NotNil(t, frame)
	assert.Equal(t, 0, src.CurrentFrame())
	assert.True(t, src.EndOfVideo())

	assert.NoError(t, src.Close())
	assert.NoError(t, src.Close())
}

func TestFrameSource_LoadFailures(t *testing.T) {
	dir := t.TempDir()

	src := New()
	err := src.LoadStream(filepath.Join(dir, "missing.pmv"))
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "missing.pmv")

	corrupt := filepath.Join(dir, "corrupt.pmv")
	require.NoError(t, os.WriteFile(corrupt, []byte("PMV1 but not really"), 0o644))
	err = src.LoadStream(corrupt)
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, container.ErrTruncated)
}
