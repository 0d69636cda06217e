package audio

import (
	"sync"
	"testing"

	"github.com/opd-ai/palmovie/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMixer_VolumeClamping(t *testing.T) {
	m := NewMixer(300)
	assert.Equal(t, MaxVolume, m.MusicVolume())

	m.SetMusicVolume(-5)
	assert.Equal(t, 0, m.MusicVolume())

	m.SetMusicVolume(128)
	assert.Equal(t, 128, m.MusicVolume())
}

func TestMixer_Mute(t *testing.T) {
	m := NewMixer(200)
	assert.False(t, m.IsMusicMuted())
	m.SetMusicMuted(true)
	assert.True(t, m.IsMusicMuted())
	assert.Equal(t, 200, m.MusicVolume(), "mute does not touch the volume")
}

func TestMixer_ConcurrentAccess(t *testing.T) {
	m := NewMixer(0)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			m.SetMusicVolume(v)
			_ = m.MusicVolume()
			_ = m.IsMusicMuted()
		}(i * 10)
	}
	wg.Wait()
	assert.GreaterOrEqual(t, m.MusicVolume(), 0)
}

func TestDecodePCM16(t *testing.T) {
	pcm, err := DecodePCM16([]byte{0x01, 0x00, 0xFF, 0xFF, 0x00, 0x80})
	require.NoError(t, err)
	assert.Equal(t, []int16{1, -1, -32768}, pcm)

	_, err = DecodePCM16([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestTrackRouter_PCM(t *testing.T) {
	buf := NewBuffer(3)
	router := NewTrackRouter(buf)

	err := router.HandleAux(container.AuxPacket{
		Track: 2, Codec: container.CodecPCM16, SampleRate: 22050,
		Payload: []byte{1, 0, 2, 0},
	})
	require.NoError(t, err)
	err = router.HandleAux(container.AuxPacket{
		Track: 2, Codec: container.CodecPCM16, SampleRate: 22050,
		Payload: []byte{3, 0, 4, 0},
	})
	require.NoError(t, err)

	assert.Equal(t, []int16{1, 2, 3}, buf.Samples(2), "buffer keeps at most its limit")
	assert.Equal(t, TrackStats{Packets: 2, Samples: 4, SampleRate: 22050}, buf.Stats(2))
	assert.Empty(t, buf.Samples(0))
}

func TestTrackRouter_IgnoresTracksWithoutCodec(t *testing.T) {
	buf := NewBuffer(10)
	router := NewTrackRouter(buf)

	require.NoError(t, router.HandleAux(container.AuxPacket{Track: 1, Codec: container.CodecNone, Payload: []byte{1, 2}}))

	assert.Zero(t, buf.Stats(1).Packets)
}

func TestTrackRouter_Errors(t *testing.T) {
	router := NewTrackRouter(NewBuffer(0))

	err := router.HandleAux(container.AuxPacket{Track: 0, Codec: container.Codec(42), Payload: []byte{1}})
	assert.ErrorIs(t, err, ErrUnsupportedCodec)

	err = router.HandleAux(container.AuxPacket{Track: 0, Codec: container.CodecPCM16, Payload: []byte{1}})
	assert.Error(t, err)

	err = router.HandleAux(container.AuxPacket{Track: 3, Codec: container.CodecOpus})
	assert.Error(t, err, "empty opus packet")
}

func TestOpusTrack_RejectsEmptyPacket(t *testing.T) {
	track := NewOpusTrack()
	_, _, _, err := track.Decode(nil)
	assert.Error(t, err)
}
