package sound

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wavBytes builds a 16-bit stereo PCM WAV file.
func wavBytes(sampleRate int, frames [][2]int16) []byte {
	var buf bytes.Buffer
	dataLen := uint32(len(frames) * frameBytes)
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36)+dataLen)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*frameBytes))
	binary.Write(&buf, binary.LittleEndian, uint16(frameBytes))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	for _, f := range frames {
		binary.Write(&buf, binary.LittleEndian, f[0])
		binary.Write(&buf, binary.LittleEndian, f[1])
	}
	return buf.Bytes()
}

func testClip(mono []float32) *Clip {
	pcm := make([]byte, len(mono)*frameBytes)
	for i := range mono {
		binary.LittleEndian.PutUint16(pcm[i*frameBytes:], uint16(int16(i)))
		binary.LittleEndian.PutUint16(pcm[i*frameBytes+2:], uint16(int16(i)))
	}
	return &Clip{Name: "test", SampleRate: 1000, PCM: pcm, Mono: mono}
}

func TestDecodeWAV(t *testing.T) {
	frames := make([][2]int16, 256)
	for i := range frames {
		frames[i] = [2]int16{16384, 0}
	}
	clip, err := Decode("tone.wav", wavBytes(48000, frames), 48000)
	require.NoError(t, err)
	assert.Equal(t, "wav", clip.Format)
	assert.Equal(t, 256, clip.Frames())
	require.Len(t, clip.Mono, 256)
	assert.InDelta(t, 0.25, clip.Mono[10], 1e-6)
}

func TestSniffRejectsUnknownInput(t *testing.T) {
	_, err := Sniff([]byte("definitely not audio, just some text"))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.True(t, errors.Is(err, ErrDecode))

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0}
	_, err = Sniff(png)
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestDecodeRejectsTruncatedWAV(t *testing.T) {
	raw := wavBytes(48000, [][2]int16{{1, 1}})[:20]
	_, err := Decode("broken.wav", raw, 48000)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestDecodeStereoAverage(t *testing.T) {
	pcm := make([]byte, 8)
	binary.LittleEndian.PutUint16(pcm[0:], 0x8000) // int16(-32768)
	binary.LittleEndian.PutUint16(pcm[2:], 0x8000) // int16(-32768)
	binary.LittleEndian.PutUint16(pcm[4:], uint16(int16(8192)))
	binary.LittleEndian.PutUint16(pcm[6:], 0xE000) // int16(-8192)
	got := decodeStereoI16ToFloat(pcm)
	assert.Equal(t, []float32{-1, 0}, got)
}

func TestLoaderLastLoadWins(t *testing.T) {
	release := make(chan struct{})
	decode := func(name string, raw []byte, sr int) (*Clip, error) {
		if name == "slow" {
			<-release
		}
		return &Clip{Name: name, SampleRate: sr}, nil
	}
	l := NewLoaderWith(48000, decode)

	first := l.Load("slow", nil)
	second := l.Load("fast", nil)
	assert.Greater(t, second, first)
	assert.Equal(t, second, l.Generation())

	var got Result
	require.Eventually(t, func() bool {
		r, ok := l.Poll()
		if ok {
			got = r
		}
		return ok
	}, time.Second, time.Millisecond)
	assert.Equal(t, second, got.Generation)
	assert.Equal(t, "fast", got.Clip.Name)

	close(release)
	time.Sleep(20 * time.Millisecond)
	_, ok := l.Poll()
	assert.False(t, ok, "stale decode must be dropped")
}

func TestLoaderReportsDecodeError(t *testing.T) {
	l := NewLoader(48000)
	gen := l.Load("noise.bin", []byte("not audio at all"))
	var got Result
	require.Eventually(t, func() bool {
		r, ok := l.Poll()
		if ok {
			got = r
		}
		return ok
	}, time.Second, time.Millisecond)
	assert.Equal(t, gen, got.Generation)
	assert.Nil(t, got.Clip)
	assert.True(t, errors.Is(got.Err, ErrDecode))

	_, ok := l.Poll()
	assert.False(t, ok, "results are handed over once")
}

func TestTapStreamsAndLoops(t *testing.T) {
	tap := NewTap(0, true)
	p := make([]byte, 4*frameBytes)
	n, err := tap.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, make([]byte, len(p)), p, "silence without a clip")

	tap.SetClip(testClip(make([]float32, 3)))
	n, err = tap.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	frame := func(i int) int16 { return int16(binary.LittleEndian.Uint16(p[i*frameBytes:])) }
	assert.Equal(t, []int16{0, 1, 2, 0}, []int16{frame(0), frame(1), frame(2), frame(3)})
}

func TestTapStopsAtEndWithoutLoop(t *testing.T) {
	tap := NewTap(0, false)
	tap.SetClip(testClip(make([]float32, 2)))
	p := make([]byte, 4*frameBytes)
	for i := range p {
		p[i] = 0xff
	}
	n, err := tap.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, make([]byte, 2*frameBytes), p[2*frameBytes:])
}

func TestTapPauseAndPartialFrames(t *testing.T) {
	tap := NewTap(0, true)
	tap.SetClip(testClip(make([]float32, 8)))
	assert.True(t, tap.TogglePause())
	p := make([]byte, 2*frameBytes+3)
	n, err := tap.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 2*frameBytes, n)
	assert.Zero(t, tap.Position())
	assert.False(t, tap.TogglePause())
}

func TestTapRecentHonoursLatency(t *testing.T) {
	mono := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	tap := NewTap(2, true)
	assert.Nil(t, tap.Recent(4, nil))

	tap.SetClip(testClip(mono))
	_, err := tap.Read(make([]byte, 8*frameBytes))
	require.NoError(t, err)
	assert.Equal(t, 8*time.Millisecond, tap.Position())

	got := tap.Recent(4, nil)
	assert.Equal(t, []float32{2, 3, 4, 5}, got)

	got = tap.Recent(100, got)
	assert.Equal(t, mono[:6], got)
}

func TestTapRecentWrapsAcrossLoop(t *testing.T) {
	mono := []float32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	tap := NewTap(2, true)
	tap.SetClip(testClip(mono))
	_, err := tap.Read(make([]byte, 12*frameBytes))
	require.NoError(t, err)

	assert.Equal(t, []float32{6, 7, 8, 9}, tap.Recent(4, nil))

	_, err = tap.Read(make([]byte, frameBytes))
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 8, 9, 0}, tap.Recent(4, nil))
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 0}, tap.Recent(100, nil))

	tap.SetClip(testClip(mono))
	assert.Empty(t, tap.Recent(4, nil), "a fresh clip has nothing heard yet")
}
