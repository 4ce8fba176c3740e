// Package sound decodes audio files into PCM for playback and mono samples
// for analysis, and taps the playing stream so the analyser always sees
// the samples the listener is hearing.
package sound

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/h2non/filetype"
	"github.com/hajimehoshi/ebiten/v2/audio/mp3"
	"github.com/hajimehoshi/ebiten/v2/audio/vorbis"
	"github.com/hajimehoshi/ebiten/v2/audio/wav"
)

const (
	channels       = 2
	bytesPerSample = 2
	frameBytes     = channels * bytesPerSample
)

var (
	// ErrDecode reports malformed or unsupported audio input.
	ErrDecode = errors.New("sound: decode failed")
	// ErrUnsupportedFormat reports input that is not WAV, MP3 or Ogg Vorbis.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", ErrDecode)
)

// Clip is a fully decoded track.
type Clip struct {
	Name       string
	Format     string
	SampleRate int
	// PCM is interleaved signed 16-bit little endian stereo.
	PCM []byte
	// Mono is the channel average of PCM scaled to [-1, 1).
	Mono []float32
}

// Frames reports the number of stereo frames.
func (c *Clip) Frames() int { return len(c.PCM) / frameBytes }

// Sniff reports the container format of raw ("wav", "mp3" or "ogg").
func Sniff(raw []byte) (string, error) {
	kind, err := filetype.Match(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	switch kind.Extension {
	case "wav", "mp3", "ogg":
		return kind.Extension, nil
	}
	if kind == filetype.Unknown {
		return "", ErrUnsupportedFormat
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind.MIME.Value)
}

// Decode sniffs raw and decodes it, resampled to sampleRate.
func Decode(name string, raw []byte, sampleRate int) (*Clip, error) {
	format, err := Sniff(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", name, err)
	}

	var stream io.Reader
	src := bytes.NewReader(raw)
	switch format {
	case "wav":
		stream, err = wav.DecodeWithSampleRate(sampleRate, src)
	case "mp3":
		stream, err = mp3.DecodeWithSampleRate(sampleRate, src)
	case "ogg":
		stream, err = vorbis.DecodeWithSampleRate(sampleRate, src)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w: %v", name, ErrDecode, err)
	}
	pcm, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("reading decoded %q: %w: %v", name, ErrDecode, err)
	}
	pcm = pcm[:len(pcm)-len(pcm)%frameBytes]
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%q has no audio data: %w", name, ErrDecode)
	}
	return &Clip{
		Name:       name,
		Format:     format,
		SampleRate: sampleRate,
		PCM:        pcm,
		Mono:       decodeStereoI16ToFloat(pcm),
	}, nil
}

func decodeStereoI16ToFloat(pcm []byte) []float32 {
	frameCount := len(pcm) / frameBytes
	if frameCount == 0 {
		return nil
	}
	samples := make([]float32, frameCount)
	for i := 0; i < frameCount; i++ {
		offset := i * frameBytes
		left := int16(binary.LittleEndian.Uint16(pcm[offset : offset+2]))
		right := int16(binary.LittleEndian.Uint16(pcm[offset+2 : offset+4]))
		samples[i] = (float32(left) + float32(right)) * (0.5 / 32768.0)
	}
	return samples
}
