package main

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2/audio"

	"ARG/internal/sound"
)

// audioOutput plays the tap through the system audio device.
type audioOutput struct {
	ctx    *audio.Context
	player *audio.Player
	tap    *sound.Tap
}

// newAudioOutput opens the audio context and starts a player that reads
// from tap. The tap plays silence until a clip is set.
func newAudioOutput(tap *sound.Tap) (*audioOutput, error) {
	ctx := audio.NewContext(audioSampleRate)
	player, err := ctx.NewPlayer(tap)
	if err != nil {
		return nil, fmt.Errorf("creating audio player: %w", err)
	}
	player.SetBufferSize(audioBufferDuration)
	player.Play()
	return &audioOutput{ctx: ctx, player: player, tap: tap}, nil
}

// Close stops playback.
func (a *audioOutput) Close() error {
	if a == nil || a.player == nil {
		return nil
	}
	return a.player.Close()
}
