package main

import "time"

// Window, analyser and interaction constants used by the shell. The core
// packages take their configuration explicitly; these are only the values
// main wires into them.
const (
	screenW, screenH     = 1280, 720
	windowTitle          = "Audio Reactive Grid"
	defaultTPS           = 60
	defaultGridDim       = 48
	defaultFFTSize       = 512
	analyserMinDecibels  = -100
	analyserMaxDecibels  = -30
	analyserSmoothing    = 0.8
	audioSampleRate      = 48000
	audioBufferDuration  = 80 * time.Millisecond
	orbitSensitivity     = 0.005
	zoomStep             = 0.9
	decayStep            = 0.005
	wireframeWidth       = 1.5
	glowDownscale        = 4
	glowStrength         = 0.6
	autoBrushRadius      = 2.5
	autoBrushSpeed       = 0.15
	pgoRecordDuration    = 15 * time.Second
	tickErrorLogInterval = 2 * time.Second
)

// audioLatencyFrames is how far ahead of the speaker the player reads.
const audioLatencyFrames = int(audioBufferDuration * audioSampleRate / time.Second)
