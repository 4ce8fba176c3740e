package main

import "flag"

// Command-line flags for the visualiser shell.
var (
	// audioFlag names an audio file to load at startup.
	audioFlag = flag.String("audio", "", "audio file (wav, mp3 or ogg) to play at startup")

	// presetFlag names a YAML preset describing the initial instances. The
	// file is watched and reapplied when it changes.
	presetFlag = flag.String("preset", "", "YAML preset describing the initial grids; reloaded on change")

	// gridDimFlag sets the side length of new grids.
	gridDimFlag = flag.Int("grid", defaultGridDim, "cells per side for new grids")

	fftSizeFlag = flag.Int("fft-size", defaultFFTSize, "analyser FFT size (power of two)")

	// debugFlag enables the FPS and scene overlay.
	debugFlag = flag.Bool("debug", false, "show FPS, selection and style overlay")

	// openCLFlag runs the grid update on an OpenCL device when the binary
	// was built with -tags opencl.
	openCLFlag = flag.Bool("opencl", false, "update grids on an OpenCL device (requires -tags opencl)")

	// recordDefaultPGO runs the auto brush while capturing default.pgo.
	recordDefaultPGO = flag.Bool("record-default-pgo", false, "run the auto brush for 15s while capturing default.pgo")

	autoBrushFlag = flag.Bool("auto-brush", false, "wander a brush over the selected grid")
)
