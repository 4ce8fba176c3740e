// Package spectrum turns the most recent audio samples into per-bin byte
// magnitudes, the same shape a browser analyser node hands to a visualiser.
package spectrum

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	dspspectrum "github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

var (
	// ErrFFTSize reports an FFT size that is not a power of two in [32, 32768].
	ErrFFTSize = errors.New("spectrum: invalid fft size")
	// ErrSampleRate reports a non-positive sample rate.
	ErrSampleRate = errors.New("spectrum: invalid sample rate")
	// ErrDecibelWindow reports MinDecibels >= MaxDecibels.
	ErrDecibelWindow = errors.New("spectrum: invalid decibel window")
	// ErrUnknownRange reports an unrecognised range name.
	ErrUnknownRange = errors.New("spectrum: unknown range")
)

// Config holds analyser settings.
type Config struct {
	FFTSize     int
	SampleRate  float64
	MinDecibels float64
	MaxDecibels float64
	// Smoothing blends each frame with the previous one, 0 disables it.
	Smoothing float64
	Bands     map[Range]Band
}

// DefaultConfig mirrors the usual browser analyser defaults.
func DefaultConfig(sampleRate float64) Config {
	return Config{
		FFTSize:     512,
		SampleRate:  sampleRate,
		MinDecibels: -100,
		MaxDecibels: -30,
		Smoothing:   0.8,
		Bands:       DefaultBands(),
	}
}

func (c Config) validate() error {
	if c.FFTSize < 32 || c.FFTSize > 32768 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("%w: %d", ErrFFTSize, c.FFTSize)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: %g", ErrSampleRate, c.SampleRate)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("%w: [%g, %g]", ErrDecibelWindow, c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// Analyzer computes byte spectra from a sliding window of samples. It is
// not safe for concurrent use; the frame loop owns it.
type Analyzer struct {
	cfg        Config
	plan       *algofft.Plan[complex128]
	window     []float64
	input      []complex128
	output     []complex128
	smoothed   []float64
	bins       []byte
	ready      bool
	rangeIndex map[Range][2]int
}

// NewAnalyzer validates cfg and prepares the FFT plan and window.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Smoothing < 0 {
		cfg.Smoothing = 0
	} else if cfg.Smoothing > 0.99 {
		cfg.Smoothing = 0.99
	}
	if cfg.Bands == nil {
		cfg.Bands = DefaultBands()
	}
	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum init fft plan: %w", err)
	}
	binCount := cfg.FFTSize / 2
	a := &Analyzer{
		cfg:        cfg,
		plan:       plan,
		window:     window.Generate(window.TypeBlackman, cfg.FFTSize, window.WithPeriodic()),
		input:      make([]complex128, cfg.FFTSize),
		output:     make([]complex128, cfg.FFTSize),
		smoothed:   make([]float64, binCount),
		bins:       make([]byte, binCount),
		rangeIndex: make(map[Range][2]int, len(cfg.Bands)),
	}
	nyquist := cfg.SampleRate / 2
	for r, b := range cfg.Bands {
		start, end := binWindow(b, nyquist, binCount)
		a.rangeIndex[r] = [2]int{start, end}
	}
	return a, nil
}

// FFTSize reports the analysis window length in samples.
func (a *Analyzer) FFTSize() int { return a.cfg.FFTSize }

// BinCount reports the number of bins in a full-range frame.
func (a *Analyzer) BinCount() int { return len(a.bins) }

// Ready reports whether at least one frame has been analysed since the
// last Reset.
func (a *Analyzer) Ready() bool { return a.ready }

// Reset forgets smoothing history and marks the analyser not ready, which
// the grid engine treats as a no-op tick.
func (a *Analyzer) Reset() {
	clear(a.smoothed)
	clear(a.bins)
	a.ready = false
}

// Analyze computes a new frame from the most recent FFTSize samples. Shorter
// inputs are zero padded at the front.
func (a *Analyzer) Analyze(samples []float32) {
	n := a.cfg.FFTSize
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	pad := n - len(samples)
	for i := 0; i < pad; i++ {
		a.input[i] = 0
	}
	for i, s := range samples {
		a.input[pad+i] = complex(float64(s)*a.window[pad+i], 0)
	}
	if err := a.plan.Forward(a.output, a.input); err != nil {
		return
	}

	const eps = 1e-12
	mags := dspspectrum.Magnitude(a.output[:len(a.bins)])
	scale := 1 / float64(n)
	tau := a.cfg.Smoothing
	dbRange := a.cfg.MaxDecibels - a.cfg.MinDecibels
	for k, m := range mags {
		m *= scale
		if a.ready {
			m = tau*a.smoothed[k] + (1-tau)*m
		}
		a.smoothed[k] = m
		db := 20 * math.Log10(math.Max(eps, m))
		v := math.Floor(255 * (db - a.cfg.MinDecibels) / dbRange)
		if v < 0 {
			v = 0
		} else if v > 255 {
			v = 255
		}
		a.bins[k] = byte(v)
	}
	a.ready = true
}

// Spectrum returns the bins for r. The slice aliases the analyser's buffer
// and is only valid until the next Analyze. A range that maps to no bins
// returns an empty, non-nil slice.
func (a *Analyzer) Spectrum(r Range) ([]byte, bool) {
	if !a.ready {
		return nil, false
	}
	if r == Full {
		return a.bins, true
	}
	idx, ok := a.rangeIndex[r]
	if !ok {
		return a.bins[:0], true
	}
	return a.bins[idx[0]:idx[1]], true
}
