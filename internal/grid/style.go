package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"ARG/internal/spectrum"
)

// RGB is a colour with channels in [0,1].
type RGB [3]float32

// ParseHex reads "#rrggbb", "#rgb" or the same without the leading '#'.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return RGB{float32(c.R), float32(c.G), float32(c.B)}, nil
}

// Hex formats c as "#rrggbb", clamping out of range channels.
func (c RGB) Hex() string {
	return colorful.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2])}.Clamped().Hex()
}

// lerpRGB interpolates in the a*(1-t)+b*t form so t=0 and t=1 return the
// endpoints exactly.
func lerpRGB(a, b RGB, t float32) RGB {
	u := 1 - t
	return RGB{a[0]*u + b[0]*t, a[1]*u + b[1]*t, a[2]*u + b[2]*t}
}

// ColorMapping selects the scalar that drives the gradient lookup.
type ColorMapping int

const (
	MapHeight ColorMapping = iota
	MapAudio
	MapCombined
)

var mappingNames = [...]string{"height", "audio", "combined"}

func (m ColorMapping) String() string {
	if m < 0 || int(m) >= len(mappingNames) {
		return fmt.Sprintf("ColorMapping(%d)", int(m))
	}
	return mappingNames[m]
}

// Next cycles through the mappings.
func (m ColorMapping) Next() ColorMapping {
	return (m + 1) % ColorMapping(len(mappingNames))
}

// WavePattern is the spatial rule that picks a spectrum bin for each cell.
type WavePattern int

const (
	PatternRadial WavePattern = iota
	PatternLinear
	PatternRandom
)

var patternNames = [...]string{"radial", "linear", "random"}

func (p WavePattern) String() string {
	if p < 0 || int(p) >= len(patternNames) {
		return fmt.Sprintf("WavePattern(%d)", int(p))
	}
	return patternNames[p]
}

// Next cycles through the patterns.
func (p WavePattern) Next() WavePattern {
	return (p + 1) % WavePattern(len(patternNames))
}

// HeightMode selects how a cell moves toward its per-frame target height.
type HeightMode int

const (
	// HeightImpulse assigns max(impulse, audio height) directly.
	HeightImpulse HeightMode = iota
	// HeightEased moves EaseRate of the way toward the target each frame.
	HeightEased
	// HeightSpring follows the target with a damped spring.
	HeightSpring
)

var heightModeNames = [...]string{"impulse", "eased", "spring"}

func (h HeightMode) String() string {
	if h < 0 || int(h) >= len(heightModeNames) {
		return fmt.Sprintf("HeightMode(%d)", int(h))
	}
	return heightModeNames[h]
}

// Next cycles through the height modes.
func (h HeightMode) Next() HeightMode {
	return (h + 1) % HeightMode(len(heightModeNames))
}

func parseName(names []string, s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, true
		}
	}
	return 0, false
}

// ParseColorMapping converts a name to a ColorMapping; "" means height.
func ParseColorMapping(s string) (ColorMapping, error) {
	if strings.TrimSpace(s) == "" {
		return MapHeight, nil
	}
	i, ok := parseName(mappingNames[:], s)
	if !ok {
		return MapHeight, fmt.Errorf("%w: color mapping %q", ErrInvalidStyle, s)
	}
	return ColorMapping(i), nil
}

// ParseWavePattern converts a name to a WavePattern; "" means radial.
func ParseWavePattern(s string) (WavePattern, error) {
	if strings.TrimSpace(s) == "" {
		return PatternRadial, nil
	}
	i, ok := parseName(patternNames[:], s)
	if !ok {
		return PatternRadial, fmt.Errorf("%w: wave pattern %q", ErrInvalidStyle, s)
	}
	return WavePattern(i), nil
}

// ParseHeightMode converts a name to a HeightMode; "" means impulse.
func ParseHeightMode(s string) (HeightMode, error) {
	if strings.TrimSpace(s) == "" {
		return HeightImpulse, nil
	}
	i, ok := parseName(heightModeNames[:], s)
	if !ok {
		return HeightImpulse, fmt.Errorf("%w: height mode %q", ErrInvalidStyle, s)
	}
	return HeightMode(i), nil
}

// Style is the per-instance appearance and behaviour. It is a plain value;
// copying a Style never shares state.
type Style struct {
	Low, Mid, High RGB

	// DecayRate multiplies the impulse field every frame, in (0,1).
	DecayRate float32
	// HeightScale is the height reached by a full-scale bin, > 0.
	HeightScale float32
	// StrengthScale scales painted impulses, in [0,1].
	StrengthScale float32
	// EaseRate is the per-frame blend used by HeightEased, in (0,1].
	EaseRate float32

	Mapping    ColorMapping
	Pattern    WavePattern
	HeightMode HeightMode
	Range      spectrum.Range
	Visible    bool
}

// DefaultStyle is the style given to freshly created instances.
func DefaultStyle() Style {
	return Style{
		Low:           RGB{0.05, 0.28, 0.63},
		Mid:           RGB{0, 0.9, 1},
		High:          RGB{1, 0.25, 0.5},
		DecayRate:     0.95,
		HeightScale:   3,
		StrengthScale: 1,
		EaseRate:      0.1,
		Mapping:       MapHeight,
		Pattern:       PatternRadial,
		HeightMode:    HeightImpulse,
		Range:         spectrum.Full,
		Visible:       true,
	}
}

// Validate checks the numeric ranges a Style must respect.
func (s Style) Validate() error {
	var errs []error
	if !(s.DecayRate > 0 && s.DecayRate < 1) {
		errs = append(errs, fmt.Errorf("%w: decay rate %g not in (0,1)", ErrInvalidStyle, s.DecayRate))
	}
	if !(s.HeightScale > 0) {
		errs = append(errs, fmt.Errorf("%w: height scale %g not > 0", ErrInvalidStyle, s.HeightScale))
	}
	if !(s.StrengthScale >= 0 && s.StrengthScale <= 1) {
		errs = append(errs, fmt.Errorf("%w: strength scale %g not in [0,1]", ErrInvalidStyle, s.StrengthScale))
	}
	if s.HeightMode == HeightEased && !(s.EaseRate > 0 && s.EaseRate <= 1) {
		errs = append(errs, fmt.Errorf("%w: ease rate %g not in (0,1]", ErrInvalidStyle, s.EaseRate))
	}
	return errors.Join(errs...)
}

// Clamp pulls every scalar back into its valid range. Panel edits go
// through it so a held key cannot push a style out of bounds.
func (s Style) Clamp() Style {
	s.DecayRate = clampf(s.DecayRate, 0.01, 0.999)
	s.HeightScale = clampf(s.HeightScale, 0.1, 20)
	s.StrengthScale = clampf(s.StrengthScale, 0, 1)
	s.EaseRate = clampf(s.EaseRate, 0.01, 1)
	return s
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
