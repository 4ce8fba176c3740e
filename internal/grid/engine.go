package grid

import (
	"math/rand"
	"time"

	"github.com/charmbracelet/harmonica"
	"github.com/chewxy/math32"

	"ARG/internal/spectrum"
)

const (
	// TicksPerSecond is the fixed time step the engine assumes per update.
	TicksPerSecond  = 60
	springFrequency = 8.0
	springDamping   = 0.6
)

// SpectrumSource yields byte magnitudes for a frequency range. ok is false
// while no audio has been analysed yet.
type SpectrumSource interface {
	Spectrum(r spectrum.Range) (bins []byte, ok bool)
}

// Engine advances instances by one frame. It owns the random source used
// by PatternRandom and is meant to be driven from a single goroutine.
type Engine struct {
	rand   *rand.Rand
	spring harmonica.Spring
}

// NewEngine returns an engine with a time seeded random source.
func NewEngine() *Engine {
	return &Engine{
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		spring: harmonica.NewSpring(harmonica.FPS(TicksPerSecond), springFrequency, springDamping),
	}
}

// Update reads the instance's range from src and applies one frame. A
// source that is not ready leaves the instance untouched.
func (e *Engine) Update(g *Instance, src SpectrumSource) error {
	if src == nil {
		return nil
	}
	bins, ok := src.Spectrum(g.Style.Range)
	if !ok {
		return nil
	}
	if bins == nil {
		bins = []byte{}
	}
	return e.Apply(g, bins)
}

// Apply runs one frame of the grid update with the given spectrum. A nil
// spectrum means "not ready" and is a no-op; an empty one drives every cell
// with an audio value of 0.
func (e *Engine) Apply(g *Instance, bins []byte) error {
	if bins == nil {
		return nil
	}
	if err := g.Validate(); err != nil {
		return err
	}

	st := g.Style
	n := g.Dim
	l := len(bins)
	half := float32(Extent) / 2
	maxDist := math32.Sqrt(2 * half * half)

	for i := range g.Heights {
		x, z := cellPosition(i, n)

		idx := -1
		switch st.Pattern {
		case PatternRadial:
			d := math32.Sqrt(x*x + z*z)
			idx = int(math32.Floor(d / maxDist * float32(l)))
		case PatternLinear:
			if l > 0 {
				idx = i % l
			}
		case PatternRandom:
			if l > 0 {
				idx = e.rand.Intn(l)
			}
		}
		var audio float32
		if idx >= 0 && idx < l {
			audio = float32(bins[idx])
		}

		audioHeight := audio / 255 * st.HeightScale
		target := g.Impulses[i]
		if audioHeight > target {
			target = audioHeight
		}

		h := target
		switch st.HeightMode {
		case HeightEased:
			h = g.Heights[i] + (target-g.Heights[i])*st.EaseRate
		case HeightSpring:
			pos, vel := e.spring.Update(float64(g.Heights[i]), float64(g.Velocities[i]), float64(target))
			h = float32(pos)
			g.Velocities[i] = float32(vel)
		}

		g.Impulses[i] *= st.DecayRate

		var factor float32
		switch st.Mapping {
		case MapAudio:
			factor = audio / 255
		case MapCombined:
			factor = (h + audio) / (st.HeightScale + 255)
		default:
			factor = h / st.HeightScale
		}

		g.Heights[i] = h
		c := gradient(st, factor)
		copy(g.Colors[3*i:3*i+3], c[:])
	}
	return nil
}

// gradient maps f onto the Low→Mid→High stops, split at 0.5. Impulses can
// exceed HeightScale, so f is clamped to [0,1] first.
func gradient(st Style, f float32) RGB {
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	if f < 0.5 {
		return lerpRGB(st.Low, st.Mid, f*2)
	}
	return lerpRGB(st.Mid, st.High, (f-0.5)*2)
}
