package grid

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ARG/internal/spectrum"
)

type fixedSource struct {
	bins  []byte
	ready bool
	asked []spectrum.Range
}

func (f *fixedSource) Spectrum(r spectrum.Range) ([]byte, bool) {
	f.asked = append(f.asked, r)
	return f.bins, f.ready
}

func newTestInstance(t *testing.T, dim int) *Instance {
	t.Helper()
	inst, err := New(dim, DefaultStyle())
	require.NoError(t, err)
	return inst
}

func TestNewRejectsBadDimension(t *testing.T) {
	_, err := New(1, DefaultStyle())
	assert.True(t, errors.Is(err, ErrDimension))
	_, err = New(MaxDim+1, DefaultStyle())
	assert.True(t, errors.Is(err, ErrDimension))
}

func TestNewAllocatesMatchingBuffers(t *testing.T) {
	inst := newTestInstance(t, 12)
	require.NoError(t, inst.Validate())
	assert.Len(t, inst.Heights, 144)
	assert.Len(t, inst.Impulses, 144)
	assert.Len(t, inst.Colors, 3*144)
	assert.Equal(t, inst.Style.Low, inst.ColorAt(143))
}

func TestCellPositionSpansExtent(t *testing.T) {
	inst := newTestInstance(t, 16)
	x, z := inst.CellPosition(0)
	assert.Equal(t, float32(-Extent/2.0), x)
	assert.Equal(t, float32(-Extent/2.0), z)
	x, z = inst.CellPosition(inst.CellCount() - 1)
	assert.InDelta(t, Extent/2.0, x, 1e-5)
	assert.InDelta(t, Extent/2.0, z, 1e-5)
	x, z = inst.CellPosition(16)
	assert.Equal(t, float32(-Extent/2.0), x)
	assert.InDelta(t, -Extent/2.0+1, z, 1e-5)
}

func TestImpulseAtOriginRaisesCentreCell(t *testing.T) {
	const dim = 31
	inst := newTestInstance(t, dim)
	centre := (dim/2)*dim + dim/2
	x, z := inst.CellPosition(centre)
	require.Zero(t, x)
	require.Zero(t, z)

	require.True(t, inst.ApplyImpulse(0, 0, 1.5))
	assert.InDelta(t, 0.2, inst.Impulses[centre], 1e-6)

	for i, v := range inst.Impulses {
		cx, cz := inst.CellPosition(i)
		if math32.Sqrt(cx*cx+cz*cz) >= 1.5 {
			require.Zerof(t, v, "cell %d at (%g,%g) should be outside the brush", i, cx, cz)
		}
	}
	// Exactly on the radius: three cells right of centre.
	assert.Zero(t, inst.Impulses[centre+3])
	assert.Greater(t, inst.Impulses[centre+2], float32(0))
}

func TestImpulseScalesWithStrength(t *testing.T) {
	inst := newTestInstance(t, 31)
	inst.Style.StrengthScale = 0.5
	centre := 15*31 + 15
	inst.ApplyImpulse(0, 0, 0)
	assert.InDelta(t, 0.1, inst.Impulses[centre], 1e-6)

	inst.ResetImpulses()
	inst.Style.StrengthScale = 0
	assert.True(t, inst.ApplyImpulse(0, 0, 0))
	assert.Zero(t, inst.PeakImpulse())
}

func TestImpulseStaysBounded(t *testing.T) {
	inst := newTestInstance(t, 20)
	r := rand.New(rand.NewSource(7))
	for k := 0; k < 2000; k++ {
		x := r.Float32()*Extent - Extent/2
		z := r.Float32()*Extent - Extent/2
		inst.ApplyImpulse(x, z, r.Float32()*4)
	}
	for i := 0; i < 100; i++ {
		inst.ApplyImpulse(0, 0, 3)
	}
	for i, v := range inst.Impulses {
		require.GreaterOrEqualf(t, v, float32(0), "cell %d", i)
		require.LessOrEqualf(t, v, float32(CapImpulse), "cell %d", i)
	}
	assert.Equal(t, float32(CapImpulse), inst.PeakImpulse())
}

func TestImpulseOutsideGridTouchesNothing(t *testing.T) {
	inst := newTestInstance(t, 20)
	assert.False(t, inst.ApplyImpulse(100, 100, 1.5))
	assert.Zero(t, inst.PeakImpulse())
}

func TestDecayIsGeometric(t *testing.T) {
	inst := newTestInstance(t, 10)
	inst.Style.DecayRate = 0.9
	initial := make([]float32, len(inst.Impulses))
	for i := range inst.Impulses {
		inst.Impulses[i] = float32(i%5) + 0.5
		initial[i] = inst.Impulses[i]
	}

	e := NewEngine()
	silence := make([]byte, 64)
	const ticks = 25
	for k := 0; k < ticks; k++ {
		require.NoError(t, e.Apply(inst, silence))
	}
	factor := math.Pow(0.9, ticks)
	for i, v := range inst.Impulses {
		assert.InDeltaf(t, float64(initial[i])*factor, float64(v), 1e-5, "cell %d", i)
	}
}

func TestDecayWithoutUpdate(t *testing.T) {
	inst := newTestInstance(t, 4)
	inst.Style.DecayRate = 0.5
	inst.Impulses[3] = 4
	inst.Decay()
	inst.Decay()
	assert.Equal(t, float32(1), inst.Impulses[3])
}

func TestHeightIsImpulseFloorOverAudio(t *testing.T) {
	inst := newTestInstance(t, 8)
	inst.Style.Pattern = PatternLinear
	inst.Style.HeightScale = 2
	inst.Impulses[0] = 1.5
	inst.Impulses[1] = 0.2
	bins := []byte{0, 255}

	require.NoError(t, NewEngine().Apply(inst, bins))
	assert.Equal(t, float32(1.5), inst.Heights[0], "impulse above silence")
	assert.Equal(t, float32(2), inst.Heights[1], "audio above impulse")
	assert.InDelta(t, 1.5*0.95, inst.Impulses[0], 1e-6)
}

func TestHeightMappingGradientStops(t *testing.T) {
	inst := newTestInstance(t, 4)
	inst.Style.HeightScale = 3
	inst.Style.Mapping = MapHeight
	inst.Impulses[0] = 0
	inst.Impulses[1] = 1.5
	inst.Impulses[2] = 3

	require.NoError(t, NewEngine().Apply(inst, []byte{0}))
	assert.Equal(t, float32(1.5), inst.Heights[1])
	assert.Equal(t, inst.Style.Low, inst.ColorAt(0))
	assert.Equal(t, inst.Style.Mid, inst.ColorAt(1))
	assert.Equal(t, inst.Style.High, inst.ColorAt(2))
}

func TestAudioAndCombinedMapping(t *testing.T) {
	inst := newTestInstance(t, 4)
	inst.Style.Pattern = PatternLinear
	inst.Style.Mapping = MapAudio
	inst.Style.Low = RGB{0, 0, 0}
	inst.Style.Mid = RGB{0.5, 0.5, 0.5}
	inst.Style.High = RGB{1, 1, 1}
	bins := []byte{0, 255}

	e := NewEngine()
	require.NoError(t, e.Apply(inst, bins))
	assert.Equal(t, inst.Style.Low, inst.ColorAt(0))
	assert.Equal(t, inst.Style.High, inst.ColorAt(1))

	inst.Style.Mapping = MapCombined
	inst.Style.HeightScale = 1
	require.NoError(t, e.Apply(inst, bins))
	// (1 + 255) / (1 + 255) = 1
	assert.Equal(t, inst.Style.High, inst.ColorAt(1))
	assert.Equal(t, inst.Style.Low, inst.ColorAt(0))
}

func TestLinearPatternUsesIndexModLength(t *testing.T) {
	inst := newTestInstance(t, 9)
	inst.Style.Pattern = PatternLinear
	inst.Style.HeightScale = 4
	bins := []byte{10, 40, 70, 100, 130, 160, 190}

	require.NoError(t, NewEngine().Apply(inst, bins))
	for i, h := range inst.Heights {
		want := float32(bins[i%len(bins)]) / 255 * 4
		require.InDeltaf(t, want, h, 1e-6, "cell %d", i)
	}
}

func TestRadialPatternCentreAndCorner(t *testing.T) {
	const dim = 11
	inst := newTestInstance(t, dim)
	inst.Style.Pattern = PatternRadial
	inst.Style.HeightScale = 1
	bins := make([]byte, 32)
	for i := range bins {
		bins[i] = 255
	}

	require.NoError(t, NewEngine().Apply(inst, bins))
	assert.Equal(t, float32(1), inst.Heights[(dim/2)*dim+dim/2])
	// The corner lands at index len(bins), past the end.
	assert.Zero(t, inst.Heights[0])
	assert.Zero(t, inst.Heights[dim*dim-1])
	assert.Equal(t, float32(1), inst.Heights[1])
}

func TestRandomPatternStaysInBounds(t *testing.T) {
	inst := newTestInstance(t, 16)
	inst.Style.Pattern = PatternRandom
	inst.Style.HeightScale = 1
	bins := []byte{51, 102, 153, 204}
	allowed := map[float32]bool{}
	for _, b := range bins {
		allowed[float32(b)/255] = true
	}

	e := NewEngine()
	for k := 0; k < 5; k++ {
		require.NoError(t, e.Apply(inst, bins))
		for i, h := range inst.Heights {
			require.Truef(t, allowed[h], "cell %d height %g not drawn from the spectrum", i, h)
		}
	}
}

func TestEmptySpectrumDrivesZeroAudio(t *testing.T) {
	for _, p := range []WavePattern{PatternRadial, PatternLinear, PatternRandom} {
		inst := newTestInstance(t, 6)
		inst.Style.Pattern = p
		inst.Impulses[5] = 1
		require.NoError(t, NewEngine().Apply(inst, []byte{}), p.String())
		assert.Equal(t, float32(1), inst.Heights[5], p.String())
		assert.Zero(t, inst.Heights[4], p.String())
	}
}

func TestUpdateIsNoOpWhenSpectrumNotReady(t *testing.T) {
	inst := newTestInstance(t, 6)
	inst.Impulses[2] = 2
	inst.Heights[3] = 0.7
	before := inst.Clone()

	src := &fixedSource{bins: []byte{255}, ready: false}
	require.NoError(t, NewEngine().Update(inst, src))
	assert.Equal(t, before.Heights, inst.Heights)
	assert.Equal(t, before.Impulses, inst.Impulses)
	assert.Equal(t, before.Colors, inst.Colors)

	require.NoError(t, NewEngine().Apply(inst, nil))
	assert.Equal(t, before.Impulses, inst.Impulses)
}

func TestUpdateAsksForStyleRange(t *testing.T) {
	inst := newTestInstance(t, 4)
	inst.Style.Range = spectrum.Mid
	src := &fixedSource{ready: true}
	require.NoError(t, NewEngine().Update(inst, src))
	assert.Equal(t, []spectrum.Range{spectrum.Mid}, src.asked)
}

func TestApplyRejectsCorruptInstance(t *testing.T) {
	inst := newTestInstance(t, 6)
	inst.Heights = inst.Heights[:10]
	err := NewEngine().Apply(inst, []byte{1})
	assert.True(t, errors.Is(err, ErrCorruptInstance))

	inst = newTestInstance(t, 6)
	inst.Style.DecayRate = 1.5
	inst.Impulses[0] = 1
	err = NewEngine().Apply(inst, []byte{1})
	assert.True(t, errors.Is(err, ErrInvalidStyle))
	assert.Equal(t, float32(1), inst.Impulses[0], "rejected update must not touch buffers")
}

func TestEasedHeightMode(t *testing.T) {
	inst := newTestInstance(t, 4)
	inst.Style.HeightMode = HeightEased
	inst.Style.EaseRate = 0.1
	inst.Style.HeightScale = 3
	inst.Style.Pattern = PatternLinear
	full := []byte{255}

	e := NewEngine()
	require.NoError(t, e.Apply(inst, full))
	assert.InDelta(t, 0.3, inst.Heights[0], 1e-6)
	require.NoError(t, e.Apply(inst, full))
	assert.InDelta(t, 0.57, inst.Heights[0], 1e-5)
}

func TestSpringHeightModeApproachesTarget(t *testing.T) {
	inst := newTestInstance(t, 4)
	inst.Style.HeightMode = HeightSpring
	inst.Style.HeightScale = 1
	inst.Style.Pattern = PatternLinear
	full := []byte{255}

	e := NewEngine()
	require.NoError(t, e.Apply(inst, full))
	first := inst.Heights[0]
	assert.Greater(t, first, float32(0))
	assert.Less(t, first, float32(1))
	assert.NotZero(t, inst.Velocities[0])
	for k := 0; k < 300; k++ {
		require.NoError(t, e.Apply(inst, full))
	}
	assert.InDelta(t, 1, inst.Heights[0], 1e-2)
}

func TestCloneDoesNotAlias(t *testing.T) {
	src := newTestInstance(t, 8)
	src.Impulses[3] = 2
	src.Name = "a"
	clone := src.Clone()

	clone.Impulses[3] = 4
	clone.Impulses[7] = 1
	clone.Heights[0] = 9
	clone.Colors[0] = 0.123
	clone.Velocities[1] = 3
	clone.Style.DecayRate = 0.5

	assert.Equal(t, float32(2), src.Impulses[3])
	assert.Zero(t, src.Impulses[7])
	assert.Zero(t, src.Heights[0])
	assert.NotEqual(t, float32(0.123), src.Colors[0])
	assert.Zero(t, src.Velocities[1])
	assert.Equal(t, float32(0.95), src.Style.DecayRate)
	assert.Equal(t, "a", clone.Name)
}

func TestHexConversion(t *testing.T) {
	c, err := ParseHex("#ff8000")
	require.NoError(t, err)
	assert.InDelta(t, 1, c[0], 1e-6)
	assert.InDelta(t, 128.0/255, c[1], 1e-6)
	assert.InDelta(t, 0, c[2], 1e-6)
	assert.Equal(t, "#ff8000", c.Hex())

	c, err = ParseHex("0f0")
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", c.Hex())

	_, err = ParseHex("#zzz000")
	assert.True(t, errors.Is(err, ErrInvalidColor))

	assert.Equal(t, "#ffffff", RGB{2, 1.5, 1}.Hex())
}

func TestStyleValidateAndClamp(t *testing.T) {
	require.NoError(t, DefaultStyle().Validate())

	s := DefaultStyle()
	s.DecayRate = 0
	s.HeightScale = -1
	s.StrengthScale = 2
	err := s.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidStyle))

	require.NoError(t, s.Clamp().Validate())
}

func TestEnumNames(t *testing.T) {
	m, err := ParseColorMapping("Combined")
	require.NoError(t, err)
	assert.Equal(t, MapCombined, m)
	assert.Equal(t, MapHeight, m.Next())

	p, err := ParseWavePattern("random")
	require.NoError(t, err)
	assert.Equal(t, PatternRandom, p)
	assert.Equal(t, "radial", p.Next().String())

	h, err := ParseHeightMode("spring")
	require.NoError(t, err)
	assert.Equal(t, HeightSpring, h)

	_, err = ParseWavePattern("spiral")
	assert.True(t, errors.Is(err, ErrInvalidStyle))
}
