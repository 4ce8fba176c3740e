package grid

import "github.com/chewxy/math32"

// ApplyImpulse adds a brush stroke centred at local plane point (x, z).
// Cells closer than radius gain (1-d/radius)*BaseStrength*StrengthScale,
// capped at CapImpulse. radius <= 0 uses DefaultBrushRadius. It reports
// whether any cell was inside the brush.
func (g *Instance) ApplyImpulse(x, z, radius float32) bool {
	if radius <= 0 {
		radius = DefaultBrushRadius
	}
	scale := g.Style.StrengthScale
	if scale < 0 {
		scale = 0
	}
	touched := false
	for i := range g.Impulses {
		cx, cz := cellPosition(i, g.Dim)
		dx, dz := cx-x, cz-z
		d := math32.Sqrt(dx*dx + dz*dz)
		if d >= radius {
			continue
		}
		touched = true
		strength := (1 - d/radius) * BaseStrength * scale
		v := g.Impulses[i] + strength
		if v > CapImpulse {
			v = CapImpulse
		}
		g.Impulses[i] = v
	}
	return touched
}

// Decay applies one frame of geometric decay to the impulse field.
func (g *Instance) Decay() {
	rate := g.Style.DecayRate
	for i := range g.Impulses {
		g.Impulses[i] *= rate
	}
}

// ResetImpulses clears all painted excitation.
func (g *Instance) ResetImpulses() {
	clear(g.Impulses)
}

// PeakImpulse returns the largest impulse value, for overlays.
func (g *Instance) PeakImpulse() float32 {
	var peak float32
	for _, v := range g.Impulses {
		if v > peak {
			peak = v
		}
	}
	return peak
}
