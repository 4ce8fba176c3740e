// Package grid holds the audio driven height-field: per-instance buffers,
// the impulse field painted by the pointer, and the per-frame update that
// turns a spectrum into heights and vertex colours.
package grid

import (
	"errors"
	"fmt"

	"ARG/internal/view"
)

const (
	// Extent is the physical edge length of every grid in world units.
	Extent = 15
	// CapImpulse bounds every impulse cell.
	CapImpulse = 5
	// BaseStrength is the impulse added at the brush centre at full strength.
	BaseStrength = 0.2
	// DefaultBrushRadius is the brush radius in world units.
	DefaultBrushRadius = 1.5

	// MinDim is the smallest side length that still has an edge to span.
	MinDim = 2
	// MaxDim keeps N² vertex indices addressable with uint16.
	MaxDim = 256
)

var (
	// ErrDimension reports a grid side length outside [MinDim, MaxDim].
	ErrDimension = errors.New("grid: invalid dimension")
	// ErrCorruptInstance reports buffers that no longer match the dimension.
	ErrCorruptInstance = errors.New("grid: corrupt instance")
	// ErrInvalidStyle reports a style value outside its valid range.
	ErrInvalidStyle = errors.New("grid: invalid style")
	// ErrInvalidColor reports an unparsable hex colour.
	ErrInvalidColor = errors.New("grid: invalid color")
)

// Instance is one N×N grid with its own buffers, style and placement. All
// buffers are row-major with i = row*Dim + col.
type Instance struct {
	ID   uint64
	Name string
	Dim  int

	Heights  []float32
	Impulses []float32
	// Colors holds RGB per vertex, 3*Dim*Dim values.
	Colors []float32
	// Velocities is only advanced by HeightSpring.
	Velocities []float32

	Style     Style
	Transform view.Transform
}

// New allocates a zeroed instance. Colours start at style.Low so a grid is
// drawable before its first update.
func New(dim int, style Style) (*Instance, error) {
	if dim < MinDim || dim > MaxDim {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrDimension, dim, MinDim, MaxDim)
	}
	n := dim * dim
	inst := &Instance{
		Dim:        dim,
		Heights:    make([]float32, n),
		Impulses:   make([]float32, n),
		Colors:     make([]float32, 3*n),
		Velocities: make([]float32, n),
		Style:      style,
	}
	for i := 0; i < n; i++ {
		copy(inst.Colors[3*i:3*i+3], style.Low[:])
	}
	return inst, nil
}

// Clone returns a deep copy. Every buffer gets fresh backing storage so
// edits to the clone never reach the source. ID is left zero for the owner
// to assign.
func (g *Instance) Clone() *Instance {
	return &Instance{
		Name:       g.Name,
		Dim:        g.Dim,
		Heights:    append([]float32(nil), g.Heights...),
		Impulses:   append([]float32(nil), g.Impulses...),
		Colors:     append([]float32(nil), g.Colors...),
		Velocities: append([]float32(nil), g.Velocities...),
		Style:      g.Style,
		Transform:  g.Transform,
	}
}

// CellCount is Dim².
func (g *Instance) CellCount() int { return g.Dim * g.Dim }

// Validate checks that every buffer matches the dimension and the style is
// in range.
func (g *Instance) Validate() error {
	if g == nil {
		return fmt.Errorf("%w: nil instance", ErrCorruptInstance)
	}
	if g.Dim < MinDim || g.Dim > MaxDim {
		return fmt.Errorf("%w: dimension %d", ErrCorruptInstance, g.Dim)
	}
	n := g.CellCount()
	if len(g.Heights) != n || len(g.Impulses) != n || len(g.Velocities) != n || len(g.Colors) != 3*n {
		return fmt.Errorf("%w: buffer lengths heights=%d impulses=%d velocities=%d colors=%d for dim %d",
			ErrCorruptInstance, len(g.Heights), len(g.Impulses), len(g.Velocities), len(g.Colors), g.Dim)
	}
	return g.Style.Validate()
}

// cellPosition maps cell i to planar local coordinates in [-Extent/2, Extent/2].
func cellPosition(i, dim int) (x, z float32) {
	spacing := float32(Extent) / float32(dim-1)
	half := float32(Extent) / 2
	col := i % dim
	row := i / dim
	return float32(col)*spacing - half, float32(row)*spacing - half
}

// CellPosition reports the local planar coordinates of cell i.
func (g *Instance) CellPosition(i int) (x, z float32) {
	return cellPosition(i, g.Dim)
}

// ColorAt returns the RGB written for cell i by the last update.
func (g *Instance) ColorAt(i int) RGB {
	return RGB{g.Colors[3*i], g.Colors[3*i+1], g.Colors[3*i+2]}
}
