// Package scene owns the set of grid instances on screen and which one is
// selected for editing and painting.
package scene

import (
	"errors"
	"fmt"

	"ARG/internal/grid"
)

// ErrInstanceNotFound reports a select or remove of an instance that is not
// (or no longer) managed.
var ErrInstanceNotFound = errors.New("scene: instance not found")

// Updater advances one instance by a frame.
type Updater interface {
	Update(g *grid.Instance, src grid.SpectrumSource) error
}

// Config controls how new instances are built.
type Config struct {
	Dim   int
	Style grid.Style
	// CloneOffset shifts a clone along +X so it sits beside its source.
	CloneOffset float32
}

// DefaultConfig returns a config for dim×dim grids with the default style.
func DefaultConfig(dim int) Config {
	return Config{
		Dim:         dim,
		Style:       grid.DefaultStyle(),
		CloneOffset: grid.Extent + 1,
	}
}

// Manager holds instances in insertion order, which is also draw order.
// The selected instance, when non-nil, is always a member.
type Manager struct {
	cfg       Config
	instances []*grid.Instance
	selected  *grid.Instance
	nextID    uint64
}

// NewManager returns an empty manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Dim < grid.MinDim || cfg.Dim > grid.MaxDim {
		return nil, fmt.Errorf("%w: %d", grid.ErrDimension, cfg.Dim)
	}
	if err := cfg.Style.Validate(); err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg}, nil
}

// Create adds a new instance and selects it. With a nil src it is built
// from the manager's default style with zeroed fields; otherwise it is a
// deep copy of src shifted by CloneOffset.
func (m *Manager) Create(src *grid.Instance) *grid.Instance {
	var inst *grid.Instance
	if src == nil {
		// Dim and style were validated by NewManager.
		inst, _ = grid.New(m.cfg.Dim, m.cfg.Style)
	} else {
		inst = src.Clone()
		inst.Transform.Position[0] += m.cfg.CloneOffset
	}
	m.nextID++
	inst.ID = m.nextID
	if src == nil || inst.Name == "" {
		inst.Name = fmt.Sprintf("grid-%d", inst.ID)
	} else {
		inst.Name = fmt.Sprintf("%s-copy", src.Name)
	}
	m.instances = append(m.instances, inst)
	m.selected = inst
	return inst
}

// Adopt adds an externally built instance (a preset) without selecting it
// unless nothing is selected yet.
func (m *Manager) Adopt(inst *grid.Instance) error {
	if err := inst.Validate(); err != nil {
		return err
	}
	if m.Index(inst) >= 0 {
		return nil
	}
	m.nextID++
	inst.ID = m.nextID
	if inst.Name == "" {
		inst.Name = fmt.Sprintf("grid-%d", inst.ID)
	}
	m.instances = append(m.instances, inst)
	if m.selected == nil {
		m.selected = inst
	}
	return nil
}

// Select makes inst the selected instance. nil clears the selection.
func (m *Manager) Select(inst *grid.Instance) error {
	if inst == m.selected {
		return nil
	}
	if inst != nil && m.Index(inst) < 0 {
		return fmt.Errorf("%w: select %s", ErrInstanceNotFound, describe(inst))
	}
	m.selected = inst
	return nil
}

// Remove drops inst. If it was selected, the first remaining instance (or
// nil) becomes selected.
func (m *Manager) Remove(inst *grid.Instance) error {
	idx := m.Index(inst)
	if idx < 0 {
		return fmt.Errorf("%w: remove %s", ErrInstanceNotFound, describe(inst))
	}
	copy(m.instances[idx:], m.instances[idx+1:])
	m.instances[len(m.instances)-1] = nil
	m.instances = m.instances[:len(m.instances)-1]
	if m.selected == inst {
		m.selected = nil
		if len(m.instances) > 0 {
			m.selected = m.instances[0]
		}
	}
	return nil
}

// Clear removes every instance.
func (m *Manager) Clear() {
	clear(m.instances)
	m.instances = m.instances[:0]
	m.selected = nil
}

// Selected returns the selected instance or nil.
func (m *Manager) Selected() *grid.Instance { return m.selected }

// Len reports the number of instances.
func (m *Manager) Len() int { return len(m.instances) }

// Instances returns the instances in draw order. The slice is a copy; the
// instances are not.
func (m *Manager) Instances() []*grid.Instance {
	return append([]*grid.Instance(nil), m.instances...)
}

// Index returns the position of inst, or -1.
func (m *Manager) Index(inst *grid.Instance) int {
	if inst == nil {
		return -1
	}
	for i, g := range m.instances {
		if g == inst {
			return i
		}
	}
	return -1
}

// SelectNext moves the selection forward (delta > 0) or backward, wrapping.
func (m *Manager) SelectNext(delta int) *grid.Instance {
	n := len(m.instances)
	if n == 0 {
		m.selected = nil
		return nil
	}
	idx := m.Index(m.selected)
	if idx < 0 {
		idx = 0
	} else {
		idx = ((idx+delta)%n + n) % n
	}
	m.selected = m.instances[idx]
	return m.selected
}

// Tick advances every visible instance by one frame. Hidden instances only
// decay their impulses. A failing instance does not stop the others; all
// failures are returned joined.
func (m *Manager) Tick(u Updater, src grid.SpectrumSource) error {
	var errs []error
	for _, inst := range m.instances {
		if !inst.Style.Visible {
			if err := inst.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", describe(inst), err))
				continue
			}
			inst.Decay()
			continue
		}
		if err := u.Update(inst, src); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", describe(inst), err))
		}
	}
	return errors.Join(errs...)
}

func describe(inst *grid.Instance) string {
	if inst == nil {
		return "<nil>"
	}
	return fmt.Sprintf("instance %d (%s)", inst.ID, inst.Name)
}
