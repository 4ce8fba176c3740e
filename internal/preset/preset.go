// Package preset reads grid layouts from YAML so a session can start with a
// prepared set of instances, and reloads them when the file changes.
package preset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jinzhu/copier"
	"gopkg.in/yaml.v3"

	"ARG/internal/grid"
	"ARG/internal/spectrum"
	"ARG/internal/view"
)

// ErrInvalidPreset reports an entry that cannot be turned into an instance.
var ErrInvalidPreset = errors.New("preset: invalid entry")

// Scalars are the numeric style fields; zero means "keep the default".
// Field names match grid.Style so they can be copied across by name.
type Scalars struct {
	DecayRate     float32 `yaml:"decayRate"`
	HeightScale   float32 `yaml:"heightScale"`
	StrengthScale float32 `yaml:"strengthScale"`
	EaseRate      float32 `yaml:"easeRate"`
}

// Entry describes one instance.
type Entry struct {
	Name    string `yaml:"name"`
	Dim     int    `yaml:"dim"`
	Scalars `yaml:",inline"`

	Low  string `yaml:"low"`
	Mid  string `yaml:"mid"`
	High string `yaml:"high"`

	Mapping    string `yaml:"mapping"`
	Pattern    string `yaml:"pattern"`
	HeightMode string `yaml:"heightMode"`
	Range      string `yaml:"range"`
	Hidden     bool   `yaml:"hidden"`

	Position [3]float32 `yaml:"position,flow"`
	Rotation [3]float32 `yaml:"rotation,flow"`
}

// File is the top level of a preset document.
type File struct {
	Instances []Entry `yaml:"instances"`
}

// Parse decodes a preset document, rejecting unknown keys.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}
	return &f, nil
}

// Load reads and parses the preset at path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset %q: %w", path, err)
	}
	f, err := Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", path, err)
	}
	return f, nil
}

// Style builds the entry's style on top of base.
func (e Entry) Style(base grid.Style) (grid.Style, error) {
	st := base
	if err := copier.CopyWithOption(&st, &e.Scalars, copier.Option{IgnoreEmpty: true}); err != nil {
		return st, fmt.Errorf("%w: %q scalars: %v", ErrInvalidPreset, e.Name, err)
	}
	for _, c := range []struct {
		hex string
		dst *grid.RGB
	}{{e.Low, &st.Low}, {e.Mid, &st.Mid}, {e.High, &st.High}} {
		if c.hex == "" {
			continue
		}
		rgb, err := grid.ParseHex(c.hex)
		if err != nil {
			return st, fmt.Errorf("%w: %q: %w", ErrInvalidPreset, e.Name, err)
		}
		*c.dst = rgb
	}

	var err error
	if e.Mapping != "" {
		if st.Mapping, err = grid.ParseColorMapping(e.Mapping); err != nil {
			return st, fmt.Errorf("%w: %q: %w", ErrInvalidPreset, e.Name, err)
		}
	}
	if e.Pattern != "" {
		if st.Pattern, err = grid.ParseWavePattern(e.Pattern); err != nil {
			return st, fmt.Errorf("%w: %q: %w", ErrInvalidPreset, e.Name, err)
		}
	}
	if e.HeightMode != "" {
		if st.HeightMode, err = grid.ParseHeightMode(e.HeightMode); err != nil {
			return st, fmt.Errorf("%w: %q: %w", ErrInvalidPreset, e.Name, err)
		}
	}
	if e.Range != "" {
		if st.Range, err = spectrum.ParseRange(e.Range); err != nil {
			return st, fmt.Errorf("%w: %q: %w", ErrInvalidPreset, e.Name, err)
		}
	}
	st.Visible = !e.Hidden
	if err := st.Validate(); err != nil {
		return st, fmt.Errorf("%w: %q: %w", ErrInvalidPreset, e.Name, err)
	}
	return st, nil
}

// Build turns every entry into an instance. Entries without a dimension
// use defaultDim.
func (f *File) Build(defaultDim int, base grid.Style) ([]*grid.Instance, error) {
	out := make([]*grid.Instance, 0, len(f.Instances))
	for i, e := range f.Instances {
		st, err := e.Style(base)
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w", i, err)
		}
		dim := e.Dim
		if dim == 0 {
			dim = defaultDim
		}
		inst, err := grid.New(dim, st)
		if err != nil {
			return nil, fmt.Errorf("instance %d: %w: %w", i, ErrInvalidPreset, err)
		}
		inst.Name = e.Name
		inst.Transform = view.Transform{Position: e.Position, Rotation: e.Rotation}
		out = append(out, inst)
	}
	return out, nil
}
