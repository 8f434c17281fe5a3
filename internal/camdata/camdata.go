package camdata

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Features lists the acquisition modes the sensor and its clocking support.
type Features struct {
	TDI               bool `yaml:"tdi"`
	Kinetics          bool `yaml:"kinetics"`
	ContinuousImaging bool `yaml:"continuous_imaging"`
}

// Descriptor is the read-only capability record for one camera model.
// The mode controller only reads it; a new one may be swapped in at runtime.
type Descriptor struct {
	Model        string   `yaml:"model"`         // e.g., "Alta U16M"
	Sensor       string   `yaml:"sensor"`        // e.g., "KAF-16803"
	InterlineCCD bool     `yaml:"interline_ccd"` // electronic shutter, routes shutter triggers through the I/O port
	ImagingRows  int      `yaml:"imaging_rows"`
	ImagingCols  int      `yaml:"imaging_cols"`
	Features     Features `yaml:"features"`
}

var builtin = map[string]Descriptor{
	"alta-u16m": {
		Model:       "Alta U16M",
		Sensor:      "KAF-16803",
		ImagingRows: 4096,
		ImagingCols: 4096,
		Features:    Features{TDI: true, Kinetics: true, ContinuousImaging: true},
	},
	"alta-u4000": {
		Model:        "Alta U4000",
		Sensor:       "KAI-4022",
		InterlineCCD: true,
		ImagingRows:  2048,
		ImagingCols:  2048,
		Features:     Features{TDI: true, Kinetics: true, ContinuousImaging: true},
	},
	"ascent-a340": {
		Model:       "Ascent A340",
		Sensor:      "KAI-340",
		ImagingRows: 480,
		ImagingCols: 640,
		Features:    Features{Kinetics: true, ContinuousImaging: true},
	},
	"ascent-a694": {
		Model:        "Ascent A694",
		Sensor:       "ICX694",
		InterlineCCD: true,
		ImagingRows:  2200,
		ImagingCols:  2750,
		Features:     Features{TDI: true, Kinetics: true, ContinuousImaging: true},
	},
}

// Builtin returns a copy of a compiled-in descriptor.
func Builtin(name string) (*Descriptor, error) {
	d, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("unknown camera descriptor: %s", name)
	}
	return &d, nil
}

// BuiltinNames lists compiled-in descriptor names in sorted order.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads a descriptor from a YAML file.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read descriptor file: %w", err)
	}

	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the fields the mode controller relies on.
func (d *Descriptor) Validate() error {
	if d.Model == "" {
		return fmt.Errorf("descriptor: model is required")
	}
	if d.ImagingRows < 0 || d.ImagingCols < 0 {
		return fmt.Errorf("descriptor %s: imaging geometry must be >= 0, got %dx%d", d.Model, d.ImagingCols, d.ImagingRows)
	}
	return nil
}
