package uglc

import (
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// DeviceType is the detector module technology a Geometry classifies a
// channel as, per section 6: "lookup(ChannelId) -> DeviceType ∈ {DEGG,
// MDOM}". It selects which SMLC/MMLC parameters apply.
type DeviceType string

const (
	// DEGG is a dual-PMT optical module.
	DEGG DeviceType = "DEGG"
	// MDOM is a multi-PMT optical module.
	MDOM DeviceType = "MDOM"
)

// Geometry is the external boundary described in section 6: a stable,
// process-lifetime lookup from channel to device type. The pipeline treats
// it as a collaborator, not something it constructs data for; Driver and
// Pipeline only ever call Lookup.
type Geometry interface {
	Lookup(ChannelId) (DeviceType, error)
}

// UniformGeometry classifies every channel as the same DeviceType. Used by
// cmd/uglc as the zero-config default when no geometry file is given, and
// useful in tests that don't care about per-module device-type mixing.
type UniformGeometry struct {
	Device DeviceType
}

// Lookup implements Geometry.
func (g UniformGeometry) Lookup(ChannelId) (DeviceType, error) {
	return g.Device, nil
}

// StaticGeometry is the in-memory Geometry implementation: a fixed
// ChannelId/ModuleId -> DeviceType map loaded once at startup, matching the
// "must be stable for the lifetime of the process" requirement. It matches
// on ModuleId (string+module), since device type is a property of the
// physical module, not of the individual PMT.
type StaticGeometry struct {
	byModule map[ModuleId]DeviceType
}

// NewStaticGeometry builds a Geometry from a module -> device-type map.
func NewStaticGeometry(byModule map[ModuleId]DeviceType) *StaticGeometry {
	cp := make(map[ModuleId]DeviceType, len(byModule))
	for k, v := range byModule {
		cp[k] = v
	}
	return &StaticGeometry{byModule: cp}
}

// Lookup implements Geometry.
func (g *StaticGeometry) Lookup(ch ChannelId) (DeviceType, error) {
	dt, ok := g.byModule[ch.Module()]
	if !ok {
		return "", errors.Wrapf(
			newPipelineErrorAt(UnsupportedDevice, "geometry", ch, 0, "module not present in geometry map"),
			"lookup %s", ch,
		)
	}
	return dt, nil
}

// Config aggregates the per-device-type SMLC/MMLC parameters the Pipeline
// constructor needs (section 4.7): one SMLCConfig and one MMLCConfig per
// DeviceType, plus the pipeline-wide MAX_WINDOW derived from the MMLC
// configs (section 4.4).
type Config struct {
	SMLC      map[DeviceType]SMLCConfig
	MMLC      map[DeviceType]MMLCConfig
	MaxWindow int64
}

// DefaultConfigs returns the hard-coded zero-config defaults: DEGG
// {250,4}/{250,250,8,8,2}, MDOM {100,2}/{100,100,4,4,2}, matching
// original_source/tjb/uglc/smlc.py's SMLCConfig lookup table (MMLC
// constants are this module's own Open Question resolution; see
// DESIGN.md).
func DefaultConfigs() Config {
	mmlc := defaultMMLCConfigs()
	return Config{
		SMLC:      defaultSMLCConfigs(),
		MMLC:      mmlc,
		MaxWindow: maxWindowAcross(mmlc),
	}
}

// yamlConfig mirrors the on-disk YAML document shape: a flat, per-device
// table of the same five MMLC fields and two SMLC fields, keyed by device
// type name. Keeping the wire format flat (rather than mirroring the Go
// struct nesting) makes the config file easy to hand-edit.
type yamlConfig struct {
	Devices map[string]struct {
		SMLCWindowLength int64 `yaml:"smlc_window_length"`
		SMLCMultiplicity int   `yaml:"smlc_multiplicity"`
		MMLCTBack        int64 `yaml:"mmlc_t_back"`
		MMLCTFwd         int64 `yaml:"mmlc_t_fwd"`
		MMLCSpanUp       int   `yaml:"mmlc_span_up"`
		MMLCSpanDown     int   `yaml:"mmlc_span_down"`
		MMLCMultiplicity int   `yaml:"mmlc_multiplicity"`
	} `yaml:"devices"`
}

// LoadConfig reads a YAML document of per-device-type SMLC/MMLC parameters
// from path, matching SPEC_FULL.md's AMBIENT STACK "Configuration" section:
// an operator can retune window/multiplicity constants without a rebuild.
// Device types absent from the file fall back to the hard-coded default
// for that type; a device type present in neither the file nor the
// built-in table is simply not loaded (callers relying on it will see
// UnsupportedDevice at lookup time).
func LoadConfig(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var doc yamlConfig
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}

	cfg := DefaultConfigs()
	for name, d := range doc.Devices {
		dt := DeviceType(name)
		cfg.SMLC[dt] = SMLCConfig{
			WindowLength: d.SMLCWindowLength,
			Multiplicity: d.SMLCMultiplicity,
		}
		cfg.MMLC[dt] = MMLCConfig{
			TBack:        d.MMLCTBack,
			TFwd:         d.MMLCTFwd,
			SpanUp:       d.MMLCSpanUp,
			SpanDown:     d.MMLCSpanDown,
			Multiplicity: d.MMLCMultiplicity,
		}
	}
	cfg.MaxWindow = maxWindowAcross(cfg.MMLC)
	return cfg, nil
}

// yamlGeometry mirrors the on-disk geometry file shape: an explicit list
// of module -> device-type assignments.
type yamlGeometry struct {
	Modules []struct {
		String int    `yaml:"string"`
		Module int    `yaml:"module"`
		Device string `yaml:"device"`
	} `yaml:"modules"`
}

// LoadGeometry reads a YAML document assigning a DeviceType to each
// module and returns a StaticGeometry over it.
func LoadGeometry(path string) (Geometry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read geometry %s", path)
	}

	var doc yamlGeometry
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse geometry %s", path)
	}

	byModule := make(map[ModuleId]DeviceType, len(doc.Modules))
	for _, m := range doc.Modules {
		byModule[ModuleId{StringID: m.String, ModuleID: m.Module}] = DeviceType(m.Device)
	}
	return NewStaticGeometry(byModule), nil
}
