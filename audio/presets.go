package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key, value string) error
	Get(key string) (string, error)
}

// preset settings are applied in order.
type preset [][2]string

var presets = map[string]preset{
	"pad": {
		{"aeg.attack", "0.5"},
		{"aeg.release", "0.6"},
		{"lfo1.freq", "0.25"},
		{"mod1.source", "lfo1"},
		{"mod1.dest", "pan"},
		{"mod1.amount", "0.5"},
		{"mod1.enabled", "true"},
	},
	"pluck": {
		{"aeg.decay", "0.3"},
		{"aeg.sustain", "0"},
		{"aeg.release", "0.2"},
		{"filter.type", "lowpass"},
		{"filter.cutoff", "0.3"},
		{"eg2.decay", "0.25"},
		{"eg2.sustain", "0"},
		{"mod1.source", "eg2"},
		{"mod1.dest", "cutoff"},
		{"mod1.amount", "4"},
		{"mod1.enabled", "true"},
	},
	"wobble": {
		{"filter.type", "lowpass"},
		{"filter.cutoff", "0.2"},
		{"filter.resonance", "0.6"},
		{"lfo1.sync", "true"},
		{"lfo1.sync_beats", "0.5"},
		{"mod1.source", "lfo1"},
		{"mod1.dest", "cutoff"},
		{"mod1.amount", "3"},
		{"mod1.enabled", "true"},
	},
	"swell": {
		{"reverse", "true"},
		{"aeg.attack", "0.4"},
		{"mod1.source", "velocity"},
		{"mod1.dest", "amplitude"},
		{"mod1.amount", "-50"},
		{"mod1.enabled", "true"},
	},
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	for _, kv := range p {
		if err := d.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
	}
	return nil
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
