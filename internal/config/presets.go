package config

import (
	"sort"

	"github.com/san-kum/algoviz/internal/playback"
)

type Preset struct {
	Name        string
	Shape       playback.Shape
	Description string
}

var Presets = map[string]*Preset{
	"random": {
		Shape:       playback.Random,
		Description: "uniform values in [1, 100]",
	},
	"sorted": {
		Shape:       playback.Ascending,
		Description: "already non-decreasing, best case for insertion sort",
	},
	"reversed": {
		Shape:       playback.Descending,
		Description: "non-increasing, worst case for the quadratic sorts",
	},
	"nearly-sorted": {
		Shape:       playback.NearlySorted,
		Description: "sorted with a few adjacent swaps",
	},
	"few-unique": {
		Shape:       playback.FewUnique,
		Description: "at most five distinct values",
	},
}

func init() {
	for name, p := range Presets {
		p.Name = name
	}
}

func GetPreset(name string) *Preset {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
