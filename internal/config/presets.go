package config

import "sort"

var Presets = map[string]map[string]*Config{
	"doublewell": {
		"default": DefaultConfig(),
		"short": with(DefaultConfig(), func(c *Config) {
			c.PathLength = 150
			c.Extend.BaseLength = 100
			c.Extend.Increment = 25
		}),
		"hot": with(DefaultConfig(), func(c *Config) {
			c.Temperature = 0.35
			c.Extend.Concurrent = true
		}),
	},
	"twowell": {
		"default": with(DefaultConfig(), func(c *Config) {
			c.Model = "twowell"
			c.PathLength = 300
		}),
	},
}

func with(c *Config, fn func(*Config)) *Config {
	fn(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
