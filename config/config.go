// Package config loads the arena's on-disk configuration: the tick
// rate, transport listen address, and the world's tunable
// Configuration (spec.md §3 defaults), via viper-backed YAML.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Grissess/RANKS/tank"
)

// Arena is the arena's top-level on-disk configuration.
type Arena struct {
	ListenAddr string              `mapstructure:"listen_addr"`
	TickHz     float64             `mapstructure:"tick_hz"`
	World      tank.Configuration  `mapstructure:"world"`
}

// Default returns an Arena with the stock world configuration and a
// sane transport/tick-rate default, used when no config file is given.
func Default() Arena {
	return Arena{
		ListenAddr: ":8080",
		TickHz:     30,
		World:      tank.DefaultConfiguration(),
	}
}

// Load reads path (a YAML file) into an Arena, starting from Default()
// so an incomplete file only overrides the fields it sets.
//
// The teacher's reinforcement/learning.go FromYaml round-trips through
// an OuterConfig{Kind, Def} envelope to support algorithm-polymorphic
// training configs; the arena's configuration has no such polymorphism,
// so this is the same viper.New/SetConfigFile/SetConfigType/AddConfigPath
// load sequence with a single direct Unmarshal.
func Load(path string) (Arena, error) {
	cfg := Default()

	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return Arena{}, err
	}
	if err := vp.Unmarshal(&cfg); err != nil {
		return Arena{}, err
	}
	return cfg, nil
}
