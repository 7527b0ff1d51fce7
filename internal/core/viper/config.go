package viper

import "fmt"

// Config holds the tuning constants of a viper. Durations are simulation
// seconds; a viper's size is measured by how far back in time its body
// reaches along its own track.
type Config struct {
	Speed           float64 `json:"speed" yaml:"speed"`
	BoostFactor     float64 `json:"boost_factor" yaml:"boost_factor"`
	TurnRate        float64 `json:"turn_rate" yaml:"turn_rate"`
	Width           float64 `json:"width" yaml:"width"`
	HeadDuration    float64 `json:"head_duration" yaml:"head_duration"`
	SegmentDuration float64 `json:"segment_duration" yaml:"segment_duration"`
	InitialLength   float64 `json:"initial_length" yaml:"initial_length"`
	MinLength       float64 `json:"min_length" yaml:"min_length"`
	BoostCost       float64 `json:"boost_cost" yaml:"boost_cost"`
	GrowthRate      float64 `json:"growth_rate" yaml:"growth_rate"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		Speed:           60,
		BoostFactor:     1.8,
		TurnRate:        3,
		Width:           8,
		HeadDuration:    0.12,
		SegmentDuration: 0.1,
		InitialLength:   1.5,
		MinLength:       0.5,
		BoostCost:       0.25,
		GrowthRate:      1,
	}
}

// Validate checks every knob.
func (c Config) Validate() error {
	checks := []struct {
		ok   bool
		name string
		val  float64
	}{
		{c.Speed > 0, "speed must be positive", c.Speed},
		{c.BoostFactor >= 1, "boost_factor must be at least 1", c.BoostFactor},
		{c.TurnRate >= 0, "turn_rate must not be negative", c.TurnRate},
		{c.Width > 0, "width must be positive", c.Width},
		{c.HeadDuration > 0, "head_duration must be positive", c.HeadDuration},
		{c.SegmentDuration > 0, "segment_duration must be positive", c.SegmentDuration},
		{c.MinLength >= c.HeadDuration, "min_length must cover head_duration", c.MinLength},
		{c.InitialLength >= c.MinLength, "initial_length must be at least min_length", c.InitialLength},
		{c.BoostCost >= 0, "boost_cost must not be negative", c.BoostCost},
		{c.GrowthRate > 0 && c.GrowthRate <= 1, "growth_rate must be in (0, 1]", c.GrowthRate},
	}
	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf("viper config: %s, got %v: %w", check.name, check.val, ErrInvalidConfig)
		}
	}
	return nil
}
