// Package config handles headchop configuration loading and management.
package config

import (
	"github.com/Faultbox/headchop/pkg/headchop"
)

// Config holds all tool settings.
type Config struct {
	Chop    ChopConfig    `yaml:"chop"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ChopConfig controls head bone selection.
type ChopConfig struct {
	Pattern string `yaml:"pattern"` // Name fragment identifying the head bone
	Match   string `yaml:"match"`   // substring, exact or word
	Bone    string `yaml:"bone"`    // Exact head bone name, overrides pattern
	// RequireHead turns a missing head bone into a failure instead of a no-op.
	RequireHead bool `yaml:"require_head"`
}

// OutputConfig holds output file settings.
type OutputConfig struct {
	Overwrite bool `yaml:"overwrite"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Chop: ChopConfig{
			Pattern: headchop.DefaultPattern,
			Match:   headchop.MatchSubstring.String(),
		},
		Output: OutputConfig{
			Overwrite: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Matcher builds the head bone matcher described by the chop settings.
func (c ChopConfig) Matcher() (headchop.Matcher, error) {
	mode, err := headchop.ParseMatchMode(c.Match)
	if err != nil {
		return headchop.Matcher{}, err
	}
	return headchop.Matcher{Pattern: c.Pattern, Mode: mode, Bone: c.Bone}, nil
}
