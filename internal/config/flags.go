package config

import "flag"

// Flags holds the command-line overrides shared by all commands.
type Flags struct {
	Config    *string
	Debug     *bool
	Pattern   *string
	Match     *string
	Bone      *string
	Require   *bool
	Overwrite *bool
	LogFile   *string
}

// RegisterFlags adds the common flags to a command's flag set.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		Config:    fs.String("config", "", "Path to config file"),
		Debug:     fs.Bool("debug", false, "Enable debug logging"),
		Pattern:   fs.String("pattern", "", "Head bone name fragment"),
		Match:     fs.String("match", "", "Match mode: substring, exact, word"),
		Bone:      fs.String("bone", "", "Exact head bone name (overrides -pattern)"),
		Require:   fs.Bool("require-head", false, "Fail if no head bone is found"),
		Overwrite: fs.Bool("f", false, "Overwrite existing output"),
		LogFile:   fs.String("log", "", "Write logs to file"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil || f.Config == nil {
		return ""
	}
	return *f.Config
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if *f.Debug {
		cfg.Logging.Level = "debug"
	}
	if *f.Pattern != "" {
		cfg.Chop.Pattern = *f.Pattern
	}
	if *f.Match != "" {
		cfg.Chop.Match = *f.Match
	}
	if *f.Bone != "" {
		cfg.Chop.Bone = *f.Bone
	}
	if *f.Require {
		cfg.Chop.RequireHead = true
	}
	if *f.Overwrite {
		cfg.Output.Overwrite = true
	}
	if *f.LogFile != "" {
		cfg.Logging.LogFile = *f.LogFile
	}
}
