package config

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Faultbox/headchop/pkg/headchop"
)

func newFlags(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	return f
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Chop.Pattern != "head" {
		t.Errorf("expected pattern 'head', got %s", cfg.Chop.Pattern)
	}
	if cfg.Chop.Match != "substring" {
		t.Errorf("expected match 'substring', got %s", cfg.Chop.Match)
	}
	if cfg.Chop.Bone != "" {
		t.Errorf("expected empty bone override, got %s", cfg.Chop.Bone)
	}
	if cfg.Chop.RequireHead {
		t.Error("expected require_head to be false by default")
	}
	if cfg.Output.Overwrite {
		t.Error("expected overwrite to be false by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
chop:
  pattern: "kopf"
  match: "word"
  require_head: true

output:
  overwrite: true

logging:
  level: "debug"
  log_file: "headchop.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Chop.Pattern != "kopf" {
		t.Errorf("expected pattern 'kopf', got %s", cfg.Chop.Pattern)
	}
	if cfg.Chop.Match != "word" {
		t.Errorf("expected match 'word', got %s", cfg.Chop.Match)
	}
	if !cfg.Chop.RequireHead {
		t.Error("expected require_head to be true")
	}
	if !cfg.Output.Overwrite {
		t.Error("expected overwrite to be true")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "headchop.log" {
		t.Errorf("expected log file 'headchop.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
chop:
  require_head: not a bool
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	configPath := filepath.Join(tmpDir, "headchop.yaml")
	if err := os.WriteFile(configPath, []byte("chop:\n  pattern: skull\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find headchop.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(t *testing.T, cfg *Config)
	}{
		{
			name: "debug flag",
			args: []string{"-debug"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
		},
		{
			name: "pattern and match flags",
			args: []string{"-pattern", "skull", "-match", "exact"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Chop.Pattern != "skull" || cfg.Chop.Match != "exact" {
					t.Errorf("got pattern %q match %q", cfg.Chop.Pattern, cfg.Chop.Match)
				}
			},
		},
		{
			name: "bone flag",
			args: []string{"-bone", "J_Bip_C_Head"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Chop.Bone != "J_Bip_C_Head" {
					t.Errorf("expected bone override, got %q", cfg.Chop.Bone)
				}
			},
		},
		{
			name: "require and overwrite flags",
			args: []string{"-require-head", "-f"},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Chop.RequireHead || !cfg.Output.Overwrite {
					t.Error("expected require_head and overwrite to be set")
				}
			},
		},
		{
			name: "no flags keeps defaults",
			args: nil,
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Chop.Pattern != "head" || cfg.Logging.Level != "info" {
					t.Errorf("defaults changed: %+v", cfg)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			applyFlags(cfg, newFlags(t, tt.args...))
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
chop:
  pattern: "skull"
  match: "exact"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(newFlags(t, "-config", configPath, "-pattern", "head"))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Pattern from flag, match from file
	if cfg.Chop.Pattern != "head" {
		t.Errorf("expected pattern 'head' from flag, got %s", cfg.Chop.Pattern)
	}
	if cfg.Chop.Match != "exact" {
		t.Errorf("expected match 'exact' from file, got %s", cfg.Chop.Match)
	}
}

func TestLoadRejectsUnknownMatch(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	os.Chdir(tmpDir)

	if _, err := Load(newFlags(t, "-match", "regex")); err == nil {
		t.Error("expected error for unknown match mode")
	}
}

func TestChopMatcher(t *testing.T) {
	m, err := ChopConfig{Pattern: "kopf", Match: "word", Bone: "Kopf_01"}.Matcher()
	if err != nil {
		t.Fatalf("Matcher: %v", err)
	}
	want := headchop.Matcher{Pattern: "kopf", Mode: headchop.MatchWord, Bone: "Kopf_01"}
	if m != want {
		t.Errorf("Matcher = %+v, want %+v", m, want)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Chop.Bone = "Head"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("reloading saved config: %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("reloaded config = %+v, want %+v", loaded, cfg)
	}
}

func TestSaveToUserConfigDir(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("config dir is not redirected by XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Chop.Match = "word"
	cfg.Chop.RequireHead = true
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Picked up by Load without an explicit -config
	loaded, err := Load(newFlags(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Chop.Match != "word" || !loaded.Chop.RequireHead {
		t.Errorf("loaded chop settings = %+v", loaded.Chop)
	}
}
