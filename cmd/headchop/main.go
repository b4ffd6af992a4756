// headchop removes the head of a skinned glTF/VRM avatar for first-person use.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/headchop/internal/chop"
	"github.com/Faultbox/headchop/internal/config"
	"github.com/Faultbox/headchop/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "chop":
		cmdChop(args)
	case "bones":
		cmdBones(args)
	case "inspect", "info":
		cmdInspect(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`headchop - collapse the head of a skinned avatar for first-person view

Usage:
  headchop <command> [options]

Commands:
  chop <in> <out>    Collapse head vertices and write a new file
  bones <in>         List bones and mark the head subtree
  inspect <in>       Show per-primitive skin weight statistics (alias: info)
  config init [file] Write the effective settings as YAML
                     (default: user config dir)

Options (all commands):
  -config <file>     Config file (default ./headchop.yaml or user config dir)
  -pattern <text>    Head bone name fragment (default "head")
  -match <mode>      substring, exact or word (default substring)
  -bone <name>       Exact head bone name, overrides -pattern
  -require-head      Fail instead of skipping when no head bone is found
  -f                 Overwrite existing output
  -debug             Enable debug logging
  -log <file>        Also write logs to file

Examples:
  headchop chop avatar.vrm avatar_fp.vrm
  headchop chop -bone J_Bip_C_Head model.glb model_fp.glb
  headchop bones -match word model.glb
  headchop config init -bone J_Bip_C_Head ./headchop.yaml`)
}

// setup parses flags, loads config and initializes logging.
func setup(name string, args []string) (*flag.FlagSet, *config.Config) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	flags := config.RegisterFlags(fs)
	fs.Parse(args)

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("settings loaded",
		zap.String("command", name),
		zap.String("config", flags.ConfigPath()),
		zap.String("pattern", cfg.Chop.Pattern),
		zap.String("match", cfg.Chop.Match),
		zap.String("bone", cfg.Chop.Bone))
	return fs, cfg
}

// fail logs err and exits.
func fail(msg string, err error) {
	logger.Error(msg, zap.Error(err))
	logger.Sync()
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func cmdChop(args []string) {
	fs, cfg := setup("chop", args)
	defer logger.Sync()

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: headchop chop [options] <in> <out>")
		os.Exit(1)
	}

	report, err := chop.Run(cfg, fs.Arg(0), fs.Arg(1), logger.Named("chop"))
	if report != nil {
		for _, p := range report.Primitives {
			if !p.Found {
				fmt.Printf("  %-24s head bone not found, unchanged\n", p.Name)
				continue
			}
			fmt.Printf("  %-24s head=%s collapsed %d/%d vertices (max shift %.3f)\n",
				p.Name, p.HeadBone, p.Affected, p.Vertices, p.MaxShift)
		}
	}
	if err != nil {
		if errors.Is(err, chop.ErrOutputExists) {
			err = fmt.Errorf("%w (use -f to overwrite)", err)
		}
		fail("chop failed", err)
	}
	if n := report.NotFound(); n > 0 {
		logger.Warn("primitives left unchanged",
			zap.Int("count", n),
			zap.Int("primitives", len(report.Primitives)))
	}

	fmt.Printf("Wrote: %s (%d vertices collapsed)\n", report.Output, report.Affected())
}

func cmdBones(args []string) {
	fs, cfg := setup("bones", args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: headchop bones [options] <in>")
		os.Exit(1)
	}

	infos, err := chop.Inspect(cfg, fs.Arg(0), logger.Named("inspect"))
	if err != nil {
		fail("inspect failed", err)
	}

	for _, info := range infos {
		fmt.Printf("%s (%d bones)\n", info.Name, len(info.Bones))
		if info.HeadBone < 0 {
			fmt.Println("  (no head bone found)")
		}
		for _, b := range info.Bones {
			mark := " "
			switch {
			case b.IsHead:
				mark = "H"
			case b.InSubtree:
				mark = "*"
			}
			fmt.Printf("  %s %3d %s%s\n", mark, b.Index, strings.Repeat("  ", b.Depth), b.Name)
		}
		fmt.Println()
	}
}

func cmdInspect(args []string) {
	fs, cfg := setup("inspect", args)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: headchop inspect [options] <in>")
		os.Exit(1)
	}

	infos, err := chop.Inspect(cfg, fs.Arg(0), logger.Named("inspect"))
	if err != nil {
		fail("inspect failed", err)
	}

	fmt.Printf("File: %s\n\n", fs.Arg(0))
	for _, info := range infos {
		head := "(none)"
		if info.HeadBone >= 0 {
			head = info.Bones[info.HeadBone].Name
		}
		w := info.Weights
		fmt.Printf("%s\n", info.Name)
		fmt.Printf("  Bones:        %d\n", len(info.Bones))
		fmt.Printf("  Head bone:    %s\n", head)
		fmt.Printf("  Vertices:     %d\n", w.Vertices)
		fmt.Printf("  Collapsible:  %d\n", w.Collapsible)
		fmt.Printf("  Weight sum:   mean %.4f, max deviation %.4f\n", w.MeanSum, w.MaxDeviation)
		if w.Unnormalized > 0 {
			fmt.Printf("  Unnormalized: %d (tolerance %g)\n", w.Unnormalized, chop.WeightTolerance)
		}
		fmt.Println()
	}
}

func cmdConfig(args []string) {
	if len(args) < 1 || args[0] != "init" {
		fmt.Fprintln(os.Stderr, "Usage: headchop config init [options] [file]")
		os.Exit(1)
	}

	fs, cfg := setup("config", args[1:])
	defer logger.Sync()

	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if _, err := os.Stat(path); err == nil {
		fail("config init failed", fmt.Errorf("%s already exists", path))
	}

	var err error
	if fs.NArg() > 0 {
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fail("config init failed", err)
	}

	logger.Info("wrote config", zap.String("path", path))
	fmt.Printf("Wrote: %s\n", path)
}
