// Package chop runs the head collapse over every skinned primitive of an avatar file.
package chop

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/headchop/internal/avatar"
	"github.com/Faultbox/headchop/internal/config"
	"github.com/Faultbox/headchop/pkg/headchop"
)

// Pipeline errors.
var (
	ErrHeadRequired = errors.New("head bone required but not found")
	ErrOutputExists = errors.New("output file exists")
)

// PrimitiveReport is the outcome for one skinned primitive.
type PrimitiveReport struct {
	Name     string
	Vertices int
	Found    bool
	HeadBone string
	Affected int
	MaxShift float32 // Largest distance a collapsed vertex moved
}

// Report summarizes a run.
type Report struct {
	Input      string
	Output     string
	Primitives []PrimitiveReport
}

// Affected returns the total number of collapsed vertices.
func (r *Report) Affected() int {
	total := 0
	for _, p := range r.Primitives {
		total += p.Affected
	}
	return total
}

// NotFound returns how many primitives had no head bone.
func (r *Report) NotFound() int {
	n := 0
	for _, p := range r.Primitives {
		if !p.Found {
			n++
		}
	}
	return n
}

// Run loads in, collapses the head of every skinned primitive and writes out.
// Primitives without a head bone are left unchanged unless cfg requires one.
func Run(cfg *config.Config, in, out string, log *zap.Logger) (*Report, error) {
	if log == nil {
		log = zap.NewNop()
	}

	matcher, err := cfg.Chop.Matcher()
	if err != nil {
		return nil, err
	}

	if !cfg.Output.Overwrite {
		if _, err := os.Stat(out); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrOutputExists, out)
		}
	}

	av, err := avatar.Load(in, log.Named("avatar"))
	if err != nil {
		return nil, err
	}
	meshes, err := av.SkinnedMeshes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", in, err)
	}

	collapser := headchop.NewCollapser(matcher, log.Named("collapse"))
	report := &Report{Input: in, Output: out}

	for _, sm := range meshes {
		comp := headchop.NewComponent(collapser, sm, sm)
		if err := comp.Start(); err != nil {
			return report, fmt.Errorf("%s: %w", sm.Name(), err)
		}

		res := comp.Result()
		report.Primitives = append(report.Primitives, PrimitiveReport{
			Name:     sm.Name(),
			Vertices: res.Mesh.Len(),
			Found:    comp.Found(),
			HeadBone: res.HeadBoneName,
			Affected: res.Affected,
			MaxShift: res.MaxShift,
		})
	}

	if cfg.Chop.RequireHead && report.NotFound() > 0 {
		return report, fmt.Errorf("%w: %d of %d primitives", ErrHeadRequired, report.NotFound(), len(report.Primitives))
	}

	if err := av.Save(out); err != nil {
		return report, err
	}

	log.Info("wrote avatar",
		zap.String("output", out),
		zap.Int("primitives", len(report.Primitives)),
		zap.Int("collapsed", report.Affected()))

	return report, nil
}
