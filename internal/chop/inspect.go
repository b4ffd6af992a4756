package chop

import (
	stdmath "math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/Faultbox/headchop/internal/avatar"
	"github.com/Faultbox/headchop/internal/config"
	"github.com/Faultbox/headchop/pkg/headchop"
)

// WeightTolerance is the allowed deviation of a vertex weight sum from 1.
const WeightTolerance = 1e-3

// BoneInfo describes one bone of a skeleton.
type BoneInfo struct {
	Index     int
	Name      string
	Parent    int
	Depth     int
	IsHead    bool
	InSubtree bool
}

// WeightStats summarizes the skin weights of a primitive.
type WeightStats struct {
	Vertices     int
	Collapsible  int     // Vertices that a collapse would move
	MeanSum      float64 // Mean of per-vertex weight sums
	MaxDeviation float64 // Largest |sum - 1|
	Unnormalized int     // Vertices with |sum - 1| > WeightTolerance
}

// PrimitiveInfo is the inspection result for one skinned primitive.
type PrimitiveInfo struct {
	Name     string
	HeadBone int
	Bones    []BoneInfo
	Weights  WeightStats
}

// Inspect reports the skeleton, head subtree and weight statistics of every skinned
// primitive in the file without modifying it.
func Inspect(cfg *config.Config, in string, log *zap.Logger) ([]PrimitiveInfo, error) {
	if log == nil {
		log = zap.NewNop()
	}

	matcher, err := cfg.Chop.Matcher()
	if err != nil {
		return nil, err
	}

	av, err := avatar.Load(in, log.Named("avatar"))
	if err != nil {
		return nil, err
	}
	meshes, err := av.SkinnedMeshes()
	if err != nil {
		return nil, err
	}

	infos := make([]PrimitiveInfo, 0, len(meshes))
	for _, sm := range meshes {
		skel := sm.Skeleton()
		head, found := headchop.FindHeadBone(skel, matcher)

		var flags []bool
		if found {
			flags = headchop.HeadSubtree(skel, head)
		} else {
			flags = make([]bool, skel.Len())
		}

		info := PrimitiveInfo{
			Name:     sm.Name(),
			HeadBone: head,
			Bones:    describeBones(skel, head, flags),
			Weights:  AnalyzeWeights(sm.SharedMesh(), flags),
		}
		infos = append(infos, info)

		log.Debug("inspected primitive",
			zap.String("primitive", info.Name),
			zap.Bool("head_found", found),
			zap.Int("collapsible", info.Weights.Collapsible))
	}
	return infos, nil
}

func describeBones(skel *headchop.Skeleton, head int, flags []bool) []BoneInfo {
	bones := make([]BoneInfo, skel.Len())
	for i, b := range skel.Bones {
		bones[i] = BoneInfo{
			Index:     i,
			Name:      b.Name,
			Parent:    skel.Parent(i),
			Depth:     skel.Depth(i),
			IsHead:    i == head,
			InSubtree: flags[i],
		}
	}
	return bones
}

// AnalyzeWeights computes weight-sum statistics and counts the vertices a collapse
// over flags would touch.
func AnalyzeWeights(m *headchop.Mesh, flags []bool) WeightStats {
	stats := WeightStats{Vertices: len(m.Weights)}
	if len(m.Weights) == 0 {
		return stats
	}

	sums := make([]float64, len(m.Weights))
	devs := make([]float64, len(m.Weights))
	for i, w := range m.Weights {
		sums[i] = float64(w.Sum())
		devs[i] = stdmath.Abs(sums[i] - 1)
		if devs[i] > WeightTolerance {
			stats.Unnormalized++
		}
		if headchop.TouchesSubtree(w, flags) {
			stats.Collapsible++
		}
	}

	stats.MeanSum = stat.Mean(sums, nil)
	stats.MaxDeviation = floats.Max(devs)
	return stats
}
