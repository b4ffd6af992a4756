package headchop

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"

	"github.com/Faultbox/headchop/pkg/math"
)

// InfluencesPerVertex is the number of (bone, weight) slots per vertex.
const InfluencesPerVertex = 4

// BoneWeight holds up to four bone influences for a single vertex.
// Weights are expected to sum to ~1; this package does not enforce it.
type BoneWeight struct {
	Index  [InfluencesPerVertex]int
	Weight [InfluencesPerVertex]float32
}

// Single returns a weight record bound fully to one bone.
// Unused slots are (0, 0).
func Single(bone int) BoneWeight {
	return BoneWeight{
		Index:  [InfluencesPerVertex]int{bone, 0, 0, 0},
		Weight: [InfluencesPerVertex]float32{1, 0, 0, 0},
	}
}

// Sum returns the total weight of all slots.
func (w BoneWeight) Sum() float32 {
	return w.Weight[0] + w.Weight[1] + w.Weight[2] + w.Weight[3]
}

// Mesh is a skinned vertex buffer. Positions are in object-local space and
// Positions and Weights are parallel slices of equal length.
type Mesh struct {
	Name      string
	Positions []math.Vec3
	Weights   []BoneWeight
}

// Len returns the number of vertices.
func (m *Mesh) Len() int {
	return len(m.Positions)
}

// Clone returns a deep copy that shares no buffers with m.
func (m *Mesh) Clone() (*Mesh, error) {
	clone := &Mesh{}
	if err := deepcopy.Copy(clone, *m); err != nil {
		return nil, fmt.Errorf("cloning mesh %q: %w", m.Name, err)
	}
	return clone, nil
}
