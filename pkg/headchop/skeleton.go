// Package headchop collapses the head geometry of a skinned avatar mesh onto the
// head bone so the avatar can be used for first-person embodiment.
//
// Head vertices are not deleted and no hole is stitched. Every vertex touched by a
// bone of the head subtree is moved to the head bone position and rebound fully to
// the head bone, which leaves a hard seam at the neck.
package headchop

import (
	"github.com/Faultbox/headchop/pkg/math"
)

// NoParent marks a root bone.
const NoParent = -1

// Bone is a node in the skeletal hierarchy.
type Bone struct {
	Name   string
	Parent int       // Index of the parent bone, NoParent for roots
	World  math.Mat4 // Current world-space transform

	// Bind is the bone transform in the mesh's vertex space at bind time, the
	// inverse of its inverse bind matrix. nil when the source has no bind pose.
	Bind *math.Mat4
}

// Skeleton is an immutable, ordered bone list with integer parent links.
// Bone indices match the indices used by skin weights.
type Skeleton struct {
	Bones []Bone
}

// Len returns the number of bones.
func (s *Skeleton) Len() int {
	return len(s.Bones)
}

// Parent returns the parent index of bone i, or NoParent.
// Out-of-range parents are treated as roots.
func (s *Skeleton) Parent(i int) int {
	p := s.Bones[i].Parent
	if p < 0 || p >= len(s.Bones) {
		return NoParent
	}
	return p
}

// WorldPosition returns the world-space position of bone i.
func (s *Skeleton) WorldPosition(i int) math.Vec3 {
	return s.Bones[i].World.Position()
}

// IsDescendantOf reports whether ancestor appears in the chain i, parent(i),
// parent(parent(i)), ... A bone is its own descendant.
func (s *Skeleton) IsDescendantOf(i, ancestor int) bool {
	// A chain longer than the bone count means the parent links loop.
	cur := i
	for steps := 0; cur != NoParent && steps <= len(s.Bones); steps++ {
		if cur == ancestor {
			return true
		}
		cur = s.Parent(cur)
	}
	return false
}

// Index returns the index of the first bone named exactly name, or -1.
func (s *Skeleton) Index(name string) int {
	for i := range s.Bones {
		if s.Bones[i].Name == name {
			return i
		}
	}
	return -1
}

// Depth returns the number of ancestors of bone i.
func (s *Skeleton) Depth(i int) int {
	depth := 0
	cur := s.Parent(i)
	for cur != NoParent && depth < len(s.Bones) {
		depth++
		cur = s.Parent(cur)
	}
	return depth
}
