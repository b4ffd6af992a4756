package headchop

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/headchop/pkg/math"
)

// SkeletonProvider supplies the bone hierarchy driving a mesh.
type SkeletonProvider interface {
	// Skeleton returns a snapshot of the bones with their current world transforms.
	Skeleton() *Skeleton
}

// MeshOwner owns the skinned mesh being edited.
type MeshOwner interface {
	// SharedMesh returns the mesh asset, which may be shared with other owners.
	SharedMesh() *Mesh
	// SetMesh replaces the owner's mesh with a private copy.
	SetMesh(*Mesh) error
	// OwnerWorld returns the owner's local-to-world transform.
	OwnerWorld() math.Mat4
}

// Component runs the head collapse once when started and does nothing afterwards.
type Component struct {
	collapser *Collapser
	skeleton  SkeletonProvider
	owner     MeshOwner

	started bool
	result  *Result
}

// NewComponent creates a component bound to a skeleton and a mesh owner.
func NewComponent(c *Collapser, skel SkeletonProvider, owner MeshOwner) *Component {
	return &Component{collapser: c, skeleton: skel, owner: owner}
}

// Start collapses the owner's mesh and assigns the private copy back to it.
// A missing head bone is logged and leaves the owner's mesh untouched.
// Calling Start again has no effect.
func (c *Component) Start() error {
	if c.started {
		return nil
	}
	c.started = true

	result, err := c.collapser.Collapse(c.skeleton.Skeleton(), c.owner.SharedMesh(), c.owner.OwnerWorld())
	if errors.Is(err, ErrHeadBoneNotFound) {
		c.result = result
		return nil
	}
	if err != nil {
		return err
	}
	c.result = result

	if err := c.owner.SetMesh(result.Mesh); err != nil {
		return err
	}

	c.collapser.log().Debug("assigned private mesh", zap.String("mesh", result.Mesh.Name))
	return nil
}

// Update is a no-op; the mesh is only edited by Start.
func (c *Component) Update(dt float64) {}

// Result returns the outcome of Start, or nil if Start has not run.
func (c *Component) Result() *Result {
	return c.result
}

// Found reports whether Start located a head bone.
func (c *Component) Found() bool {
	return c.result != nil && c.result.HeadBone >= 0
}
