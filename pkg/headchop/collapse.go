package headchop

import (
	"errors"

	"go.uber.org/zap"

	"github.com/Faultbox/headchop/pkg/math"
)

// ErrHeadBoneNotFound is returned when no bone matches the head pattern.
// It is recoverable: the returned mesh is an unmodified copy.
var ErrHeadBoneNotFound = errors.New("head bone not found")

// Result describes a finished collapse.
type Result struct {
	Mesh         *Mesh     // Private copy of the input mesh, rewritten in place
	HeadBone     int       // Index of the head bone, -1 if not found
	HeadBoneName string    // Name of the head bone
	Subtree      []bool    // Head subtree flags, nil if not found
	Target       math.Vec3 // Collapse target in object-local space
	Affected     int       // Number of collapsed vertices
	MaxShift     float32   // Largest distance a collapsed vertex moved
}

// Collapser removes head geometry from skinned meshes.
type Collapser struct {
	Matcher Matcher
	Logger  *zap.Logger // Diagnostic sink; nil disables logging
}

// NewCollapser creates a collapser using the given matcher and logger.
func NewCollapser(m Matcher, log *zap.Logger) *Collapser {
	return &Collapser{Matcher: m, Logger: log}
}

func (c *Collapser) log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// CollapseTarget returns the head bone position in the vertex space of the mesh.
//
// When the head bone carries a bind pose the target is the bind-time head position,
// which skinning maps back onto the posed head. Otherwise the world position is
// brought into the local space of the mesh owner, whose local-to-world transform
// is ownerWorld. ok is false when ownerWorld is singular, in which case the world
// position is returned unchanged.
func CollapseTarget(skel *Skeleton, head int, ownerWorld math.Mat4) (target math.Vec3, ok bool) {
	if bind := skel.Bones[head].Bind; bind != nil {
		return bind.Position(), true
	}
	return ownerWorld.InverseTransformVec3(skel.WorldPosition(head))
}

// Collapse copies mesh and collapses every vertex influenced by the head subtree onto
// the head bone. The input mesh is never modified.
//
// A vertex is collapsed when any slot with weight > 0 references a subtree bone. Its
// position becomes the collapse target and its weights become a single full-weight
// influence on the head bone, even if most of its weight was on other bones.
//
// If no head bone is found the result holds an unmodified copy and the error is
// ErrHeadBoneNotFound.
func (c *Collapser) Collapse(skel *Skeleton, mesh *Mesh, ownerWorld math.Mat4) (*Result, error) {
	log := c.log()

	clone, err := mesh.Clone()
	if err != nil {
		return nil, err
	}
	result := &Result{Mesh: clone, HeadBone: -1}

	head, found := FindHeadBone(skel, c.Matcher)
	if !found {
		log.Info("head bone not found",
			zap.String("mesh", mesh.Name),
			zap.String("pattern", c.patternString()),
			zap.Int("bones", skel.Len()))
		return result, ErrHeadBoneNotFound
	}

	flags := HeadSubtree(skel, head)
	target, ok := CollapseTarget(skel, head, ownerWorld)
	if !ok {
		log.Warn("owner transform is singular, using world-space head position",
			zap.String("mesh", mesh.Name))
	}

	result.HeadBone = head
	result.HeadBoneName = skel.Bones[head].Name
	result.Subtree = flags
	result.Target = target

	log.Debug("head subtree",
		zap.String("head", result.HeadBoneName),
		zap.Int("index", head),
		zap.Bool("bind_pose", skel.Bones[head].Bind != nil),
		zap.Ints("bones", SubtreeBones(flags)))

	result.Affected, result.MaxShift = rewrite(clone, flags, head, target)

	log.Info("collapsed head vertices",
		zap.String("mesh", mesh.Name),
		zap.String("head", result.HeadBoneName),
		zap.Int("vertices", result.Affected),
		zap.Int("total", clone.Len()),
		zap.Float32("max_shift", result.MaxShift))

	return result, nil
}

// rewrite collapses flagged vertices in place. It returns how many changed and the
// largest distance one of them moved.
func rewrite(m *Mesh, flags []bool, head int, target math.Vec3) (count int, maxShift float32) {
	for i := range m.Weights {
		if !TouchesSubtree(m.Weights[i], flags) {
			continue
		}
		if d := m.Positions[i].Distance(target); d > maxShift {
			maxShift = d
		}
		m.Positions[i] = target
		m.Weights[i] = Single(head)
		count++
	}
	return count, maxShift
}

// TouchesSubtree reports whether any slot with weight > 0 references a flagged bone.
// Indices outside the skeleton never match.
func TouchesSubtree(w BoneWeight, flags []bool) bool {
	for slot := 0; slot < InfluencesPerVertex; slot++ {
		idx := w.Index[slot]
		if w.Weight[slot] > 0 && idx >= 0 && idx < len(flags) && flags[idx] {
			return true
		}
	}
	return false
}

func (c *Collapser) patternString() string {
	if c.Matcher.Bone != "" {
		return c.Matcher.Bone
	}
	if c.Matcher.Pattern == "" {
		return DefaultPattern
	}
	return c.Matcher.Pattern
}
