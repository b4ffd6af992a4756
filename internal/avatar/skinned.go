package avatar

import (
	"fmt"
	"maps"
	stdmath "math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/headchop/pkg/headchop"
	"github.com/Faultbox/headchop/pkg/math"
)

// SkinnedMesh is one skinned primitive of a mesh node. It implements
// headchop.SkeletonProvider and headchop.MeshOwner.
type SkinnedMesh struct {
	avatar    *Avatar
	Node      int
	Skin      int
	Primitive int

	skeleton *headchop.Skeleton
	shared   *headchop.Mesh
}

// SkinnedMeshes returns every primitive that carries POSITION, JOINTS_0 and
// WEIGHTS_0 on a node with both a mesh and a skin.
func (a *Avatar) SkinnedMeshes() ([]*SkinnedMesh, error) {
	var out []*SkinnedMesh
	for nodeIdx, node := range a.doc.Nodes {
		if node.Mesh == nil || node.Skin == nil {
			continue
		}
		if int(*node.Mesh) >= len(a.doc.Meshes) || int(*node.Skin) >= len(a.doc.Skins) {
			return nil, fmt.Errorf("node %s: mesh or skin index out of range", a.NodeName(nodeIdx))
		}
		mesh := a.doc.Meshes[*node.Mesh]
		for primIdx, prim := range mesh.Primitives {
			if !hasSkinAttributes(prim) {
				a.log.Debug("skipping unskinned primitive",
					zap.String("node", a.NodeName(nodeIdx)),
					zap.Int("primitive", primIdx))
				continue
			}
			sm, err := a.newSkinnedMesh(nodeIdx, int(*node.Skin), primIdx)
			if err != nil {
				return nil, err
			}
			out = append(out, sm)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoSkinnedMesh
	}
	return out, nil
}

func hasSkinAttributes(prim *gltf.Primitive) bool {
	for _, attr := range []string{gltf.POSITION, gltf.JOINTS_0, gltf.WEIGHTS_0} {
		if _, ok := prim.Attributes[attr]; !ok {
			return false
		}
	}
	return true
}

func (a *Avatar) newSkinnedMesh(node, skin, prim int) (*SkinnedMesh, error) {
	sm := &SkinnedMesh{avatar: a, Node: node, Skin: skin, Primitive: prim}

	skel, err := a.buildSkeleton(skin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sm.Name(), err)
	}
	sm.skeleton = skel

	mesh, err := sm.read()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sm.Name(), err)
	}
	sm.shared = mesh
	return sm, nil
}

// Name identifies the primitive as "<node>/<primitive>".
func (sm *SkinnedMesh) Name() string {
	return fmt.Sprintf("%s/%d", sm.avatar.NodeName(sm.Node), sm.Primitive)
}

// Skeleton returns the bones of the node's skin, indexed like JOINTS_0.
func (sm *SkinnedMesh) Skeleton() *headchop.Skeleton {
	return sm.skeleton
}

// SharedMesh returns the primitive's vertex data as loaded.
func (sm *SkinnedMesh) SharedMesh() *headchop.Mesh {
	return sm.shared
}

// OwnerWorld returns the world transform of the mesh node. Skinning ignores it,
// so the collapse only falls back to it for joints without a usable bind pose.
func (sm *SkinnedMesh) OwnerWorld() math.Mat4 {
	return sm.avatar.NodeWorld(sm.Node)
}

// buildSkeleton maps skin joints to bones. A bone's parent is the nearest ancestor
// node that is also a joint of the same skin.
func (a *Avatar) buildSkeleton(skinIdx int) (*headchop.Skeleton, error) {
	skin := a.doc.Skins[skinIdx]

	binds, err := a.bindPoses(skin)
	if err != nil {
		return nil, err
	}

	nodeToBone := make(map[int]int, len(skin.Joints))
	for boneIdx, nodeIdx := range skin.Joints {
		nodeToBone[int(nodeIdx)] = boneIdx
	}

	bones := make([]headchop.Bone, len(skin.Joints))
	for boneIdx, joint := range skin.Joints {
		nodeIdx := int(joint)
		bone := &bones[boneIdx]
		bone.Parent = headchop.NoParent
		bone.Bind = binds[boneIdx]
		if nodeIdx >= len(a.doc.Nodes) {
			bone.Name = fmt.Sprintf("joint_%d", boneIdx)
			bone.World = math.Identity()
			continue
		}

		bone.Name = a.doc.Nodes[nodeIdx].Name
		if bone.Name == "" {
			bone.Name = fmt.Sprintf("joint_%d", boneIdx)
		}
		bone.World = a.world[nodeIdx]

		// Walk up through non-joint nodes, bounded against parent loops
		cur := a.parents[nodeIdx]
		for steps := 0; cur >= 0 && steps < len(a.doc.Nodes); steps++ {
			if parentBone, ok := nodeToBone[cur]; ok {
				bone.Parent = parentBone
				break
			}
			cur = a.parents[cur]
		}
	}

	return &headchop.Skeleton{Bones: bones}, nil
}

// bindPoses returns the bind transform of each joint, the inverse of its inverse
// bind matrix. A skin without inverse bind matrices binds every joint at identity.
// Joints whose matrix cannot be inverted get no bind pose.
func (a *Avatar) bindPoses(skin *gltf.Skin) ([]*math.Mat4, error) {
	binds := make([]*math.Mat4, len(skin.Joints))
	if skin.InverseBindMatrices == nil {
		for i := range binds {
			id := math.Identity()
			binds[i] = &id
		}
		return binds, nil
	}

	idx := *skin.InverseBindMatrices
	if int(idx) >= len(a.doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d out of range", ErrBindMatrices, idx)
	}
	acr := a.doc.Accessors[idx]
	if acr.ComponentType != gltf.ComponentFloat || acr.Type != gltf.AccessorMat4 {
		return nil, fmt.Errorf("%w: accessor %d is %s %s", ErrBindMatrices, idx, acr.ComponentType, acr.Type)
	}
	data, err := modeler.ReadAccessor(a.doc, acr, nil)
	if err != nil {
		return nil, fmt.Errorf("reading inverse bind matrices: %w", err)
	}
	ibms, _ := data.([][4][4]float32)
	if len(ibms) < len(skin.Joints) {
		return nil, fmt.Errorf("%w: %d matrices for %d joints", ErrBindMatrices, len(ibms), len(skin.Joints))
	}

	for i := range binds {
		bind, ok := invertBind(ibms[i])
		if !ok {
			a.log.Warn("singular inverse bind matrix",
				zap.String("skin", skin.Name),
				zap.Int("joint", i))
			continue
		}
		binds[i] = &bind
	}
	return binds, nil
}

// invertBind inverts a column-major inverse bind matrix in float64.
func invertBind(ibm [4][4]float32) (math.Mat4, bool) {
	var m mgl64.Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			m[col*4+row] = float64(ibm[col][row])
		}
	}
	if m.Det() == 0 {
		return math.Identity(), false
	}

	inv := m.Inv()
	var out math.Mat4
	for i := range inv {
		out[i] = float32(inv[i])
	}
	return out, true
}

func (sm *SkinnedMesh) primitive() *gltf.Primitive {
	node := sm.avatar.doc.Nodes[sm.Node]
	return sm.avatar.doc.Meshes[*node.Mesh].Primitives[sm.Primitive]
}

// read decodes positions and the first joint/weight set into a headchop mesh.
func (sm *SkinnedMesh) read() (*headchop.Mesh, error) {
	doc := sm.avatar.doc
	prim := sm.primitive()

	jointsIdx, ok := prim.Attributes[gltf.JOINTS_0]
	if !ok {
		return nil, ErrMissingSkinData
	}
	weightsIdx, ok := prim.Attributes[gltf.WEIGHTS_0]
	if !ok {
		return nil, ErrMissingSkinData
	}

	positions, err := modeler.ReadPosition(doc, doc.Accessors[prim.Attributes[gltf.POSITION]], nil)
	if err != nil {
		return nil, fmt.Errorf("reading POSITION: %w", err)
	}
	joints, err := modeler.ReadJoints(doc, doc.Accessors[jointsIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("reading JOINTS_0: %w", err)
	}
	weights, err := modeler.ReadWeights(doc, doc.Accessors[weightsIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("reading WEIGHTS_0: %w", err)
	}
	if len(joints) != len(positions) || len(weights) != len(positions) {
		return nil, fmt.Errorf("%w: %d positions, %d joints, %d weights",
			ErrVertexCount, len(positions), len(joints), len(weights))
	}

	mesh := &headchop.Mesh{
		Name:      sm.Name(),
		Positions: make([]math.Vec3, len(positions)),
		Weights:   make([]headchop.BoneWeight, len(positions)),
	}
	for i := range positions {
		mesh.Positions[i] = math.Vec3FromArray(positions[i])
		for slot := 0; slot < headchop.InfluencesPerVertex; slot++ {
			mesh.Weights[i].Index[slot] = int(joints[i][slot])
			mesh.Weights[i].Weight[slot] = weights[i][slot]
		}
	}
	return mesh, nil
}

// SetMesh stores m as the primitive's vertex data. Accessors that only this
// primitive reads are rewritten in place; shared ones are left as they are and
// the primitive is pointed at new accessors. A glTF mesh used by several nodes is
// duplicated first.
//
// Morph target position deltas are zeroed for every vertex that m moved, so blend
// shapes cannot pull collapsed vertices back out.
func (sm *SkinnedMesh) SetMesh(m *headchop.Mesh) error {
	if m.Len() != sm.shared.Len() || len(m.Weights) != m.Len() {
		return fmt.Errorf("%s: %w: have %d, got %d positions and %d weights",
			sm.Name(), ErrVertexCount, sm.shared.Len(), m.Len(), len(m.Weights))
	}

	positions := make([][3]float32, m.Len())
	joints := make([][4]uint16, m.Len())
	weights := make([][4]float32, m.Len())
	for i := range positions {
		positions[i] = m.Positions[i].Array()
		for slot := 0; slot < headchop.InfluencesPerVertex; slot++ {
			idx := m.Weights[i].Index[slot]
			if idx < 0 || idx > stdmath.MaxUint16 {
				return fmt.Errorf("%s: %w: vertex %d slot %d = %d", sm.Name(), ErrJointRange, i, slot, idx)
			}
			joints[i][slot] = uint16(idx)
			weights[i][slot] = m.Weights[i].Weight[slot]
		}
	}

	a := sm.avatar
	a.ownMesh(sm.Node)

	prim := sm.primitive()
	prim.Attributes[gltf.POSITION] = a.storePositions(prim.Attributes[gltf.POSITION], positions)
	prim.Attributes[gltf.JOINTS_0] = a.storeJoints(prim.Attributes[gltf.JOINTS_0], joints)
	prim.Attributes[gltf.WEIGHTS_0] = a.storeWeights(prim.Attributes[gltf.WEIGHTS_0], weights)

	moved := make([]bool, m.Len())
	for i := range moved {
		moved[i] = m.Positions[i] != sm.shared.Positions[i]
	}
	if err := sm.clearMorphTargets(prim, moved); err != nil {
		return err
	}

	sm.shared = m
	return nil
}

// clearMorphTargets rewrites target POSITION deltas with moved vertices zeroed.
func (sm *SkinnedMesh) clearMorphTargets(prim *gltf.Primitive, moved []bool) error {
	a := sm.avatar
	for t, target := range prim.Targets {
		accIdx, ok := target[gltf.POSITION]
		if !ok {
			continue
		}
		deltas, err := modeler.ReadPosition(a.doc, a.doc.Accessors[accIdx], nil)
		if err != nil {
			return fmt.Errorf("%s: reading morph target %d: %w", sm.Name(), t, err)
		}
		if len(deltas) != len(moved) {
			return fmt.Errorf("%s: morph target %d: %w", sm.Name(), t, ErrVertexCount)
		}

		changed := false
		for i := range deltas {
			if moved[i] && deltas[i] != [3]float32{} {
				deltas[i] = [3]float32{}
				changed = true
			}
		}
		if changed {
			target[gltf.POSITION] = a.storePositions(accIdx, deltas)
		}
	}
	return nil
}

// ownMesh gives node a private copy of its glTF mesh when other nodes share it.
func (a *Avatar) ownMesh(node int) {
	if a.owned[node] {
		return
	}
	a.owned[node] = true

	meshIdx := *a.doc.Nodes[node].Mesh
	users := 0
	for _, n := range a.doc.Nodes {
		if n.Mesh != nil && *n.Mesh == meshIdx {
			users++
		}
	}
	if users < 2 {
		return
	}

	src := a.doc.Meshes[meshIdx]
	dup := *src
	dup.Primitives = make([]*gltf.Primitive, len(src.Primitives))
	for i, p := range src.Primitives {
		cp := *p
		cp.Attributes = maps.Clone(p.Attributes)
		if p.Targets != nil {
			cp.Targets = slices.Clone(p.Targets)
			for t := range cp.Targets {
				cp.Targets[t] = maps.Clone(p.Targets[t])
			}
		}
		dup.Primitives[i] = &cp
	}

	a.doc.Meshes = append(a.doc.Meshes, &dup)
	newIdx := uint32(len(a.doc.Meshes) - 1)
	a.doc.Nodes[node].Mesh = gltf.Index(newIdx)

	a.log.Debug("duplicated shared mesh",
		zap.String("node", a.NodeName(node)),
		zap.Uint32("from", meshIdx),
		zap.Uint32("to", newIdx),
		zap.Int("users", users))
}
