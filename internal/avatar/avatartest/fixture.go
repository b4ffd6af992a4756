// Package avatartest builds small skinned glTF documents for tests.
package avatartest

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Node and joint layout of Humanoid:
//
//	node 0 Armature
//	  node 1 Hips > 2 Spine > 3 Neck > 4 J_Bip_C_Head > 5 Jaw   (joints 0..4)
//	node 6 Body (mesh 0, skin 0), translated by (0, 0, 1)
const (
	HeadJoint = 3
	HeadNode  = 4
	BodyNode  = 6
)

// BindPositions are the world positions of joints 0..4 in the rest pose. The
// inverse bind matrices of Humanoid are the inverse translations.
var BindPositions = [][3]float32{
	{0, 1, 0},
	{0, 1.2, 0},
	{0, 1.5, 0},
	{0, 1.6, 0.05},
	{0, 1.55, 0.1},
}

// Positions are the Body vertices in bind space: jaw, spine, neck/head blend,
// hips/spine blend.
var Positions = [][3]float32{
	{0, 1.7, 0.1},
	{0, 1.2, 0},
	{0, 1.55, 0},
	{0.2, 1.0, 0},
}

// MorphDeltas is the single morph target added by Options.Morph.
var MorphDeltas = [][3]float32{
	{0, 0.01, 0},
	{0, 0.02, 0},
	{0, 0, 0},
	{0.03, 0, 0},
}

// Options tweaks the generated document.
type Options struct {
	Morph    bool   // Add a POSITION morph target
	HeadName string // Rename the head joint; "" keeps J_Bip_C_Head
	NoBind   bool   // Omit the inverse bind matrices
}

// Humanoid builds a five-joint skinned avatar with a four-vertex body.
func Humanoid(opts Options) *gltf.Document {
	headName := opts.HeadName
	if headName == "" {
		headName = "J_Bip_C_Head"
	}

	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{
		{Name: "Armature", Children: []uint32{1}},
		{Name: "Hips", Translation: [3]float32{0, 1, 0}, Children: []uint32{2}},
		{Name: "Spine", Translation: [3]float32{0, 0.2, 0}, Children: []uint32{3}},
		{Name: "Neck", Translation: [3]float32{0, 0.3, 0}, Children: []uint32{4}},
		{Name: headName, Translation: [3]float32{0, 0.1, 0.05}, Children: []uint32{5}},
		{Name: "Jaw", Translation: [3]float32{0, -0.05, 0.05}},
		{Name: "Body", Translation: [3]float32{0, 0, 1}, Mesh: gltf.Index(0), Skin: gltf.Index(0)},
	}
	doc.Scenes[0].Nodes = []uint32{0, BodyNode}

	skin := &gltf.Skin{Name: "Armature", Joints: []uint32{1, 2, 3, 4, 5}}
	if !opts.NoBind {
		ibms := make([][4][4]float32, len(BindPositions))
		for i, p := range BindPositions {
			ibms[i] = [4][4]float32{
				{1, 0, 0, 0},
				{0, 1, 0, 0},
				{0, 0, 1, 0},
				{-p[0], -p[1], -p[2], 1},
			}
		}
		skin.InverseBindMatrices = gltf.Index(modeler.WriteAccessor(doc, gltf.TargetNone, ibms))
	}
	doc.Skins = []*gltf.Skin{skin}

	pos := modeler.WritePosition(doc, Positions)
	joints := modeler.WriteJoints(doc, [][4]uint16{
		{4, 0, 0, 0},
		{1, 0, 0, 0},
		{2, 3, 0, 0},
		{0, 1, 0, 0},
	})
	weights := modeler.WriteWeights(doc, [][4]float32{
		{1, 0, 0, 0},
		{1, 0, 0, 0},
		{0.3, 0.7, 0, 0},
		{0.5, 0.5, 0, 0},
	})

	prim := &gltf.Primitive{Attributes: gltf.Attribute{
		gltf.POSITION:  pos,
		gltf.JOINTS_0:  joints,
		gltf.WEIGHTS_0: weights,
	}}
	if opts.Morph {
		deltas := modeler.WritePosition(doc, MorphDeltas)
		prim.Targets = append(prim.Targets, gltf.Attribute{gltf.POSITION: deltas})
	}
	doc.Meshes = []*gltf.Mesh{{Name: "Body", Primitives: []*gltf.Primitive{prim}}}
	return doc
}

// WriteGLB saves doc into a temporary .glb file and returns its path.
func WriteGLB(t testing.TB, doc *gltf.Document, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}
