// Package avatar loads skinned glTF/VRM avatars and exposes their skinned primitives
// as headchop skeleton providers and mesh owners.
package avatar

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"

	"github.com/Faultbox/headchop/pkg/math"
)

// Avatar errors.
var (
	ErrNoSkinnedMesh   = errors.New("no skinned mesh in document")
	ErrMissingSkinData = errors.New("primitive has no JOINTS_0/WEIGHTS_0")
	ErrVertexCount     = errors.New("vertex count mismatch")
	ErrJointRange      = errors.New("joint index does not fit JOINTS_0")
	ErrBindMatrices    = errors.New("invalid inverse bind matrices")
)

// Avatar is a loaded glTF document with precomputed node world transforms.
type Avatar struct {
	Path string

	doc     *gltf.Document
	parents []int       // Parent node index per node, -1 for roots
	world   []math.Mat4 // World transform per node
	owned   map[int]bool
	log     *zap.Logger
}

// Load opens a .gltf, .glb or .vrm file.
func Load(path string, log *zap.Logger) (*Avatar, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	a := New(doc, log)
	a.Path = path
	return a, nil
}

// New wraps an already decoded document.
func New(doc *gltf.Document, log *zap.Logger) *Avatar {
	if log == nil {
		log = zap.NewNop()
	}
	a := &Avatar{
		doc:   doc,
		owned: make(map[int]bool),
		log:   log,
	}
	a.parents = buildParents(doc)
	a.world = buildWorld(doc, a.parents)
	return a
}

// Document returns the underlying glTF document.
func (a *Avatar) Document() *gltf.Document {
	return a.doc
}

// NodeWorld returns the world transform of node i.
func (a *Avatar) NodeWorld(i int) math.Mat4 {
	return a.world[i]
}

// NodeName returns the name of node i, or "node_<i>" if unnamed.
func (a *Avatar) NodeName(i int) string {
	if name := a.doc.Nodes[i].Name; name != "" {
		return name
	}
	return fmt.Sprintf("node_%d", i)
}

// Save writes the document. .gltf produces JSON with external buffers; any other
// extension (.glb, .vrm) produces a binary container.
func (a *Avatar) Save(path string) error {
	var err error
	if strings.EqualFold(filepath.Ext(path), ".gltf") {
		err = gltf.Save(a.doc, path)
	} else {
		err = gltf.SaveBinary(a.doc, path)
	}
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// buildParents inverts the node Children lists.
func buildParents(doc *gltf.Document) []int {
	parents := make([]int, len(doc.Nodes))
	for i := range parents {
		parents[i] = -1
	}
	for i, node := range doc.Nodes {
		for _, child := range node.Children {
			if int(child) < len(parents) && parents[child] == -1 {
				parents[child] = i
			}
		}
	}
	return parents
}

// buildWorld composes node transforms down the hierarchy.
func buildWorld(doc *gltf.Document, parents []int) []math.Mat4 {
	world := make([]math.Mat4, len(doc.Nodes))
	done := make([]bool, len(doc.Nodes))

	var resolve func(i int, visited map[int]bool) math.Mat4
	resolve = func(i int, visited map[int]bool) math.Mat4 {
		if done[i] {
			return world[i]
		}
		// Prevent infinite recursion on malformed hierarchies
		if visited[i] {
			return math.Identity()
		}
		visited[i] = true

		m := localMatrix(doc.Nodes[i])
		if p := parents[i]; p >= 0 {
			m = resolve(p, visited).Mul(m)
		}
		world[i] = m
		done[i] = true
		return m
	}

	for i := range doc.Nodes {
		resolve(i, make(map[int]bool))
	}
	return world
}

// localMatrix returns the node's matrix, or T * R * S when no matrix is set.
func localMatrix(n *gltf.Node) math.Mat4 {
	if n.Matrix != gltf.DefaultMatrix && n.Matrix != ([16]float32{}) {
		return math.Mat4(n.Matrix)
	}

	r := n.RotationOrDefault()
	return math.Compose(
		math.Vec3FromArray(n.TranslationOrDefault()),
		math.Quat{X: r[0], Y: r[1], Z: r[2], W: r[3]},
		math.Vec3FromArray(n.ScaleOrDefault()),
	)
}
