package avatar

import (
	stdmath "math"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/binary"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

// storePositions writes POSITION or morph delta data for the accessor at old and
// returns the accessor index the primitive should use.
func (a *Avatar) storePositions(old uint32, data [][3]float32) uint32 {
	if a.overwrite(old, data) {
		lo, hi := bounds(data)
		a.doc.Accessors[old].Min = lo
		a.doc.Accessors[old].Max = hi
		return old
	}
	return modeler.WritePosition(a.doc, data)
}

// storeJoints writes JOINTS_0 data, narrowing to bytes when the source accessor
// uses them and every index fits.
func (a *Avatar) storeJoints(old uint32, data [][4]uint16) uint32 {
	if int(old) < len(a.doc.Accessors) && a.doc.Accessors[old].ComponentType == gltf.ComponentUbyte {
		if narrow, ok := narrowJoints(data); ok && a.overwrite(old, narrow) {
			return old
		}
	}
	if a.overwrite(old, data) {
		return old
	}
	return modeler.WriteJoints(a.doc, data)
}

// storeWeights writes WEIGHTS_0 data.
func (a *Avatar) storeWeights(old uint32, data [][4]float32) uint32 {
	if a.overwrite(old, data) {
		return old
	}
	return modeler.WriteWeights(a.doc, data)
}

// overwrite writes data over the bytes of accessor idx. It refuses, returning
// false, when anything else reads the accessor or its buffer view, or when the
// stored layout differs from data.
func (a *Avatar) overwrite(idx uint32, data any) bool {
	doc := a.doc
	if int(idx) >= len(doc.Accessors) {
		return false
	}
	acr := doc.Accessors[idx]
	if acr.BufferView == nil || acr.Sparse != nil || acr.Normalized {
		return false
	}

	c, t, n := binary.Type(data)
	if acr.ComponentType != c || acr.Type != t || acr.Count != n {
		return false
	}
	if accessorUsers(doc)[idx] != 1 || bufferViewUsers(doc)[*acr.BufferView] != 1 {
		return false
	}

	if int(*acr.BufferView) >= len(doc.BufferViews) {
		return false
	}
	bv := doc.BufferViews[*acr.BufferView]
	if int(bv.Buffer) >= len(doc.Buffers) {
		return false
	}
	buf := doc.Buffers[bv.Buffer]
	start, end := int(bv.ByteOffset+acr.ByteOffset), int(bv.ByteOffset+bv.ByteLength)
	if start > end || end > len(buf.Data) {
		return false
	}
	if err := binary.Write(buf.Data[start:end], bv.ByteStride, data); err != nil {
		a.log.Debug("accessor not rewritten in place",
			zap.Uint32("accessor", idx),
			zap.Error(err))
		return false
	}
	return true
}

// accessorUsers counts the references to each accessor from meshes, skins and
// animations.
func accessorUsers(doc *gltf.Document) map[uint32]int {
	users := make(map[uint32]int)
	for _, mesh := range doc.Meshes {
		for _, prim := range mesh.Primitives {
			for _, idx := range prim.Attributes {
				users[idx]++
			}
			if prim.Indices != nil {
				users[*prim.Indices]++
			}
			for _, target := range prim.Targets {
				for _, idx := range target {
					users[idx]++
				}
			}
		}
	}
	for _, skin := range doc.Skins {
		if skin.InverseBindMatrices != nil {
			users[*skin.InverseBindMatrices]++
		}
	}
	for _, anim := range doc.Animations {
		for _, s := range anim.Samplers {
			users[s.Input]++
			users[s.Output]++
		}
	}
	return users
}

// bufferViewUsers counts the references to each buffer view from accessors and
// images.
func bufferViewUsers(doc *gltf.Document) map[uint32]int {
	users := make(map[uint32]int)
	for _, acr := range doc.Accessors {
		if acr.BufferView != nil {
			users[*acr.BufferView]++
		}
		if acr.Sparse != nil {
			users[acr.Sparse.Indices.BufferView]++
			users[acr.Sparse.Values.BufferView]++
		}
	}
	for _, img := range doc.Images {
		if img.BufferView != nil {
			users[*img.BufferView]++
		}
	}
	return users
}

func narrowJoints(data [][4]uint16) ([][4]uint8, bool) {
	out := make([][4]uint8, len(data))
	for i, j := range data {
		for slot, idx := range j {
			if idx > stdmath.MaxUint8 {
				return nil, false
			}
			out[i][slot] = uint8(idx)
		}
	}
	return out, true
}

func bounds(data [][3]float32) ([]float32, []float32) {
	lo := [3]float32{stdmath.MaxFloat32, stdmath.MaxFloat32, stdmath.MaxFloat32}
	hi := [3]float32{-stdmath.MaxFloat32, -stdmath.MaxFloat32, -stdmath.MaxFloat32}
	for _, v := range data {
		for i, x := range v {
			lo[i] = float32(stdmath.Min(float64(lo[i]), float64(x)))
			hi[i] = float32(stdmath.Max(float64(hi[i]), float64(x)))
		}
	}
	return lo[:], hi[:]
}
