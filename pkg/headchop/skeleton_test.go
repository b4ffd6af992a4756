package headchop

import (
	"testing"

	"github.com/Faultbox/headchop/pkg/math"
)

// humanoid builds Hips <- Spine <- Neck <- Head <- Jaw.
func humanoid() *Skeleton {
	return &Skeleton{Bones: []Bone{
		{Name: "Hips", Parent: NoParent, World: math.Translate(0, 1, 0)},
		{Name: "Spine", Parent: 0, World: math.Translate(0, 1.2, 0)},
		{Name: "Neck", Parent: 1, World: math.Translate(0, 1.5, 0)},
		{Name: "Head", Parent: 2, World: math.Translate(0, 1.6, 0.05)},
		{Name: "Jaw", Parent: 3, World: math.Translate(0, 1.55, 0.1)},
	}}
}

func TestIsDescendantOf(t *testing.T) {
	skel := humanoid()

	tests := []struct {
		name     string
		bone     int
		ancestor int
		want     bool
	}{
		{"self", 3, 3, true},
		{"child", 4, 3, true},
		{"grandchild of root", 4, 0, true},
		{"parent is not descendant", 2, 3, false},
		{"root is not descendant", 0, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := skel.IsDescendantOf(tt.bone, tt.ancestor); got != tt.want {
				t.Errorf("IsDescendantOf(%d, %d) = %v, want %v", tt.bone, tt.ancestor, got, tt.want)
			}
		})
	}
}

func TestIsDescendantOfCycle(t *testing.T) {
	// A <-> B loop must terminate
	skel := &Skeleton{Bones: []Bone{
		{Name: "A", Parent: 1},
		{Name: "B", Parent: 0},
		{Name: "C", Parent: NoParent},
	}}

	if skel.IsDescendantOf(0, 2) {
		t.Error("bone in a parent loop should not reach an unrelated bone")
	}
	if !skel.IsDescendantOf(0, 1) {
		t.Error("expected loop member to see its parent")
	}
}

func TestParentOutOfRange(t *testing.T) {
	skel := &Skeleton{Bones: []Bone{{Name: "Root", Parent: 7}}}
	if got := skel.Parent(0); got != NoParent {
		t.Errorf("Parent() = %d, want NoParent for out-of-range link", got)
	}
}

func TestDepthAndIndex(t *testing.T) {
	skel := humanoid()
	if got := skel.Depth(4); got != 4 {
		t.Errorf("Depth(Jaw) = %d, want 4", got)
	}
	if got := skel.Index("Neck"); got != 2 {
		t.Errorf("Index(Neck) = %d, want 2", got)
	}
	if got := skel.Index("Tail"); got != -1 {
		t.Errorf("Index(Tail) = %d, want -1", got)
	}
}

func TestWorldPosition(t *testing.T) {
	skel := humanoid()
	want := math.Vec3{X: 0, Y: 1.6, Z: 0.05}
	if got := skel.WorldPosition(3); got != want {
		t.Errorf("WorldPosition(Head) = %v, want %v", got, want)
	}
}
