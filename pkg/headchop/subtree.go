package headchop

// HeadSubtree flags every bone whose ancestor chain passes through head,
// including head itself. The result has one entry per bone.
func HeadSubtree(skel *Skeleton, head int) []bool {
	flags := make([]bool, skel.Len())
	for i := range flags {
		flags[i] = skel.IsDescendantOf(i, head)
	}
	if head >= 0 && head < len(flags) {
		flags[head] = true
	}
	return flags
}

// SubtreeBones returns the indices flagged in a HeadSubtree result.
func SubtreeBones(flags []bool) []int {
	var bones []int
	for i, in := range flags {
		if in {
			bones = append(bones, i)
		}
	}
	return bones
}
