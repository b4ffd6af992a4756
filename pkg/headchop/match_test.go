package headchop

import "testing"

func TestMatcherMatch(t *testing.T) {
	tests := []struct {
		name    string
		matcher Matcher
		bone    string
		want    bool
	}{
		{"default substring", Matcher{}, "Bip01 Head", true},
		{"case insensitive", Matcher{}, "HEAD", true},
		{"substring inside word", Matcher{}, "Forehead_L", true},
		{"no match", Matcher{}, "Neck", false},
		{"custom pattern", Matcher{Pattern: "kopf"}, "Kopf", true},
		{"exact match", Matcher{Mode: MatchExact}, "Head", true},
		{"exact rejects suffix", Matcher{Mode: MatchExact}, "HeadTop_End", false},
		{"word in prefix path", Matcher{Mode: MatchWord}, "J_Bip_C_Head", true},
		{"word from camel case", Matcher{Mode: MatchWord}, "mixamorig:HeadTop_End", true},
		{"word rejects embedded", Matcher{Mode: MatchWord}, "Forehead", false},
		{"bone override", Matcher{Bone: "Skull"}, "skull", true},
		{"bone override ignores pattern", Matcher{Bone: "Skull"}, "Head", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.matcher.Match(tt.bone); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.bone, got, tt.want)
			}
		})
	}
}

func TestParseMatchMode(t *testing.T) {
	tests := []struct {
		in      string
		want    MatchMode
		wantErr bool
	}{
		{"", MatchSubstring, false},
		{"substring", MatchSubstring, false},
		{"Exact", MatchExact, false},
		{" word ", MatchWord, false},
		{"regex", MatchSubstring, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMatchMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMatchMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMatchMode(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchModeString(t *testing.T) {
	for _, m := range []MatchMode{MatchSubstring, MatchExact, MatchWord} {
		parsed, err := ParseMatchMode(m.String())
		if err != nil || parsed != m {
			t.Errorf("ParseMatchMode(%q) = %v, %v", m.String(), parsed, err)
		}
	}
}

func TestFindHeadBoneFirstMatchWins(t *testing.T) {
	skel := &Skeleton{Bones: []Bone{
		{Name: "Neck", Parent: NoParent},
		{Name: "HeadAccessory01", Parent: 0},
		{Name: "Head", Parent: 0},
	}}

	idx, ok := FindHeadBone(skel, Matcher{})
	if !ok {
		t.Fatal("expected a head bone")
	}
	if idx != 1 {
		t.Errorf("FindHeadBone = %d, want 1 (first in index order)", idx)
	}

	idx, ok = FindHeadBone(skel, Matcher{Mode: MatchExact})
	if !ok || idx != 2 {
		t.Errorf("FindHeadBone exact = %d, %v, want 2, true", idx, ok)
	}
}

func TestFindHeadBoneOverridePrefersExactCase(t *testing.T) {
	skel := &Skeleton{Bones: []Bone{
		{Name: "Hips", Parent: NoParent},
		{Name: "HEAD", Parent: 0},
		{Name: "Head", Parent: 1},
	}}

	idx, ok := FindHeadBone(skel, Matcher{Bone: "Head"})
	if !ok || idx != 2 {
		t.Errorf("FindHeadBone(Bone: Head) = %d, %v, want 2, true", idx, ok)
	}
	idx, ok = FindHeadBone(skel, Matcher{Bone: "head"})
	if !ok || idx != 1 {
		t.Errorf("FindHeadBone(Bone: head) = %d, %v, want 1, true", idx, ok)
	}
}

func TestFindHeadBoneMissing(t *testing.T) {
	skel := &Skeleton{Bones: []Bone{{Name: "Hips", Parent: NoParent}, {Name: "Spine", Parent: 0}}}
	if idx, ok := FindHeadBone(skel, Matcher{}); ok || idx != -1 {
		t.Errorf("FindHeadBone = %d, %v, want -1, false", idx, ok)
	}
}

func TestSplitWords(t *testing.T) {
	got := splitWords("mixamorig:HeadTop_End")
	want := []string{"mixamorig", "Head", "Top", "End"}
	if len(got) != len(want) {
		t.Fatalf("splitWords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, got[i], want[i])
		}
	}
}
