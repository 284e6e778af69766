package natsort

import "testing"

func TestCompare_NumericSegments(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"2", "10", -1},
		{"10", "2", 1},
		{"f2", "f10", -1},
		{"Folder2", "Folder10", -1},
		{"Folder10", "Folder10", 0},
		{"a", "b", -1},
		{"capture_9_x", "capture_10_a", -1},
		{"1a", "a1", -1},
	}
	for _, c := range cases {
		if got := Compare(c.a, c.b); got != c.want {
			t.Fatalf("Compare(%q, %q)=%d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestCompare_CaseInsensitiveText(t *testing.T) {
	if Compare("Session2", "session10") != -1 {
		t.Fatalf("expected Session2 < session10")
	}
	// 自然序相等但原始串不同：必须仍是确定的全序，不能返回 0。
	if Compare("A1", "a1") == 0 {
		t.Fatalf("expected deterministic order for A1 vs a1")
	}
	if Compare("01", "1") == 0 {
		t.Fatalf("expected deterministic order for 01 vs 1")
	}
}

func TestStrings_Deterministic(t *testing.T) {
	in1 := []string{"f10", "f2", "F1", "f1"}
	in2 := []string{"f2", "f1", "f10", "F1"}
	Strings(in1)
	Strings(in2)
	for i := range in1 {
		if in1[i] != in2[i] {
			t.Fatalf("sort not deterministic: %v vs %v", in1, in2)
		}
	}
	if in1[len(in1)-1] != "f10" {
		t.Fatalf("expected f10 last, got %v", in1)
	}
}
