package replace

import (
	"errors"
	"testing"

	"capture-organizer/internal/domain/model"
)

func TestParseIdentifierSpec_SingleAndAscending(t *testing.T) {
	got, err := ParseIdentifierSpec("5, 7, 10-12")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []int{5, 7, 10, 11, 12}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParseIdentifierSpec_DescendingRangePreservesDirection(t *testing.T) {
	got, err := ParseIdentifierSpec("115-110")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []int{115, 114, 113, 112, 111, 110}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParseIdentifierSpec_MalformedFailsWhole(t *testing.T) {
	for _, spec := range []string{"", "1,,3", "1,abc", "1-2-3x", "5-", "-"} {
		if got, err := ParseIdentifierSpec(spec); err == nil {
			t.Fatalf("spec %q: expected error, got %v", spec, got)
		}
	}
}

func TestMap_CountMismatchAborts(t *testing.T) {
	folders := []model.SourceFolder{{Name: "a"}, {Name: "b"}}
	ids := []int{1, 2, 3}

	_, err := Map(folders, ids, model.AttackDefinition{Name: "2"}, model.SelectDevice(model.DeviceKozen10))
	var mismatch *model.CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected CountMismatchError, got %v", err)
	}
	if mismatch.Identifiers != 3 || mismatch.Folders != 2 {
		t.Fatalf("unexpected mismatch detail: %+v", mismatch)
	}
}

func TestMap_PositionalMapping(t *testing.T) {
	folders := []model.SourceFolder{{Name: "f1"}, {Name: "f2"}, {Name: "f3"}}
	ids := []int{115, 114, 113}

	plan, err := Map(folders, ids, model.AttackDefinition{
		Name:   "2",
		Ranges: model.AttackRanges{model.DeviceKozen10: {Start: 91, End: 170}},
	}, model.SelectDevice(model.DeviceKozen10))
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	for i, e := range plan.Entries {
		if e.Folder.Name != folders[i].Name || e.Number != ids[i] {
			t.Fatalf("entry %d = %+v", i, e)
		}
	}
}

func TestMap_AllSelectorResolvesDeviceByRange(t *testing.T) {
	def := model.AttackDefinition{
		Name: "2",
		Ranges: model.AttackRanges{
			model.DeviceKozen10: {Start: 91, End: 170},
			model.DeviceKozen12: {Start: 171, End: 250},
		},
	}
	folders := []model.SourceFolder{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	// 100 落在 kozen 10，200 落在 kozen 12，999 不属于任何号段 -> 兜底第一台。
	plan, err := Map(folders, []int{100, 200, 999}, def, model.SelectAll())
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if plan.Entries[0].Device != model.DeviceKozen10 {
		t.Fatalf("100 should resolve to kozen 10, got %s", plan.Entries[0].Device)
	}
	if plan.Entries[1].Device != model.DeviceKozen12 {
		t.Fatalf("200 should resolve to kozen 12, got %s", plan.Entries[1].Device)
	}
	if plan.Entries[2].Device != model.DeviceKozen10 {
		t.Fatalf("999 should fall back to first device, got %s", plan.Entries[2].Device)
	}
	if !plan.SplitDevices {
		t.Fatalf("two configured devices must split the destination tree")
	}
}

func TestMap_AllSelectorNoRangesFallsBackToNoDevice(t *testing.T) {
	// 纯分类攻击：没有任何号段。兜底后终端为空，目标树不加终端层。
	plan, err := Map([]model.SourceFolder{{Name: "a"}}, []int{7},
		model.AttackDefinition{Name: "cat", Ranges: model.AttackRanges{}}, model.SelectAll())
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if plan.Entries[0].Device != "" {
		t.Fatalf("expected empty device, got %q", plan.Entries[0].Device)
	}
	if plan.SplitDevices {
		t.Fatalf("no configured devices must not split")
	}
}
