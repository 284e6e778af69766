package registry

import (
	"os"
	"path/filepath"
	"testing"

	"capture-organizer/internal/domain/model"
	"capture-organizer/internal/platform/sink"
)

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ranges.yaml")
	return New(path, &sink.MemorySink{}), path
}

func TestLoad_MissingFileSelfHeals(t *testing.T) {
	r, path := newTestRegistry(t)
	r.Load()

	if len(r.Attacks()) == 0 {
		t.Fatalf("expected default attacks after self-heal")
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected ranges file to be written: %v", err)
	}

	def, ok := r.Get("2")
	if !ok {
		t.Fatalf("default attack 2 missing")
	}
	rng, ok := def.Ranges[model.DeviceKozen10]
	if !ok || rng.Start != 91 || rng.End != 170 {
		t.Fatalf("unexpected default range for attack 2: %+v", rng)
	}
}

func TestLoad_CorruptFileSelfHeals(t *testing.T) {
	r, path := newTestRegistry(t)
	if err := os.WriteFile(path, []byte("{not yaml: ["), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	r.Load()
	if len(r.Attacks()) == 0 {
		t.Fatalf("expected defaults after corrupt load")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	r, path := newTestRegistry(t)
	r.Load()
	if err := r.Create("replay"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.SetRange("replay", model.DeviceKozen12, 900, 950); err != nil {
		t.Fatalf("set range: %v", err)
	}

	reloaded := New(path, &sink.MemorySink{})
	reloaded.Load()

	want := r.Attacks()
	got := reloaded.Attacks()
	if len(want) != len(got) {
		t.Fatalf("attack count mismatch: %v vs %v", want, got)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("attack order mismatch: %v vs %v", want, got)
		}
	}
	def, ok := reloaded.Get("replay")
	if !ok {
		t.Fatalf("replay missing after reload")
	}
	if rng := def.Ranges[model.DeviceKozen12]; rng.Start != 900 || rng.End != 950 {
		t.Fatalf("range did not round-trip: %+v", rng)
	}
}

func TestLoad_NormalizesDeviceTagTypos(t *testing.T) {
	r, path := newTestRegistry(t)
	raw := "version: \"1\"\nattacks:\n  \"5\":\n    \"Kozen 10x\": [475, 514]\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	r.Load()

	def, ok := r.Get("5")
	if !ok {
		t.Fatalf("attack 5 missing")
	}
	if _, ok := def.Ranges[model.DeviceKozen10]; !ok {
		t.Fatalf("typo tag was not folded onto canonical tag: %+v", def.Ranges)
	}

	// 折叠必须已回写：重新加载不再触发改写。
	reloaded := New(path, &sink.MemorySink{})
	reloaded.Load()
	def2, _ := reloaded.Get("5")
	if _, ok := def2.Ranges[model.DeviceKozen10]; !ok {
		t.Fatalf("normalization was not persisted")
	}
}

func TestLoad_DropsInvertedRanges(t *testing.T) {
	r, path := newTestRegistry(t)
	raw := "version: \"1\"\nattacks:\n  \"5\":\n    \"kozen 10\": [514, 475]\n    \"kozen 12\": [515, 554]\n"
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	log := &sink.MemorySink{}
	r = New(path, log)
	r.Load()

	def, ok := r.Get("5")
	if !ok {
		t.Fatalf("attack 5 missing")
	}
	if _, ok := def.Ranges[model.DeviceKozen10]; ok {
		t.Fatalf("inverted range survived load: %+v", def.Ranges)
	}
	if rng := def.Ranges[model.DeviceKozen12]; rng.Start != 515 || rng.End != 554 {
		t.Fatalf("valid sibling range lost: %+v", def.Ranges)
	}
	if log.Count(sink.SeverityWarning) == 0 {
		t.Fatalf("expected a warning for the dropped range")
	}

	// 剔除必须已回写：重新加载后坏号段不再出现。
	reloaded := New(path, &sink.MemorySink{})
	reloaded.Load()
	def2, _ := reloaded.Get("5")
	if _, ok := def2.Ranges[model.DeviceKozen10]; ok {
		t.Fatalf("inverted range was not healed on disk")
	}
}

func TestMutations_ErrorCases(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Load()

	if err := r.Create("2"); err == nil {
		t.Fatalf("expected DuplicateName on create")
	}
	if err := r.Rename("missing", "x"); err == nil {
		t.Fatalf("expected NotFound on rename")
	}
	if err := r.Rename("2", "3"); err == nil {
		t.Fatalf("expected DuplicateName on rename target")
	}
	if err := r.Delete("missing"); err == nil {
		t.Fatalf("expected NotFound on delete")
	}
	if err := r.SetRange("2", model.DeviceKozen10, 50, 40); err == nil {
		t.Fatalf("expected InvalidRange")
	}
	if err := r.SetRange("missing", model.DeviceKozen10, 1, 2); err == nil {
		t.Fatalf("expected NotFound on set range")
	}
}

func TestExpectedCount(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.Load()

	// 攻击 2：kozen 10 有 80 个号，kozen 12 有 80 个号。
	if got := r.ExpectedCount("2", model.SelectDevice(model.DeviceKozen10)); got != 80 {
		t.Fatalf("single device expected 80, got %d", got)
	}
	if got := r.ExpectedCount("2", model.SelectAll()); got != 160 {
		t.Fatalf("all devices expected 160, got %d", got)
	}
	if got := r.ExpectedCount("missing", model.SelectAll()); got != 0 {
		t.Fatalf("unknown attack expected 0, got %d", got)
	}
	if got := r.ExpectedCount("6", model.SelectDevice(model.DeviceKozen12)); got != 0 {
		t.Fatalf("unknown device expected 0, got %d", got)
	}
}

func TestDeleteRemovesFromDisk(t *testing.T) {
	r, path := newTestRegistry(t)
	r.Load()
	if err := r.Delete("9"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	reloaded := New(path, &sink.MemorySink{})
	reloaded.Load()
	if _, ok := reloaded.Get("9"); ok {
		t.Fatalf("deleted attack survived reload")
	}
}
