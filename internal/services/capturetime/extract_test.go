package capturetime

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"capture-organizer/internal/domain/model"
)

// fakeReader 按文件名决定能否读出时间戳：名字含 "noexif" 的文件失败。
// 返回的时间编码在文件名里无意义，这里统一返回固定时刻并记录调用顺序。
type fakeReader struct {
	calls []string
	when  time.Time
}

func (f *fakeReader) read(path string) (time.Time, error) {
	f.calls = append(f.calls, filepath.Base(path))
	if strings.Contains(filepath.Base(path), "noexif") {
		return time.Time{}, fmt.Errorf("no exif data")
	}
	return f.when, nil
}

func write(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func TestFolderTimestamp_BestshotTierWinsFirst(t *testing.T) {
	root := t.TempDir()
	write(t, root, "BestShot.jpg")
	write(t, root, "Captures/frame1.jpg")

	r := &fakeReader{when: time.Now()}
	_, ok := FolderTimestamp(root, r.read)
	if !ok {
		t.Fatalf("expected timestamp")
	}
	if len(r.calls) != 1 || r.calls[0] != "BestShot.jpg" {
		t.Fatalf("bestshot tier must win, calls: %v", r.calls)
	}
}

func TestFolderTimestamp_FailedReadFallsThroughWithinTier(t *testing.T) {
	root := t.TempDir()
	// 两个 bestshot：自然序在前的读不出来，同级下一个候选接手，
	// 不跳到 Captures 级。
	write(t, root, "bestshot_1_noexif.jpg")
	write(t, root, "bestshot_2.jpg")
	write(t, root, "Captures/frame1.jpg")

	r := &fakeReader{when: time.Now()}
	_, ok := FolderTimestamp(root, r.read)
	if !ok {
		t.Fatalf("expected timestamp")
	}
	if len(r.calls) != 2 || r.calls[1] != "bestshot_2.jpg" {
		t.Fatalf("expected fall-through within bestshot tier, calls: %v", r.calls)
	}
}

func TestFolderTimestamp_TierOrderCapturesThenFocusThenRecursive(t *testing.T) {
	root := t.TempDir()
	write(t, root, "Captures/a_noexif.jpg")
	write(t, root, "Focus/b.jpg")

	r := &fakeReader{when: time.Now()}
	_, ok := FolderTimestamp(root, r.read)
	if !ok {
		t.Fatalf("expected timestamp")
	}
	// Captures 级耗尽后进入 Focus 级。
	if r.calls[len(r.calls)-1] != "b.jpg" {
		t.Fatalf("expected Focus tier to provide timestamp, calls: %v", r.calls)
	}
}

func TestFolderTimestamp_RecursiveTierAsLastResort(t *testing.T) {
	root := t.TempDir()
	write(t, root, "deep/nested/dir/shot.jpg")
	write(t, root, "notes.txt")

	r := &fakeReader{when: time.Now()}
	_, ok := FolderTimestamp(root, r.read)
	if !ok {
		t.Fatalf("expected timestamp from recursive tier")
	}
	if r.calls[0] != "shot.jpg" {
		t.Fatalf("unexpected calls: %v", r.calls)
	}
}

func TestFolderTimestamp_AllTiersExhausted(t *testing.T) {
	root := t.TempDir()
	write(t, root, "bestshot_noexif.jpg")
	write(t, root, "Captures/a_noexif.jpg")

	r := &fakeReader{when: time.Now()}
	if _, ok := FolderTimestamp(root, r.read); ok {
		t.Fatalf("expected no timestamp when all tiers fail")
	}
}

func TestAnalyze_SkipsFoldersWithoutTimestamps(t *testing.T) {
	base := t.TempDir()
	good := filepath.Join(base, "good")
	bad := filepath.Join(base, "bad")
	write(t, good, "bestshot.jpg")
	write(t, bad, "bestshot_noexif.jpg")

	r := &fakeReader{when: time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)}
	res := Analyze([]model.SourceFolder{
		{Name: "good", Path: good},
		{Name: "bad", Path: bad},
	}, r.read)

	if !res.Determined {
		t.Fatalf("expected determined result")
	}
	if res.StampedFolders != 1 {
		t.Fatalf("stamped=%d, want 1", res.StampedFolders)
	}
	if len(res.SkippedFolders) != 1 || res.SkippedFolders[0] != "bad" {
		t.Fatalf("skipped=%v", res.SkippedFolders)
	}
	if res.Date != "2026-08-10" {
		t.Fatalf("date=%s", res.Date)
	}
}
