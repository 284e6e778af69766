package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"capture-organizer/internal/domain/model"
	"capture-organizer/internal/platform/sink"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, store, err := Open(ctx, filepath.Join(t.TempDir(), "organizer.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store
}

func TestUpsertReportRow_OverwritesSameKey(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	first := model.ReportRow{Identifier: 91, Attack: "2", Date: "2026-08-01", DurationSeconds: 600, Determined: true, FolderCount: 10}
	second := model.ReportRow{Identifier: 91, Attack: "2", Date: "2026-08-02", DurationSeconds: 900, Determined: true, FolderCount: 12}

	if err := store.UpsertReportRow(ctx, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.UpsertReportRow(ctx, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rows, err := store.ListReportRows(ctx)
	if err != nil {
		t.Fatalf("list rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after upsert, got %d", len(rows))
	}
	if rows[0].DurationSeconds != 900 || rows[0].FolderCount != 12 || rows[0].Date != "2026-08-02" {
		t.Fatalf("upsert did not overwrite: %+v", rows[0])
	}
}

func TestListReportRows_OrderedByIdentifier(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for _, r := range []model.ReportRow{
		{Identifier: 250, Attack: "2", Determined: true},
		{Identifier: 91, Attack: "3", Determined: true},
		{Identifier: 91, Attack: "2", Determined: false},
	} {
		if err := store.UpsertReportRow(ctx, r); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	rows, err := store.ListReportRows(ctx)
	if err != nil {
		t.Fatalf("list rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Identifier != 91 || rows[0].Attack != "2" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].Identifier != 91 || rows[1].Attack != "3" {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
	if rows[2].Identifier != 250 {
		t.Fatalf("unexpected third row: %+v", rows[2])
	}
	if rows[0].FormatDuration() != "undetermined" {
		t.Fatalf("undetermined row must format as undetermined, got %s", rows[0].FormatDuration())
	}
}

func TestSaveRunAndEvents(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	run := model.RunRecord{
		RunID:      "run_test_1",
		RunType:    "copy",
		Attack:     "2",
		SourceDir:  "/src",
		DestDir:    "/dst",
		Processed:  5,
		Skipped:    1,
		StartedAt:  time.Now().Unix(),
		FinishedAt: time.Now().Unix(),
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	events := []sink.Event{
		{Severity: sink.SeverityInfo, Message: "copied 1 -> 91", At: time.Now()},
		{Severity: sink.SeverityWarning, Message: "overwrote existing 92", At: time.Now()},
	}
	if err := store.AppendRunEvents(ctx, run.RunID, events); err != nil {
		t.Fatalf("append events: %v", err)
	}
}

func TestRegisterAndGetExport(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	rec := model.ExportRecord{
		ExportID:    "exp_1",
		ExportType:  "report_xlsx",
		FilePath:    "/tmp/report.xlsx",
		SHA256:      "abc",
		GeneratedAt: time.Now().Unix(),
	}
	if err := store.RegisterExport(ctx, rec); err != nil {
		t.Fatalf("register export: %v", err)
	}

	got, err := store.GetExport(ctx, "exp_1")
	if err != nil {
		t.Fatalf("get export: %v", err)
	}
	if got == nil || got.FilePath != rec.FilePath || got.SHA256 != rec.SHA256 {
		t.Fatalf("export mismatch: %+v", got)
	}

	missing, err := store.GetExport(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing export: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing export")
	}
}
