package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"capture-organizer/internal/domain/model"
	"capture-organizer/internal/platform/sink"

	_ "modernc.org/sqlite"
)

// Store 封装与 SQLite 的读写逻辑。
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open 打开（必要时创建）数据库并执行迁移。
// 单机工具优先稳定性：单连接 + busy_timeout 减少 "database is locked"。
func Open(ctx context.Context, path string) (*sql.DB, *Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := NewMigrator(db).Up(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}
	return db, NewStore(db), nil
}

// UpsertReportRow 写入报表行；同键（identifier, attack）覆盖旧值。
func (s *Store) UpsertReportRow(ctx context.Context, row model.ReportRow) error {
	determined := 0
	if row.Determined {
		determined = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO report_rows(identifier, attack, report_date, duration_seconds, determined, folder_count, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identifier, attack) DO UPDATE SET
			report_date=excluded.report_date,
			duration_seconds=excluded.duration_seconds,
			determined=excluded.determined,
			folder_count=excluded.folder_count,
			updated_at=excluded.updated_at
	`, row.Identifier, row.Attack, row.Date, row.DurationSeconds, determined, row.FolderCount, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert report row: %w", err)
	}
	return nil
}

// ListReportRows 按 identifier、attack 排序返回全部报表行。
// 导出层依赖这个顺序实现同编号的行分组。
func (s *Store) ListReportRows(ctx context.Context) ([]model.ReportRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT identifier, attack, report_date, duration_seconds, determined, folder_count, updated_at
		FROM report_rows
		ORDER BY identifier ASC, attack ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list report rows: %w", err)
	}
	defer rows.Close()

	var out []model.ReportRow
	for rows.Next() {
		var r model.ReportRow
		var determined int
		if err := rows.Scan(&r.Identifier, &r.Attack, &r.Date, &r.DurationSeconds, &determined, &r.FolderCount, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		r.Determined = determined != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveRun 写入一次运行的摘要。
func (s *Store) SaveRun(ctx context.Context, run model.RunRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs(run_id, run_type, attack, source_dir, dest_dir, processed, skipped, errors, started_at, finished_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, run.RunType, run.Attack, run.SourceDir, run.DestDir,
		run.Processed, run.Skipped, run.Errors, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// AppendRunEvents 批量写入运行事件，使用事务保证原子性。
func (s *Store) AppendRunEvents(ctx context.Context, runID string, events []sink.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx run events: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_events(run_id, severity, message, created_at)
		VALUES(?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert run events: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err = stmt.ExecContext(ctx, runID, string(e.Severity), e.Message, e.At.Unix()); err != nil {
			return fmt.Errorf("insert run event: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit run events: %w", err)
	}
	return nil
}

// RegisterExport 登记一次导出产物（路径 + 哈希）。
func (s *Store) RegisterExport(ctx context.Context, rec model.ExportRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exports(export_id, export_type, file_path, sha256, generated_at)
		VALUES(?, ?, ?, ?, ?)
	`, rec.ExportID, rec.ExportType, rec.FilePath, rec.SHA256, rec.GeneratedAt)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// GetExport 按 ID 查询导出登记；不存在时返回 nil。
func (s *Store) GetExport(ctx context.Context, exportID string) (*model.ExportRecord, error) {
	var rec model.ExportRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT export_id, export_type, file_path, sha256, generated_at
		FROM exports
		WHERE export_id = ?
	`, exportID).Scan(&rec.ExportID, &rec.ExportType, &rec.FilePath, &rec.SHA256, &rec.GeneratedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("query export %s: %w", exportID, err)
	}
	return &rec, nil
}
