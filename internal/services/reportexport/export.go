package reportexport

import (
	"context"
	"fmt"
	"os"
	"time"

	sqliteadapter "capture-organizer/internal/adapters/store/sqlite"
	"capture-organizer/internal/domain/model"
	"capture-organizer/internal/platform/hash"
	"capture-organizer/internal/platform/id"
)

// 报表导出：把累积的报表行渲染成 XLSX / PDF 文件，
// 产物统一做 SHA-256 并登记到 exports 表，方便事后核对文件是否被改动。

// Options 控制一次导出。
type Options struct {
	ExportDir string
}

// Result 是一次导出的登记回执。
type Result struct {
	ExportID    string `json:"export_id"`
	FilePath    string `json:"file_path"`
	SHA256      string `json:"sha256"`
	Rows        int    `json:"rows"`
	GeneratedAt int64  `json:"generated_at"`
}

// exportRow 是渲染用的一行：同编号连续多行时只有第一行显示编号，
// 视觉上把同一编号的多个攻击分成一组。
type exportRow struct {
	Identifier string
	Attack     string
	Date       string
	Duration   string
	Folders    int
}

var header = []string{"Identifier", "Attack", "Date", "Duration", "Folders"}

// loadRows 读出全部报表行并做编号分组折叠。
// 行序由存储层保证（identifier、attack 升序）。
func loadRows(ctx context.Context, store *sqliteadapter.Store) ([]exportRow, error) {
	rows, err := store.ListReportRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load report rows: %w", err)
	}

	out := make([]exportRow, 0, len(rows))
	prev := -1
	for _, r := range rows {
		ident := fmt.Sprintf("%d", r.Identifier)
		if r.Identifier == prev {
			ident = ""
		}
		prev = r.Identifier

		date := r.Date
		if date == "" {
			date = "-"
		}
		out = append(out, exportRow{
			Identifier: ident,
			Attack:     r.Attack,
			Date:       date,
			Duration:   r.FormatDuration(),
			Folders:    r.FolderCount,
		})
	}
	return out, nil
}

// register 计算产物哈希并写入 exports 表。
func register(ctx context.Context, store *sqliteadapter.Store, exportType, path string, rows int) (*Result, error) {
	sum, err := hash.File(path)
	if err != nil {
		return nil, fmt.Errorf("sha256 export: %w", err)
	}

	rec := model.ExportRecord{
		ExportID:    id.New("exp"),
		ExportType:  exportType,
		FilePath:    path,
		SHA256:      sum,
		GeneratedAt: time.Now().Unix(),
	}
	if err := store.RegisterExport(ctx, rec); err != nil {
		return nil, fmt.Errorf("register export: %w", err)
	}

	return &Result{
		ExportID:    rec.ExportID,
		FilePath:    path,
		SHA256:      sum,
		Rows:        rows,
		GeneratedAt: rec.GeneratedAt,
	}, nil
}

func ensureExportDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("export directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	return nil
}
