package reportexport

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	sqliteadapter "capture-organizer/internal/adapters/store/sqlite"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Report"

// GenerateXLSX 把报表行导出为 XLSX 并登记产物。
// 空报表也导出（只有表头），方便流程固定化。
func GenerateXLSX(ctx context.Context, store *sqliteadapter.Store, opts Options) (*Result, error) {
	if err := ensureExportDir(opts.ExportDir); err != nil {
		return nil, err
	}
	rows, err := loadRows(ctx, store)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetColWidth(sheetName, "A", "E", 16); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	for i, h := range header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", "E1", headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, r := range rows {
		values := []any{r.Identifier, r.Attack, r.Date, r.Duration, r.Folders}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("write row %d: %w", i+1, err)
			}
		}
	}

	path := filepath.Join(opts.ExportDir, fmt.Sprintf("report_%d.xlsx", time.Now().Unix()))
	if err := f.SaveAs(path); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}

	return register(ctx, store, "report_xlsx", path, len(rows))
}
