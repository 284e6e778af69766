package reportexport

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	sqliteadapter "capture-organizer/internal/adapters/store/sqlite"

	"github.com/phpdave11/gofpdf"
)

// GeneratePDF 把报表行导出为 PDF 摘要表并登记产物。
// 报表内容（编号、攻击名、日期、时长）都是 ASCII，核心字体够用。
func GeneratePDF(ctx context.Context, store *sqliteadapter.Store, opts Options) (*Result, error) {
	if err := ensureExportDir(opts.ExportDir); err != nil {
		return nil, err
	}
	rows, err := loadRows(ctx, store)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	pdf.SetTitle("Capture Organizer - Duration Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, "Capture Duration Report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated at: %s", time.Now().Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	widths := []float64{28, 52, 32, 32, 24}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(30, 30, 30)
	if len(rows) == 0 {
		pdf.CellFormat(0, 7, "(empty)", "1", 1, "C", false, 0, "")
	}
	for _, r := range rows {
		cells := []string{r.Identifier, r.Attack, r.Date, r.Duration, fmt.Sprintf("%d", r.Folders)}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 7, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	path := filepath.Join(opts.ExportDir, fmt.Sprintf("report_%d.pdf", time.Now().Unix()))
	if err := pdf.OutputFileAndClose(path); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	return register(ctx, store, "report_pdf", path, len(rows))
}
