package model

// RunRecord 是一次批处理运行的落库摘要。
type RunRecord struct {
	RunID      string
	RunType    string // copy | replace
	Attack     string
	SourceDir  string
	DestDir    string
	Processed  int
	Skipped    int
	Errors     int
	StartedAt  int64
	FinishedAt int64
}

// ExportRecord 是一次报表导出产物的登记信息。
type ExportRecord struct {
	ExportID    string
	ExportType  string // report_xlsx | report_pdf
	FilePath    string
	SHA256      string
	GeneratedAt int64
}
