package model

import "fmt"

// ReportRow 是报表累积器的一行，键为 (Identifier, Attack)。
// 同键的后写覆盖先写（upsert），导出时不会出现重复行。
type ReportRow struct {
	Identifier      int
	Attack          string
	Date            string // 2006-01-02；未知时为空
	DurationSeconds int64
	Determined      bool
	FolderCount     int
	UpdatedAt       int64
}

// FormatDuration 按 HH:MM:SS 输出时长；未知时输出 "undetermined"。
func (r ReportRow) FormatDuration() string {
	if !r.Determined {
		return "undetermined"
	}
	return fmt.Sprintf("%02d:%02d:%02d",
		r.DurationSeconds/3600, (r.DurationSeconds%3600)/60, r.DurationSeconds%60)
}
