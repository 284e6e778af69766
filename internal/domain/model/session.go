package model

import (
	"fmt"
	"time"
)

// CaptureStamp 是一个文件夹的代表性拍摄时间。
type CaptureStamp struct {
	Folder  string
	TakenAt time.Time
}

// Session 是同一天内的一段连续采集：相邻时间差不超过会话间隔。
type Session struct {
	Stamps []CaptureStamp
}

// Duration 返回会话时长；单成员会话按最小时长 30 秒计。
func (s Session) Duration() time.Duration {
	if len(s.Stamps) <= 1 {
		return MinimalSessionDuration
	}
	return s.Stamps[len(s.Stamps)-1].TakenAt.Sub(s.Stamps[0].TakenAt)
}

const (
	// SessionGap 是切分会话的最大相邻间隔。
	SessionGap = 2 * time.Hour
	// MinimalSessionDuration 是单成员会话计入的最小时长。
	MinimalSessionDuration = 30 * time.Second
)

// DurationResult 是一批文件夹的耗时重建结果。
// Determined=false 表示没有任何文件夹给出时间戳——“未知”与“零”语义不同，
// 绝不能混为一谈。
type DurationResult struct {
	Determined     bool
	Total          time.Duration
	SessionCount   int
	DayCount       int
	Date           string // 代表性日期（众数），格式 2006-01-02
	StampedFolders int
	SkippedFolders []string
}

// FormatTotal 按 HH:MM:SS 输出总时长；未知时输出 "undetermined"。
func (d DurationResult) FormatTotal() string {
	if !d.Determined {
		return "undetermined"
	}
	total := int64(d.Total.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
