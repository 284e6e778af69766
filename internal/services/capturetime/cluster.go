package capturetime

import (
	"sort"
	"time"

	"capture-organizer/internal/domain/model"
)

const dateLayout = "2006-01-02"

// Analyze 对一批源文件夹做耗时重建：逐个提取代表性时间戳，再聚类求和。
func Analyze(folders []model.SourceFolder, read TimestampReader) model.DurationResult {
	var stamps []model.CaptureStamp
	var skipped []string
	for _, f := range folders {
		ts, ok := FolderTimestamp(f.Path, read)
		if !ok {
			skipped = append(skipped, f.Name)
			continue
		}
		stamps = append(stamps, model.CaptureStamp{Folder: f.Name, TakenAt: ts})
	}

	result := Reconstruct(stamps, len(folders))
	result.SkippedFolders = skipped
	return result
}

// Reconstruct 把 (文件夹, 时间戳) 对聚成会话并求总时长：
// 先按拍摄日期分桶，桶内按时间排序，相邻间隔超过 2 小时处切分会话；
// 单成员会话按 30 秒下限计。没有任何时间戳时结果为“未知”，不是零。
func Reconstruct(stamps []model.CaptureStamp, totalFolders int) model.DurationResult {
	if len(stamps) == 0 {
		return model.DurationResult{Determined: false}
	}

	// 日期桶按首次出现顺序记录，保证代表性日期的平票裁决可复现。
	byDate := map[string][]model.CaptureStamp{}
	var dateOrder []string
	for _, s := range stamps {
		d := s.TakenAt.Format(dateLayout)
		if _, seen := byDate[d]; !seen {
			dateOrder = append(dateOrder, d)
		}
		byDate[d] = append(byDate[d], s)
	}

	var total time.Duration
	sessionCount := 0
	for _, d := range dateOrder {
		day := byDate[d]
		sort.Slice(day, func(i, j int) bool {
			return day[i].TakenAt.Before(day[j].TakenAt)
		})

		for _, sess := range splitSessions(day) {
			total += sess.Duration()
			sessionCount++
		}
	}

	// 历史行为保留的兜底：时间戳存在但总和恰为零时按每文件夹 30 秒计。
	// 单成员会话的 30 秒下限使这条路径正常情况下不可达。
	if total == 0 {
		total = model.MinimalSessionDuration * time.Duration(totalFolders)
	}

	return model.DurationResult{
		Determined:     true,
		Total:          total,
		SessionCount:   sessionCount,
		DayCount:       len(dateOrder),
		Date:           modeDate(stamps),
		StampedFolders: len(stamps),
	}
}

// splitSessions 在排好序的一天内，于相邻间隔超过会话间隔处切分。
func splitSessions(day []model.CaptureStamp) []model.Session {
	var sessions []model.Session
	current := model.Session{Stamps: []model.CaptureStamp{day[0]}}
	for _, s := range day[1:] {
		last := current.Stamps[len(current.Stamps)-1]
		if s.TakenAt.Sub(last.TakenAt) > model.SessionGap {
			sessions = append(sessions, current)
			current = model.Session{}
		}
		current.Stamps = append(current.Stamps, s)
	}
	return append(sessions, current)
}

// modeDate 返回出现次数最多的拍摄日期（众数）；
// 平票时取迭代中先遇到的日期。只用于报表展示，与会话计算无关。
func modeDate(stamps []model.CaptureStamp) string {
	counts := map[string]int{}
	best := ""
	bestCount := 0
	for _, s := range stamps {
		d := s.TakenAt.Format(dateLayout)
		counts[d]++
		if counts[d] > bestCount {
			best = d
			bestCount = counts[d]
		}
	}
	return best
}
