package validate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"capture-organizer/internal/domain/model"
)

// 内容检查器：在任何破坏性拷贝前核对单个采集文件夹的内部结构。
// 各项检查独立累积结论，不短路；只有顶层目录读不出来时才整体放弃。

// Options 控制可选检查项。
type Options struct {
	// RequireNumericNames 开启时，子目录名必须是 1-4 位纯数字。
	RequireNumericNames bool
}

const bestshotMarker = "bestshot"

var numericName = regexp.MustCompile(`^[0-9]{1,4}$`)

// CheckFolder 检查一个文件夹的直接内容是否符合采集约定：
//   - 恰好 3 个子目录；
//   - 至少一个文件名含 "bestshot"（不区分大小写），多于一个降为警告；
//   - 每个子目录非空；
//   - （可选）子目录名为 1-4 位数字，所有不符的合并成一条错误。
func CheckFolder(path string, opts Options) model.ValidationResult {
	result := model.ValidationResult{Folder: filepath.Base(path)}

	entries, err := os.ReadDir(path)
	if err != nil {
		// 顶层读取失败：单条错误，放弃该文件夹的后续检查。
		result.Items = append(result.Items, model.ValidationItem{
			Severity: model.ValidationError,
			Message:  fmt.Sprintf("folder unreadable: %v", err),
		})
		return result
	}

	var subdirs []os.DirEntry
	bestshots := 0
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e)
			continue
		}
		if strings.Contains(strings.ToLower(e.Name()), bestshotMarker) {
			bestshots++
		}
	}

	if len(subdirs) != 3 {
		result.Items = append(result.Items, model.ValidationItem{
			Severity: model.ValidationError,
			Message:  fmt.Sprintf("expected 3 subdirectories, found %d", len(subdirs)),
		})
	}

	switch {
	case bestshots == 0:
		result.Items = append(result.Items, model.ValidationItem{
			Severity: model.ValidationError,
			Message:  "no bestshot file found",
		})
	case bestshots > 1:
		result.Items = append(result.Items, model.ValidationItem{
			Severity: model.ValidationWarning,
			Message:  fmt.Sprintf("found %d bestshot files, expected exactly 1", bestshots),
		})
	}

	var badNames []string
	for _, d := range subdirs {
		children, err := os.ReadDir(filepath.Join(path, d.Name()))
		if err != nil {
			result.Items = append(result.Items, model.ValidationItem{
				Severity: model.ValidationError,
				Message:  fmt.Sprintf("subdirectory %q unreadable: %v", d.Name(), err),
			})
		} else if len(children) == 0 {
			result.Items = append(result.Items, model.ValidationItem{
				Severity: model.ValidationError,
				Message:  fmt.Sprintf("subdirectory %q is empty", d.Name()),
			})
		}

		if opts.RequireNumericNames && !numericName.MatchString(d.Name()) {
			badNames = append(badNames, d.Name())
		}
	}

	if len(badNames) > 0 {
		result.Items = append(result.Items, model.ValidationItem{
			Severity: model.ValidationError,
			Message:  fmt.Sprintf("subdirectory names are not 1-4 digit numbers: %s", strings.Join(badNames, ", ")),
		})
	}

	return result
}
