package model

// ValidationSeverity 区分阻断性问题与提示性问题。
type ValidationSeverity string

const (
	ValidationError   ValidationSeverity = "error"
	ValidationWarning ValidationSeverity = "warning"
)

// ValidationItem 是一条检查结论。
type ValidationItem struct {
	Severity ValidationSeverity
	Message  string
}

// ValidationResult 是对单个文件夹的结构检查结果。
// Pass 仅由 error 级条目决定，warning 永远不翻转 Pass。
type ValidationResult struct {
	Folder string
	Items  []ValidationItem
}

// Pass 报告该文件夹是否通过检查。
func (r ValidationResult) Pass() bool {
	for _, it := range r.Items {
		if it.Severity == ValidationError {
			return false
		}
	}
	return true
}

// Errors 返回 error 级条目。
func (r ValidationResult) Errors() []ValidationItem {
	var out []ValidationItem
	for _, it := range r.Items {
		if it.Severity == ValidationError {
			out = append(out, it)
		}
	}
	return out
}
