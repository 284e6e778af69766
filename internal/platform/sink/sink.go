package sink

import (
	"fmt"
	"sync"
	"time"

	"github.com/fatih/color"
)

// 核心逻辑不直接打印，只把进度事件交给 Sink。
// CLI 用 ConsoleSink，测试用 MemorySink，GUI 宿主可以自带订阅者。

// Severity 是事件级别。
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event 是一条进度/日志事件。
type Event struct {
	Severity Severity
	Message  string
	At       time.Time
}

// Sink 接收核心逻辑发出的事件。实现必须容忍高频调用。
type Sink interface {
	OnEvent(Event)
}

// Emit 构造事件并发送；sink 为 nil 时静默丢弃。
func Emit(s Sink, sev Severity, format string, args ...any) {
	if s == nil {
		return
	}
	s.OnEvent(Event{
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		At:       time.Now(),
	})
}

// Infof 发送 info 级事件。
func Infof(s Sink, format string, args ...any) {
	Emit(s, SeverityInfo, format, args...)
}

// Warnf 发送 warning 级事件。
func Warnf(s Sink, format string, args ...any) {
	Emit(s, SeverityWarning, format, args...)
}

// Errorf 发送 error 级事件。
func Errorf(s Sink, format string, args ...any) {
	Emit(s, SeverityError, format, args...)
}

// ConsoleSink 把事件打印到标准输出，级别用颜色区分。
type ConsoleSink struct{}

func (ConsoleSink) OnEvent(e Event) {
	switch e.Severity {
	case SeverityWarning:
		color.Yellow("WARN  %s", e.Message)
	case SeverityError:
		color.Red("ERROR %s", e.Message)
	default:
		fmt.Printf("      %s\n", e.Message)
	}
}

// MemorySink 把事件缓存在内存里，测试用。
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func (m *MemorySink) OnEvent(e Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
}

// Events 返回已收到事件的副本。
func (m *MemorySink) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

// Count 统计指定级别的事件数。
func (m *MemorySink) Count(sev Severity) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.events {
		if e.Severity == sev {
			n++
		}
	}
	return n
}
