package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"capture-organizer/internal/domain/model"
	"capture-organizer/internal/platform/natsort"
	"capture-organizer/internal/platform/sink"

	"gopkg.in/yaml.v3"
)

// Registry 持有攻击 → 终端 → 号段的内存表，并负责 YAML 持久化。
//
// 生命周期约定：
//   - Load 永不向调用方返回错误：文件缺失或损坏时回落到内置默认表并立即回写（自愈）。
//   - 每次变更都触发持久化；持久化失败只写日志，不回滚内存变更。
type Registry struct {
	path  string
	log   sink.Sink
	table map[string]model.AttackRanges
}

// rangesFile 是持久化文件的顶层结构。
type rangesFile struct {
	Version string                                  `yaml:"version"`
	Attacks map[string]map[string]model.NumberRange `yaml:"attacks"`
}

const fileVersion = "1"

// New 创建一个未加载的号段表。
func New(path string, log sink.Sink) *Registry {
	return &Registry{path: path, log: log, table: map[string]model.AttackRanges{}}
}

// Load 读取持久化表；失败时装入默认表并回写。
func (r *Registry) Load() {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		sink.Warnf(r.log, "ranges file unreadable (%v), falling back to defaults", err)
		r.table = defaultTable()
		r.persist()
		return
	}

	var f rangesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		sink.Warnf(r.log, "ranges file corrupt (%v), falling back to defaults", err)
		r.table = defaultTable()
		r.persist()
		return
	}

	table := make(map[string]model.AttackRanges, len(f.Attacks))
	normalized := false
	for attack, devices := range f.Attacks {
		ranges := make(model.AttackRanges, len(devices))
		for rawTag, rng := range devices {
			// 倒置号段不进内存表：留着只会在分配时变成费解的容量错误。
			if rng.Start > rng.End {
				normalized = true
				sink.Warnf(r.log, "dropping inverted range %d-%d for attack %q device %q", rng.Start, rng.End, attack, rawTag)
				continue
			}
			tag := model.NormalizeDeviceTag(rawTag)
			if string(tag) != rawTag {
				normalized = true
				sink.Infof(r.log, "normalized device tag %q -> %q for attack %q", rawTag, tag, attack)
			}
			ranges[tag] = rng
		}
		table[attack] = ranges
	}
	r.table = table

	// 手误标签的折叠和坏号段的剔除都是一次性的永久改写：发现即回写。
	if normalized {
		r.persist()
	}
}

// Save 持久化当前表；失败写日志，绝不让触发保存的变更失败。
func (r *Registry) Save() {
	r.persist()
}

func (r *Registry) persist() {
	f := rangesFile{Version: fileVersion, Attacks: map[string]map[string]model.NumberRange{}}
	for attack, ranges := range r.table {
		devices := make(map[string]model.NumberRange, len(ranges))
		for tag, rng := range ranges {
			devices[string(tag)] = rng
		}
		f.Attacks[attack] = devices
	}

	raw, err := yaml.Marshal(f)
	if err != nil {
		sink.Warnf(r.log, "marshal ranges file: %v", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		sink.Warnf(r.log, "create ranges directory: %v", err)
		return
	}
	if err := os.WriteFile(r.path, raw, 0o644); err != nil {
		sink.Warnf(r.log, "write ranges file: %v", err)
	}
}

// Create 新增一个空的攻击定义。
func (r *Registry) Create(name string) error {
	name = strings.TrimSpace(name)
	if !model.ValidAttackName(name) {
		return fmt.Errorf("invalid attack name: %q", name)
	}
	if _, ok := r.table[name]; ok {
		return fmt.Errorf("create %q: %w", name, model.ErrDuplicateName)
	}
	r.table[name] = model.AttackRanges{}
	r.persist()
	return nil
}

// Rename 改名一个攻击定义，保留其号段。
func (r *Registry) Rename(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if !model.ValidAttackName(newName) {
		return fmt.Errorf("invalid attack name: %q", newName)
	}
	if _, ok := r.table[newName]; ok {
		return fmt.Errorf("rename to %q: %w", newName, model.ErrDuplicateName)
	}
	ranges, ok := r.table[oldName]
	if !ok {
		return fmt.Errorf("rename %q: %w", oldName, model.ErrNotFound)
	}
	delete(r.table, oldName)
	r.table[newName] = ranges
	r.persist()
	return nil
}

// Delete 删除一个攻击定义并回写。
func (r *Registry) Delete(name string) error {
	if _, ok := r.table[name]; !ok {
		return fmt.Errorf("delete %q: %w", name, model.ErrNotFound)
	}
	delete(r.table, name)
	r.persist()
	return nil
}

// SetRange 设置某攻击在某终端上的号段，覆盖已有值。
func (r *Registry) SetRange(name string, device model.DeviceTag, start, end int) error {
	if start > end {
		return fmt.Errorf("set range %d-%d: %w", start, end, model.ErrInvalidRange)
	}
	ranges, ok := r.table[name]
	if !ok {
		return fmt.Errorf("set range for %q: %w", name, model.ErrNotFound)
	}
	ranges[model.NormalizeDeviceTag(string(device))] = model.NumberRange{Start: start, End: end}
	r.persist()
	return nil
}

// Get 返回攻击定义；不存在时 ok=false。
func (r *Registry) Get(name string) (model.AttackDefinition, bool) {
	ranges, ok := r.table[name]
	if !ok {
		return model.AttackDefinition{}, false
	}
	// 返回副本，避免调用方改动绕过持久化。
	copied := make(model.AttackRanges, len(ranges))
	for tag, rng := range ranges {
		copied[tag] = rng
	}
	return model.AttackDefinition{Name: name, Ranges: copied}, true
}

// Attacks 按自然顺序返回全部攻击名。
func (r *Registry) Attacks() []string {
	names := make([]string, 0, len(r.table))
	for name := range r.table {
		names = append(names, name)
	}
	natsort.Strings(names)
	return names
}

// ExpectedCount 返回为该攻击/选择器保留的编号总数。
// 攻击或终端未知时返回 0——调用方把 0 当作“无期望可校验”，不是错误。
func (r *Registry) ExpectedCount(name string, selector model.DeviceSelector) int {
	ranges, ok := r.table[name]
	if !ok {
		return 0
	}
	if selector.All() {
		total := 0
		for _, rng := range ranges {
			total += rng.Count()
		}
		return total
	}
	rng, ok := ranges[selector.Device()]
	if !ok {
		return 0
	}
	return rng.Count()
}

// defaultTable 是内置默认表，来自最初投入使用的号段规划。
func defaultTable() map[string]model.AttackRanges {
	return map[string]model.AttackRanges{
		"2": {
			model.DeviceKozen10: {Start: 91, End: 170},
			model.DeviceKozen12: {Start: 171, End: 250},
		},
		"3": {
			model.DeviceKozen10: {Start: 251, End: 346},
			model.DeviceKozen12: {Start: 347, End: 442},
		},
		"4": {
			model.DeviceKozen10: {Start: 443, End: 458},
			model.DeviceKozen12: {Start: 459, End: 474},
		},
		"5": {
			model.DeviceKozen10: {Start: 475, End: 514},
			model.DeviceKozen12: {Start: 515, End: 554},
		},
		"6": {
			model.DeviceKozen10: {Start: 555, End: 594},
		},
		"7": {
			model.DeviceKozen12: {Start: 595, End: 634},
		},
		"8": {
			model.DeviceKozen10: {Start: 635, End: 733},
		},
		"9": {
			model.DeviceKozen12: {Start: 734, End: 832},
		},
	}
}
