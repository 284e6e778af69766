package model

import (
	"strings"
	"unicode"
)

// DeviceTag 标识一台采集终端，同时用作号段表的键与目标目录名。
type DeviceTag string

const (
	DeviceKozen10 DeviceTag = "kozen 10"
	DeviceKozen12 DeviceTag = "kozen 12"
)

// KnownDeviceTags 是当前已知终端的固定顺序。
// ALL 模式下的设备遍历顺序以这里为准，保证分配结果可复现。
var KnownDeviceTags = []DeviceTag{DeviceKozen10, DeviceKozen12}

// NormalizeDeviceTag 把历史配置里的手误写法折叠到规范标签上：
// 去掉首尾空白、统一小写、压缩中间空白；若结果只比某个已知标签
// 多出一个尾部杂字符，也折叠到该标签。该变换是幂等的。
func NormalizeDeviceTag(raw string) DeviceTag {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.Join(strings.Fields(t), " ")
	for _, known := range KnownDeviceTags {
		k := string(known)
		if t == k {
			return known
		}
		if len(t) == len(k)+1 && strings.HasPrefix(t, k) {
			return known
		}
	}
	return DeviceTag(t)
}

// NumberRange 是一个闭区间号段 [Start, End]。
type NumberRange struct {
	Start int
	End   int
}

// Count 返回号段内可用编号个数。
func (r NumberRange) Count() int {
	return r.End - r.Start + 1
}

// Contains 判断编号是否落在号段内。
func (r NumberRange) Contains(n int) bool {
	return n >= r.Start && n <= r.End
}

// MarshalYAML 以 [start, end] 两元素数组持久化号段。
func (r NumberRange) MarshalYAML() (any, error) {
	return []int{r.Start, r.End}, nil
}

// UnmarshalYAML 从 [start, end] 数组还原号段。
func (r *NumberRange) UnmarshalYAML(unmarshal func(any) error) error {
	var pair []int
	if err := unmarshal(&pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return ErrInvalidRange
	}
	r.Start = pair[0]
	r.End = pair[1]
	return nil
}

// AttackRanges 是一次攻击场景下各终端的号段。
// 不是每个攻击都覆盖所有终端，缺失的终端键表示该攻击不使用该终端。
type AttackRanges map[DeviceTag]NumberRange

// Devices 按 KnownDeviceTags 的顺序返回配置了号段的终端，
// 未知终端排在已知终端之后（按标签字典序）。
func (a AttackRanges) Devices() []DeviceTag {
	var out []DeviceTag
	for _, tag := range KnownDeviceTags {
		if _, ok := a[tag]; ok {
			out = append(out, tag)
		}
	}
	var extra []DeviceTag
	for tag := range a {
		if !isKnownTag(tag) {
			extra = append(extra, tag)
		}
	}
	for i := 0; i < len(extra); i++ {
		for j := i + 1; j < len(extra); j++ {
			if extra[j] < extra[i] {
				extra[i], extra[j] = extra[j], extra[i]
			}
		}
	}
	return append(out, extra...)
}

func isKnownTag(tag DeviceTag) bool {
	for _, known := range KnownDeviceTags {
		if tag == known {
			return true
		}
	}
	return false
}

// AttackDefinition 是一个命名的攻击场景及其号段表。
type AttackDefinition struct {
	Name   string
	Ranges AttackRanges
}

// DeviceSelector 指定分配目标：某台具体终端，或全部终端。
type DeviceSelector struct {
	all    bool
	device DeviceTag
}

// SelectAll 构造“全部终端”选择器。
func SelectAll() DeviceSelector {
	return DeviceSelector{all: true}
}

// SelectDevice 构造单终端选择器。
func SelectDevice(tag DeviceTag) DeviceSelector {
	return DeviceSelector{device: tag}
}

// All 报告是否为“全部终端”。
func (s DeviceSelector) All() bool { return s.all }

// Device 返回单终端选择器指定的终端；ALL 模式下为空。
func (s DeviceSelector) Device() DeviceTag { return s.device }

// ValidAttackName 检查攻击名是否可用作目录名与表键。
func ValidAttackName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, r := range name {
		if unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r) {
			return false
		}
	}
	return true
}
