package replace

import (
	"fmt"
	"strconv"
	"strings"

	"capture-organizer/internal/domain/model"
)

// 替换引擎：操作员显式给出目标编号，绕过分配引擎的自动排号。
// 典型用法是返工——把重拍的文件夹精确放回原来的编号位。

// ParseIdentifierSpec 解析目标编号说明：逗号分隔，单项是裸整数或
// A-B 闭区间。A>B 时按降序展开（方向保留，"115-110" -> 115..110）。
// 任一项非法则整体失败，不返回部分结果。
func ParseIdentifierSpec(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("identifier spec is empty")
	}

	var out []int
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("identifier spec has an empty token")
		}

		if strings.Contains(token, "-") {
			parts := strings.SplitN(token, "-", 2)
			a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
			if err != nil {
				return nil, fmt.Errorf("malformed range token %q", token)
			}
			b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				return nil, fmt.Errorf("malformed range token %q", token)
			}
			if a <= b {
				for n := a; n <= b; n++ {
					out = append(out, n)
				}
			} else {
				for n := a; n >= b; n-- {
					out = append(out, n)
				}
			}
			continue
		}

		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("malformed token %q", token)
		}
		out = append(out, n)
	}
	return out, nil
}

// Map 把第 i 个（已自然排序的）源文件夹映射到第 i 个目标编号。
// 编号数与文件夹数不一致时返回 CountMismatchError，任何拷贝都不会发生。
func Map(folders []model.SourceFolder, identifiers []int, attackDef model.AttackDefinition, selector model.DeviceSelector) (*model.AllocationPlan, error) {
	if len(identifiers) != len(folders) {
		return nil, &model.CountMismatchError{
			Identifiers: len(identifiers),
			Folders:     len(folders),
		}
	}

	devices := attackDef.Ranges.Devices()
	plan := &model.AllocationPlan{
		SplitDevices: selector.All() && len(devices) >= 2,
	}

	for i, folder := range folders {
		number := identifiers[i]
		device := resolveDevice(attackDef, selector, devices, number)
		plan.Entries = append(plan.Entries, model.AllocationEntry{
			Folder: folder,
			Device: device,
			Number: number,
		})
	}
	return plan, nil
}

// resolveDevice 为一个编号挑选目标终端。
// ALL 模式：取号段包含该编号的终端；都不包含时退回第一台已配置终端。
// 这个兜底支撑没有号段的纯分类攻击，必须保留。
func resolveDevice(attackDef model.AttackDefinition, selector model.DeviceSelector, devices []model.DeviceTag, number int) model.DeviceTag {
	if !selector.All() {
		return selector.Device()
	}
	for _, tag := range devices {
		if attackDef.Ranges[tag].Contains(number) {
			return tag
		}
	}
	if len(devices) > 0 {
		return devices[0]
	}
	return ""
}
