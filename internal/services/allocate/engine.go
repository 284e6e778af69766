package allocate

import (
	"fmt"
	"sort"

	"capture-organizer/internal/domain/model"
	"capture-organizer/internal/platform/natsort"
)

// 分配引擎：把自然排序后的源文件夹序列映射到目标终端与目标编号。
//
// ALL 模式下的三分支策略是刻意保留的历史行为，顺序敏感：
//  1. 攻击只配了一台终端 -> 退化为单终端顺序分配；
//  2. 恰好两个顶层文件夹且配置了至少两台终端 -> 把它们当作容器，
//     各自下钻一层，分别装入前两台终端的号段；
//  3. 其余情况 -> 按位置对半切分到前两台终端。
//
// 分支 2、3 里超出容量的部分是“截断 + 警告”，不是整批失败：
// 调用流程期望的是可审计的部分进展，而非全有全无的事务。

// ChildLister 列出一个源文件夹的下一层子文件夹（容器下钻用）。
type ChildLister func(folder model.SourceFolder) ([]model.SourceFolder, error)

// Input 是一次分配的全部输入。Folders 必须已按自然顺序排好。
type Input struct {
	Folders      []model.SourceFolder
	Attack       model.AttackDefinition
	Selector     model.DeviceSelector
	Expected     int // 预留编号总数；0 表示无期望可校验
	ListChildren ChildLister
}

// Plan 计算分配方案。除容量硬错误外不做任何 I/O 写入。
func Plan(in Input) (*model.AllocationPlan, error) {
	plan := &model.AllocationPlan{ExpectedCount: in.Expected}

	// 预检只提示不阻塞：实际数量偏少时由调用方决定是否继续。
	if in.Expected > 0 && len(in.Folders) < in.Expected {
		plan.CountBelowExpected = true
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("folder count %d is below the expected %d for attack %q",
				len(in.Folders), in.Expected, in.Attack.Name))
	}

	if !in.Selector.All() {
		return planSingle(plan, in, in.Selector.Device())
	}

	devices := in.Attack.Ranges.Devices()
	switch {
	case len(devices) == 0:
		return nil, fmt.Errorf("attack %q has no device ranges configured", in.Attack.Name)
	case len(devices) == 1:
		return planSingle(plan, in, devices[0])
	case len(in.Folders) == 2:
		plan.SplitDevices = true
		return planContainers(plan, in, devices)
	default:
		plan.SplitDevices = true
		return planEvenSplit(plan, in, devices)
	}
}

// planSingle 把全部文件夹按顺序装入一台终端的号段。
// 容量不足是硬错误：整批在任何拷贝前终止。
func planSingle(plan *model.AllocationPlan, in Input, device model.DeviceTag) (*model.AllocationPlan, error) {
	rng, ok := in.Attack.Ranges[device]
	if !ok {
		return nil, fmt.Errorf("attack %q has no range configured for device %q", in.Attack.Name, device)
	}
	if len(in.Folders) > rng.Count() {
		return nil, &model.InsufficientCapacityError{
			Attack: in.Attack.Name,
			Device: device,
			Need:   len(in.Folders),
			Have:   rng.Count(),
		}
	}

	for i, folder := range in.Folders {
		plan.Entries = append(plan.Entries, model.AllocationEntry{
			Folder: folder,
			Device: device,
			Number: rng.Start + i,
		})
	}
	return plan, nil
}

// planContainers 处理“恰好两个顶层文件夹”的容器特例：
// 第 i 个顶层文件夹的子文件夹装入第 i 台终端的号段，互相独立封顶。
func planContainers(plan *model.AllocationPlan, in Input, devices []model.DeviceTag) (*model.AllocationPlan, error) {
	if in.ListChildren == nil {
		return nil, fmt.Errorf("container allocation requires a child lister")
	}

	for i := 0; i < 2; i++ {
		device := devices[i]
		rng := in.Attack.Ranges[device]

		children, err := in.ListChildren(in.Folders[i])
		if err != nil {
			return nil, fmt.Errorf("list children of %q: %w", in.Folders[i].Name, err)
		}
		sort.Slice(children, func(a, b int) bool {
			return natsort.Less(children[a].Name, children[b].Name)
		})

		take := len(children)
		if take > rng.Count() {
			take = rng.Count()
			plan.Truncated += len(children) - take
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("device %q: %d of %d folders truncated, range %d-%d is full",
					device, len(children)-take, len(children), rng.Start, rng.End))
		}
		for j := 0; j < take; j++ {
			plan.Entries = append(plan.Entries, model.AllocationEntry{
				Folder: children[j],
				Device: device,
				Number: rng.Start + j,
			})
		}
	}
	return plan, nil
}

// planEvenSplit 按位置把序列切成两个 floor(n/2) 的半区，
// 各自封顶装入前两台终端；2*floor(n/2) 之后的文件夹不处理，最后上报。
func planEvenSplit(plan *model.AllocationPlan, in Input, devices []model.DeviceTag) (*model.AllocationPlan, error) {
	half := len(in.Folders) / 2

	for i := 0; i < 2; i++ {
		device := devices[i]
		rng := in.Attack.Ranges[device]
		segment := in.Folders[i*half : (i+1)*half]

		take := len(segment)
		if take > rng.Count() {
			take = rng.Count()
			plan.Truncated += len(segment) - take
			plan.Warnings = append(plan.Warnings,
				fmt.Sprintf("device %q: %d of %d folders truncated, range %d-%d is full",
					device, len(segment)-take, len(segment), rng.Start, rng.End))
		}
		for j := 0; j < take; j++ {
			plan.Entries = append(plan.Entries, model.AllocationEntry{
				Folder: segment[j],
				Device: device,
				Number: rng.Start + j,
			})
		}
	}

	if rest := in.Folders[2*half:]; len(rest) > 0 {
		plan.Unprocessed = append(plan.Unprocessed, rest...)
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("%d folder(s) remaining unprocessed after even split", len(rest)))
	}
	return plan, nil
}
