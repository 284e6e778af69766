package model

// SourceFolder 是操作开始时对源目录做快照得到的一个条目。
// 快照之后不再回读文件系统，保证一次运行内的视图一致。
type SourceFolder struct {
	Name string
	Path string
}

// AllocationEntry 把一个源文件夹映射到目标终端与目标编号。
// 编号在一次分配内唯一；条目在拷贝阶段被消费后即丢弃。
type AllocationEntry struct {
	Folder SourceFolder
	Device DeviceTag
	Number int
}

// AllocationPlan 是分配引擎的输出。
// Warnings 记录截断等软问题；Unprocessed 是均分策略下放不进
// 任何半区、留待操作员处理的剩余文件夹。
type AllocationPlan struct {
	Entries     []AllocationEntry
	Warnings    []string
	Unprocessed []SourceFolder

	// Truncated 是因号段容量不足被丢弃（已告警）的文件夹数。
	Truncated int

	// 预检：期望数量已知且实际文件夹偏少时置位。只做提示，不阻塞。
	ExpectedCount      int
	CountBelowExpected bool

	// SplitDevices 为真表示目标树需要终端子目录层。
	SplitDevices bool
}
