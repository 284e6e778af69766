package copyrun

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"capture-organizer/internal/adapters/registry"
	sqliteadapter "capture-organizer/internal/adapters/store/sqlite"
	"capture-organizer/internal/domain/model"
	"capture-organizer/internal/platform/id"
	"capture-organizer/internal/platform/natsort"
	"capture-organizer/internal/platform/sink"
	"capture-organizer/internal/services/allocate"
	"capture-organizer/internal/services/capturetime"
	"capture-organizer/internal/services/replace"
	"capture-organizer/internal/services/validate"
)

// Options 定义一次批处理运行的输入参数。
type Options struct {
	SourceDir string
	DestDir   string
	Attack    string
	Selector  model.DeviceSelector

	// ValidateContent 开启时，任何拷贝前先检查每个待处理文件夹的结构；
	// 存在 error 级问题则整批终止。
	ValidateContent     bool
	RequireNumericNames bool

	// IdentifierSpec 非空时走替换引擎：操作员显式指定目标编号。
	IdentifierSpec string

	// DryRun 只计算方案，不拷贝、不落库。
	DryRun bool

	RangesPath string
	DBPath     string

	Log sink.Sink

	// ReadTimestamp 为空时用 EXIF 读取器。
	ReadTimestamp capturetime.TimestampReader
}

// Result 定义一次运行的摘要输出。
type Result struct {
	RunID           string                  `json:"run_id"`
	Attack          string                  `json:"attack"`
	Planned         int                     `json:"planned"`
	Processed       int                     `json:"processed"`
	Skipped         int                     `json:"skipped"`
	Errors          int                     `json:"errors"`
	Overwritten     int                     `json:"overwritten"`
	FirstIdentifier int                     `json:"first_identifier"`
	Warnings        []string                `json:"warnings,omitempty"`
	Unprocessed     []string                `json:"unprocessed,omitempty"`
	Duration        model.DurationResult    `json:"-"`
	DurationTotal   string                  `json:"duration_total"`
	Entries         []model.AllocationEntry `json:"-"`
	StartedAt       int64                   `json:"started_at"`
	FinishedAt      int64                   `json:"finished_at"`
}

// Run 执行批处理主流程：
// 1) 快照源目录并自然排序
// 2) 计算分配方案（自动排号或显式替换）
// 3) 可选的内容检查（失败则任何拷贝都不发生）
// 4) 逐个拷贝，覆盖优先（先删后拷），冲突逐条留痕
// 5) 对同一批文件夹做耗时重建并更新报表行
//
// 执行是单线程同步的：一旦拷贝开始，遇到不可恢复的 I/O 错误才会中断，
// 已拷贝的条目留在原地，重跑靠覆盖优先语义保持幂等。
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.SourceDir == "" || opts.DestDir == "" {
		return nil, fmt.Errorf("source and destination directories are required")
	}
	if opts.Attack == "" {
		return nil, fmt.Errorf("attack name is required")
	}
	readTS := opts.ReadTimestamp
	if readTS == nil {
		readTS = capturetime.ExifTimestamp
	}

	// 事件同时喂调用方日志与落库留痕。
	recorder := &sink.MemorySink{}
	log := sink.Tee(opts.Log, recorder)

	reg := registry.New(opts.RangesPath, log)
	reg.Load()
	attackDef, ok := reg.Get(opts.Attack)
	if !ok {
		return nil, fmt.Errorf("attack %q: %w", opts.Attack, model.ErrNotFound)
	}

	folders, err := snapshotFolders(opts.SourceDir)
	if err != nil {
		return nil, fmt.Errorf("list source folders: %w", err)
	}
	if len(folders) == 0 {
		return nil, fmt.Errorf("no folders to process in %s", opts.SourceDir)
	}
	sink.Infof(log, "found %d folder(s) in %s", len(folders), opts.SourceDir)

	plan, err := buildPlan(reg, attackDef, folders, opts)
	if err != nil {
		return nil, err
	}
	for _, w := range plan.Warnings {
		sink.Warnf(log, "%s", w)
	}
	if plan.CountBelowExpected {
		sink.Warnf(log, "proceeding with fewer folders than the %d reserved numbers", plan.ExpectedCount)
	}
	if len(plan.Entries) == 0 {
		return nil, fmt.Errorf("allocation produced no entries")
	}

	started := time.Now().Unix()
	result := &Result{
		RunID:           id.New("run"),
		Attack:          opts.Attack,
		Planned:         len(plan.Entries),
		Skipped:         plan.Truncated + len(plan.Unprocessed),
		Warnings:        plan.Warnings,
		FirstIdentifier: plan.Entries[0].Number,
		Entries:         plan.Entries,
		StartedAt:       started,
	}
	for _, f := range plan.Unprocessed {
		result.Unprocessed = append(result.Unprocessed, f.Name)
	}

	if opts.DryRun {
		result.FinishedAt = time.Now().Unix()
		result.DurationTotal = ""
		return result, nil
	}

	if opts.ValidateContent {
		if err := validateEntries(plan.Entries, opts, log); err != nil {
			return nil, err
		}
	}

	// 拷贝阶段。第一个不可恢复 I/O 错误中断余下工作。
	for _, entry := range plan.Entries {
		// 协作式让出点：宿主取消时在条目边界停下。
		if err := ctx.Err(); err != nil {
			return result, err
		}

		target := destPath(opts.DestDir, opts.Attack, entry, plan.SplitDevices)
		if _, statErr := os.Stat(target); statErr == nil {
			sink.Warnf(log, "destination %s exists, overwriting with %s", target, entry.Folder.Name)
			if err := os.RemoveAll(target); err != nil {
				result.Errors++
				return result, fmt.Errorf("remove existing %s: %w", target, err)
			}
			result.Overwritten++
		}
		if err := copyTree(entry.Folder.Path, target); err != nil {
			result.Errors++
			return result, fmt.Errorf("copy %s -> %s: %w", entry.Folder.Name, target, err)
		}
		result.Processed++
		sink.Infof(log, "copied %s -> %s", entry.Folder.Name, target)
	}

	// 耗时重建对同一批文件夹独立进行，失败不影响已完成的拷贝。
	var analyzed []model.SourceFolder
	for _, e := range plan.Entries {
		analyzed = append(analyzed, e.Folder)
	}
	result.Duration = capturetime.Analyze(analyzed, readTS)
	result.DurationTotal = result.Duration.FormatTotal()
	if !result.Duration.Determined {
		sink.Warnf(log, "capture duration undetermined: no folder yielded a timestamp")
	} else {
		sink.Infof(log, "capture duration %s across %d session(s) on %d day(s)",
			result.Duration.FormatTotal(), result.Duration.SessionCount, result.Duration.DayCount)
	}
	for _, name := range result.Duration.SkippedFolders {
		sink.Warnf(log, "no capture timestamp for folder %q", name)
	}

	result.FinishedAt = time.Now().Unix()
	sink.Infof(log, "run finished: processed=%d skipped=%d errors=%d", result.Processed, result.Skipped, result.Errors)

	// 落库（报表行、运行摘要、事件）都是尽力而为：失败只告警，不中断。
	persist(ctx, opts, result, recorder)

	return result, nil
}

// buildPlan 选择分配引擎：显式编号说明走替换，否则自动排号。
func buildPlan(reg *registry.Registry, attackDef model.AttackDefinition, folders []model.SourceFolder, opts Options) (*model.AllocationPlan, error) {
	if opts.IdentifierSpec != "" {
		ids, err := replace.ParseIdentifierSpec(opts.IdentifierSpec)
		if err != nil {
			return nil, fmt.Errorf("parse identifier spec: %w", err)
		}
		return replace.Map(folders, ids, attackDef, opts.Selector)
	}

	return allocate.Plan(allocate.Input{
		Folders:      folders,
		Attack:       attackDef,
		Selector:     opts.Selector,
		Expected:     reg.ExpectedCount(opts.Attack, opts.Selector),
		ListChildren: listChildren,
	})
}

// validateEntries 在任何拷贝前检查所有待处理文件夹；
// 有 error 级问题的文件夹汇总进 ValidationFailedError。
func validateEntries(entries []model.AllocationEntry, opts Options, log sink.Sink) error {
	vopts := validate.Options{RequireNumericNames: opts.RequireNumericNames}
	var failed []string
	for _, e := range entries {
		res := validate.CheckFolder(e.Folder.Path, vopts)
		for _, item := range res.Items {
			switch item.Severity {
			case model.ValidationError:
				sink.Errorf(log, "%s: %s", e.Folder.Name, item.Message)
			default:
				sink.Warnf(log, "%s: %s", e.Folder.Name, item.Message)
			}
		}
		if !res.Pass() {
			failed = append(failed, e.Folder.Name)
		}
	}
	if len(failed) > 0 {
		return &model.ValidationFailedError{Folders: failed}
	}
	return nil
}

// persist 把运行结果写入 SQLite；任何一步失败都只告警。
func persist(ctx context.Context, opts Options, result *Result, recorder *sink.MemorySink) {
	if opts.DBPath == "" {
		return
	}

	db, store, err := sqliteadapter.Open(ctx, opts.DBPath)
	if err != nil {
		sink.Warnf(opts.Log, "open report store: %v", err)
		return
	}
	defer db.Close()

	row := model.ReportRow{
		Identifier:      result.FirstIdentifier,
		Attack:          result.Attack,
		Date:            result.Duration.Date,
		DurationSeconds: int64(result.Duration.Total.Seconds()),
		Determined:      result.Duration.Determined,
		FolderCount:     result.Processed,
	}
	if err := store.UpsertReportRow(ctx, row); err != nil {
		sink.Warnf(opts.Log, "save report row: %v", err)
	}

	runType := "copy"
	if opts.IdentifierSpec != "" {
		runType = "replace"
	}
	rec := model.RunRecord{
		RunID:      result.RunID,
		RunType:    runType,
		Attack:     result.Attack,
		SourceDir:  opts.SourceDir,
		DestDir:    opts.DestDir,
		Processed:  result.Processed,
		Skipped:    result.Skipped,
		Errors:     result.Errors,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
	}
	if err := store.SaveRun(ctx, rec); err != nil {
		sink.Warnf(opts.Log, "save run record: %v", err)
	}
	if err := store.AppendRunEvents(ctx, result.RunID, recorder.Events()); err != nil {
		sink.Warnf(opts.Log, "save run events: %v", err)
	}
}

// snapshotFolders 对源目录做一次性快照：只取子目录，按自然顺序排好。
// 之后的所有阶段都基于这份快照，不再回读源目录。
func snapshotFolders(dir string) ([]model.SourceFolder, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []model.SourceFolder
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, model.SourceFolder{Name: e.Name(), Path: filepath.Join(dir, e.Name())})
		}
	}
	sort.Slice(out, func(i, j int) bool { return natsort.Less(out[i].Name, out[j].Name) })
	return out, nil
}

// listChildren 是容器下钻用的子文件夹列举。
func listChildren(folder model.SourceFolder) ([]model.SourceFolder, error) {
	return snapshotFolders(folder.Path)
}

// destPath 计算一个条目的目标目录：
// <dest>/<attack>/<id> 或拆分终端时 <dest>/<attack>/<device>/<id>。
func destPath(destDir, attack string, entry model.AllocationEntry, split bool) string {
	parts := []string{destDir, attack}
	if split && entry.Device != "" {
		parts = append(parts, string(entry.Device))
	}
	parts = append(parts, strconv.Itoa(entry.Number))
	return filepath.Join(parts...)
}

// copyTree 递归复制整个目录子树。
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

// copyFile 复制文件内容并保留源文件的权限位。
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// umask 会削掉创建时的权限位，事后补一次才算真正保留。
	return os.Chmod(dst, info.Mode().Perm())
}
