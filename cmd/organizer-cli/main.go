package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"capture-organizer/internal/adapters/registry"
	sqliteadapter "capture-organizer/internal/adapters/store/sqlite"
	"capture-organizer/internal/app"
	"capture-organizer/internal/domain/model"
	"capture-organizer/internal/platform/natsort"
	"capture-organizer/internal/platform/sink"
	"capture-organizer/internal/services/capturetime"
	"capture-organizer/internal/services/copyrun"
	"capture-organizer/internal/services/reportexport"
	"capture-organizer/internal/services/validate"
)

// CLI 入口。所有子命令错误都统一输出到 stderr 并返回非 0 状态码。
func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run 是一级命令路由。
func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	// 拷贝类命令支持 Ctrl+C 在条目边界优雅停下。
	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch args[0] {
	case "migrate":
		return runMigrate(sigCtx, args[1:])
	case "ranges":
		return runRanges(sigCtx, args[1:])
	case "plan":
		return runPlan(sigCtx, args[1:])
	case "copy":
		return runCopy(sigCtx, args[1:])
	case "replace":
		return runReplace(sigCtx, args[1:])
	case "check":
		return runCheck(sigCtx, args[1:])
	case "duration":
		return runDuration(sigCtx, args[1:])
	case "report":
		return runReport(sigCtx, args[1:])
	case "export":
		return runExport(sigCtx, args[1:])
	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// runMigrate 执行 SQLite 迁移，确保数据库结构完整。
func runMigrate(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fs.String("db", cfg.DBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, _, err := sqliteadapter.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Printf("migrations applied successfully: db=%s\n", *dbPath)
	return nil
}

// runRanges 是号段表管理的二级命令路由。
func runRanges(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printRangesUsage()
		return nil
	}

	switch args[0] {
	case "list":
		return runRangesList(ctx, args[1:])
	case "create":
		return runRangesCreate(ctx, args[1:])
	case "rename":
		return runRangesRename(ctx, args[1:])
	case "delete":
		return runRangesDelete(ctx, args[1:])
	case "set":
		return runRangesSet(ctx, args[1:])
	default:
		printRangesUsage()
		return fmt.Errorf("unknown ranges command: %s", args[0])
	}
}

func loadRegistry(path string) *registry.Registry {
	reg := registry.New(path, sink.ConsoleSink{})
	reg.Load()
	return reg
}

func runRangesList(_ context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("ranges list", flag.ContinueOnError)
	rangesPath := fs.String("ranges", cfg.RangesPath, "ranges file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg := loadRegistry(*rangesPath)
	for _, name := range reg.Attacks() {
		def, _ := reg.Get(name)
		fmt.Printf("attack %s\n", name)
		for _, device := range def.Ranges.Devices() {
			rng := def.Ranges[device]
			fmt.Printf("  %-10s %d-%d (%d numbers)\n", device, rng.Start, rng.End, rng.Count())
		}
	}
	return nil
}

func runRangesCreate(_ context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("ranges create", flag.ContinueOnError)
	rangesPath := fs.String("ranges", cfg.RangesPath, "ranges file path")
	name := fs.String("name", "", "attack name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return fmt.Errorf("--name is required")
	}

	reg := loadRegistry(*rangesPath)
	if err := reg.Create(*name); err != nil {
		return err
	}
	fmt.Printf("attack %q created\n", strings.TrimSpace(*name))
	return nil
}

func runRangesRename(_ context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("ranges rename", flag.ContinueOnError)
	rangesPath := fs.String("ranges", cfg.RangesPath, "ranges file path")
	from := fs.String("from", "", "current attack name (required)")
	to := fs.String("to", "", "new attack name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*from) == "" || strings.TrimSpace(*to) == "" {
		return fmt.Errorf("--from and --to are required")
	}

	reg := loadRegistry(*rangesPath)
	if err := reg.Rename(*from, *to); err != nil {
		return err
	}
	fmt.Printf("attack %q renamed to %q\n", *from, strings.TrimSpace(*to))
	return nil
}

func runRangesDelete(_ context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("ranges delete", flag.ContinueOnError)
	rangesPath := fs.String("ranges", cfg.RangesPath, "ranges file path")
	name := fs.String("name", "", "attack name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" {
		return fmt.Errorf("--name is required")
	}

	reg := loadRegistry(*rangesPath)
	if err := reg.Delete(*name); err != nil {
		return err
	}
	fmt.Printf("attack %q deleted\n", *name)
	return nil
}

func runRangesSet(_ context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("ranges set", flag.ContinueOnError)
	rangesPath := fs.String("ranges", cfg.RangesPath, "ranges file path")
	name := fs.String("name", "", "attack name (required)")
	device := fs.String("device", "", "device tag, e.g. \"kozen 10\" (required)")
	start := fs.Int("start", 0, "range start (required)")
	end := fs.Int("end", 0, "range end (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*name) == "" || strings.TrimSpace(*device) == "" {
		return fmt.Errorf("--name and --device are required")
	}

	reg := loadRegistry(*rangesPath)
	tag := model.NormalizeDeviceTag(*device)
	if err := reg.SetRange(*name, tag, *start, *end); err != nil {
		return err
	}
	fmt.Printf("attack %q device %q range set to %d-%d\n", *name, tag, *start, *end)
	return nil
}

// copyFlags 是 plan/copy/replace 共享的参数集合。
type copyFlags struct {
	fs       *flag.FlagSet
	src      *string
	dest     *string
	attack   *string
	device   *string
	validate *bool
	numeric  *bool
	ranges   *string
	db       *string
}

func newCopyFlags(name string) *copyFlags {
	cfg := app.DefaultConfig()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &copyFlags{
		fs:       fs,
		src:      fs.String("src", "", "source directory (required)"),
		dest:     fs.String("dest", "", "destination directory (required)"),
		attack:   fs.String("attack", "", "attack name (required)"),
		device:   fs.String("device", "", "device tag; empty means all devices"),
		validate: fs.Bool("validate", true, "check folder contents before copying"),
		numeric:  fs.Bool("numeric-names", false, "require 1-4 digit subdirectory names"),
		ranges:   fs.String("ranges", cfg.RangesPath, "ranges file path"),
		db:       fs.String("db", cfg.DBPath, "sqlite database path"),
	}
}

func (c *copyFlags) options() (copyrun.Options, error) {
	if strings.TrimSpace(*c.src) == "" || strings.TrimSpace(*c.dest) == "" {
		return copyrun.Options{}, fmt.Errorf("--src and --dest are required")
	}
	if strings.TrimSpace(*c.attack) == "" {
		return copyrun.Options{}, fmt.Errorf("--attack is required")
	}

	selector := model.SelectAll()
	if strings.TrimSpace(*c.device) != "" {
		selector = model.SelectDevice(model.NormalizeDeviceTag(*c.device))
	}

	return copyrun.Options{
		SourceDir:           *c.src,
		DestDir:             *c.dest,
		Attack:              strings.TrimSpace(*c.attack),
		Selector:            selector,
		ValidateContent:     *c.validate,
		RequireNumericNames: *c.numeric,
		RangesPath:          *c.ranges,
		DBPath:              *c.db,
		Log:                 sink.ConsoleSink{},
	}, nil
}

// runPlan 只计算分配方案并打印映射，不拷贝、不落库。
func runPlan(ctx context.Context, args []string) error {
	cf := newCopyFlags("plan")
	ids := cf.fs.String("ids", "", "explicit identifier spec, e.g. \"115-110,120\"")
	if err := cf.fs.Parse(args); err != nil {
		return err
	}

	opts, err := cf.options()
	if err != nil {
		return err
	}
	opts.DryRun = true
	opts.IdentifierSpec = strings.TrimSpace(*ids)

	result, err := copyrun.Run(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Printf("plan for attack %s: %d folder(s)\n", result.Attack, result.Planned)
	for _, e := range result.Entries {
		fmt.Printf("  %-30s -> %s/%d\n", e.Folder.Name, e.Device, e.Number)
	}
	if len(result.Unprocessed) > 0 {
		fmt.Printf("unprocessed: %s\n", strings.Join(result.Unprocessed, ", "))
	}
	return nil
}

// runCopy 执行自动排号拷贝。
func runCopy(ctx context.Context, args []string) error {
	cf := newCopyFlags("copy")
	dryRun := cf.fs.Bool("dry-run", false, "compute the plan without copying")
	if err := cf.fs.Parse(args); err != nil {
		return err
	}

	opts, err := cf.options()
	if err != nil {
		return err
	}
	opts.DryRun = *dryRun

	result, err := copyrun.Run(ctx, opts)
	if err != nil {
		return err
	}
	printRunSummary(result)
	return nil
}

// runReplace 执行显式编号替换拷贝。
func runReplace(ctx context.Context, args []string) error {
	cf := newCopyFlags("replace")
	ids := cf.fs.String("ids", "", "identifier spec, e.g. \"115-110,120\" (required)")
	dryRun := cf.fs.Bool("dry-run", false, "compute the plan without copying")
	if err := cf.fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*ids) == "" {
		return fmt.Errorf("--ids is required")
	}

	opts, err := cf.options()
	if err != nil {
		return err
	}
	opts.IdentifierSpec = strings.TrimSpace(*ids)
	opts.DryRun = *dryRun

	result, err := copyrun.Run(ctx, opts)
	if err != nil {
		return err
	}
	printRunSummary(result)
	return nil
}

func printRunSummary(result *copyrun.Result) {
	fmt.Printf("run %s finished\n", result.RunID)
	fmt.Printf("attack=%s planned=%d processed=%d skipped=%d errors=%d overwritten=%d\n",
		result.Attack, result.Planned, result.Processed, result.Skipped, result.Errors, result.Overwritten)
	if result.DurationTotal != "" {
		fmt.Printf("capture_duration=%s\n", result.DurationTotal)
	}
	if len(result.Unprocessed) > 0 {
		fmt.Printf("unprocessed=%s\n", strings.Join(result.Unprocessed, ", "))
	}
}

// runCheck 只做内容检查，不拷贝。逐个文件夹输出结论。
func runCheck(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	dir := fs.String("dir", "", "directory holding capture folders (required)")
	numeric := fs.Bool("numeric-names", false, "require 1-4 digit subdirectory names")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*dir) == "" {
		return fmt.Errorf("--dir is required")
	}

	folders, err := listSubdirs(*dir)
	if err != nil {
		return fmt.Errorf("list folders: %w", err)
	}
	if len(folders) == 0 {
		return fmt.Errorf("no folders to check in %s", *dir)
	}

	failed := 0
	for _, f := range folders {
		res := validate.CheckFolder(f.Path, validate.Options{RequireNumericNames: *numeric})
		if res.Pass() {
			fmt.Printf("PASS  %s\n", f.Name)
		} else {
			failed++
			fmt.Printf("FAIL  %s\n", f.Name)
		}
		for _, item := range res.Items {
			fmt.Printf("      [%s] %s\n", item.Severity, item.Message)
		}
	}

	fmt.Printf("checked %d folder(s), %d failed\n", len(folders), failed)
	if failed > 0 {
		return fmt.Errorf("%d folder(s) failed content check", failed)
	}
	return nil
}

// runDuration 对一个目录的采集文件夹做耗时重建，不拷贝、不落库。
func runDuration(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("duration", flag.ContinueOnError)
	dir := fs.String("dir", "", "directory holding capture folders (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*dir) == "" {
		return fmt.Errorf("--dir is required")
	}

	folders, err := listSubdirs(*dir)
	if err != nil {
		return fmt.Errorf("list folders: %w", err)
	}
	if len(folders) == 0 {
		return fmt.Errorf("no folders to analyze in %s", *dir)
	}

	res := capturetime.Analyze(folders, capturetime.ExifTimestamp)
	fmt.Printf("total=%s sessions=%d days=%d date=%s\n",
		res.FormatTotal(), res.SessionCount, res.DayCount, valueOrDash(res.Date))
	fmt.Printf("stamped=%d skipped=%d\n", res.StampedFolders, len(res.SkippedFolders))
	for _, name := range res.SkippedFolders {
		fmt.Printf("  no timestamp: %s\n", name)
	}
	return nil
}

// runReport 打印累积的报表行。
func runReport(ctx context.Context, args []string) error {
	cfg := app.DefaultConfig()

	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	dbPath := fs.String("db", cfg.DBPath, "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, store, err := sqliteadapter.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := store.ListReportRows(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("report is empty")
		return nil
	}

	fmt.Printf("%-12s %-20s %-12s %-12s %s\n", "IDENTIFIER", "ATTACK", "DATE", "DURATION", "FOLDERS")
	prev := -1
	for _, r := range rows {
		ident := fmt.Sprintf("%d", r.Identifier)
		if r.Identifier == prev {
			ident = ""
		}
		prev = r.Identifier
		fmt.Printf("%-12s %-20s %-12s %-12s %d\n",
			ident, r.Attack, valueOrDash(r.Date), r.FormatDuration(), r.FolderCount)
	}
	return nil
}

// runExport 是导出命令路由：xlsx / pdf。
func runExport(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printExportUsage()
		return nil
	}

	var exportType string
	switch args[0] {
	case "xlsx", "pdf":
		exportType = args[0]
	default:
		printExportUsage()
		return fmt.Errorf("unknown export command: %s", args[0])
	}

	cfg := app.DefaultConfig()
	fs := flag.NewFlagSet("export "+exportType, flag.ContinueOnError)
	dbPath := fs.String("db", cfg.DBPath, "sqlite database path")
	outDir := fs.String("out-dir", cfg.ExportDir, "export output directory")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	db, store, err := sqliteadapter.Open(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := reportexport.Options{ExportDir: *outDir}
	var res *reportexport.Result
	if exportType == "xlsx" {
		res, err = reportexport.GenerateXLSX(ctx, store, opts)
	} else {
		res, err = reportexport.GeneratePDF(ctx, store, opts)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s export completed\n", exportType)
	fmt.Printf("export_id=%s rows=%d\n", res.ExportID, res.Rows)
	fmt.Printf("file=%s\n", res.FilePath)
	fmt.Printf("sha256=%s\n", res.SHA256)
	return nil
}

// listSubdirs 列出目录下的子目录并按自然顺序排好。
func listSubdirs(dir string) ([]model.SourceFolder, error) {
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

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// printUsage 输出一级命令帮助。
func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  organizer-cli migrate [--db data/organizer.db]")
	fmt.Println("  organizer-cli ranges list [--ranges data/ranges.yaml]")
	fmt.Println("  organizer-cli ranges create --name ATTACK")
	fmt.Println("  organizer-cli ranges rename --from OLD --to NEW")
	fmt.Println("  organizer-cli ranges delete --name ATTACK")
	fmt.Println("  organizer-cli ranges set --name ATTACK --device \"kozen 10\" --start N --end N")
	fmt.Println("  organizer-cli plan --src DIR --dest DIR --attack ATTACK [--device \"kozen 10\"] [--ids SPEC]")
	fmt.Println("  organizer-cli copy --src DIR --dest DIR --attack ATTACK [--device \"kozen 10\"] [--validate] [--numeric-names] [--dry-run]")
	fmt.Println("  organizer-cli replace --src DIR --dest DIR --attack ATTACK --ids \"115-110,120\" [--device \"kozen 10\"] [--dry-run]")
	fmt.Println("  organizer-cli check --dir DIR [--numeric-names]")
	fmt.Println("  organizer-cli duration --dir DIR")
	fmt.Println("  organizer-cli report [--db data/organizer.db]")
	fmt.Println("  organizer-cli export xlsx|pdf [--db data/organizer.db] [--out-dir data/exports]")
}

// printRangesUsage 输出 ranges 子命令帮助。
func printRangesUsage() {
	fmt.Println("Usage:")
	fmt.Println("  organizer-cli ranges list [--ranges path]")
	fmt.Println("  organizer-cli ranges create --name ATTACK [--ranges path]")
	fmt.Println("  organizer-cli ranges rename --from OLD --to NEW [--ranges path]")
	fmt.Println("  organizer-cli ranges delete --name ATTACK [--ranges path]")
	fmt.Println("  organizer-cli ranges set --name ATTACK --device TAG --start N --end N [--ranges path]")
}

func printExportUsage() {
	fmt.Println("Usage:")
	fmt.Println("  organizer-cli export xlsx [--db path] [--out-dir path]")
	fmt.Println("  organizer-cli export pdf [--db path] [--out-dir path]")
}
