package capturetime

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"capture-organizer/internal/platform/natsort"

	"github.com/rwcarlsen/goexif/exif"
)

// 单个文件夹的代表性拍摄时间按四级来源依次尝试：
//  1. 顶层名字含 "bestshot" 的文件；
//  2. Captures 子目录里的图片；
//  3. Focus 子目录里的图片；
//  4. 整个文件夹下递归找到的任意图片。
//
// 每一级内候选按自然顺序逐个读：单个文件读不出时间戳落到下一个候选，
// 而不是下一级来源；整级耗尽才进入下一级。全部耗尽则该文件夹不贡献
// 时间戳，被排除出聚类。

// TimestampReader 读取一个图片文件的拍摄时间。
// 生产路径用 ExifTimestamp；测试可注入假读取器。
type TimestampReader func(path string) (time.Time, error)

// ExifTimestamp 从 EXIF 读取拍摄时间（DateTimeOriginal，退化到 DateTime）。
func ExifTimestamp(path string) (time.Time, error) {
	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return time.Time{}, err
	}
	return x.DateTime()
}

var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".tif":  {},
	".tiff": {},
	".bmp":  {},
}

func isImage(name string) bool {
	_, ok := imageExts[strings.ToLower(filepath.Ext(name))]
	return ok
}

// FolderTimestamp 提取一个文件夹的代表性拍摄时间。
// ok=false 表示所有来源耗尽仍无法读出时间戳。
func FolderTimestamp(folderPath string, read TimestampReader) (time.Time, bool) {
	entries, err := os.ReadDir(folderPath)
	if err != nil {
		return time.Time{}, false
	}

	// 第 1 级：bestshot 文件。
	var bestshots []string
	for _, e := range entries {
		if !e.IsDir() && strings.Contains(strings.ToLower(e.Name()), "bestshot") {
			bestshots = append(bestshots, filepath.Join(folderPath, e.Name()))
		}
	}
	if ts, ok := tryCandidates(bestshots, read); ok {
		return ts, true
	}

	// 第 2、3 级：Captures、Focus 子目录里的图片。
	for _, sub := range []string{"Captures", "Focus"} {
		if ts, ok := tryCandidates(imagesInSubdir(folderPath, entries, sub), read); ok {
			return ts, true
		}
	}

	// 第 4 级：递归找任意图片。
	var all []string
	_ = filepath.WalkDir(folderPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && isImage(d.Name()) {
			all = append(all, path)
		}
		return nil
	})
	return tryCandidates(all, read)
}

// imagesInSubdir 返回与 name 同名（忽略大小写）子目录里的图片路径。
func imagesInSubdir(folderPath string, entries []os.DirEntry, name string) []string {
	for _, e := range entries {
		if !e.IsDir() || !strings.EqualFold(e.Name(), name) {
			continue
		}
		dir := filepath.Join(folderPath, e.Name())
		children, err := os.ReadDir(dir)
		if err != nil {
			return nil
		}
		var out []string
		for _, c := range children {
			if !c.IsDir() && isImage(c.Name()) {
				out = append(out, filepath.Join(dir, c.Name()))
			}
		}
		return out
	}
	return nil
}

// tryCandidates 按自然顺序逐个尝试候选文件，读出第一个可用时间戳。
func tryCandidates(paths []string, read TimestampReader) (time.Time, bool) {
	natsort.Strings(paths)
	for _, p := range paths {
		if ts, err := read(p); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
