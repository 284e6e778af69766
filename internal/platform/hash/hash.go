package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// File 流式计算文件内容的 SHA-256（小写十六进制）。
// 导出产物（xlsx/pdf）登记时用它做完整性指纹。
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
