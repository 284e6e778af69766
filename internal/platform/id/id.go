package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// New 生成带前缀的本地唯一 ID：前缀 + 秒级本地时间 + 随机后缀。
// 时间段让运行与导出产物在日志和文件名里按时间可读排序，
// 随机段防同秒冲突。单机工具不需要全局唯一性。
func New(prefix string) string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s_%s_%s", prefix, time.Now().Format("20060102150405"), hex.EncodeToString(buf))
}
