package natsort

import (
	"sort"
	"strings"
)

// 自然排序：把名字切分为“文本段/数字段”交替的序列，
// 数字段按整数值比较，文本段忽略大小写比较。
// 这样 "2" < "10"、"Folder2" < "Folder10"，与文件管理器的排序一致。
//
// 分配引擎的可复现性依赖这里是一个全序：
// 任何两个不同的名字必须有确定的先后关系。

type segment struct {
	text    string
	digits  string
	numeric bool
}

// split 把名字切成数字段与文本段的交替序列。
func split(name string) []segment {
	var segs []segment
	i := 0
	for i < len(name) {
		j := i
		if isDigit(name[i]) {
			for j < len(name) && isDigit(name[j]) {
				j++
			}
			segs = append(segs, segment{digits: name[i:j], numeric: true})
		} else {
			for j < len(name) && !isDigit(name[j]) {
				j++
			}
			segs = append(segs, segment{text: strings.ToLower(name[i:j])})
		}
		i = j
	}
	return segs
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// compareDigits 按整数值比较两个数字段。
// 先去掉前导零比较长度，再按字典序比较，避免 strconv 的位数上限。
func compareDigits(a, b string) int {
	ta := strings.TrimLeft(a, "0")
	tb := strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		if len(ta) < len(tb) {
			return -1
		}
		return 1
	}
	if ta != tb {
		if ta < tb {
			return -1
		}
		return 1
	}
	return 0
}

// Compare 返回 a、b 的自然顺序关系：-1/0/1。
func Compare(a, b string) int {
	sa := split(a)
	sb := split(b)
	for i := 0; i < len(sa) && i < len(sb); i++ {
		x, y := sa[i], sb[i]
		switch {
		case x.numeric && y.numeric:
			if c := compareDigits(x.digits, y.digits); c != 0 {
				return c
			}
		case !x.numeric && !y.numeric:
			if x.text != y.text {
				if x.text < y.text {
					return -1
				}
				return 1
			}
		case x.numeric:
			// 数字段排在文本段前面（"1a" < "a1"）。
			return -1
		default:
			return 1
		}
	}
	if len(sa) != len(sb) {
		if len(sa) < len(sb) {
			return -1
		}
		return 1
	}
	// 大小写或前导零不同但自然序相等时，用原始字符串兜底保证全序。
	if a != b {
		if a < b {
			return -1
		}
		return 1
	}
	return 0
}

// Less 是 sort 友好的包装。
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// Strings 原地按自然顺序排序。
func Strings(names []string) {
	sort.Slice(names, func(i, j int) bool {
		return Less(names[i], names[j])
	})
}
