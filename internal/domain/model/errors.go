package model

import (
	"errors"
	"fmt"
	"strings"
)

// 号段表操作的哨兵错误：调用方误用时原样返回，不改内存状态。
var (
	ErrDuplicateName = errors.New("attack name already exists")
	ErrNotFound      = errors.New("attack not found")
	ErrInvalidRange  = errors.New("invalid range: start must not exceed end")
)

// InsufficientCapacityError 表示待分配的文件夹数超出号段容量。
// 整批分配在任何拷贝发生前就终止。
type InsufficientCapacityError struct {
	Attack string
	Device DeviceTag
	Need   int
	Have   int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity: attack %q device %q needs %d numbers, range holds %d",
		e.Attack, e.Device, e.Need, e.Have)
}

// CountMismatchError 表示替换模式下标识符个数与文件夹个数不一致。
type CountMismatchError struct {
	Identifiers int
	Folders     int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("identifier count mismatch: %d identifiers for %d folders", e.Identifiers, e.Folders)
}

// ValidationFailedError 汇总所有未通过内容检查的文件夹。
// 只要启用了内容检查且存在 error 级条目，整批拷贝在开始前终止。
type ValidationFailedError struct {
	Folders []string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("content validation failed for %d folder(s): %s",
		len(e.Folders), strings.Join(e.Folders, ", "))
}
