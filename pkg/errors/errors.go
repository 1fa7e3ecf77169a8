package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// CheckVersioned 校验带 version 条件的 UPDATE 结果：
// 执行出错原样返回，未命中任何行视为版本冲突
func CheckVersioned(rowsAffected int64, err error) error {
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}
