package config

import (
	"reflect"

	"github.com/cockroachdb/errors"
)

// MergeConfig 将 src 中已设置的值覆盖到 dst（通常是 DefaultConfig() 的结果），会修改 dst
//
// 规则：
//   - 零值视为未设置，bool 无法通过合并从 true 改为 false
//   - 切片整体替换；非 nil 的空切片也会替换，用于显式清空默认列表
//   - map 按 key 合并，指针按需分配后递归
func MergeConfig[T any](dst, src *T) (*T, error) {
	switch {
	case dst == nil && src == nil:
		return nil, ErrBothNil
	case dst == nil:
		return src, nil
	case src == nil:
		return dst, nil
	}

	if err := overlay(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem(), ""); err != nil {
		return nil, err
	}
	return dst, nil
}

func overlay(dst, src reflect.Value, path string) error {
	if !src.IsValid() || unset(src) {
		return nil
	}
	if dst.Kind() != src.Kind() {
		return errors.Wrapf(ErrTypeMismatch, "%s: %s vs %s", fieldPath(path), dst.Kind(), src.Kind())
	}

	switch src.Kind() {
	case reflect.Struct:
		t := src.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			d := dst.FieldByName(f.Name)
			if !d.CanSet() {
				continue
			}
			if err := overlay(d, src.Field(i), join(path, f.Name)); err != nil {
				return err
			}
		}
	case reflect.Map:
		if dst.IsNil() {
			dst.Set(reflect.MakeMapWithSize(dst.Type(), src.Len()))
		}
		iter := src.MapRange()
		for iter.Next() {
			k, v := iter.Key(), iter.Value()
			cur := dst.MapIndex(k)
			if !cur.IsValid() {
				dst.SetMapIndex(k, v)
				continue
			}
			// map 元素不可寻址，复制后合并再写回
			tmp := reflect.New(cur.Type()).Elem()
			tmp.Set(cur)
			if err := overlay(tmp, v, join(path, k.String())); err != nil {
				return err
			}
			dst.SetMapIndex(k, tmp)
		}
	case reflect.Ptr:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return overlay(dst.Elem(), src.Elem(), path)
	default:
		if dst.CanSet() {
			dst.Set(src)
		}
	}
	return nil
}

// unset 判断 src 字段是否未配置
func unset(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Slice:
		return v.IsNil()
	case reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func fieldPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}
