// Package binding 将 markdown 正文中的 ${path} 占位符替换为外部数据。
package binding

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var placeholder = regexp.MustCompile(`\$\{\s*([A-Za-z_][A-Za-z0-9_.\[\]-]*)\s*\}`)

// Interpolate 将 text 中的 ${a.b[0].c} 替换为 data 中对应的值。
// data 为空或路径不存在时保留原占位符，便于在输出中发现遗漏的数据。
func Interpolate(text string, data any) string {
	if data == nil || !strings.Contains(text, "${") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		path := placeholder.FindStringSubmatch(match)[1]
		val, ok := Lookup(data, path)
		if !ok {
			return match
		}
		return format(val)
	})
}

// Lookup 按点号路径在 data 中取值，支持 map、切片、数组以及导出的结构体字段。
func Lookup(data any, path string) (any, bool) {
	current := reflect.ValueOf(data)
	for _, segment := range strings.Split(path, ".") {
		name, indexes, ok := splitSegment(segment)
		if !ok {
			return nil, false
		}
		if name != "" {
			if current, ok = field(current, name); !ok {
				return nil, false
			}
		}
		for _, idx := range indexes {
			if current, ok = element(current, idx); !ok {
				return nil, false
			}
		}
	}
	if !current.IsValid() {
		return nil, false
	}
	return current.Interface(), true
}

// LoadJSON 解析内联 JSON；以 @ 开头时从文件读取，如 @data.json。
func LoadJSON(src string) (any, error) {
	raw := []byte(src)
	if path, ok := strings.CutPrefix(src, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取数据文件 %s 失败: %w", path, err)
		}
		raw = b
	}
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("解析 data JSON 失败: %w", err)
	}
	return data, nil
}

func splitSegment(segment string) (string, []int, bool) {
	name, rest, found := strings.Cut(segment, "[")
	if !found {
		return name, nil, name != ""
	}
	rest = "[" + rest
	var indexes []int
	for rest != "" {
		end := strings.IndexByte(rest, ']')
		if rest[0] != '[' || end == -1 {
			return "", nil, false
		}
		idx, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return "", nil, false
		}
		indexes = append(indexes, idx)
		rest = rest[end+1:]
	}
	return name, indexes, true
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func field(v reflect.Value, name string) (reflect.Value, bool) {
	v = indirect(v)
	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		out := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		return out, out.IsValid()
	case reflect.Struct:
		sf, ok := v.Type().FieldByName(name)
		if !ok || !sf.IsExported() {
			return reflect.Value{}, false
		}
		return v.FieldByIndex(sf.Index), true
	default:
		return reflect.Value{}, false
	}
}

func element(v reflect.Value, idx int) (reflect.Value, bool) {
	v = indirect(v)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if idx < 0 || idx >= v.Len() {
			return reflect.Value{}, false
		}
		return v.Index(idx), true
	default:
		return reflect.Value{}, false
	}
}

// format 输出 JSON 数字时去掉多余的小数位（1e3 -> 1000）。
func format(val any) string {
	switch v := val.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
