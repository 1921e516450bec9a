// Package fonts 提供随程序分发的 Go 字体，作为未配置字体或加载失败时的后备。
package fonts

import (
	"fmt"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// 内置字形名，与配置文件 resources 中的 font 名称一致。
const (
	Regular    = "regular"
	Bold       = "bold"
	Italic     = "italic"
	BoldItalic = "bold-italic"
	Mono       = "mono"
)

var builtin = map[string][]byte{
	Regular:    goregular.TTF,
	Bold:       gobold.TTF,
	Italic:     goitalic.TTF,
	BoldItalic: gobolditalic.TTF,
	Mono:       gomono.TTF,
}

// Load 返回内置字体数据，name 可写为 "builtin:bold" 或直接 "bold"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "builtin:"))
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("没有名为 %s 的内置字体", name)
	}
	return data, nil
}

// IsBuiltin 判断 src 是否引用内置字体。
func IsBuiltin(src string) bool {
	return strings.HasPrefix(src, "builtin:")
}
