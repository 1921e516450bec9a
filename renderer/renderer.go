package renderer

import "github.com/ByLCY/mdpress/layout"

// Renderer 将布局结果输出为最终文件，例如 PDF。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// Backend 同时负责测量与输出；排版使用的度量必须与最终绘制一致。
type Backend interface {
	Renderer
	layout.Metrics
}
