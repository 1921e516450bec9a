package layout

// 该文件定义布局结果，供渲染与调试 JSON 共用。

// Result 保存分页后的页面与文档信息。
type Result struct {
	Pages    []Page       `json:"pages"`
	Meta     DocumentMeta `json:"meta"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Page 记录页面尺寸与按绘制顺序排列的元素（单位：mm）。
type Page struct {
	Width  float64          `json:"width"`
	Height float64          `json:"height"`
	Spans  []PositionedSpan `json:"spans"`
}

// Margin 以毫米为单位。
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
