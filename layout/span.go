package layout

import "fmt"

// SpanKind 区分可绘制元素的种类。
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanImage
	SpanRect
)

func (k SpanKind) String() string {
	switch k {
	case SpanText:
		return "text"
	case SpanImage:
		return "image"
	case SpanRect:
		return "rect"
	default:
		return fmt.Sprintf("span(%d)", int(k))
	}
}

func (k SpanKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Span 是一个尺寸已知的绘制单元，创建后不再修改。
// Width/Height 在构造时确定（mm），下游不会重新测量。
type Span struct {
	Kind   SpanKind `json:"kind"`
	Text   string   `json:"text,omitempty"`
	Style  Style    `json:"style,omitempty"`
	URI    string   `json:"uri,omitempty"`
	Width  float64  `json:"width"`
	Height float64  `json:"height"`
}

func TextSpan(text string, style Style, width, height float64) Span {
	return Span{Kind: SpanText, Text: text, Style: style, Width: width, Height: height}
}

func ImageSpan(uri string, width, height float64) Span {
	return Span{Kind: SpanImage, URI: uri, Width: width, Height: height}
}

func RectSpan(width, height float64) Span {
	return Span{Kind: SpanRect, Width: width, Height: height}
}

// PositionedSpan 是锚定到页面绝对坐标的 Span，原点位于页面左下角。
type PositionedSpan struct {
	Span
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// spansWidth 返回一行 span 首尾相接后的总宽度。
func spansWidth(spans []Span) float64 {
	w := 0.0
	for _, s := range spans {
		w += s.Width
	}
	return w
}

// spansHeight 返回一行 span 中的最大高度。
func spansHeight(spans []Span) float64 {
	h := 0.0
	for _, s := range spans {
		if s.Height > h {
			h = s.Height
		}
	}
	return h
}
