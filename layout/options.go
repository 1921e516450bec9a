package layout

import "log/slog"

// Config 是一次排版过程中保持不变的参数。长度单位为 mm，字号单位为 pt。
type Config struct {
	PageWidth  float64
	PageHeight float64
	Margin     Margin

	BodySize     float64
	HeadingSizes [4]float64 // h1..h4

	LineSpacing    float64 // 行高乘数，不小于 1
	ListIndent     float64
	QuoteIndent    float64
	CodeIndent     float64
	SectionSpacing float64 // 段落、列表、代码块之后的空白
	RuleHeight     float64 // 分割线粗细

	ListMarker  string
	QuoteMarker string
	// MaxDepth 限制列表/引用的嵌套层数，超出时排版失败。
	MaxDepth int
}

// DefaultConfig 返回 A4 纸张的默认排版参数。
func DefaultConfig() Config {
	return Config{
		PageWidth:      210,
		PageHeight:     297,
		Margin:         Margin{Top: 20, Right: 20, Bottom: 20, Left: 20},
		BodySize:       12,
		HeadingSizes:   [4]float64{32, 28, 20, 16},
		LineSpacing:    1.0,
		ListIndent:     10,
		QuoteIndent:    20,
		CodeIndent:     10,
		SectionSpacing: 5,
		RuleHeight:     1,
		ListMarker:     "•",
		QuoteMarker:    "|",
		MaxDepth:       64,
	}
}

// ColumnWidth 返回左右边距之间的可用宽度。
func (c Config) ColumnWidth() float64 {
	return c.PageWidth - c.Margin.Left - c.Margin.Right
}

// FontSize 返回样式对应的字号（pt）：标题级别 1 优先于 2、3、4，否则为正文字号。
func (c Config) FontSize(style Style) float64 {
	if level := style.HeadingLevel(); level > 0 {
		if size := c.HeadingSizes[level-1]; size > 0 {
			return size
		}
	}
	return c.BodySize
}

// withDefaults 用默认值补齐未设置的字段。
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PageWidth <= 0 {
		c.PageWidth = d.PageWidth
	}
	if c.PageHeight <= 0 {
		c.PageHeight = d.PageHeight
	}
	if c.BodySize <= 0 {
		c.BodySize = d.BodySize
	}
	if c.LineSpacing < 1 {
		c.LineSpacing = d.LineSpacing
	}
	if c.ListMarker == "" {
		c.ListMarker = d.ListMarker
	}
	if c.QuoteMarker == "" {
		c.QuoteMarker = d.QuoteMarker
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	return c
}

// BuildOptions 配置布局阶段所需的依赖。
type BuildOptions struct {
	Config  Config
	Metrics Metrics
	Meta    DocumentMeta
	Logger  *slog.Logger
}
