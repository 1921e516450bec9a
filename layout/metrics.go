package layout

import "errors"

const (
	// ImageDPI 是换算图片原始像素尺寸时假定的分辨率。
	ImageDPI = 300.0
	// FallbackImageSize 是图片缺失时使用的占位尺寸（mm）。
	FallbackImageSize = 50.0
)

var (
	// ErrResourceMissing 表示字体或图片资源不可用，属于可恢复错误。
	ErrResourceMissing = errors.New("资源缺失")
	// ErrUnbalancedBlock 表示块结构的开始/结束标记不匹配。
	ErrUnbalancedBlock = errors.New("块结构不匹配")
	// ErrNestingTooDeep 表示列表/引用嵌套超过 Config.MaxDepth。
	ErrNestingTooDeep = errors.New("嵌套层级过深")
)

// Metrics 负责按样式测量文本与图片，所有长度单位均为毫米（mm）。
// 实现需要支持并发读取，布局核心只会调用这两个方法。
type Metrics interface {
	MeasureText(style Style, text string) (width, height float64)
	// ImageSize 返回图片尺寸；资源不可用时返回包装了 ErrResourceMissing 的错误。
	ImageSize(uri string) (width, height float64, err error)
}

// PixelsToMM 按 ImageDPI 将像素换算为毫米。
func PixelsToMM(px int) float64 {
	return float64(px) / ImageDPI * 25.4
}
