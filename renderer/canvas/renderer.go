package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"log/slog"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/mdpress/layout"
	"github.com/ByLCY/mdpress/renderer"
)

// superscriptScale 是上标相对正文的字号比例。
const superscriptScale = 0.7

// Renderer 基于 github.com/tdewolff/canvas 测量文本并输出 PDF。
// 字体与图片只加载一次，可以被多个排版过程并发使用。
type Renderer struct {
	baseDir string
	cfg     layout.Config
	fonts   map[string]layout.FontResource
	palette layout.Palette
	logger  *slog.Logger

	fontMu   sync.Mutex
	builtin  map[string]*canvas.FontFamily
	families map[string]*canvas.FontFamily

	imageMu sync.RWMutex
	images  map[string]imageEntry
}

var _ renderer.Backend = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	// BaseDir 是相对路径（字体、图片）的解析目录。
	BaseDir string
	// Config 提供字号；必须与传给 layout.Build 的配置一致。
	Config layout.Config
	// Fonts 按字形名替换内置字体。
	Fonts   map[string]layout.FontResource
	Palette *layout.Palette
	Logger  *slog.Logger
}

// New 创建渲染器并加载内置字体。
func New(opts Options) (*Renderer, error) {
	builtin, err := loadBuiltin()
	if err != nil {
		return nil, err
	}
	palette := layout.DefaultPalette()
	if opts.Palette != nil {
		palette = *opts.Palette
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	if cfg.BodySize <= 0 {
		cfg = layout.DefaultConfig()
	}
	return &Renderer{
		baseDir:  opts.BaseDir,
		cfg:      cfg,
		fonts:    opts.Fonts,
		palette:  palette,
		logger:   logger,
		builtin:  builtin,
		families: map[string]*canvas.FontFamily{},
		images:   map[string]imageEntry{},
	}, nil
}

// MeasureText 实现 layout.Metrics：宽度为字形前进量之和，高度为字体行高（mm）。
func (r *Renderer) MeasureText(style layout.Style, text string) (float64, float64) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	face := r.face(style, r.palette.Text)
	return face.TextWidth(text), face.Metrics().LineHeight
}

// ImageSize 实现 layout.Metrics：按 300 DPI 将像素换算为毫米。
func (r *Renderer) ImageSize(uri string) (float64, float64, error) {
	img, err := r.image(uri)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return layout.PixelsToMM(b.Dx()), layout.PixelsToMM(b.Dy()), nil
}

// face 需在持有 fontMu 时调用。
func (r *Renderer) face(style layout.Style, col layout.Color) *canvas.FontFace {
	size := r.cfg.FontSize(style)
	if style.Has(layout.Superscript) {
		size *= superscriptScale
	}
	return r.family(slotFor(style)).Face(size, colorFromLayout(col), canvas.FontRegular, canvas.FontNormal)
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	writer.SetInfo(result.Meta.Title, result.Meta.Subject, strings.Join(result.Meta.Keywords, ", "), result.Meta.Author, result.Meta.Creator)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		r.drawPage(ctx, page)
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// drawPage 使用布局的左下角原点坐标，span 的 Y 为所在行的底边。
func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page) {
	for _, s := range page.Spans {
		switch s.Kind {
		case layout.SpanText:
			r.drawText(ctx, s)
		case layout.SpanImage:
			r.drawImage(ctx, s)
		case layout.SpanRect:
			ctx.SetStrokeColor(canvas.Transparent)
			ctx.SetFillColor(colorFromLayout(r.palette.Rule))
			ctx.DrawPath(s.X, s.Y, canvas.Rectangle(s.Width, s.Height))
		}
	}
}

func (r *Renderer) drawText(ctx *canvas.Context, s layout.PositionedSpan) {
	if strings.TrimSpace(s.Text) == "" {
		return
	}
	r.fontMu.Lock()
	face := r.face(s.Style, r.colorFor(s.Style))
	metrics := face.Metrics()
	r.fontMu.Unlock()

	baseline := s.Y + s.Height - metrics.Ascent
	if s.Style.Has(layout.Superscript) {
		baseline += metrics.Ascent * 0.5
	}
	ctx.DrawText(s.X, baseline, canvas.NewTextLine(face, s.Text, canvas.Left))
}

// drawImage 缺失的图片以灰色边框占位，尺寸与排版时的回退尺寸一致。
func (r *Renderer) drawImage(ctx *canvas.Context, s layout.PositionedSpan) {
	img, err := r.image(s.URI)
	if err != nil || s.Width <= 0 {
		ctx.SetFillColor(canvas.Transparent)
		ctx.SetStrokeColor(canvas.Hex("#c8c8c8"))
		ctx.SetStrokeWidth(0.3)
		ctx.DrawPath(s.X, s.Y, canvas.Rectangle(s.Width, s.Height))
		return
	}
	dpmm := float64(img.Bounds().Dx()) / s.Width
	if dpmm <= 0 {
		dpmm = 1
	}
	ctx.DrawImage(s.X, s.Y, img, canvas.DPMM(dpmm))
}

func (r *Renderer) colorFor(style layout.Style) layout.Color {
	switch {
	case style.Has(layout.Link):
		return r.palette.Link
	case style.Has(layout.Code):
		return r.palette.Code
	case style.QuoteDepth() > 0:
		return r.palette.Quote
	default:
		return r.palette.Text
	}
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, float64(c.A)/255.0)
}
