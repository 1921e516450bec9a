package layout

// Paginator 自上而下放置 Section，内容放不下时开启新页。
// 坐标原点位于页面左下角，向下排版时 y 递减。
type Paginator struct {
	cfg     Config
	metrics Metrics
	pages   []Page
	current []PositionedSpan
	y       float64
}

// NewPaginator 创建分页器，metrics 用于测量列表/引用的标记符号。
func NewPaginator(cfg Config, metrics Metrics) *Paginator {
	cfg = cfg.withDefaults()
	return &Paginator{
		cfg:     cfg,
		metrics: metrics,
		y:       cfg.PageHeight - cfg.Margin.Top,
	}
}

func (p *Paginator) newPage() {
	p.pages = append(p.pages, p.page(p.current))
	p.current = nil
	p.y = p.cfg.PageHeight - p.cfg.Margin.Top
}

func (p *Paginator) page(spans []PositionedSpan) Page {
	return Page{Width: p.cfg.PageWidth, Height: p.cfg.PageHeight, Spans: spans}
}

// Render 从 startX 开始放置 sections；嵌套单元递归处理，深度受 Sectioner 的 MaxDepth 约束。
func (p *Paginator) Render(sections []Section, startX float64) {
	bottom := p.cfg.Margin.Bottom
	for _, sec := range sections {
		delta := -sec.MinStep() * p.cfg.LineSpacing
		if p.y+delta < bottom {
			p.newPage()
		}
		p.y += delta

		switch sec.Kind {
		case SectionPlain:
			p.place(sec.Spans, startX)
		case SectionSpace:
		case SectionRule:
			width := p.cfg.PageWidth - p.cfg.Margin.Right - startX
			p.place([]Span{RectSpan(width, p.cfg.RuleHeight)}, startX)
		case SectionPageBreak:
			p.newPage()
		case SectionListItem:
			marker := sec.Marker
			if marker == "" {
				marker = p.cfg.ListMarker
			}
			p.place([]Span{p.markerSpan(marker)}, startX)
			p.y -= delta
			p.Render(sec.Children, startX+p.cfg.ListIndent)
		case SectionQuote:
			p.place([]Span{p.markerSpan(p.cfg.QuoteMarker)}, startX)
			p.y -= delta
			p.Render(sec.Children, startX+p.cfg.QuoteIndent)
		case SectionCode:
			p.y -= delta
			lines := make([]Section, len(sec.Lines))
			for i, line := range sec.Lines {
				lines[i] = PlainSection(line)
			}
			p.Render(lines, startX+p.cfg.CodeIndent)
		}
	}
}

// place 把一行 span 从 x 开始左对齐放到当前 y。
func (p *Paginator) place(spans []Span, x float64) {
	for _, s := range spans {
		p.current = append(p.current, PositionedSpan{Span: s, X: x, Y: p.y})
		x += s.Width
	}
}

func (p *Paginator) markerSpan(marker string) Span {
	style := NewStyle(Code)
	w, h := p.metrics.MeasureText(style, marker)
	return TextSpan(marker, style, w, h)
}

// Pages 返回已完成的页面以及当前页；当前页即使为空也会输出，保证至少一页。
func (p *Paginator) Pages() []Page {
	out := make([]Page, 0, len(p.pages)+1)
	out = append(out, p.pages...)
	return append(out, p.page(p.current))
}
