package layout

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type frameKind int

const (
	frameRoot frameKind = iota
	frameListItem
	frameQuote
)

func (k frameKind) endTag() BlockTag {
	if k == frameQuote {
		return BlockQuoteBlock
	}
	return BlockListItem
}

type listCounter struct {
	ordered bool
	next    int
}

// frame 是一层缩进的排版状态。列表项与引用各自压入一层，结束时折叠成一个 Section。
type frame struct {
	kind   frameKind
	width  float64 // 本层可用宽度
	x      float64 // 相对本层左边缘的水平游标
	marker string

	sections []Section
	line     []Span
	code     [][]Span
	lists    []listCounter

	isCode       bool
	isAltText    bool
	pendingSpace bool
}

// pushSpan 追加到当前行；与上一个文本 Span 样式相同时直接合并。
func (f *frame) pushSpan(s Span) {
	if n := len(f.line); n > 0 && s.Kind == SpanText {
		last := &f.line[n-1]
		if last.Kind == SpanText && last.Style == s.Style && last.Height == s.Height {
			last.Text += s.Text
			last.Width += s.Width
			f.x += s.Width
			return
		}
	}
	f.line = append(f.line, s)
	f.x += s.Width
}

func (f *frame) pushSection(s Section) {
	f.sections = append(f.sections, s)
}

// newLine 结束当前行；空行不产生任何 Section。
func (f *frame) newLine() {
	f.pendingSpace = false
	if len(f.line) == 0 {
		return
	}
	if f.isCode {
		f.code = append(f.code, f.line)
	} else {
		f.sections = append(f.sections, PlainSection(f.line))
	}
	f.line = nil
	f.x = 0
}

// finish 输出本层的 Section 列表，并去掉末尾的空白单元，避免文档末尾多出空页。
func (f *frame) finish() []Section {
	if len(f.line) > 0 {
		f.sections = append(f.sections, PlainSection(f.line))
		f.line = nil
	}
	if n := len(f.sections); n > 0 && f.sections[n-1].IsBlank() {
		f.sections = f.sections[:n-1]
	}
	return f.sections
}

// Sectioner 把带尺寸的事件贪心折行，并组织成 Section 树。
// 嵌套的列表项与引用使用显式的帧栈，而不是递归持有子构建器。
type Sectioner struct {
	cfg     Config
	metrics Metrics
	stack   []*frame
	spaces  map[Style][2]float64
}

// NewSectioner 创建以 cfg.ColumnWidth() 为初始栏宽的构建器。
func NewSectioner(cfg Config, metrics Metrics) *Sectioner {
	cfg = cfg.withDefaults()
	return &Sectioner{
		cfg:     cfg,
		metrics: metrics,
		stack:   []*frame{{kind: frameRoot, width: cfg.ColumnWidth()}},
		spaces:  map[Style][2]float64{},
	}
}

func (s *Sectioner) top() *frame {
	return s.stack[len(s.stack)-1]
}

// Push 处理一个事件。返回的错误都表示输入结构非法，调用方应当中止排版。
func (s *Sectioner) Push(ev SizedEvent) error {
	f := s.top()
	switch ev.Kind {
	case EventAtom:
		if ev.Atom.Kind == AtomImage {
			s.writeImage(f, ev)
			return nil
		}
		if f.isAltText {
			return nil
		}
		if f.isCode {
			s.writeCode(f, ev)
		} else {
			s.writeText(f, ev)
		}
		return nil
	case EventBreak:
		return s.handleBreak(f, ev.Break)
	case EventStart:
		f.isAltText = false
		return s.startBlock(f, ev.Event)
	case EventEnd:
		if ev.Tag != BlockImage {
			f.isAltText = false
		}
		return s.endBlock(f, ev.Tag)
	default:
		return fmt.Errorf("未知事件类型 %d", int(ev.Kind))
	}
}

func (s *Sectioner) handleBreak(f *frame, kind BreakKind) error {
	if kind != BreakWord {
		f.isAltText = false
	}
	switch kind {
	case BreakWord:
		if f.isCode {
			s.writeCode(f, SizedEvent{Event: AtomEvent(TextAtom(" ", NewStyle(Code)))})
			return nil
		}
		if len(f.line) > 0 {
			f.pendingSpace = true
		}
	case BreakLine:
		if f.isCode {
			// 代码块中的换行即使为空行也要保留
			if len(f.line) == 0 {
				f.line = append(f.line, s.emptyCodeSpan())
			}
		}
		f.newLine()
	case BreakParagraph:
		f.newLine()
		f.pushSection(SpaceSection(s.cfg.SectionSpacing))
	case BreakPage:
		f.newLine()
		f.pushSection(PageBreakSection())
	case BreakRule:
		f.newLine()
		f.pushSection(RuleSection())
	default:
		return fmt.Errorf("未知的断行类型 %s", kind)
	}
	return nil
}

func (s *Sectioner) startBlock(f *frame, ev Event) error {
	switch ev.Tag {
	case BlockList:
		f.newLine()
		start := ev.Start
		f.lists = append(f.lists, listCounter{ordered: ev.Ordered, next: start})
	case BlockListItem:
		f.newLine()
		marker := ""
		if n := len(f.lists); n > 0 && f.lists[n-1].ordered {
			marker = strconv.Itoa(f.lists[n-1].next) + "."
			f.lists[n-1].next++
		}
		return s.pushFrame(frameListItem, f.width-s.cfg.ListIndent, marker)
	case BlockQuoteBlock:
		f.newLine()
		return s.pushFrame(frameQuote, f.width-s.cfg.QuoteIndent, "")
	case BlockCode:
		f.newLine()
		f.isCode = true
	default:
		return fmt.Errorf("%w: 不支持的开始标记 %s", ErrUnbalancedBlock, ev.Tag)
	}
	return nil
}

func (s *Sectioner) endBlock(f *frame, tag BlockTag) error {
	switch tag {
	case BlockList:
		n := len(f.lists)
		if n == 0 {
			return fmt.Errorf("%w: 多余的结束标记 %s", ErrUnbalancedBlock, tag)
		}
		f.lists = f.lists[:n-1]
		f.newLine()
		f.pushSection(SpaceSection(s.cfg.SectionSpacing))
	case BlockListItem, BlockQuoteBlock:
		if f.kind == frameRoot || f.kind.endTag() != tag {
			return fmt.Errorf("%w: 多余的结束标记 %s", ErrUnbalancedBlock, tag)
		}
		if len(f.lists) > 0 || f.isCode {
			return fmt.Errorf("%w: %s 内仍有未关闭的块", ErrUnbalancedBlock, tag)
		}
		s.stack = s.stack[:len(s.stack)-1]
		parent := s.top()
		children := f.finish()
		if f.kind == frameQuote {
			parent.pushSection(QuoteSection(children))
		} else {
			parent.pushSection(ListItemSection(f.marker, children))
		}
	case BlockCode:
		if !f.isCode {
			return fmt.Errorf("%w: 多余的结束标记 %s", ErrUnbalancedBlock, tag)
		}
		f.newLine()
		f.pushSection(CodeSection(f.code))
		f.code = nil
		f.isCode = false
		f.pushSection(SpaceSection(s.cfg.SectionSpacing))
	case BlockImage:
		f.isAltText = false
	default:
		return fmt.Errorf("%w: 不支持的结束标记 %s", ErrUnbalancedBlock, tag)
	}
	return nil
}

func (s *Sectioner) pushFrame(kind frameKind, width float64, marker string) error {
	if len(s.stack) > s.cfg.MaxDepth {
		return fmt.Errorf("%w: 超过 %d 层", ErrNestingTooDeep, s.cfg.MaxDepth)
	}
	s.stack = append(s.stack, &frame{kind: kind, width: width, marker: marker})
	return nil
}

// space 返回该样式下单个空格的宽高，按样式缓存。
func (s *Sectioner) space(style Style) (float64, float64) {
	if v, ok := s.spaces[style]; ok {
		return v[0], v[1]
	}
	w, h := s.metrics.MeasureText(style, " ")
	s.spaces[style] = [2]float64{w, h}
	return w, h
}

func (s *Sectioner) emptyCodeSpan() Span {
	style := NewStyle(Code)
	_, h := s.space(style)
	return TextSpan("", style, 0, h)
}

// writeText 以单词为粒度贪心折行：同一行内连续的单词合并为一个 Span，
// 放不下时换行；单个超宽的单词允许溢出，不做断字。
func (s *Sectioner) writeText(f *frame, ev SizedEvent) {
	text, style := ev.Atom.Text, ev.Atom.Style
	words := strings.Fields(text)
	if len(words) == 0 {
		if text != "" && len(f.line) > 0 {
			f.pendingSpace = true
		}
		return
	}
	if r, _ := utf8.DecodeRuneInString(text); unicode.IsSpace(r) && len(f.line) > 0 {
		f.pendingSpace = true
	}

	spaceW, spaceH := s.space(style)
	height := ev.Height
	if height <= 0 {
		height = spaceH
	}

	var buf strings.Builder
	bufW := 0.0
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		f.pushSpan(TextSpan(buf.String(), style, bufW, height))
		buf.Reset()
		bufW = 0
	}

	for i, word := range words {
		wordW, _ := s.metrics.MeasureText(style, word)
		started := buf.Len() > 0 || len(f.line) > 0
		sep := started && (i > 0 || f.pendingSpace)
		f.pendingSpace = false
		gap := 0.0
		if sep {
			gap = spaceW
		}
		// 行首的单词即使超宽也直接放入，不做断字
		if started && f.x+bufW+gap+wordW > f.width {
			flush()
			f.newLine()
			sep = false
		}
		if sep {
			buf.WriteByte(' ')
			bufW += spaceW
		}
		buf.WriteString(word)
		bufW += wordW
	}
	flush()

	if r, _ := utf8.DecodeLastRuneInString(text); unicode.IsSpace(r) {
		f.pendingSpace = true
	}
}

// writeCode 只按显式换行拆分，不按宽度折行。
func (s *Sectioner) writeCode(f *frame, ev SizedEvent) {
	style := ev.Atom.Style
	_, spaceH := s.space(style)
	height := ev.Height
	if height <= 0 {
		height = spaceH
	}
	parts := strings.Split(ev.Atom.Text, "\n")
	for i, part := range parts {
		w := 0.0
		if part != "" {
			w, _ = s.metrics.MeasureText(style, part)
		}
		f.pushSpan(TextSpan(part, style, w, height))
		if i < len(parts)-1 {
			f.newLine()
		}
	}
}

// writeImage 把图片作为不可拆分的元素放入当前行，超出栏宽时等比缩小。
func (s *Sectioner) writeImage(f *frame, ev SizedEvent) {
	w, h := ev.Width, ev.Height
	if f.width > 0 && w > f.width {
		h = h * f.width / w
		w = f.width
	}
	if len(f.line) > 0 {
		spaceW, spaceH := s.space(Style(0))
		gap := 0.0
		if f.pendingSpace {
			gap = spaceW
		}
		// 放不下空格加图片时换行，不把图片紧贴在前一个单词上
		if f.x+gap+w > f.width {
			f.newLine()
		} else if f.pendingSpace {
			f.pushSpan(TextSpan(" ", Style(0), spaceW, spaceH))
		}
	}
	f.pendingSpace = false
	f.pushSpan(ImageSpan(ev.Atom.URI, w, h))
	f.isAltText = true
}

// Finish 结束构建并返回顶层 Section 列表。
func (s *Sectioner) Finish() ([]Section, error) {
	if n := len(s.stack); n > 1 {
		return nil, fmt.Errorf("%w: 文档结束时仍有 %d 个未关闭的块", ErrUnbalancedBlock, n-1)
	}
	root := s.stack[0]
	if root.isCode || len(root.lists) > 0 {
		return nil, fmt.Errorf("%w: 文档结束时仍有未关闭的块", ErrUnbalancedBlock)
	}
	return root.finish(), nil
}
