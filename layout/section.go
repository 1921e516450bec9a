package layout

import "fmt"

// SectionKind 区分纵向排列的布局单元。
type SectionKind int

const (
	SectionPlain SectionKind = iota
	SectionSpace
	SectionRule
	SectionPageBreak
	SectionListItem
	SectionQuote
	SectionCode
)

func (k SectionKind) String() string {
	switch k {
	case SectionPlain:
		return "plain"
	case SectionSpace:
		return "space"
	case SectionRule:
		return "thematic-break"
	case SectionPageBreak:
		return "page-break"
	case SectionListItem:
		return "list-item"
	case SectionQuote:
		return "block-quote"
	case SectionCode:
		return "code-block"
	default:
		return fmt.Sprintf("section(%d)", int(k))
	}
}

// Section 是一个纵向布局单元。不同 Kind 只使用对应的字段：
//   - Plain：Spans 为一行内容
//   - Space：Space 为空白高度
//   - ListItem/Quote：Children 为嵌套布局，ListItem 另有 Marker
//   - Code：Lines 为逐行的等宽内容
type Section struct {
	Kind     SectionKind
	Spans    []Span
	Space    float64
	Children []Section
	Lines    [][]Span
	Marker   string
}

func PlainSection(spans []Span) Section { return Section{Kind: SectionPlain, Spans: spans} }
func SpaceSection(height float64) Section {
	return Section{Kind: SectionSpace, Space: height}
}
func RuleSection() Section      { return Section{Kind: SectionRule} }
func PageBreakSection() Section { return Section{Kind: SectionPageBreak} }

// ListItemSection 构造列表项，marker 为空时由分页器使用默认符号。
func ListItemSection(marker string, children []Section) Section {
	return Section{Kind: SectionListItem, Marker: marker, Children: children}
}

func QuoteSection(children []Section) Section {
	return Section{Kind: SectionQuote, Children: children}
}

func CodeSection(lines [][]Span) Section { return Section{Kind: SectionCode, Lines: lines} }

// Height 返回该单元的完整高度（mm，未乘行距系数）。
func (s Section) Height() float64 {
	switch s.Kind {
	case SectionPlain:
		return spansHeight(s.Spans)
	case SectionSpace:
		return s.Space
	case SectionListItem, SectionQuote:
		h := 0.0
		for _, c := range s.Children {
			h += c.Height()
		}
		return h
	case SectionCode:
		h := 0.0
		for _, line := range s.Lines {
			h += spansHeight(line)
		}
		return h
	default:
		return 0
	}
}

// MinStep 返回分页前至少需要预留的高度。
// 列表项、引用和代码块只要求放得下第一行，剩余部分可以流到下一页。
func (s Section) MinStep() float64 {
	switch s.Kind {
	case SectionListItem, SectionQuote:
		if len(s.Children) == 0 {
			return 0
		}
		return s.Children[0].Height()
	case SectionCode:
		if len(s.Lines) == 0 {
			return 0
		}
		return spansHeight(s.Lines[0])
	default:
		return s.Height()
	}
}

// IsBlank 报告该单元是否在视觉上为空；分割线不算空。
func (s Section) IsBlank() bool {
	switch s.Kind {
	case SectionPageBreak, SectionSpace:
		return true
	case SectionPlain:
		return len(s.Spans) == 0
	default:
		return false
	}
}
