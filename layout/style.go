package layout

import (
	"math/bits"
	"strconv"
	"strings"
)

// Class 是一个排版属性标签，Style 是若干 Class 的集合。
type Class uint32

const (
	Strong Class = 1 << iota
	Emphasis
	Code
	Note
	Link
	Superscript
)

const (
	headingShift  = 6
	headingLevels = 4
	quoteShift    = headingShift + headingLevels
	// MaxQuoteDepth 是 Style 能区分的最大引用层级，更深的层级按此值记录。
	MaxQuoteDepth = 32 - quoteShift
)

// Heading 返回标题级别对应的标签，级别被限制在 1~4。
func Heading(level int) Class {
	level = clamp(level, 1, headingLevels)
	return Class(1) << (headingShift + level - 1)
}

// BlockQuote 返回引用层级对应的标签，层级被限制在 1~MaxQuoteDepth。
func BlockQuote(depth int) Class {
	depth = clamp(depth, 1, MaxQuoteDepth)
	return Class(1) << (quoteShift + depth - 1)
}

// Style 是与插入顺序无关的属性集合，可直接用 == 比较或作为 map key。
type Style uint32

// NewStyle 由若干标签构造样式。
func NewStyle(classes ...Class) Style {
	var s Style
	for _, c := range classes {
		s = s.With(c)
	}
	return s
}

func (s Style) With(c Class) Style    { return s | Style(c) }
func (s Style) Without(c Class) Style { return s &^ Style(c) }
func (s Style) Has(c Class) bool      { return c != 0 && Style(c)&s == Style(c) }

// HeadingLevel 返回生效的标题级别（多个同时存在时级别 1 优先），没有标题时返回 0。
func (s Style) HeadingLevel() int {
	mask := (uint32(s) >> headingShift) & (1<<headingLevels - 1)
	if mask == 0 {
		return 0
	}
	return bits.TrailingZeros32(mask) + 1
}

// QuoteDepth 返回最深的引用层级，没有引用时返回 0。
func (s Style) QuoteDepth() int {
	mask := uint32(s) >> quoteShift
	if mask == 0 {
		return 0
	}
	return 32 - bits.LeadingZeros32(mask)
}

func (s Style) String() string {
	var parts []string
	names := []struct {
		c    Class
		name string
	}{
		{Strong, "strong"}, {Emphasis, "emphasis"}, {Code, "code"},
		{Note, "note"}, {Link, "link"}, {Superscript, "sup"},
	}
	for _, n := range names {
		if s.Has(n.c) {
			parts = append(parts, n.name)
		}
	}
	for level := 1; level <= headingLevels; level++ {
		if s.Has(Heading(level)) {
			parts = append(parts, "h"+strconv.Itoa(level))
		}
	}
	for depth := 1; depth <= MaxQuoteDepth; depth++ {
		if s.Has(BlockQuote(depth)) {
			parts = append(parts, "quote"+strconv.Itoa(depth))
		}
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// MarshalText 让调试 JSON 输出可读的样式名。
func (s Style) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
