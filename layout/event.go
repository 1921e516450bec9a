package layout

import "fmt"

// 该文件定义分词器与布局核心之间的事件协议。

// AtomKind 区分文本与图片两类原子内容。
type AtomKind int

const (
	AtomText AtomKind = iota
	AtomImage
)

// Atom 是一段可测量的内容：带样式的文本或图片引用。
type Atom struct {
	Kind  AtomKind
	Text  string
	Style Style
	URI   string
}

// TextAtom 构造文本原子。
func TextAtom(text string, style Style) Atom {
	return Atom{Kind: AtomText, Text: text, Style: style}
}

// ImageAtom 构造图片原子。
func ImageAtom(uri string) Atom {
	return Atom{Kind: AtomImage, URI: uri}
}

// BlockTag 是块级结构的标签。
type BlockTag int

const (
	BlockList BlockTag = iota
	BlockListItem
	BlockQuoteBlock
	BlockCode
	// BlockImage 只以 EndBlock 出现，用于结束图片替代文本的范围。
	BlockImage
)

func (t BlockTag) String() string {
	switch t {
	case BlockList:
		return "list"
	case BlockListItem:
		return "list-item"
	case BlockQuoteBlock:
		return "block-quote"
	case BlockCode:
		return "code-block"
	case BlockImage:
		return "image"
	default:
		return fmt.Sprintf("block(%d)", int(t))
	}
}

// BreakKind 是断行/分段的种类。
type BreakKind int

const (
	BreakWord BreakKind = iota
	BreakLine
	BreakParagraph
	BreakPage
	BreakRule
)

func (k BreakKind) String() string {
	switch k {
	case BreakWord:
		return "word"
	case BreakLine:
		return "line"
	case BreakParagraph:
		return "paragraph"
	case BreakPage:
		return "page"
	case BreakRule:
		return "rule"
	default:
		return fmt.Sprintf("break(%d)", int(k))
	}
}

// EventKind 区分事件种类。
type EventKind int

const (
	EventAtom EventKind = iota
	EventStart
	EventEnd
	EventBreak
)

// Event 是分词器产出的结构化事件。
// Ordered/Start 仅对 StartBlock(BlockList) 有意义。
type Event struct {
	Kind    EventKind
	Atom    Atom
	Tag     BlockTag
	Break   BreakKind
	Ordered bool
	Start   int
}

func AtomEvent(a Atom) Event          { return Event{Kind: EventAtom, Atom: a} }
func StartEvent(tag BlockTag) Event   { return Event{Kind: EventStart, Tag: tag} }
func EndEvent(tag BlockTag) Event     { return Event{Kind: EventEnd, Tag: tag} }
func BreakEvent(kind BreakKind) Event { return Event{Kind: EventBreak, Break: kind} }

// StartListEvent 构造列表开始事件，ordered 为 true 时 start 为首项编号。
func StartListEvent(ordered bool, start int) Event {
	return Event{Kind: EventStart, Tag: BlockList, Ordered: ordered, Start: start}
}

func (e Event) String() string {
	switch e.Kind {
	case EventAtom:
		if e.Atom.Kind == AtomImage {
			return fmt.Sprintf("image(%s)", e.Atom.URI)
		}
		return fmt.Sprintf("text(%q %s)", e.Atom.Text, e.Atom.Style)
	case EventStart:
		return "start(" + e.Tag.String() + ")"
	case EventEnd:
		return "end(" + e.Tag.String() + ")"
	case EventBreak:
		return "break(" + e.Break.String() + ")"
	default:
		return fmt.Sprintf("event(%d)", int(e.Kind))
	}
}

// SizedEvent 是附带测量结果的事件，Width/Height 单位为 mm，仅对原子有意义。
type SizedEvent struct {
	Event
	Width  float64
	Height float64
}
