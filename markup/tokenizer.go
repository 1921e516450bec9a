// Package markup 把 markdown 源文本转换为 layout 的事件流。
package markup

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/unicode/norm"

	"github.com/ByLCY/mdpress/binding"
	"github.com/ByLCY/mdpress/layout"
)

// Options 控制分词阶段的数据绑定与资源解析。
type Options struct {
	// Data 用于替换正文中的 ${path} 占位符，为空时保持原样。
	Data any
	// Images 将图片地址映射为资源路径，未命中时使用原地址。
	Images map[string]string
	Logger *slog.Logger
}

// Tokenize 解析 markdown（含 GFM 表格、删除线、任务列表与脚注），输出事件序列。
func Tokenize(src []byte, opts Options) ([]layout.Event, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM, extension.Footnote))
	doc := md.Parser().Parse(text.NewReader(src))

	t := &tokenizer{src: src, opts: opts, styles: []layout.Style{0}}
	if err := ast.Walk(doc, t.visit); err != nil {
		return nil, fmt.Errorf("markdown 分词失败: %w", err)
	}
	t.flush()

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("分词完成", "events", len(t.events))
	return t.events, nil
}

type tokenizer struct {
	src    []byte
	opts   Options
	events []layout.Event
	styles []layout.Style
	quotes int

	// 同一样式下相邻的文本节点先合并，保证 ${...} 不会被 goldmark 的分段切断。
	pending      strings.Builder
	pendingStyle layout.Style
}

func (t *tokenizer) style() layout.Style {
	return t.styles[len(t.styles)-1]
}

func (t *tokenizer) push(c layout.Class) {
	t.styles = append(t.styles, t.style().With(c))
}

func (t *tokenizer) pop() {
	if len(t.styles) > 1 {
		t.styles = t.styles[:len(t.styles)-1]
	}
}

func (t *tokenizer) text(s string, style layout.Style) {
	if s == "" {
		return
	}
	if t.pending.Len() > 0 && t.pendingStyle != style {
		t.flush()
	}
	t.pendingStyle = style
	t.pending.WriteString(s)
}

func (t *tokenizer) flush() {
	if t.pending.Len() == 0 {
		return
	}
	s := t.pending.String()
	// 代码原样输出，与代码块保持一致，不替换 ${...}
	if !t.pendingStyle.Has(layout.Code) {
		s = binding.Interpolate(s, t.opts.Data)
	}
	t.events = append(t.events, layout.AtomEvent(layout.TextAtom(norm.NFC.String(s), t.pendingStyle)))
	t.pending.Reset()
}

func (t *tokenizer) emit(ev layout.Event) {
	t.flush()
	t.events = append(t.events, ev)
}

func (t *tokenizer) brk(kind layout.BreakKind) {
	t.emit(layout.BreakEvent(kind))
}

func (t *tokenizer) visit(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Document:
	case *ast.Heading:
		if entering {
			t.push(layout.Heading(node.Level))
		} else {
			t.pop()
			t.brk(layout.BreakParagraph)
		}
	case *ast.Paragraph:
		if !entering {
			t.brk(layout.BreakParagraph)
		}
	case *ast.TextBlock:
		if !entering && node.NextSibling() != nil {
			t.brk(layout.BreakLine)
		}
	case *ast.List:
		if entering {
			start := node.Start
			if start == 0 {
				start = 1
			}
			t.emit(layout.StartListEvent(node.IsOrdered(), start))
		} else {
			t.emit(layout.EndEvent(layout.BlockList))
		}
	case *ast.ListItem:
		t.block(layout.BlockListItem, entering)
	case *ast.Blockquote:
		if entering {
			t.quotes++
			t.push(layout.BlockQuote(t.quotes))
			t.emit(layout.StartEvent(layout.BlockQuoteBlock))
		} else {
			t.emit(layout.EndEvent(layout.BlockQuoteBlock))
			t.pop()
			t.quotes--
			t.brk(layout.BreakParagraph)
		}
	case *ast.CodeBlock, *ast.FencedCodeBlock:
		t.codeBlock(n)
		return ast.WalkSkipChildren, nil
	case *ast.ThematicBreak:
		if entering {
			t.brk(layout.BreakRule)
			t.brk(layout.BreakParagraph)
		}
	case *ast.HTMLBlock:
		if entering && isPageBreak(linesText(node.Lines(), t.src)) {
			t.brk(layout.BreakPage)
		}
		return ast.WalkSkipChildren, nil
	case *ast.RawHTML:
		if entering && isPageBreak(linesText(node.Segments, t.src)) {
			t.brk(layout.BreakPage)
		}
		return ast.WalkSkipChildren, nil
	case *ast.Text:
		if !entering {
			break
		}
		value := node.Segment.Value(t.src)
		if node.IsRaw() {
			t.text(string(value), t.style())
		} else {
			t.text(unescape(value), t.style())
		}
		switch {
		case node.HardLineBreak():
			t.brk(layout.BreakLine)
		case node.SoftLineBreak():
			t.brk(layout.BreakWord)
		}
	case *ast.String:
		if entering {
			t.text(string(node.Value), t.style())
		}
	case *ast.Emphasis:
		if entering {
			if node.Level >= 2 {
				t.push(layout.Strong)
			} else {
				t.push(layout.Emphasis)
			}
		} else {
			t.pop()
		}
	case *ast.CodeSpan:
		if entering {
			t.text(plainText(node, t.src), t.style().With(layout.Code))
		}
		return ast.WalkSkipChildren, nil
	case *ast.Link:
		t.styled(layout.Link, entering)
	case *ast.AutoLink:
		if entering {
			label := string(node.Label(t.src))
			if label == "" {
				label = string(node.URL(t.src))
			}
			t.text(label, t.style().With(layout.Link))
		}
		return ast.WalkSkipChildren, nil
	case *ast.Image:
		// 子节点是替代文本，由 Sectioner 在 EndBlock(Image) 之前忽略。
		if entering {
			t.emit(layout.AtomEvent(layout.ImageAtom(t.resolveImage(string(node.Destination)))))
		} else {
			t.emit(layout.EndEvent(layout.BlockImage))
		}
	case *east.TaskCheckBox:
		if entering {
			box := "[ ]"
			if node.IsChecked {
				box = "[x]"
			}
			t.text(box, t.style().With(layout.Code))
			t.brk(layout.BreakWord)
		}
	case *east.Table:
		if !entering {
			t.brk(layout.BreakParagraph)
		}
	case *east.TableHeader:
		t.styled(layout.Strong, entering)
		if !entering {
			t.brk(layout.BreakLine)
		}
	case *east.TableRow:
		if !entering {
			t.brk(layout.BreakLine)
		}
	case *east.TableCell:
		if entering && node.PreviousSibling() != nil {
			t.brk(layout.BreakWord)
			t.text("|", t.style())
			t.brk(layout.BreakWord)
		}
	case *east.FootnoteLink:
		if entering {
			t.text(strconv.Itoa(node.Index), t.style().With(layout.Note).With(layout.Superscript))
		}
		return ast.WalkSkipChildren, nil
	case *east.FootnoteBacklink:
		return ast.WalkSkipChildren, nil
	case *east.FootnoteList:
		if entering {
			t.brk(layout.BreakRule)
			t.emit(layout.StartListEvent(true, 1))
		} else {
			t.emit(layout.EndEvent(layout.BlockList))
		}
	case *east.Footnote:
		t.block(layout.BlockListItem, entering)
	}
	return ast.WalkContinue, nil
}

func (t *tokenizer) block(tag layout.BlockTag, entering bool) {
	if entering {
		t.emit(layout.StartEvent(tag))
	} else {
		t.emit(layout.EndEvent(tag))
	}
}

func (t *tokenizer) styled(c layout.Class, entering bool) {
	if entering {
		t.push(c)
	} else {
		t.pop()
	}
}

// codeBlock 输出整段代码文本，末尾换行去掉，行内的换行由 Sectioner 拆分。
func (t *tokenizer) codeBlock(n ast.Node) {
	t.emit(layout.StartEvent(layout.BlockCode))
	code := strings.TrimSuffix(linesText(n.Lines(), t.src), "\n")
	if code != "" {
		t.emit(layout.AtomEvent(layout.TextAtom(code, t.style().With(layout.Code))))
	}
	t.emit(layout.EndEvent(layout.BlockCode))
}

func (t *tokenizer) resolveImage(dest string) string {
	dest = strings.TrimSpace(dest)
	if path, ok := t.opts.Images[dest]; ok {
		return path
	}
	return dest
}

func linesText(lines *text.Segments, src []byte) string {
	if lines == nil {
		return ""
	}
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(src))
	}
	return b.String()
}

// unescape 去掉反斜杠转义并解析 HTML 实体，与 goldmark 输出 HTML 时的处理一致。
func unescape(value []byte) string {
	value = util.UnescapePunctuations(value)
	value = util.ResolveNumericReferences(value)
	value = util.ResolveEntityNames(value)
	return string(value)
}

// plainText 拼接子节点的原始文本，用于行内代码，不做转义处理。
func plainText(n ast.Node, src []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(src))
		case *ast.String:
			b.Write(v.Value)
		default:
			b.WriteString(plainText(c, src))
		}
	}
	return b.String()
}
