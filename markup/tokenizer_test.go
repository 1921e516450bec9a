package markup_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/mdpress/layout"
	"github.com/ByLCY/mdpress/markup"
)

func tokenize(t *testing.T, src string, opts markup.Options) []string {
	t.Helper()
	events, err := markup.Tokenize([]byte(src), opts)
	if err != nil {
		t.Fatalf("tokenize failed: %v", err)
	}
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.String()
	}
	return out
}

func contains(events []string, want string) bool {
	for _, ev := range events {
		if ev == want {
			return true
		}
	}
	return false
}

func TestTokenizeBlocks(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "heading and paragraph",
			src:  "# Title\n\nHello *world*.\n",
			want: []string{
				`text("Title" {h1})`, `break(paragraph)`,
				`text("Hello " {})`, `text("world" {emphasis})`, `text("." {})`, `break(paragraph)`,
			},
		},
		{
			name: "soft break is a word break",
			src:  "one\ntwo\n",
			want: []string{`text("one" {})`, `break(word)`, `text("two" {})`, `break(paragraph)`},
		},
		{
			name: "code block keeps blank lines",
			src:  "```\nfoo\n\nbar\n```\n",
			want: []string{`start(code-block)`, `text("foo\n\nbar" {code})`, `end(code-block)`},
		},
		{
			name: "quote carries depth style",
			src:  "> quoted\n",
			want: []string{
				`start(block-quote)`, `text("quoted" {quote1})`, `break(paragraph)`,
				`end(block-quote)`, `break(paragraph)`,
			},
		},
		{
			name: "thematic break",
			src:  "a\n\n***\n\nb\n",
			want: []string{
				`text("a" {})`, `break(paragraph)`,
				`break(rule)`, `break(paragraph)`,
				`text("b" {})`, `break(paragraph)`,
			},
		},
		{
			name: "html comment page break",
			src:  "a\n\n<!-- pagebreak -->\n\nb\n",
			want: []string{`text("a" {})`, `break(paragraph)`, `break(page)`, `text("b" {})`, `break(paragraph)`},
		},
		{
			name: "css page break",
			src:  "a\n\n<div style=\"page-break-after: always\"></div>\n\nb\n",
			want: []string{`text("a" {})`, `break(paragraph)`, `break(page)`, `text("b" {})`, `break(paragraph)`},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := tokenize(t, c.src, markup.Options{})
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Fatalf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTokenizeOrderedList(t *testing.T) {
	events, err := markup.Tokenize([]byte("3. a\n4. b\n"), markup.Options{})
	if err != nil {
		t.Fatalf("tokenize failed: %v", err)
	}
	if len(events) == 0 || events[0].Tag != layout.BlockList || events[0].Kind != layout.EventStart {
		t.Fatalf("expected list start, got %v", events)
	}
	if !events[0].Ordered || events[0].Start != 3 {
		t.Fatalf("expected ordered list starting at 3, got ordered=%v start=%d", events[0].Ordered, events[0].Start)
	}
	var got []string
	for _, ev := range events {
		got = append(got, ev.String())
	}
	want := []string{
		`start(list)`,
		`start(list-item)`, `text("a" {})`, `end(list-item)`,
		`start(list-item)`, `text("b" {})`, `end(list-item)`,
		`end(list)`,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeImageAltText(t *testing.T) {
	got := tokenize(t, "![alt text](logo)\n", markup.Options{
		Images: map[string]string{"logo": "assets/logo.png"},
	})
	want := []string{`image(assets/logo.png)`, `text("alt text" {})`, `end(image)`, `break(paragraph)`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenizeBindsData(t *testing.T) {
	data := map[string]any{"user": map[string]any{"name": "张三"}}
	got := tokenize(t, "Hello ${user.name}!\n", markup.Options{Data: data})
	if !contains(got, `text("Hello 张三!" {})`) {
		t.Fatalf("placeholder not resolved: %v", got)
	}
}

func TestTokenizeUnescapesText(t *testing.T) {
	got := tokenize(t, "a \\*b\\* &amp; c &copy; &#35;\n", markup.Options{})
	if !contains(got, `text("a *b* & c © #" {})`) {
		t.Fatalf("escapes and entities should be resolved: %v", got)
	}
	got = tokenize(t, "`a\\*b &amp;`\n", markup.Options{})
	if !contains(got, `text("a\\*b &amp;" {code})`) {
		t.Fatalf("code span should stay literal: %v", got)
	}
}

func TestTokenizeCodeIsNotBound(t *testing.T) {
	data := map[string]any{"x": 1.0}
	got := tokenize(t, "`${x}` and ${x}\n\n```\n${x}\n```\n", markup.Options{Data: data})
	for _, want := range []string{
		`text("${x}" {code})`,
		`text(" and 1" {})`,
	} {
		if !contains(got, want) {
			t.Fatalf("missing %s in %v", want, got)
		}
	}
	n := 0
	for _, ev := range got {
		if ev == `text("${x}" {code})` {
			n++
		}
	}
	if n != 2 {
		t.Fatalf("code span and code block should both keep the placeholder: %v", got)
	}
}

func TestTokenizeNormalizesText(t *testing.T) {
	got := tokenize(t, "cafe\u0301\n", markup.Options{})
	if !contains(got, "text(\"caf\u00e9\" {})") {
		t.Fatalf("expected NFC text, got %v", got)
	}
}

func TestTokenizeInlineStyles(t *testing.T) {
	got := tokenize(t, "**bold** `code` [link](http://x)\n", markup.Options{})
	for _, want := range []string{
		`text("bold" {strong})`,
		`text("code" {code})`,
		`text("link" {link})`,
	} {
		if !contains(got, want) {
			t.Fatalf("missing %s in %v", want, got)
		}
	}
}

func TestTokenizeGFM(t *testing.T) {
	got := tokenize(t, "- [x] done\n", markup.Options{})
	if !contains(got, `text("[x]" {code})`) {
		t.Fatalf("task checkbox missing: %v", got)
	}

	got = tokenize(t, "| A | B |\n|---|---|\n| 1 | 2 |\n", markup.Options{})
	if !contains(got, `text("A" {strong})`) || !contains(got, `text("2" {})`) {
		t.Fatalf("table cells missing: %v", got)
	}
	lines := 0
	for _, ev := range got {
		if ev == `break(line)` {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("expected one line break per table row, got %d in %v", lines, got)
	}
}

func TestTokenizeFootnotes(t *testing.T) {
	got := tokenize(t, "text[^1]\n\n[^1]: the note\n", markup.Options{})
	if !contains(got, `text("1" {note,sup})`) {
		t.Fatalf("footnote reference missing: %v", got)
	}
	joined := strings.Join(got, " ")
	rule := strings.Index(joined, `break(rule)`)
	list := strings.Index(joined, `start(list)`)
	if rule < 0 || list < rule {
		t.Fatalf("footnote list should follow a rule: %v", got)
	}
	if !strings.Contains(joined, `the note`) {
		t.Fatalf("footnote body missing: %v", got)
	}
}

func TestTokenizeFeedsLayout(t *testing.T) {
	src := "# T\n\n- a\n  - b\n\n> q\n\n```\nx\n```\n"
	events, err := markup.Tokenize([]byte(src), markup.Options{})
	if err != nil {
		t.Fatalf("tokenize failed: %v", err)
	}
	cfg := layout.DefaultConfig()
	sectioner := layout.NewSectioner(cfg, fixedMetrics{})
	for _, ev := range events {
		if err := sectioner.Push(layout.SizedEvent{Event: ev, Width: 5, Height: 5}); err != nil {
			t.Fatalf("push %s: %v", ev, err)
		}
	}
	if _, err := sectioner.Finish(); err != nil {
		t.Fatalf("finish: %v", err)
	}
}

type fixedMetrics struct{}

func (fixedMetrics) MeasureText(_ layout.Style, text string) (float64, float64) {
	return float64(len([]rune(text))) * 2, 5
}

func (fixedMetrics) ImageSize(string) (float64, float64, error) { return 10, 10, nil }
