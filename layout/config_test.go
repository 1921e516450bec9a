package layout

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ByLCY/mdpress/dsl"
)

func settingsFrom(t *testing.T, src string) (Settings, error) {
	t.Helper()
	doc, err := dsl.ParseString(src)
	if err != nil {
		t.Fatalf("解析配置失败: %v", err)
	}
	return SettingsFromDSL(doc)
}

func TestSettingsFromDSL(t *testing.T) {
	s, err := settingsFrom(t, `
doc Report v1 {
  meta {
    title: "季度报告"
    author: "财务部"
    keywords: ["finance", "q3"]
  }
  resources {
    font bold { src: "fonts/Bold.ttf" fallback: "builtin:bold" }
    image logo { src: "assets/logo.png" }
  }
  page A4 landscape margin 15mm 10mm {
    body: 11pt  h1: 24pt
    line-spacing: 1.2x
    list-indent: 8mm
    quote-indent: 1.2cm
    section-spacing: 4mm
    list-marker: "-"
    max-depth: 16
    link-color: #1A56DB
    rule-color: #333
  }
}
`)
	if err != nil {
		t.Fatalf("转换配置失败: %v", err)
	}
	cfg := s.Config
	if cfg.PageWidth != 297 || cfg.PageHeight != 210 {
		t.Fatalf("横向 A4 应为 297x210，实际 %gx%g", cfg.PageWidth, cfg.PageHeight)
	}
	if diff := cmp.Diff(Margin{Top: 15, Right: 10, Bottom: 15, Left: 10}, cfg.Margin); diff != "" {
		t.Fatalf("边距不符 (-want +got):\n%s", diff)
	}
	if cfg.BodySize != 11 || cfg.HeadingSizes[0] != 24 || cfg.HeadingSizes[1] != 28 {
		t.Fatalf("字号不符: body=%g h=%v", cfg.BodySize, cfg.HeadingSizes)
	}
	if cfg.LineSpacing != 1.2 || cfg.ListIndent != 8 || math.Abs(cfg.QuoteIndent-12) > 1e-9 || cfg.SectionSpacing != 4 {
		t.Fatalf("间距不符: %+v", cfg)
	}
	if cfg.ListMarker != "-" || cfg.MaxDepth != 16 {
		t.Fatalf("标记或层级不符: %q %d", cfg.ListMarker, cfg.MaxDepth)
	}
	if s.Colors.Link != (Color{R: 0x1A, G: 0x56, B: 0xDB, A: 255}) || s.Colors.Rule != (Color{R: 0x33, G: 0x33, B: 0x33, A: 255}) {
		t.Fatalf("颜色不符: %+v", s.Colors)
	}
	if s.Colors.Text != DefaultPalette().Text {
		t.Fatalf("未设置的颜色应保持默认")
	}

	wantMeta := DocumentMeta{Title: "季度报告", Author: "财务部", Keywords: []string{"finance", "q3"}}
	if diff := cmp.Diff(wantMeta, s.Meta); diff != "" {
		t.Fatalf("文档信息不符 (-want +got):\n%s", diff)
	}
	if got := s.Fonts["bold"]; got.Src != "fonts/Bold.ttf" || got.Fallback != "builtin:bold" {
		t.Fatalf("字体资源不符: %+v", got)
	}
	if s.Images["logo"] != "assets/logo.png" {
		t.Fatalf("图片别名不符: %v", s.Images)
	}
}

func TestResolveMargin(t *testing.T) {
	cases := []struct {
		header string
		want   Margin
	}{
		{"page A5 {}", Margin{20, 20, 20, 20}},
		{"page A5 margin 1cm {}", Margin{10, 10, 10, 10}},
		{"page A5 margin 10 20 {}", Margin{10, 20, 10, 20}},
		{"page A5 margin 10 20 30 {}", Margin{10, 20, 30, 20}},
		{"page A5 margin 1 2 3 4 {}", Margin{1, 2, 3, 4}},
		{"page A5 margin 5mm landscape {}", Margin{5, 5, 5, 5}},
	}
	for _, c := range cases {
		s, err := settingsFrom(t, "doc T v1 {\n"+c.header+"\n}")
		if err != nil {
			t.Fatalf("%s: %v", c.header, err)
		}
		if s.Config.Margin != c.want {
			t.Fatalf("%s: 边距应为 %+v，实际 %+v", c.header, c.want, s.Config.Margin)
		}
	}
}

func TestSettingsErrors(t *testing.T) {
	cases := map[string]string{
		"未知纸张":  "page B9 {}",
		"未知属性":  "page A4 { columns: 2 }",
		"非法长度":  "page A4 { body: big }",
		"非法倍数":  "page A4 { line-spacing: 0 }",
		"行距过小":  "page A4 { line-spacing: 0.5x }",
		"非法颜色":  `page A4 { text-color: "red" }`,
		"非法层级":  "page A4 { max-depth: 0 }",
		"缺少边距值": "page A4 margin {}",
		"未知字形":  `resources { font serif { src: "a.ttf" } }`,
		"未知资源":  `resources { sound beep { src: "a.wav" } }`,
		"图片缺少路径": "resources { image logo {} }",
	}
	for name, body := range cases {
		_, err := settingsFrom(t, "doc T v1 {\n"+body+"\n}")
		if err == nil {
			t.Fatalf("%s: 期望报错", name)
		}
	}
}

func TestSettingsDefaults(t *testing.T) {
	s, err := SettingsFromDSL(nil)
	if err != nil {
		t.Fatalf("空配置不应报错: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), s.Config); diff != "" {
		t.Fatalf("空配置应使用默认值 (-want +got):\n%s", diff)
	}
	s, err = settingsFrom(t, `doc T v1 { meta { title: "x" } }`)
	if err != nil || s.Meta.Title != "x" || s.Config.PageWidth != 210 {
		t.Fatalf("缺少 page 时应保留默认页面: %+v, %v", s.Config, err)
	}
}

func TestLineSpacingLowerBound(t *testing.T) {
	s, err := settingsFrom(t, "doc T v1 {\npage A4 { line-spacing: 1x }\n}")
	if err != nil || s.Config.LineSpacing != 1 {
		t.Fatalf("行距 1x 应被接受: %g, %v", s.Config.LineSpacing, err)
	}
	_, err = settingsFrom(t, "doc T v1 {\npage A4 { line-spacing: 0.99 }\n}")
	if err == nil || !strings.Contains(err.Error(), "不能小于 1") {
		t.Fatalf("行距小于 1 应报错: %v", err)
	}
}

func TestParseColor(t *testing.T) {
	for in, want := range map[string]Color{
		"#fff":      {255, 255, 255, 255},
		"#102030":   {0x10, 0x20, 0x30, 255},
		"#10203040": {0x10, 0x20, 0x30, 0x40},
	} {
		got, err := parseColor(in)
		if err != nil || got != want {
			t.Fatalf("parseColor(%q) = %+v, %v", in, got, err)
		}
	}
	if _, err := parseColor("#12"); err == nil || !strings.Contains(err.Error(), "无法解析") {
		t.Fatalf("非法颜色应报错: %v", err)
	}
}
