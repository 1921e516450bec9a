package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/mdpress/dsl"
)

// Settings 汇总配置文件中的排版参数、文档信息与资源声明。
type Settings struct {
	Config Config
	Meta   DocumentMeta
	// Fonts 以字形名（regular/bold/italic/bold-italic/mono）索引字体文件。
	Fonts map[string]FontResource
	// Images 将 markdown 中的图片别名映射到文件路径。
	Images map[string]string
	Colors Palette
}

// FontResource 描述一个字体文件及其回退。
type FontResource struct {
	Name     string `json:"name"`
	Src      string `json:"src"`
	Fallback string `json:"fallback,omitempty"`
}

// Color 为 8 位 RGBA 颜色。
type Color struct {
	R, G, B, A uint8
}

// Palette 为渲染阶段使用的配色。
type Palette struct {
	Text  Color
	Link  Color
	Rule  Color
	Code  Color
	Quote Color
}

// DefaultPalette 返回深灰正文、蓝色链接的配色。
func DefaultPalette() Palette {
	return Palette{
		Text:  Color{R: 30, G: 30, B: 30, A: 255},
		Link:  Color{R: 26, G: 86, B: 219, A: 255},
		Rule:  Color{R: 120, G: 120, B: 120, A: 255},
		Code:  Color{R: 60, G: 60, B: 60, A: 255},
		Quote: Color{R: 110, G: 110, B: 110, A: 255},
	}
}

// DefaultSettings 返回不依赖配置文件时使用的设置。
func DefaultSettings() Settings {
	return Settings{
		Config: DefaultConfig(),
		Fonts:  map[string]FontResource{},
		Images: map[string]string{},
		Colors: DefaultPalette(),
	}
}

var pagePresets = map[string][2]float64{
	"A3":     {297, 420},
	"A4":     {210, 297},
	"A5":     {148, 210},
	"LETTER": {215.9, 279.4},
	"LEGAL":  {215.9, 355.6},
}

// SettingsFromDSL 将解析后的配置文档转换为排版设置。
func SettingsFromDSL(doc *dsl.Document) (Settings, error) {
	s := DefaultSettings()
	if doc == nil {
		return s, nil
	}
	s.Meta = collectMeta(doc)
	if err := collectResources(doc, &s); err != nil {
		return s, err
	}
	page := firstPage(doc)
	if page == nil {
		return s, nil
	}
	w, h, err := resolvePageSize(page.Spec)
	if err != nil {
		return s, err
	}
	s.Config.PageWidth, s.Config.PageHeight = w, h
	margin, err := resolveMargin(page.Spec.Params)
	if err != nil {
		return s, err
	}
	s.Config.Margin = margin
	if page.Block == nil {
		return s, nil
	}
	for _, stmt := range page.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		if err := applyPageProperty(&s, stmt.Assignment); err != nil {
			return s, err
		}
	}
	return s, nil
}

func applyPageProperty(s *Settings, a *dsl.Assignment) error {
	key := strings.ToLower(a.Key)
	raw := a.Value.Text()
	wrap := func(err error) error {
		return fmt.Errorf("页面属性 %s (行 %d): %w", a.Key, a.Pos.Line, err)
	}
	cfg := &s.Config
	switch key {
	case "body", "h1", "h2", "h3", "h4":
		l, err := ParseLength(raw)
		if err != nil {
			return wrap(err)
		}
		if key == "body" {
			cfg.BodySize = l.ToPT()
		} else {
			cfg.HeadingSizes[key[1]-'1'] = l.ToPT()
		}
	case "line-spacing":
		f, err := ParseFactor(raw)
		if err != nil {
			return wrap(err)
		}
		if f < 1 {
			return wrap(fmt.Errorf("行距倍数不能小于 1，得到 %q", raw))
		}
		cfg.LineSpacing = f
	case "list-indent", "quote-indent", "code-indent", "section-spacing", "rule-height":
		l, err := ParseLength(raw)
		if err != nil {
			return wrap(err)
		}
		switch key {
		case "list-indent":
			cfg.ListIndent = l.ToMM()
		case "quote-indent":
			cfg.QuoteIndent = l.ToMM()
		case "code-indent":
			cfg.CodeIndent = l.ToMM()
		case "section-spacing":
			cfg.SectionSpacing = l.ToMM()
		default:
			cfg.RuleHeight = l.ToMM()
		}
	case "list-marker":
		cfg.ListMarker = raw
	case "quote-marker":
		cfg.QuoteMarker = raw
	case "max-depth":
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return wrap(fmt.Errorf("需要正整数，得到 %q", raw))
		}
		cfg.MaxDepth = n
	case "text-color", "link-color", "rule-color", "code-color", "quote-color":
		c, err := parseColor(raw)
		if err != nil {
			return wrap(err)
		}
		switch key {
		case "text-color":
			s.Colors.Text = c
		case "link-color":
			s.Colors.Link = c
		case "rule-color":
			s.Colors.Rule = c
		case "code-color":
			s.Colors.Code = c
		default:
			s.Colors.Quote = c
		}
	default:
		return wrap(fmt.Errorf("未知的页面属性"))
	}
	return nil
}

func collectResources(doc *dsl.Document, s *Settings) error {
	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			switch stmt.Command.Name {
			case "font":
				font := parseFontResource(stmt.Command)
				if font.Name == "" {
					return fmt.Errorf("字体声明缺少名称 (行 %d)", stmt.Command.Pos.Line)
				}
				if !isFontSlot(font.Name) {
					return fmt.Errorf("未知的字形 %q，可选 regular/bold/italic/bold-italic/mono", font.Name)
				}
				s.Fonts[font.Name] = font
			case "image":
				name, src := parseImageResource(stmt.Command)
				if name == "" || src == "" {
					return fmt.Errorf("图片声明需要名称与 src (行 %d)", stmt.Command.Pos.Line)
				}
				s.Images[name] = src
			default:
				return fmt.Errorf("未知的资源类型 %q", stmt.Command.Name)
			}
		}
	}
	return nil
}

// FontSlots 列出可以在配置中替换的字形。
var FontSlots = []string{"regular", "bold", "italic", "bold-italic", "mono"}

func isFontSlot(name string) bool {
	for _, slot := range FontSlots {
		if slot == name {
			return true
		}
	}
	return false
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	var meta DocumentMeta
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			val := stmt.Assignment.Value
			switch strings.ToLower(stmt.Assignment.Key) {
			case "title":
				meta.Title = val.Text()
			case "author":
				meta.Author = val.Text()
			case "subject":
				meta.Subject = val.Text()
			case "creator":
				meta.Creator = val.Text()
			case "keywords":
				meta.Keywords = val.Strings()
			}
		}
	}
	return meta
}

func parseFontResource(cmd *dsl.Command) FontResource {
	if len(cmd.Args) == 0 {
		return FontResource{}
	}
	font := FontResource{Name: cmd.Args[0].Value}
	if cmd.Block == nil {
		return font
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		switch stmt.Assignment.Key {
		case "src":
			font.Src = stmt.Assignment.Value.Text()
		case "fallback":
			font.Fallback = stmt.Assignment.Value.Text()
		}
	}
	return font
}

func parseImageResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	if cmd.Block == nil {
		return name, ""
	}
	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment != nil && stmt.Assignment.Key == "src" {
			return name, stmt.Assignment.Value.Text()
		}
	}
	return name, ""
}

func resolvePageSize(spec dsl.PageSpec) (float64, float64, error) {
	base, ok := pagePresets[strings.ToUpper(spec.Size)]
	if !ok {
		return 0, 0, fmt.Errorf("暂不支持的纸张尺寸：%s", spec.Size)
	}
	width, height := base[0], base[1]
	for _, token := range spec.Params {
		if token.Value == "landscape" {
			width, height = height, width
		}
	}
	return width, height, nil
}

// resolveMargin 读取 margin 之后最多 4 个长度，按 CSS 的顺序展开。
func resolveMargin(params []*dsl.Lexeme) (Margin, error) {
	margin := DefaultConfig().Margin
	for i := 0; i < len(params); i++ {
		if params[i].Value != "margin" {
			continue
		}
		var vals []float64
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			if params[j].Type != "Number" {
				break
			}
			l, err := ParseLength(params[j].Value)
			if err != nil {
				return margin, err
			}
			vals = append(vals, l.ToMM())
			i = j
		}
		switch len(vals) {
		case 0:
			return margin, fmt.Errorf("margin 之后缺少长度")
		case 1:
			v := vals[0]
			margin = Margin{Top: v, Right: v, Bottom: v, Left: v}
		case 2:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
		case 3:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}
		case 4:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
		}
	}
	return margin, nil
}

func firstPage(doc *dsl.Document) *dsl.PageSection {
	for _, section := range doc.Sections {
		if section.Page != nil {
			return section.Page
		}
	}
	return nil
}

func parseColor(value string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	return Color{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, nil
}
