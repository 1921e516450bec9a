package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// isPageBreak 识别 markdown 中常见的分页写法：
// <!-- pagebreak -->、<div style="page-break-after: always"></div> 以及 CSS3 的 break-before/after: page。
func isPageBreak(raw string) bool {
	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.CommentToken:
			c := strings.ToLower(strings.TrimSpace(string(z.Text())))
			if c == "pagebreak" || c == "page-break" || c == "newpage" {
				return true
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			_, more := z.TagName()
			for more {
				var key, val []byte
				key, val, more = z.TagAttr()
				if string(key) == "style" && hasBreakStyle(string(val)) {
					return true
				}
			}
		}
	}
}

func hasBreakStyle(style string) bool {
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(val))
		switch prop {
		case "page-break-after", "page-break-before":
			if val == "always" {
				return true
			}
		case "break-after", "break-before":
			if val == "page" {
				return true
			}
		}
	}
	return false
}
