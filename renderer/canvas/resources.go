package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/canvas"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ByLCY/mdpress/fonts"
	"github.com/ByLCY/mdpress/layout"
)

type imageEntry struct {
	img image.Image
	err error
}

// family 返回字形对应的字体族；配置的字体无法加载时记录警告并回退到内置字体。
// 调用方需持有 fontMu。
func (r *Renderer) family(slot string) *canvas.FontFamily {
	if fam, ok := r.families[slot]; ok {
		return fam
	}
	fam := canvas.NewFontFamily("mdpress-" + slot)
	res, ok := r.fonts[slot]
	if ok && res.Src != "" {
		err := r.loadFont(fam, res.Src)
		if err != nil && res.Fallback != "" {
			err = r.loadFont(fam, res.Fallback)
		}
		if err == nil {
			r.families[slot] = fam
			return fam
		}
		r.logger.Warn("字体加载失败，使用内置字体", "font", slot, "src", res.Src, "err", err)
	}
	fam = r.builtin[slot]
	r.families[slot] = fam
	return fam
}

func (r *Renderer) loadFont(fam *canvas.FontFamily, src string) error {
	var (
		data []byte
		err  error
	)
	if fonts.IsBuiltin(src) {
		data, err = fonts.Load(src)
	} else {
		data, err = os.ReadFile(r.resolvePath(src))
	}
	if err != nil {
		return err
	}
	return fam.LoadFont(data, 0, canvas.FontRegular)
}

func loadBuiltin() (map[string]*canvas.FontFamily, error) {
	out := make(map[string]*canvas.FontFamily, len(layout.FontSlots))
	for _, slot := range layout.FontSlots {
		data, err := fonts.Load(slot)
		if err != nil {
			return nil, err
		}
		fam := canvas.NewFontFamily("mdpress-builtin-" + slot)
		if err := fam.LoadFont(data, 0, canvas.FontRegular); err != nil {
			return nil, fmt.Errorf("加载内置字体 %s 失败: %w", slot, err)
		}
		out[slot] = fam
	}
	return out, nil
}

// slotFor 按 Code > 粗斜体 > 粗体 > 斜体 > 常规 的顺序选择字形。
// 标题级别只影响字号，不参与字形选择。
func slotFor(style layout.Style) string {
	switch {
	case style.Has(layout.Code):
		return fonts.Mono
	case style.Has(layout.Strong) && style.Has(layout.Emphasis):
		return fonts.BoldItalic
	case style.Has(layout.Strong):
		return fonts.Bold
	case style.Has(layout.Emphasis):
		return fonts.Italic
	default:
		return fonts.Regular
	}
}

// image 读取并解码图片，结果（包括失败）按 uri 缓存。
func (r *Renderer) image(uri string) (image.Image, error) {
	r.imageMu.RLock()
	entry, ok := r.images[uri]
	r.imageMu.RUnlock()
	if ok {
		return entry.img, entry.err
	}

	img, err := r.decodeImage(uri)
	r.imageMu.Lock()
	if cached, ok := r.images[uri]; ok {
		r.imageMu.Unlock()
		return cached.img, cached.err
	}
	r.images[uri] = imageEntry{img: img, err: err}
	r.imageMu.Unlock()
	return img, err
}

func (r *Renderer) decodeImage(uri string) (image.Image, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: 图片地址为空", layout.ErrResourceMissing)
	}
	if strings.Contains(uri, "://") {
		return nil, fmt.Errorf("%w: 不支持远程图片 %s", layout.ErrResourceMissing, uri)
	}
	data, err := os.ReadFile(r.resolvePath(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: 读取图片 %s: %v", layout.ErrResourceMissing, uri, err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: 解码图片 %s: %v", layout.ErrResourceMissing, uri, err)
	}
	return img, nil
}

func (r *Renderer) resolvePath(path string) string {
	if r.baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.baseDir, path)
}
