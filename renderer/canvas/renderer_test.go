package canvasrenderer

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ByLCY/mdpress/fonts"
	"github.com/ByLCY/mdpress/layout"
)

func newTestRenderer(t *testing.T, opts Options) *Renderer {
	t.Helper()
	r, err := New(opts)
	if err != nil {
		t.Fatalf("create renderer: %v", err)
	}
	return r
}

func TestMeasureTextFollowsStyle(t *testing.T) {
	r := newTestRenderer(t, Options{Config: layout.DefaultConfig()})

	bodyW, bodyH := r.MeasureText(0, "hello world")
	if bodyW <= 0 || bodyH <= 0 {
		t.Fatalf("invalid body metrics: %g x %g", bodyW, bodyH)
	}
	h1W, h1H := r.MeasureText(layout.NewStyle(layout.Heading(1)), "hello world")
	if h1W <= bodyW || h1H <= bodyH {
		t.Fatalf("heading should be larger: body=%gx%g h1=%gx%g", bodyW, bodyH, h1W, h1H)
	}

	code := layout.NewStyle(layout.Code)
	narrow, _ := r.MeasureText(code, "iiii")
	wide, _ := r.MeasureText(code, "MMMM")
	if math.Abs(narrow-wide) > 1e-9 {
		t.Fatalf("code face should be monospaced: %g vs %g", narrow, wide)
	}
	if w, _ := r.MeasureText(0, ""); w != 0 {
		t.Fatalf("empty text should have zero width, got %g", w)
	}
}

func TestSlotFor(t *testing.T) {
	cases := []struct {
		style layout.Style
		want  string
	}{
		{0, fonts.Regular},
		{layout.NewStyle(layout.Strong), fonts.Bold},
		{layout.NewStyle(layout.Emphasis), fonts.Italic},
		{layout.NewStyle(layout.Strong, layout.Emphasis), fonts.BoldItalic},
		{layout.NewStyle(layout.Heading(1)), fonts.Regular},
		{layout.NewStyle(layout.Heading(2), layout.Emphasis), fonts.Italic},
		{layout.NewStyle(layout.Heading(3), layout.Strong), fonts.Bold},
		{layout.NewStyle(layout.Code, layout.Strong), fonts.Mono},
		{layout.NewStyle(layout.Link, layout.BlockQuote(2)), fonts.Regular},
	}
	for _, c := range cases {
		if got := slotFor(c.style); got != c.want {
			t.Fatalf("slotFor(%s) = %s, want %s", c.style, got, c.want)
		}
	}
}

func TestFontFallbackToBuiltin(t *testing.T) {
	r := newTestRenderer(t, Options{
		Fonts: map[string]layout.FontResource{
			fonts.Bold: {Name: fonts.Bold, Src: "does-not-exist.ttf"},
		},
	})
	ref := newTestRenderer(t, Options{})
	style := layout.NewStyle(layout.Strong)
	got, _ := r.MeasureText(style, "fallback")
	want, _ := ref.MeasureText(style, "fallback")
	if got != want {
		t.Fatalf("missing font should fall back to builtin bold: got %g want %g", got, want)
	}
}

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("create png: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func TestImageSize(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 300, 600)
	r := newTestRenderer(t, Options{BaseDir: dir})

	w, h, err := r.ImageSize("a.png")
	if err != nil {
		t.Fatalf("image size: %v", err)
	}
	if math.Abs(w-25.4) > 1e-9 || math.Abs(h-50.8) > 1e-9 {
		t.Fatalf("expected 25.4x50.8mm at 300 DPI, got %gx%g", w, h)
	}

	for _, uri := range []string{"missing.png", "https://example.com/a.png", ""} {
		if _, _, err := r.ImageSize(uri); !errors.Is(err, layout.ErrResourceMissing) {
			t.Fatalf("ImageSize(%q) should wrap ErrResourceMissing, got %v", uri, err)
		}
	}
}

func TestRenderPDF(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "logo.png", 120, 60)
	cfg := layout.DefaultConfig()
	r := newTestRenderer(t, Options{BaseDir: dir, Config: cfg})

	events := []layout.Event{
		layout.AtomEvent(layout.TextAtom("Title", layout.NewStyle(layout.Heading(1)))),
		layout.BreakEvent(layout.BreakParagraph),
		layout.AtomEvent(layout.TextAtom("Body with ", 0)),
		layout.AtomEvent(layout.TextAtom("code", layout.NewStyle(layout.Code))),
		layout.AtomEvent(layout.TextAtom("1", layout.NewStyle(layout.Note, layout.Superscript))),
		layout.BreakEvent(layout.BreakRule),
		layout.AtomEvent(layout.ImageAtom("logo.png")),
		layout.EndEvent(layout.BlockImage),
		layout.AtomEvent(layout.ImageAtom("missing.png")),
		layout.EndEvent(layout.BlockImage),
		layout.BreakEvent(layout.BreakPage),
		layout.AtomEvent(layout.TextAtom("second page", 0)),
	}
	res, err := layout.Build(events, layout.BuildOptions{
		Config:  cfg,
		Metrics: r,
		Meta:    layout.DocumentMeta{Title: "测试", Keywords: []string{"a", "b"}},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(res.Pages))
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected one warning for the missing image, got %v", res.Warnings)
	}

	out, err := r.Render(res)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}

	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error for nil result")
	}
	if _, err := r.Render(&layout.Result{}); err == nil {
		t.Fatalf("expected error for result without pages")
	}
}

func TestConcurrentMeasure(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "a.png", 30, 30)
	r := newTestRenderer(t, Options{BaseDir: dir})
	want, _ := r.MeasureText(layout.NewStyle(layout.Strong), "concurrent")

	var wg sync.WaitGroup
	errs := make(chan string, 32)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got, _ := r.MeasureText(layout.NewStyle(layout.Strong), "concurrent"); got != want {
				errs <- "width mismatch"
			}
			if _, _, err := r.ImageSize("a.png"); err != nil {
				errs <- err.Error()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Fatalf("concurrent use failed: %s", e)
	}
}
