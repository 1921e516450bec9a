package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ByLCY/mdpress/binding"
	"github.com/ByLCY/mdpress/dsl"
	"github.com/ByLCY/mdpress/layout"
	"github.com/ByLCY/mdpress/markup"
	canvasrenderer "github.com/ByLCY/mdpress/renderer/canvas"
)

type options struct {
	input     string
	output    string
	config    string
	data      string
	debug     string
	resources string
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "in", "README.md", "markdown 文件路径")
	flag.StringVar(&opts.output, "out", "output/out.pdf", "PDF 输出路径")
	flag.StringVar(&opts.config, "config", "", "排版配置文件路径")
	flag.StringVar(&opts.data, "data", "", "绑定到正文的 JSON 数据，@path 表示从文件读取")
	flag.StringVar(&opts.debug, "debug", "", "布局调试 JSON 输出路径")
	flag.StringVar(&opts.resources, "resources", "", "图片与字体的相对路径根目录，默认为输入文件所在目录")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(opts, logger); err != nil {
		logger.Error("生成 PDF 失败", "err", err)
		os.Exit(1)
	}
	fmt.Printf("已生成 PDF：%s\n", opts.output)
}

// run 串联配置解析、分词、排版与渲染。
func run(opts options, logger *slog.Logger) error {
	settings := layout.DefaultSettings()
	if opts.config != "" {
		doc, err := dsl.ParseFile(opts.config)
		if err != nil {
			return err
		}
		if settings, err = layout.SettingsFromDSL(doc); err != nil {
			return fmt.Errorf("配置无效: %w", err)
		}
	}

	var data any
	if opts.data != "" {
		var err error
		if data, err = binding.LoadJSON(opts.data); err != nil {
			return err
		}
	}

	src, err := os.ReadFile(opts.input)
	if err != nil {
		return fmt.Errorf("无法打开 markdown 文件 %s: %w", opts.input, err)
	}
	events, err := markup.Tokenize(src, markup.Options{Data: data, Images: settings.Images, Logger: logger})
	if err != nil {
		return err
	}

	baseDir := opts.resources
	if baseDir == "" {
		baseDir = filepath.Dir(opts.input)
	}
	r, err := canvasrenderer.New(canvasrenderer.Options{
		BaseDir: baseDir,
		Config:  settings.Config,
		Fonts:   settings.Fonts,
		Palette: &settings.Colors,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("初始化渲染器失败: %w", err)
	}

	result, err := layout.Build(events, layout.BuildOptions{
		Config:  settings.Config,
		Metrics: r,
		Meta:    settings.Meta,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}
	for _, w := range result.Warnings {
		logger.Debug("排版警告", "warning", w)
	}

	if opts.debug != "" {
		if err := layout.WriteDebugJSON(result, opts.debug); err != nil {
			return err
		}
	}

	pdfBytes, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染 PDF 失败: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(opts.output, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	logger.Info("排版完成", "pages", len(result.Pages), "warnings", len(result.Warnings))
	return nil
}
