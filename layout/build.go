package layout

import (
	"fmt"
	"log/slog"
)

// Build 依次执行测量、分行与分页，生成可以直接渲染的页面。
func Build(events []Event, opts BuildOptions) (*Result, error) {
	if opts.Metrics == nil {
		return nil, fmt.Errorf("layout: 缺少测量后端 Metrics")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config.withDefaults()
	if cfg.ColumnWidth() <= 0 {
		return nil, fmt.Errorf("页面宽度 %gmm 不足以容纳左右边距", cfg.PageWidth)
	}
	if cfg.PageHeight-cfg.Margin.Top <= cfg.Margin.Bottom {
		return nil, fmt.Errorf("页面高度 %gmm 不足以容纳上下边距", cfg.PageHeight)
	}

	sizer := NewSizer(events, opts.Metrics, logger)
	sectioner := NewSectioner(cfg, opts.Metrics)
	for {
		ev, ok := sizer.Next()
		if !ok {
			break
		}
		if err := sectioner.Push(ev); err != nil {
			return nil, fmt.Errorf("分行失败: %w", err)
		}
	}
	sections, err := sectioner.Finish()
	if err != nil {
		return nil, fmt.Errorf("分行失败: %w", err)
	}
	logger.Debug("分行完成", "sections", len(sections))

	paginator := NewPaginator(cfg, opts.Metrics)
	paginator.Render(sections, cfg.Margin.Left)
	pages := paginator.Pages()
	logger.Debug("分页完成", "pages", len(pages))

	meta := opts.Meta
	if meta.Creator == "" {
		meta.Creator = "mdpress"
	}
	res := &Result{Pages: pages, Meta: meta}
	for _, w := range sizer.Warnings() {
		res.Warnings = append(res.Warnings, w.Error())
	}
	return res, nil
}
